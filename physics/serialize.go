// Copyright © 2024 Galvanized Logic Inc.

package physics

import "gopkg.in/yaml.v3"

// currentSchemaVersion is bumped whenever BodyRecord gains a field
// that changes decode behavior for older documents; §6.5 requires
// forward compatibility, not a version bump for purely additive
// fields an old decoder would simply ignore.
const currentSchemaVersion uint16 = 1

// BodyRecord is the flat, versioned per-body record of §6.5: the only
// persisted state this package defines, since the engine itself is
// in-memory and persistence is otherwise the host's responsibility.
type BodyRecord struct {
	Version uint16 `yaml:"version"`

	ID   BodyID   `yaml:"id"`
	Kind BodyKind `yaml:"kind"`

	Position Vec `yaml:"position"`
	Rotation Rot `yaml:"rotation"`

	LinearVelocity  Vec `yaml:"linear_velocity"`
	AngularVelocity Vec `yaml:"angular_velocity"`

	Mass Scalar `yaml:"mass"`

	Restitution     Scalar `yaml:"restitution"`
	StaticFriction  Scalar `yaml:"static_friction"`
	DynamicFriction Scalar `yaml:"dynamic_friction"`

	Memberships uint32 `yaml:"memberships"`
	Filters     uint32 `yaml:"filters"`
}

// bodyRecordDocument is the on-disk envelope: a header plus the flat
// list. DecodeBodies reads the header and runs the best-effort upgrade
// path below on a document older than currentSchemaVersion; a newer
// document is decoded as is, with fields this decoder does not know
// ignored.
type bodyRecordDocument struct {
	SchemaVersion uint16       `yaml:"schema_version"`
	Bodies        []BodyRecord `yaml:"bodies"`
}

// RecordOf captures the persisted fields of a live body.
func RecordOf(b *Body) BodyRecord {
	return BodyRecord{
		Version:         currentSchemaVersion,
		ID:              b.ID,
		Kind:            b.Kind,
		Position:        b.Position,
		Rotation:        b.Rotation,
		LinearVelocity:  b.LinearVelocity,
		AngularVelocity: b.AngularVelocity,
		Mass:            b.Mass,
		Restitution:     b.Material.Restitution,
		StaticFriction:  b.Material.StaticFriction,
		DynamicFriction: b.Material.DynamicFriction,
		Memberships:     b.Memberships,
		Filters:         b.Filters,
	}
}

// EncodeBodies serializes records to YAML with a schema-version
// header.
func EncodeBodies(records []BodyRecord) ([]byte, error) {
	doc := bodyRecordDocument{SchemaVersion: currentSchemaVersion, Bodies: records}
	return yaml.Marshal(doc)
}

// DecodeBodies parses a YAML document produced by EncodeBodies.
// Unknown trailing fields are silently ignored by the YAML decoder
// (forward compatibility, §6.5); a SchemaVersion older than current
// runs upgradeRecord on every entry instead of failing the decode.
func DecodeBodies(data []byte) ([]BodyRecord, error) {
	var doc bodyRecordDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.SchemaVersion < currentSchemaVersion {
		for i := range doc.Bodies {
			doc.Bodies[i] = upgradeRecord(doc.Bodies[i], doc.SchemaVersion)
		}
	}
	return doc.Bodies, nil
}

// upgradeRecord is the single best-effort upgrade path §6.5 asks for
// instead of a hard decode error on an old document. Schema version 1
// is the only version that exists so far, so this is presently the
// identity transform; a future field addition documents its migration
// here rather than bumping currentSchemaVersion's decode behavior
// silently.
func upgradeRecord(r BodyRecord, _ uint16) BodyRecord {
	r.Version = currentSchemaVersion
	return r
}
