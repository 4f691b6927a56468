// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

func TestRecordOfCapturesLiveBodyState(t *testing.T) {
	b := NewBody(Dynamic, 2)
	b.Position = lin.V3{X: 1, Y: 2, Z: 3}
	b.Material.Restitution = 0.5

	rec := RecordOf(b)
	if rec.ID != b.ID {
		t.Error("RecordOf should capture the body's id")
	}
	if rec.Position != b.Position {
		t.Errorf("RecordOf.Position = %v, want %v", rec.Position, b.Position)
	}
	if rec.Restitution != 0.5 {
		t.Errorf("RecordOf.Restitution = %v, want 0.5", rec.Restitution)
	}
	if rec.Version != currentSchemaVersion {
		t.Errorf("RecordOf.Version = %v, want %v", rec.Version, currentSchemaVersion)
	}
}

func TestEncodeDecodeBodiesRoundTrip(t *testing.T) {
	b := NewBody(Dynamic, 2)
	b.Position = lin.V3{X: 1, Y: 2, Z: 3}
	records := []BodyRecord{RecordOf(b)}

	data, err := EncodeBodies(records)
	if err != nil {
		t.Fatalf("EncodeBodies failed: %v", err)
	}

	got, err := DecodeBodies(data)
	if err != nil {
		t.Fatalf("DecodeBodies failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("decoded %d records, want 1", len(got))
	}
	if got[0].ID != b.ID {
		t.Errorf("decoded ID = %v, want %v", got[0].ID, b.ID)
	}
	if got[0].Position != b.Position {
		t.Errorf("decoded Position = %v, want %v", got[0].Position, b.Position)
	}
}

func TestDecodeBodiesUpgradesOlderSchema(t *testing.T) {
	data := []byte("schema_version: 0\nbodies:\n  - version: 0\n    kind: 0\n    mass: 1\n")
	got, err := DecodeBodies(data)
	if err != nil {
		t.Fatalf("DecodeBodies failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("decoded %d records, want 1", len(got))
	}
	if got[0].Version != currentSchemaVersion {
		t.Errorf("upgraded record version = %v, want %v", got[0].Version, currentSchemaVersion)
	}
}
