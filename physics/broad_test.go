// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/galvanizedlogic/xpbd/math/lin"
)

func TestCollectIslandsMergesTouchingDynamicBodies(t *testing.T) {
	a := NewBody(Dynamic, 1)
	a.slot = 0
	b := NewBody(Dynamic, 1)
	b.slot = 1
	c := NewBody(Dynamic, 1)
	c.slot = 2
	bodies := []*Body{a, b, c}

	islands := collectIslands(bodies, []pairKey{{0, 1}}, nil)

	if len(islands) != 2 {
		t.Fatalf("islands = %d, want 2 (one merged pair, one singleton)", len(islands))
	}
	sizes := map[int]int{}
	for _, island := range islands {
		sizes[len(island)]++
	}
	if sizes[2] != 1 || sizes[1] != 1 {
		t.Errorf("island sizes = %v, want one island of 2 and one of 1", sizes)
	}
}

func TestCollectIslandsStaticBodyDoesNotBridgeIslands(t *testing.T) {
	floor := NewBody(Static, 0)
	floor.slot = 0
	a := NewBody(Dynamic, 1)
	a.slot = 1
	b := NewBody(Dynamic, 1)
	b.slot = 2
	bodies := []*Body{floor, a, b}

	islands := collectIslands(bodies, []pairKey{{0, 1}, {0, 2}}, nil)

	if len(islands) != 2 {
		t.Fatalf("islands = %d, want 2 (static floor must not merge the two stacks)", len(islands))
	}
}

func TestCollectIslandsMergesAcrossJoints(t *testing.T) {
	a := NewBody(Dynamic, 1)
	a.slot = 0
	b := NewBody(Dynamic, 1)
	b.slot = 1
	j := NewDistanceJoint(a, b, lin.V3{}, lin.V3{}, 1, 0)
	j.slotA, j.slotB = 0, 1

	islands := collectIslands([]*Body{a, b}, nil, []Joint{j})

	if len(islands) != 1 || len(islands[0]) != 2 {
		t.Fatalf("islands = %v, want one island containing both jointed bodies", islands)
	}
}
