// Copyright © 2024 Galvanized Logic Inc.

package physics

// broad.go groups bodies into simulation islands via union-find: two
// dynamic bodies that share a contact pair or a joint end up in the
// same island, and sleeping is an island-level decision (§4.5) — a
// body can't go to sleep while something it's touching or jointed to
// is still moving.

// ufFind follows parent pointers to the representative slot of x's set.
func ufFind(parent []int, x int) int {
	for parent[x] != x {
		parent[x] = parent[parent[x]] // path halving.
		x = parent[x]
	}
	return x
}

// ufUnion merges the sets containing x and y.
func ufUnion(parent []int, x, y int) {
	rx, ry := ufFind(parent, x), ufFind(parent, y)
	if rx != ry {
		parent[rx] = ry
	}
}

// collectIslands partitions dynamic bodies into islands connected by
// contact pairs and joints. Static and kinematic bodies never merge
// islands together (a heavy static floor touching two independent
// stacks must not treat them as one island).
func collectIslands(bodies []*Body, pairs []pairKey, joints []Joint) [][]int {
	parent := make([]int, len(bodies))
	for i := range parent {
		parent[i] = i
	}

	union := func(i, j int) {
		if bodies[i].Kind == Dynamic && bodies[j].Kind == Dynamic {
			ufUnion(parent, i, j)
		}
	}
	for _, p := range pairs {
		union(p.a, p.b)
	}
	for _, j := range joints {
		sa, sb := j.bodyASlot(), j.bodyBSlot()
		if sa >= 0 && sb >= 0 {
			union(sa, sb)
		}
	}

	islandOf := map[int]int{}
	var islands [][]int
	for i, b := range bodies {
		if b.Kind != Dynamic {
			continue
		}
		root := ufFind(parent, i)
		idx, ok := islandOf[root]
		if !ok {
			idx = len(islands)
			islands = append(islands, nil)
			islandOf[root] = idx
		}
		islands[idx] = append(islands[idx], i)
	}
	return islands
}
