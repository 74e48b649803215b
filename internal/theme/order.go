package theme

import "slices"

// DeploymentSet is a deduplicated deployment order where ancestors come first.
type DeploymentSet []string

// Depths maps each theme in chains to its depth from the root of the chain it appears
// in. A theme seen in several chains keeps the largest depth observed.
func Depths(chains []Chain) map[string]int {
	depths := make(map[string]int)
	for _, chain := range chains {
		n := len(chain)
		for i, id := range chain {
			depth := n - 1 - i
			if cur, ok := depths[id]; !ok || depth > cur {
				depths[id] = depth
			}
		}
	}
	return depths
}

// Order merges chains into a single DeploymentSet sorted by ascending depth.
// Themes at equal depth keep the order in which they were first seen.
//
// Depth only guarantees parents first within chains the resolver did not truncate.
// When two overlapping chains both hit the depth ceiling, a theme can share a depth
// with its own ancestor, and first-seen order then decides between them.
func Order(chains []Chain) DeploymentSet {
	depths := Depths(chains)

	seen := make(map[string]bool, len(depths))
	set := make(DeploymentSet, 0, len(depths))
	for _, chain := range chains {
		for _, id := range chain {
			if !seen[id] {
				seen[id] = true
				set = append(set, id)
			}
		}
	}

	slices.SortStableFunc(set, func(a, b string) int {
		return depths[a] - depths[b]
	})
	return set
}
