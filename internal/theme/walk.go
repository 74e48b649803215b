package theme

import (
	"context"
	"slices"
)

// DefaultMaxDepth caps how many themes a single walk may collect, the starting theme
// included.
const DefaultMaxDepth = 10

type stepOutcome int

const (
	stepParent stepOutcome = iota
	stepRoot
	stepFailed
)

// step is the result of one registry lookup.
type step struct {
	outcome stepOutcome
	parent  string
	err     error
}

func lookup(ctx context.Context, reg Registry, id string) step {
	parent, ok, err := reg.LookupParent(ctx, id)
	switch {
	case err != nil:
		return step{outcome: stepFailed, err: err}
	case !ok || parent == "":
		return step{outcome: stepRoot}
	default:
		return step{outcome: stepParent, parent: parent}
	}
}

// walkEnd records why a walk stopped.
type walkEnd int

const (
	endStopped walkEnd = iota // visitor asked to stop
	endRoot
	endFailed
	endRepeat
	endDepth
)

func (e walkEnd) String() string {
	switch e {
	case endStopped:
		return "stopped"
	case endRoot:
		return "root"
	case endFailed:
		return "lookup_failed"
	case endRepeat:
		return "repeat"
	case endDepth:
		return "max_depth"
	default:
		return "unknown"
	}
}

// walkResult is what a bounded walk collected and why it ended.
type walkResult struct {
	visited []string
	end     walkEnd
	err     error
}

// walk visits id and then its ancestors, nearest first. It stops when visit returns
// false, at a root, on a failed lookup, when an id repeats, or once maxDepth ids have
// been visited. A failed lookup is reported in the result, never returned.
func walk(ctx context.Context, reg Registry, id string, maxDepth int, visit func(id string) bool) walkResult {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}

	res := walkResult{visited: []string{id}}
	if !visit(id) {
		res.end = endStopped
		return res
	}

	current := id
	for {
		if len(res.visited) >= maxDepth {
			res.end = endDepth
			return res
		}

		st := lookup(ctx, reg, current)
		switch st.outcome {
		case stepParent:
			if slices.Contains(res.visited, st.parent) {
				res.end = endRepeat
				return res
			}
			res.visited = append(res.visited, st.parent)
			if !visit(st.parent) {
				res.end = endStopped
				return res
			}
			current = st.parent
		case stepRoot:
			res.end = endRoot
			return res
		default:
			// Fail-safe: treat the theme as having no further parent.
			res.end = endFailed
			res.err = st.err
			return res
		}
	}
}
