package theme

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/themedeploy/internal/log"
)

// Family is the deployment family a theme belongs to.
type Family string

const (
	// FamilyFastPath themes descend from a fast-path root and skip the full framework dispatch.
	FamilyFastPath Family = "fast-path"
	// FamilyStandard themes are deployed through the full dispatch.
	FamilyStandard Family = "standard"
)

// DefaultFastPathRoots are the Hyvä parent themes.
var DefaultFastPathRoots = []string{
	"Hyva/default",
	"Hyva/reset",
	"Hyva/default-csp",
	"Hyva/commerce",
}

// Classifier tags themes with their deployment family.
type Classifier struct {
	registry Registry
	roots    map[string]struct{}
	maxDepth int
	logger   *slog.Logger
}

// NewClassifier creates a Classifier for the given fast-path roots.
func NewClassifier(reg Registry, roots []string, maxDepth int) *Classifier {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	set := make(map[string]struct{}, len(roots))
	for _, r := range roots {
		set[r] = struct{}{}
	}
	return &Classifier{
		registry: reg,
		roots:    set,
		maxDepth: maxDepth,
		logger:   log.WithComponent("classifier"),
	}
}

// IsRoot reports whether id is itself a configured fast-path root.
func (c *Classifier) IsRoot(id string) bool {
	_, ok := c.roots[id]
	return ok
}

// Classify returns FamilyFastPath when id or one of its ancestors is a fast-path root.
// A registry failure before a root is found yields FamilyStandard.
func (c *Classifier) Classify(ctx context.Context, id string) Family {
	found := false
	res := walk(ctx, c.registry, id, c.maxDepth, func(v string) bool {
		if c.IsRoot(v) {
			found = true
			return false
		}
		return true
	})

	if found {
		return FamilyFastPath
	}
	if res.end == endFailed {
		c.logger.Warn("ancestry check failed, assuming standard", "theme", id, "error", res.err)
	}
	return FamilyStandard
}
