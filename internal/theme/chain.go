package theme

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/themedeploy/internal/log"
)

// Chain is a theme followed by its ancestors. Index 0 is the theme itself and the last
// entry is the furthest ancestor that could be resolved.
type Chain []string

// Theme returns the theme the chain was resolved for.
func (c Chain) Theme() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Root returns the furthest resolved ancestor.
func (c Chain) Root() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

// Resolver walks themes up to their root ancestor.
type Resolver struct {
	registry Registry
	maxDepth int
	logger   *slog.Logger
}

// NewResolver creates a Resolver. A maxDepth below 1 selects DefaultMaxDepth.
func NewResolver(reg Registry, maxDepth int) *Resolver {
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{
		registry: reg,
		maxDepth: maxDepth,
		logger:   log.WithComponent("resolver"),
	}
}

// MaxDepth reports the walk ceiling in use.
func (r *Resolver) MaxDepth() int { return r.maxDepth }

// ResolveChain returns id followed by its ancestors. The chain always holds at least
// id. Lookup failures and the depth ceiling truncate the chain without an error.
func (r *Resolver) ResolveChain(ctx context.Context, id string) Chain {
	res := walk(ctx, r.registry, id, r.maxDepth, func(string) bool { return true })

	switch res.end {
	case endFailed:
		r.logger.Warn("parent lookup failed, chain truncated", "theme", id, "chain", res.visited, "error", res.err)
	case endDepth, endRepeat:
		r.logger.Warn("chain truncated", "theme", id, "reason", res.end.String(), "chain", res.visited)
	default:
		r.logger.Debug("chain resolved", "theme", id, "chain", res.visited)
	}
	return Chain(res.visited)
}

// ResolveAll resolves a chain for every id, in the order given.
func (r *Resolver) ResolveAll(ctx context.Context, ids []string) []Chain {
	chains := make([]Chain, 0, len(ids))
	for _, id := range ids {
		chains = append(chains, r.ResolveChain(ctx, id))
	}
	return chains
}
