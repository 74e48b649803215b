package theme

import "context"

//go:generate mockgen -destination=mocks/mock_registry.go -package=mocks github.com/mattjoyce/themedeploy/internal/theme Registry

// Registry answers parent lookups for theme identifiers.
// Implementations must be idempotent and free of side effects.
type Registry interface {
	// LookupParent returns the parent of id. ok is false when id is a root or is not
	// recorded at all.
	LookupParent(ctx context.Context, id string) (parent string, ok bool, err error)
}

// StaticRegistry is a Registry backed by a child -> parent map.
// Themes absent from the map, or mapped to "", are roots.
type StaticRegistry map[string]string

// LookupParent implements Registry.
func (s StaticRegistry) LookupParent(_ context.Context, id string) (string, bool, error) {
	parent, ok := s[id]
	if !ok || parent == "" {
		return "", false, nil
	}
	return parent, true, nil
}
