package theme

import "fmt"

// Area codes understood by the deploy commands.
const (
	AreaFrontend  = "frontend"
	AreaAdminhtml = "adminhtml"
)

// ValidateArea rejects anything other than the two deployable areas.
func ValidateArea(area string) error {
	switch area {
	case AreaFrontend, AreaAdminhtml:
		return nil
	default:
		return fmt.Errorf("unknown area %q (want %s or %s)", area, AreaFrontend, AreaAdminhtml)
	}
}
