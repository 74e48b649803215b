package config

import (
	"runtime"
	"time"

	"github.com/mattjoyce/themedeploy/internal/backend"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

// Config represents the complete themedeploy configuration.
type Config struct {
	ProjectRoot   string            `yaml:"project_root"`
	LogLevel      string            `yaml:"log_level"`
	Registry      RegistryConfig    `yaml:"registry"`
	Resolver      ResolverConfig    `yaml:"resolver"`
	FastPathRoots []string          `yaml:"fast_path_roots"`
	Accelerator   AcceleratorConfig `yaml:"accelerator"`
	Native        NativeConfig      `yaml:"native"`
	Deploy        DeployConfig      `yaml:"deploy"`
	Areas         AreasConfig       `yaml:"areas"`
	Lock          LockConfig        `yaml:"lock"`
	History       HistoryConfig     `yaml:"history"`

	// SourceFile is the file the config was loaded from, empty for pure defaults.
	SourceFile string `yaml:"-"`
}

// RegistryConfig selects where theme inheritance is read from.
type RegistryConfig struct {
	// Driver is mysql, sqlite or static.
	Driver      string        `yaml:"driver"`
	DSN         string        `yaml:"dsn"`
	TablePrefix string        `yaml:"table_prefix,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	// Parents is the child -> parent map used by the static driver.
	Parents map[string]string `yaml:"parents,omitempty"`
}

// ResolverConfig bounds inheritance walks.
type ResolverConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// AcceleratorConfig configures the external static-deploy binary.
type AcceleratorConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Binary       string   `yaml:"binary,omitempty"`
	Names        []string `yaml:"names"`
	FastPathFlag string   `yaml:"fast_path_flag"`
}

// NativeConfig configures the framework's own deploy command.
type NativeConfig struct {
	Command []string `yaml:"command"`
}

// DeployConfig holds per-invocation settings shared by both backends.
type DeployConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	Jobs     int           `yaml:"jobs"`
	Force    bool          `yaml:"force"`
	Parallel bool          `yaml:"parallel"`
}

// AreaConfig holds area specific overrides.
type AreaConfig struct {
	// Strategy is passed to the native backend, e.g. "quick".
	Strategy string `yaml:"strategy,omitempty"`
	// Themes and Locales replace registry discovery when non-empty.
	Themes  []string `yaml:"themes,omitempty"`
	Locales []string `yaml:"locales,omitempty"`
}

// AreasConfig holds one AreaConfig per deployable area.
type AreasConfig struct {
	Frontend  AreaConfig `yaml:"frontend"`
	Adminhtml AreaConfig `yaml:"adminhtml"`
}

// LockConfig defines the single-instance deploy lock.
type LockConfig struct {
	// Path is relative to the project root unless absolute.
	Path string `yaml:"path"`
}

// HistoryConfig locates the deploy run history database.
type HistoryConfig struct {
	// Path is relative to the project root unless absolute. Empty disables history.
	Path string `yaml:"path"`
}

// Area returns the settings for an area code.
func (c *Config) Area(code string) AreaConfig {
	if code == theme.AreaAdminhtml {
		return c.Areas.Adminhtml
	}
	return c.Areas.Frontend
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		ProjectRoot: ".",
		LogLevel:    "info",
		Registry: RegistryConfig{
			Driver:  "mysql",
			Timeout: 5 * time.Second,
		},
		Resolver: ResolverConfig{
			MaxDepth: theme.DefaultMaxDepth,
		},
		FastPathRoots: append([]string{}, theme.DefaultFastPathRoots...),
		Accelerator: AcceleratorConfig{
			Enabled:      true,
			Names:        append([]string{}, backend.DefaultBinaryNames...),
			FastPathFlag: backend.DefaultFastPathFlag,
		},
		Native: NativeConfig{
			Command: append([]string{}, backend.DefaultNativeCommand...),
		},
		Deploy: DeployConfig{
			Timeout: backend.DefaultTimeout,
			Jobs:    runtime.NumCPU(),
			Force:   true,
		},
		Areas: AreasConfig{
			Frontend: AreaConfig{Strategy: "quick"},
		},
		Lock: LockConfig{
			Path: "var/themedeploy.lock",
		},
		History: HistoryConfig{
			Path: "var/themedeploy-history.db",
		},
	}
}
