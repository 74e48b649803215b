package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Registry drivers accepted by validation.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverStatic = "static"
)

// envOverrides are applied on top of the file. Unset variables leave the file value.
type envOverrides struct {
	ProjectRoot    string `env:"THEMEDEPLOY_PROJECT_ROOT"`
	RegistryDriver string `env:"THEMEDEPLOY_REGISTRY_DRIVER"`
	RegistryDSN    string `env:"THEMEDEPLOY_REGISTRY_DSN"`
	Binary         string `env:"THEMEDEPLOY_BINARY"`
	LogLevel       string `env:"THEMEDEPLOY_LOG_LEVEL"`
	NoAccelerate   bool   `env:"THEMEDEPLOY_NO_ACCELERATE"`
}

// Load reads configuration from configPath over the defaults, applies environment
// overrides and validates the result. An empty configPath loads defaults only.
func Load(configPath string) (*Config, error) {
	return LoadWithEnv(configPath, nil)
}

// LoadWithEnv is Load with an explicit environment for overrides; nil uses the process
// environment.
func LoadWithEnv(configPath string, environ map[string]string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", absPath)
		}

		// Apply environment variable interpolation
		interpolated := interpolateEnv(string(data), environ)
		if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", absPath, err)
		}
		cfg.SourceFile = absPath
	}

	if err := applyEnvOverrides(cfg, environ); err != nil {
		return nil, err
	}

	if err := resolvePaths(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse environment overrides: %w", err)
	}

	if o.ProjectRoot != "" {
		cfg.ProjectRoot = o.ProjectRoot
	}
	if o.RegistryDriver != "" {
		cfg.Registry.Driver = o.RegistryDriver
	}
	if o.RegistryDSN != "" {
		cfg.Registry.DSN = o.RegistryDSN
	}
	if o.Binary != "" {
		cfg.Accelerator.Binary = o.Binary
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.NoAccelerate {
		cfg.Accelerator.Enabled = false
	}
	return nil
}

// resolvePaths makes the project root absolute and anchors the lock and history paths to it.
func resolvePaths(cfg *Config) error {
	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve project_root %q: %w", cfg.ProjectRoot, err)
	}
	cfg.ProjectRoot = root

	for _, p := range cfg.projectPaths() {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
	return nil
}

func (c *Config) projectPaths() []*string {
	return []*string{&c.Lock.Path, &c.History.Path}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string, environ map[string]string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]

		if environ != nil {
			if value, ok := environ[varName]; ok {
				return value
			}
			return match
		}
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}

		// If not found, leave the placeholder (will fail validation if required)
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error (got %q)", cfg.LogLevel)
	}

	switch cfg.Registry.Driver {
	case DriverMySQL, DriverSQLite:
		if cfg.Registry.DSN == "" {
			return fmt.Errorf("registry.dsn is required for driver %q", cfg.Registry.Driver)
		}
		if envVarPattern.MatchString(cfg.Registry.DSN) {
			matches := envVarPattern.FindStringSubmatch(cfg.Registry.DSN)
			return fmt.Errorf("registry.dsn: environment variable ${%s} is not set", matches[1])
		}
	case DriverStatic:
	default:
		return fmt.Errorf("registry.driver must be one of: mysql, sqlite, static (got %q)", cfg.Registry.Driver)
	}
	if cfg.Registry.Timeout < 0 {
		return fmt.Errorf("registry.timeout must not be negative")
	}

	if cfg.Resolver.MaxDepth < 1 {
		return fmt.Errorf("resolver.max_depth must be positive (got %d)", cfg.Resolver.MaxDepth)
	}

	if cfg.Deploy.Timeout <= 0 {
		return fmt.Errorf("deploy.timeout must be positive")
	}
	if cfg.Deploy.Jobs < 0 {
		return fmt.Errorf("deploy.jobs must not be negative")
	}

	if len(cfg.Native.Command) == 0 || cfg.Native.Command[0] == "" {
		return fmt.Errorf("native.command is required")
	}

	for i, root := range cfg.FastPathRoots {
		if root == "" {
			return fmt.Errorf("fast_path_roots[%d] is empty", i)
		}
	}

	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Rebase moves the project root. Lock and history paths under the old root follow it.
func (c *Config) Rebase(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve project root %q: %w", root, err)
	}
	for _, p := range c.projectPaths() {
		if *p == "" {
			continue
		}
		if rel, err := filepath.Rel(c.ProjectRoot, *p); err == nil && !strings.HasPrefix(rel, "..") {
			*p = filepath.Join(abs, rel)
		}
	}
	c.ProjectRoot = abs
	return nil
}
