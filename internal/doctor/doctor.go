// Package doctor runs preflight checks for a themedeploy project.
package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mattjoyce/themedeploy/internal/backend"
	"github.com/mattjoyce/themedeploy/internal/config"
	"github.com/mattjoyce/themedeploy/internal/registry"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Backend  string  `json:"backend"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Pinger is the part of the registry doctor needs. Static registries have none.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Doctor validates a loaded config against the project on disk.
type Doctor struct {
	cfg      *config.Config
	registry Pinger
	locator  backend.Locator
	lookPath func(string) (string, error)
}

// New creates a Doctor. reg may be nil when the registry is static or could not be opened.
func New(cfg *config.Config, reg Pinger, locator backend.Locator) *Doctor {
	return &Doctor{cfg: cfg, registry: reg, locator: locator, lookPath: exec.LookPath}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate(ctx context.Context) *Result {
	r := &Result{Valid: true}

	d.validateProjectRoot(r)
	d.validateRegistry(ctx, r)
	d.validateBackend(r)
	d.validateAreas(r)
	d.validateLock(r)
	d.warnFastPathRoots(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateProjectRoot checks the project root is a directory.
func (d *Doctor) validateProjectRoot(r *Result) {
	info, err := os.Stat(d.cfg.ProjectRoot)
	if err != nil || !info.IsDir() {
		d.addError(r, "project", "project_root",
			fmt.Sprintf("project root %q is not a directory", d.cfg.ProjectRoot))
	}
}

// validateRegistry pings the database behind the theme registry.
func (d *Doctor) validateRegistry(ctx context.Context, r *Result) {
	if d.cfg.Registry.Driver == config.DriverStatic {
		if len(d.cfg.Registry.Parents) == 0 {
			d.addWarning(r, "registry", "registry.parents",
				"static registry has no parents; every theme resolves as its own root")
		}
		return
	}
	if d.registry == nil {
		d.addError(r, "registry", "registry.dsn",
			fmt.Sprintf("%s registry could not be opened", d.cfg.Registry.Driver))
		return
	}
	if err := d.registry.Ping(ctx); err != nil {
		d.addError(r, "registry", "registry.dsn", fmt.Sprintf("registry unreachable: %v", err))
	}
}

// validateBackend reports which backend a deploy would use and whether it can run.
func (d *Doctor) validateBackend(r *Result) {
	if d.cfg.Accelerator.Enabled {
		bin, err := d.locator.Find(d.cfg.Accelerator.Binary)
		if err == nil {
			r.Backend = "accelerated: " + bin
			return
		}
		if d.cfg.Accelerator.Binary != "" {
			d.addWarning(r, "backend", "accelerator.binary",
				fmt.Sprintf("configured binary %q is not executable", d.cfg.Accelerator.Binary))
		}
		if errors.Is(err, backend.ErrNotFound) {
			d.addWarning(r, "backend", "accelerator",
				"accelerated binary not found (tried "+strings.Join(d.binaryNames(), ", ")+"); native deploy will be used")
		}
	}

	native := d.cfg.Native.Command
	r.Backend = "native: " + strings.Join(native, " ")
	if _, err := d.lookPath(native[0]); err != nil {
		d.addError(r, "backend", "native.command",
			fmt.Sprintf("native command %q not found on PATH", native[0]))
	}
	if len(native) > 1 && !filepath.IsAbs(native[1]) {
		if _, err := os.Stat(filepath.Join(d.cfg.ProjectRoot, native[1])); err != nil {
			d.addError(r, "backend", "native.command",
				fmt.Sprintf("%s not found under project root", native[1]))
		}
	}
}

func (d *Doctor) binaryNames() []string {
	if len(d.cfg.Accelerator.Names) > 0 {
		return d.cfg.Accelerator.Names
	}
	return backend.DefaultBinaryNames
}

// validateAreas checks per-area overrides.
func (d *Doctor) validateAreas(r *Result) {
	for _, area := range []string{theme.AreaFrontend, theme.AreaAdminhtml} {
		ac := d.cfg.Area(area)
		valid := registry.FilterLocales(ac.Locales)
		if len(valid) != len(ac.Locales) {
			d.addError(r, "areas", fmt.Sprintf("areas.%s.locales", area),
				fmt.Sprintf("invalid or duplicate locale codes in %v", ac.Locales))
		}
		for i, t := range ac.Themes {
			if !strings.Contains(t, "/") {
				d.addError(r, "areas", fmt.Sprintf("areas.%s.themes[%d]", area, i),
					fmt.Sprintf("theme %q is not of the form Vendor/name", t))
			}
		}
	}
}

// validateLock checks that the lock directory exists or can be created.
func (d *Doctor) validateLock(r *Result) {
	if d.cfg.Lock.Path == "" {
		d.addWarning(r, "lock", "lock.path", "no lock path; concurrent deploys are not prevented")
		return
	}
	dir := filepath.Dir(d.cfg.Lock.Path)
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			d.addError(r, "lock", "lock.path", fmt.Sprintf("%s is not a directory", dir))
		}
		return
	}
	d.addWarning(r, "lock", "lock.path", fmt.Sprintf("lock directory %s does not exist yet and will be created", dir))
}

// warnFastPathRoots flags configurations that can never select the fast path.
func (d *Doctor) warnFastPathRoots(r *Result) {
	if len(d.cfg.FastPathRoots) == 0 {
		d.addWarning(r, "classify", "fast_path_roots",
			"no fast-path roots configured; every theme deploys as standard")
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Backend != "" {
		fmt.Fprintf(&b, "Backend: %s\n", r.Backend)
	}

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Project valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Project valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Project invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
