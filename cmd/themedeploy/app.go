package main

import (
	"context"
	"fmt"

	"github.com/mattjoyce/themedeploy/internal/backend"
	"github.com/mattjoyce/themedeploy/internal/config"
	"github.com/mattjoyce/themedeploy/internal/dispatch"
	"github.com/mattjoyce/themedeploy/internal/registry"
	"github.com/mattjoyce/themedeploy/internal/storage"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

// activeSource discovers which themes and locales are in use for an area.
type activeSource interface {
	ActiveThemes(ctx context.Context, area string) ([]string, error)
	ActiveLocales(ctx context.Context, area string) ([]string, error)
}

// project bundles the registry handles a command works against.
type project struct {
	cfg      *config.Config
	registry theme.Registry
	sql      *registry.SQLRegistry
	close    func() error
}

// openProject opens the configured registry. Callers must call close.
func openProject(ctx context.Context, cfg *config.Config) (*project, error) {
	p := &project{cfg: cfg, close: func() error { return nil }}

	if cfg.Registry.Driver == config.DriverStatic {
		p.registry = theme.StaticRegistry(cfg.Registry.Parents)
		return p, nil
	}

	db, err := storage.Open(ctx, cfg.Registry.Driver, cfg.Registry.DSN, cfg.Registry.TablePrefix, cfg.Registry.Timeout)
	if err != nil {
		return nil, fmt.Errorf("open %s registry: %w", cfg.Registry.Driver, err)
	}
	p.sql = registry.New(db, cfg.Registry.TablePrefix)
	p.registry = p.sql
	p.close = db.Close
	return p, nil
}

func (p *project) source() activeSource {
	if p.sql == nil {
		return nil
	}
	return p.sql
}

// activeThemes returns the themes to deploy for area. Precedence: explicit flag values,
// configured area themes, registry discovery.
func (p *project) activeThemes(ctx context.Context, area string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if themes := p.cfg.Area(area).Themes; len(themes) > 0 {
		return themes, nil
	}
	src := p.source()
	if src == nil {
		return nil, nil
	}
	return src.ActiveThemes(ctx, area)
}

// activeLocales mirrors activeThemes for locale codes. Explicit and configured values
// are filtered the same way discovered ones are.
func (p *project) activeLocales(ctx context.Context, area string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return registry.FilterLocales(explicit), nil
	}
	if locales := p.cfg.Area(area).Locales; len(locales) > 0 {
		return registry.FilterLocales(locales), nil
	}
	src := p.source()
	if src == nil {
		return nil, nil
	}
	return src.ActiveLocales(ctx, area)
}

// deploymentSet resolves every chain and merges them into dependency order.
func (p *project) deploymentSet(ctx context.Context, themes []string) theme.DeploymentSet {
	resolver := theme.NewResolver(p.registry, p.cfg.Resolver.MaxDepth)
	return theme.Order(resolver.ResolveAll(ctx, themes))
}

func (p *project) classifier() *theme.Classifier {
	return theme.NewClassifier(p.registry, p.cfg.FastPathRoots, p.cfg.Resolver.MaxDepth)
}

func backendLocator(cfg *config.Config) backend.Locator {
	return backend.Locator{ProjectRoot: cfg.ProjectRoot, Names: cfg.Accelerator.Names}
}

func (p *project) dispatchOptions(area string) dispatch.Options {
	cfg := p.cfg
	return dispatch.Options{
		Accelerate:   cfg.Accelerator.Enabled,
		Binary:       cfg.Accelerator.Binary,
		Locator:      backendLocator(cfg),
		ProjectRoot:  cfg.ProjectRoot,
		FastPathFlag: cfg.Accelerator.FastPathFlag,
		NativeCLI:    cfg.Native.Command,
		Jobs:         cfg.Deploy.Jobs,
		Force:        cfg.Deploy.Force,
		Strategy:     cfg.Area(area).Strategy,
		Parallel:     cfg.Deploy.Parallel,
	}
}
