package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/themedeploy/internal/backend"
	"github.com/mattjoyce/themedeploy/internal/config"
	"github.com/mattjoyce/themedeploy/internal/console"
	"github.com/mattjoyce/themedeploy/internal/dispatch"
	"github.com/mattjoyce/themedeploy/internal/lock"
	"github.com/mattjoyce/themedeploy/internal/log"
)

// deployFlags are shared by the area deploy commands and plan.
type deployFlags struct {
	noAccelerate bool
	binary       string
	themes       []string
	locales      []string
}

func (f *deployFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noAccelerate, "no-accelerate", false, "Disable the accelerated binary and use the native deploy")
	cmd.Flags().StringVar(&f.binary, "binary", "", "Path to the accelerated static-deploy binary")
	cmd.Flags().StringSliceVar(&f.themes, "theme", nil, "Theme to deploy (repeatable); default is the active themes")
	cmd.Flags().StringSliceVar(&f.locales, "locale", nil, "Locale to deploy (repeatable); default is the active locales")
}

func (f *deployFlags) apply(cfg *config.Config) {
	if f.noAccelerate {
		cfg.Accelerator.Enabled = false
	}
	if f.binary != "" {
		cfg.Accelerator.Binary = f.binary
	}
}

func newDeployCmd(opts *rootOptions, area, use, short string) *cobra.Command {
	flags := &deployFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), opts, flags, area)
		},
	}
	flags.register(cmd)
	return cmd
}

// runDeploy resolves, classifies and dispatches one area. A failed deployment returns
// a SilentExitError since the narration already explained it.
func runDeploy(ctx context.Context, opts *rootOptions, flags *deployFlags, area string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	flags.apply(cfg)

	if cfg.Lock.Path != "" {
		l, err := lock.AcquirePIDLock(cfg.Lock.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := l.Release(); err != nil {
				log.Warn("failed to release deploy lock", "path", l.Path(), "error", err)
			}
		}()
	}

	p, err := openProject(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.close() }()

	con := console.New(opts.stdout)

	themes, err := p.activeThemes(ctx, area, flags.themes)
	if err != nil {
		return err
	}
	locales, err := p.activeLocales(ctx, area, flags.locales)
	if err != nil {
		return err
	}

	set := p.deploymentSet(ctx, themes)
	runner := backend.NewProcessRunner(cfg.Deploy.Timeout, con.Writer(), opts.stderr)
	d := dispatch.New(p.classifier(), runner, con)

	started := time.Now()
	res := d.Dispatch(ctx, set, locales, area, p.dispatchOptions(area))
	recordRun(ctx, cfg, area, started, res)
	if res.Err != nil {
		if errors.Is(res.Err, dispatch.ErrNothingToDeploy) {
			return &SilentExitError{Code: 1}
		}
		return res.Err
	}
	if !res.OK() {
		con.Error("Deployment failed for %d of %d group(s)", len(res.Failed()), len(res.Families))
		return &SilentExitError{Code: 1}
	}
	con.Info("Static content deployed for %s (%s)", area, res.Fingerprint)
	return nil
}
