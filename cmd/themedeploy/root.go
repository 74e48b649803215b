package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/themedeploy/internal/config"
	"github.com/mattjoyce/themedeploy/internal/log"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	projectRoot string
	logLevel    string

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:           "themedeploy",
		Short:         "Deploy theme static content in dependency order",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to themedeploy.yaml")
	cmd.PersistentFlags().StringVar(&opts.projectRoot, "project-root", "", "Project root (default from config, else current directory)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newDeployCmd(opts, theme.AreaAdminhtml, "backend", "Deploy static content for the admin area"),
		newDeployCmd(opts, theme.AreaFrontend, "frontend", "Deploy static content for the storefront"),
		newThemesCmd(opts),
		newLocalesCmd(opts),
		newPlanCmd(opts),
		newDoctorCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig discovers and loads configuration, then applies persistent flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path, err := config.Discover(o.configPath, o.projectRoot)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.projectRoot != "" {
		if err := cfg.Rebase(o.projectRoot); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	log.Setup(cfg.LogLevel)
	log.Debug("configuration loaded", "source", cfg.SourceFile, "project_root", cfg.ProjectRoot)
	return cfg, nil
}
