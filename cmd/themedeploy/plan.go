package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/themedeploy/internal/console"
	"github.com/mattjoyce/themedeploy/internal/dispatch"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	flags := &deployFlags{}
	var area, format string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the deployment order, families and commands without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := theme.ValidateArea(area); err != nil {
				return err
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cfg)

			ctx := cmd.Context()
			p, err := openProject(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = p.close() }()

			themes, err := p.activeThemes(ctx, area, flags.themes)
			if err != nil {
				return err
			}
			locales, err := p.activeLocales(ctx, area, flags.locales)
			if err != nil {
				return err
			}

			d := dispatch.New(p.classifier(), nil, nil)
			plan, err := d.Plan(ctx, p.deploymentSet(ctx, themes), locales, area, p.dispatchOptions(area))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				data, err := json.MarshalIndent(plan, "", "  ")
				if err != nil {
					return fmt.Errorf("render plan JSON: %w", err)
				}
				_, _ = fmt.Fprintln(out, string(data))
				return nil
			}
			printPlan(console.New(out), plan)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&area, "area", theme.AreaFrontend, "Area: frontend or adminhtml")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func printPlan(con *console.Console, plan *dispatch.Plan) {
	con.Plain("Area:        %s", plan.Area)
	con.Plain("Locales:     %s", strings.Join(plan.Locales, ", "))
	con.Plain("Backend:     %s", plan.Backend)
	con.Plain("Fingerprint: %s", plan.Fingerprint)
	for _, g := range plan.Groups {
		con.Info("[%s] %s", g.Family, strings.Join(g.Themes, ", "))
		con.Comment("    %s", g.Command)
	}
}
