package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/themedeploy/internal/doctor"
	"github.com/mattjoyce/themedeploy/internal/log"
)

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, registry and backends before deploying",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var pinger doctor.Pinger
			p, err := openProject(ctx, cfg)
			if err != nil {
				log.Warn("registry open failed", "error", err)
			} else {
				defer func() { _ = p.close() }()
				if p.sql != nil {
					pinger = p.sql
				}
			}

			r := doctor.New(cfg, pinger, backendLocator(cfg)).Validate(ctx)

			out := cmd.OutOrStdout()
			if jsonOut {
				s, err := doctor.FormatJSON(r)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, s)
			} else {
				_, _ = fmt.Fprint(out, doctor.FormatHuman(r))
			}
			if !r.Valid {
				return &SilentExitError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the report as JSON")
	return cmd
}
