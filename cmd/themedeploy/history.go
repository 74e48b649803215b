package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/themedeploy/internal/config"
	"github.com/mattjoyce/themedeploy/internal/console"
	"github.com/mattjoyce/themedeploy/internal/dispatch"
	"github.com/mattjoyce/themedeploy/internal/log"
	"github.com/mattjoyce/themedeploy/internal/state"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

// historyWriteTimeout bounds recording once the deploy context may already be cancelled.
const historyWriteTimeout = 5 * time.Second

// recordRun stores a finished dispatch. History is advisory, so failures are logged only.
// Interrupted runs are recorded too: the write detaches from ctx cancellation.
func recordRun(ctx context.Context, cfg *config.Config, area string, started time.Time, res dispatch.Result) {
	if cfg.History.Path == "" || res.RunID == "" {
		return
	}
	logger := log.WithRun(res.RunID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	store, err := state.Open(ctx, cfg.History.Path)
	if err != nil {
		logger.Warn("open deploy history failed", "path", cfg.History.Path, "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	run := state.Run{
		ID:          res.RunID,
		Area:        area,
		Fingerprint: res.Fingerprint,
		OK:          res.OK(),
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	for _, f := range res.Families {
		run.Backend = f.Backend
		fam := state.Family{Family: string(f.Family), Themes: f.Themes, Command: f.Command.String()}
		if f.Err != nil {
			fam.Error = f.Err.Error()
		}
		run.Families = append(run.Families, fam)
	}
	if err := store.Record(ctx, run); err != nil {
		logger.Warn("record deploy history failed", "error", err)
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var area string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent deploy runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if area != "" {
				if err := theme.ValidateArea(area); err != nil {
					return err
				}
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return fmt.Errorf("deploy history is disabled (history.path is empty)")
			}

			ctx := cmd.Context()
			store, err := state.Open(ctx, cfg.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.Recent(ctx, area, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if runs == nil {
					runs = []state.Run{}
				}
				data, err := json.MarshalIndent(runs, "", "  ")
				if err != nil {
					return fmt.Errorf("render history JSON: %w", err)
				}
				_, _ = fmt.Fprintln(out, string(data))
				return nil
			}

			con := console.New(out)
			if len(runs) == 0 {
				con.Comment("No deploy runs recorded")
				return nil
			}
			for _, r := range runs {
				status := "ok"
				if !r.OK {
					status = "FAILED"
				}
				line := fmt.Sprintf("%s  %-9s %-11s %-6s %s",
					r.StartedAt.Local().Format(time.DateTime), r.Area, r.Backend, status, r.ID)
				if r.OK {
					con.Info("%s", line)
				} else {
					con.Error("%s", line)
				}
				for _, f := range r.Families {
					con.Comment("    [%s] %s", f.Family, strings.Join(f.Themes, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&area, "area", "", "Only show runs for this area")
	cmd.Flags().IntVar(&limit, "limit", state.DefaultLimit, "Maximum number of runs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output runs as JSON")
	return cmd
}
