package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/themedeploy/internal/theme"
)

// activeFlags select the area and output format of the discovery commands.
type activeFlags struct {
	area   string
	format string
}

func (f *activeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.area, "area", theme.AreaFrontend, "Area: frontend or adminhtml")
	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text, json or yaml")
}

func (f *activeFlags) validate() error {
	if err := theme.ValidateArea(f.area); err != nil {
		return err
	}
	switch f.format {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", f.format)
	}
}

func newThemesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Inspect themes",
	}
	flags := &activeFlags{}
	active := &cobra.Command{
		Use:   "active",
		Short: "List the themes in use for an area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActive(cmd.Context(), opts, flags, cmd.OutOrStdout(), "--theme", (*project).activeThemes)
		},
	}
	flags.register(active)
	cmd.AddCommand(active)
	return cmd
}

func newLocalesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locales",
		Short: "Inspect locales",
	}
	flags := &activeFlags{}
	active := &cobra.Command{
		Use:   "active",
		Short: "List the locales in use for an area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActive(cmd.Context(), opts, flags, cmd.OutOrStdout(), "", (*project).activeLocales)
		},
	}
	flags.register(active)
	cmd.AddCommand(active)
	return cmd
}

type activeLister func(p *project, ctx context.Context, area string, explicit []string) ([]string, error)

// runActive prints discovered values. Text output is space separated, each value
// prefixed with textFlag when set, so it can be pasted onto a deploy command line.
func runActive(ctx context.Context, opts *rootOptions, flags *activeFlags, out io.Writer, textFlag string, list activeLister) error {
	if err := flags.validate(); err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	p, err := openProject(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = p.close() }()

	values, err := list(p, ctx, flags.area, nil)
	if err != nil {
		return err
	}
	if values == nil {
		values = []string{}
	}

	switch flags.format {
	case "json":
		data, err := json.Marshal(values)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(values)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	tokens := make([]string, 0, len(values))
	for _, v := range values {
		if textFlag != "" {
			v = textFlag + " " + v
		}
		tokens = append(tokens, v)
	}
	_, err = fmt.Fprintln(out, strings.Join(tokens, " "))
	return err
}
