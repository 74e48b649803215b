package dispatch

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/themedeploy/internal/backend"
	"github.com/mattjoyce/themedeploy/internal/console"
	"github.com/mattjoyce/themedeploy/internal/log"
	"github.com/mattjoyce/themedeploy/internal/theme"
)

// ErrNothingToDeploy is returned when the deployment set or the locale list is empty.
var ErrNothingToDeploy = errors.New("nothing to deploy")

// familyOrder is the order groups are invoked in.
var familyOrder = []theme.Family{theme.FamilyFastPath, theme.FamilyStandard}

// Options control backend selection and invocation flags for one dispatch.
type Options struct {
	// Accelerate enables the accelerated binary when it can be located.
	Accelerate bool
	// Binary is an explicitly configured accelerated binary path.
	Binary  string
	Locator backend.Locator

	ProjectRoot  string
	FastPathFlag string
	// NativeCLI is the framework command prefix, e.g. php bin/magento.
	NativeCLI []string

	Jobs     int
	Force    bool
	Strategy string
	Parallel bool
}

// Group is one family's planned invocation.
type Group struct {
	Family     theme.Family       `json:"family"`
	Themes     []string           `json:"themes"`
	Invocation backend.Invocation `json:"-"`
	Command    backend.Command    `json:"command"`
}

// Plan is a fully resolved dispatch that has not been executed.
type Plan struct {
	RunID       string   `json:"run_id"`
	Area        string   `json:"area"`
	Locales     []string `json:"locales"`
	Backend     string   `json:"backend"`
	Groups      []Group  `json:"groups"`
	Fingerprint string   `json:"fingerprint"`
}

// FamilyResult is the outcome of one family's invocation.
type FamilyResult struct {
	Family  theme.Family
	Themes  []string
	Backend string
	Command backend.Command
	Err     error
}

// Result aggregates a dispatch call.
type Result struct {
	RunID       string
	Fingerprint string
	Families    []FamilyResult
	// Err is set when the dispatch failed before any invocation.
	Err error
}

// OK reports aggregate success: no early error, at least one invocation, and none failed.
func (r Result) OK() bool {
	if r.Err != nil || len(r.Families) == 0 {
		return false
	}
	for _, f := range r.Families {
		if f.Err != nil {
			return false
		}
	}
	return true
}

// Failed returns the families whose invocation failed.
func (r Result) Failed() []FamilyResult {
	var out []FamilyResult
	for _, f := range r.Families {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Dispatcher plans and executes deployments.
type Dispatcher struct {
	classifier *theme.Classifier
	runner     backend.Runner
	console    *console.Console
	logger     *slog.Logger
}

// New creates a Dispatcher. A nil console discards narration.
func New(classifier *theme.Classifier, runner backend.Runner, con *console.Console) *Dispatcher {
	if con == nil {
		con = console.Discard()
	}
	return &Dispatcher{
		classifier: classifier,
		runner:     runner,
		console:    con,
		logger:     log.WithComponent("dispatch"),
	}
}

// Dispatch plans and executes one deployment.
func (d *Dispatcher) Dispatch(ctx context.Context, set theme.DeploymentSet, locales []string, area string, opts Options) Result {
	plan, err := d.Plan(ctx, set, locales, area, opts)
	if err != nil {
		d.console.Error("%v", err)
		return Result{Err: err}
	}
	return d.Execute(ctx, plan, opts.Parallel)
}

// Plan partitions set by family, selects the backend and builds every invocation
// without running anything.
func (d *Dispatcher) Plan(ctx context.Context, set theme.DeploymentSet, locales []string, area string, opts Options) (*Plan, error) {
	if len(set) == 0 || len(locales) == 0 {
		return nil, fmt.Errorf("%w: %d theme(s), %d locale(s)", ErrNothingToDeploy, len(set), len(locales))
	}
	if err := theme.ValidateArea(area); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := d.logger.With("run_id", runID, "area", area)

	d.console.Info("Themes to deploy (including parents): %s", strings.Join(set, ", "))

	groups := d.partition(ctx, set)
	be := d.selectBackend(opts)
	logger.Info("backend selected", "backend", be.Name())

	plan := &Plan{
		RunID:   runID,
		Area:    area,
		Locales: append([]string{}, locales...),
		Backend: be.Name(),
	}
	for _, fam := range familyOrder {
		themes := groups[fam]
		if len(themes) == 0 {
			continue
		}
		inv := backend.Invocation{
			Area:     area,
			Themes:   themes,
			Locales:  plan.Locales,
			Jobs:     opts.Jobs,
			Force:    opts.Force,
			FastPath: fam == theme.FamilyFastPath,
			Strategy: opts.Strategy,
		}
		plan.Groups = append(plan.Groups, Group{
			Family:     fam,
			Themes:     themes,
			Invocation: inv,
			Command:    be.Command(inv),
		})
	}

	fp, err := fingerprint(plan)
	if err != nil {
		return nil, err
	}
	plan.Fingerprint = fp
	logger.Debug("plan built", "groups", len(plan.Groups), "fingerprint", fp)
	return plan, nil
}

// Execute runs every group of plan and aggregates the outcome. Groups never cancel
// each other; with parallel set they run concurrently.
func (d *Dispatcher) Execute(ctx context.Context, plan *Plan, parallel bool) Result {
	logger := log.WithRun(plan.RunID).With("component", "dispatch", "area", plan.Area)
	res := Result{
		RunID:       plan.RunID,
		Fingerprint: plan.Fingerprint,
		Families:    make([]FamilyResult, len(plan.Groups)),
	}

	run := func(i int) {
		g := plan.Groups[i]
		d.console.Info("Deploying %s themes...", g.Family)
		d.console.Comment("Running: %s", g.Command)

		err := d.runner.Run(ctx, g.Command)
		res.Families[i] = FamilyResult{
			Family:  g.Family,
			Themes:  g.Themes,
			Backend: plan.Backend,
			Command: g.Command,
			Err:     err,
		}
		if err != nil {
			logger.Error("family deploy failed", "family", g.Family, "backend", plan.Backend, "error", err)
			d.console.Error("Deploying %s themes failed: %v", g.Family, err)
			return
		}
		logger.Info("family deployed", "family", g.Family, "backend", plan.Backend, "themes", len(g.Themes))
	}

	if parallel {
		var eg errgroup.Group
		for i := range plan.Groups {
			eg.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for i := range plan.Groups {
			run(i)
		}
	}

	if res.OK() {
		logger.Info("deployment succeeded", "fingerprint", plan.Fingerprint)
	} else {
		logger.Error("deployment failed", "failed_families", len(res.Failed()))
	}
	return res
}

// partition splits set by family, keeping each family in set order.
func (d *Dispatcher) partition(ctx context.Context, set theme.DeploymentSet) map[theme.Family][]string {
	groups := make(map[theme.Family][]string, len(familyOrder))
	for _, id := range set {
		fam := d.classifier.Classify(ctx, id)
		if fam == theme.FamilyFastPath {
			d.console.Info("Detected fast-path theme: %s", id)
		} else {
			d.console.Comment("Detected standard theme: %s", id)
		}
		groups[fam] = append(groups[fam], id)
	}
	return groups
}

func (d *Dispatcher) selectBackend(opts Options) backend.Backend {
	native := backend.Native{CLI: opts.NativeCLI, ProjectRoot: opts.ProjectRoot}
	if !opts.Accelerate {
		d.console.Comment("Acceleration disabled, using native deploy")
		return native
	}

	loc := opts.Locator
	if loc.ProjectRoot == "" {
		loc.ProjectRoot = opts.ProjectRoot
	}
	bin, ok := loc.Locate(opts.Binary)
	if !ok {
		d.console.Comment("Accelerated binary not found, falling back to native deploy")
		return native
	}

	d.console.Info("Using accelerated static-deploy binary: %s", bin)
	return backend.Accelerated{Binary: bin, ProjectRoot: opts.ProjectRoot, FastPathFlag: opts.FastPathFlag}
}

// fingerprint hashes the parts of a plan that determine what gets deployed.
// The run id is excluded so identical plans hash identically.
func fingerprint(p *Plan) (string, error) {
	shape := struct {
		Area    string   `json:"area"`
		Locales []string `json:"locales"`
		Backend string   `json:"backend"`
		Groups  []Group  `json:"groups"`
	}{p.Area, p.Locales, p.Backend, p.Groups}

	body, err := json.Marshal(shape)
	if err != nil {
		return "", fmt.Errorf("marshal plan fingerprint input: %w", err)
	}
	sum := blake3.Sum256(body)
	return "blake3:" + hex.EncodeToString(sum[:]), nil
}
