// Package scenario runs named storefront walkthroughs. Each scenario gets a
// fresh driver parked on the base URL and quits it when done.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/interact"
	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/internal/output"
	"github.com/law-makers/shelfscan/internal/ratelimit"
	"github.com/law-makers/shelfscan/internal/reqctx"
	"github.com/law-makers/shelfscan/internal/retry"
	"github.com/law-makers/shelfscan/internal/session"
	urlutil "github.com/law-makers/shelfscan/internal/utils/url"
	"github.com/law-makers/shelfscan/pkg/models"
)

// Scenario is one named walkthrough
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Registry holds scenarios by name, in registration order
type Registry struct {
	byName map[string]Scenario
	order  []string
}

// NewRegistry returns a registry holding scenarios. Duplicate names panic.
func NewRegistry(scenarios ...Scenario) *Registry {
	r := &Registry{byName: make(map[string]Scenario)}
	for _, s := range scenarios {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds s. Names must be unique and non-empty.
func (r *Registry) Register(s Scenario) error {
	if s.Name == "" || s.Run == nil {
		return fmt.Errorf("scenario needs a name and a run function")
	}
	if _, ok := r.byName[s.Name]; ok {
		return fmt.Errorf("scenario %q already registered", s.Name)
	}
	r.byName[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// Get returns the scenario called name
func (r *Registry) Get(name string) (Scenario, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// List returns every scenario in registration order
func (r *Registry) List() []Scenario {
	out := make([]Scenario, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Select resolves names. No names selects everything; any unknown name
// fails the whole selection.
func (r *Registry) Select(names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return r.List(), nil
	}
	var unknown []string
	out := make([]Scenario, 0, len(names))
	for _, name := range names {
		s, ok := r.byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, s)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown scenario(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// SinkOpener opens the export a scrape scenario writes to
type SinkOpener func(file string) (output.Sink, error)

// Runner owns scenario setup and teardown
type Runner struct {
	// Launch starts a fresh driver for each scenario.
	Launch   func(ctx context.Context) (browser.Driver, error)
	Catalog  *locator.Catalog
	Timeouts interact.Timeouts
	BaseURL  string
	Session  session.Options
	OpenSink SinkOpener
}

// Result is the outcome of one scenario
type Result struct {
	Name    string
	Err     error
	Records int
	Elapsed time.Duration
}

// Passed reports whether the scenario finished without error
func (r Result) Passed() bool { return r.Err == nil }

// Env is what a scenario body works with
type Env struct {
	In      *interact.Interactor
	BaseURL string

	runner  *Runner
	records int
}

// URL resolves a site path against the base URL
func (e *Env) URL(path string) string {
	return urlutil.ResolveURL(e.BaseURL, path)
}

// Scrape runs a session over targets and writes it to file. A run that
// produces no records fails the scenario.
func (e *Env) Scrape(ctx context.Context, file string, targets ...models.Target) (models.RunResult, error) {
	if e.runner.OpenSink == nil {
		return models.RunResult{}, fmt.Errorf("no export configured for %s", file)
	}
	sink, err := e.runner.OpenSink(file)
	if err != nil {
		return models.RunResult{}, err
	}

	res, runErr := session.New(e.In, sink, e.runner.Session).Run(ctx, targets)
	e.records += len(res.Records)
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close %s: %w", file, err)
	}
	if runErr != nil {
		return res, runErr
	}
	if len(res.Records) == 0 {
		return res, engine.CheckFailed("%s: no products extracted", file)
	}
	return res, nil
}

// Run executes s with a fresh driver. Setup failures, scenario failures
// and panics all land in Result.Err; teardown always runs.
func (r *Runner) Run(ctx context.Context, s Scenario) (res Result) {
	start := time.Now()
	res.Name = s.Name
	ctx = reqctx.WithRun(ctx, s.Name)
	logger := reqctx.Logger(ctx)

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("scenario panicked: %v", p)
		}
		res.Elapsed = time.Since(start)
		if res.Err != nil {
			logger.Error().Err(res.Err).Dur("elapsed", res.Elapsed).Msg("Scenario failed")
		} else {
			logger.Info().Int("records", res.Records).Dur("elapsed", res.Elapsed).Msg("Scenario passed")
		}
	}()

	d, err := r.Launch(ctx)
	if err != nil {
		res.Err = fmt.Errorf("setup: %w", err)
		return res
	}
	defer func() {
		if err := d.Quit(); err != nil {
			logger.Warn().Err(err).Msg("Teardown failed")
		}
	}()

	if err := r.open(ctx, d); err != nil {
		res.Err = fmt.Errorf("setup: %w", err)
		return res
	}

	env := &Env{
		In:      interact.New(d, r.Catalog, r.Timeouts),
		BaseURL: r.BaseURL,
		runner:  r,
	}
	logger.Info().Msg("Scenario started")
	res.Err = s.Run(ctx, env)
	res.Records = env.records
	return res
}

func (r *Runner) open(ctx context.Context, d browser.Driver) error {
	limiter := r.Session.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	cfg := r.Session.Retry
	if cfg.MaxAttempts <= 0 {
		cfg = retry.DefaultConfig()
	}
	return retry.WithRetry(ctx, cfg, func() error {
		if err := limiter.Wait(ctx, r.BaseURL); err != nil {
			return err
		}
		return d.Navigate(ctx, r.BaseURL)
	})
}

// RunAll runs scenarios in order and returns every result. It stops early
// only when ctx is done.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			results = append(results, Result{Name: s.Name, Err: ctx.Err()})
			continue
		}
		results = append(results, r.Run(ctx, s))
	}
	return results
}

// Failed joins the errors of every failed result, nil when all passed.
func Failed(results []Result) error {
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return errors.Join(errs...)
}
