// Package paginate moves a listing grid to page n and confirms the move
// before anything is read from the new page.
package paginate

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/interact"
	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/internal/ratelimit"
	"github.com/law-makers/shelfscan/internal/retry"
	urlutil "github.com/law-makers/shelfscan/internal/utils/url"
	"github.com/law-makers/shelfscan/pkg/models"
)

// State is a step of the traversal protocol
type State int

const (
	Idle State = iota
	NavigationRequested
	AwaitingSettle
	Settled
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case NavigationRequested:
		return "navigation-requested"
	case AwaitingSettle:
		return "awaiting-settle"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// PageParam is the query parameter that carries the page number
const PageParam = "page"

// Options configures a Paginator
type Options struct {
	SettleTimeout time.Duration
	ClickMode     interact.ClickMode
	Limiter       ratelimit.RateLimiter
}

// Paginator drives the pagination control of the current listing
type Paginator struct {
	in          *interact.Interactor
	opts        Options
	state       State
	transitions []State
}

// New creates a Paginator. The default click mode is ScriptClick since the
// page control sits under the sticky footer.
func New(in *interact.Interactor, opts Options) *Paginator {
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = 10 * time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	return &Paginator{in: in, opts: opts}
}

// State returns the current protocol state
func (p *Paginator) State() State { return p.state }

// Transitions returns every state entered so far, in order
func (p *Paginator) Transitions() []State {
	out := make([]State, len(p.transitions))
	copy(out, p.transitions)
	return out
}

func (p *Paginator) enter(s State) {
	p.state = s
	p.transitions = append(p.transitions, s)
}

// GoToPage activates the control for page n and waits until the heading is
// visible and the URL carries page=n. It returns the settled page state or
// a NAVIGATION_NOT_CONFIRMED error; there is no third outcome.
func (p *Paginator) GoToPage(ctx context.Context, n int) (models.PageState, error) {
	defer p.enter(Idle)
	start := time.Now()

	// A cancelled or expired run is not a navigation failure.
	if err := p.request(ctx, n); err != nil {
		if ctx.Err() != nil {
			return models.PageState{}, ctx.Err()
		}
		return models.PageState{}, engine.NavigationNotConfirmed(n, err)
	}

	p.enter(AwaitingSettle)
	state, err := p.awaitSettle(ctx, n)
	if err != nil {
		if ctx.Err() != nil {
			return models.PageState{}, ctx.Err()
		}
		log.Warn().Int("page", n).Dur("elapsed", time.Since(start)).Err(err).Msg("Page navigation not confirmed")
		return models.PageState{}, engine.NavigationNotConfirmed(n, err)
	}

	p.enter(Settled)
	log.Debug().Int("page", n).Str("url", state.URL).Dur("elapsed", time.Since(start)).Msg("Page settled")
	return state, nil
}

func (p *Paginator) request(ctx context.Context, n int) error {
	drv := p.in.Driver()

	ctrl, err := p.in.Find(ctx, locator.PaginationPage, n)
	if err != nil {
		return err
	}
	if cur, err := drv.CurrentURL(ctx); err == nil {
		if err := p.opts.Limiter.Wait(ctx, cur); err != nil {
			return err
		}
	}
	if err := p.in.HoverThenWait(ctx, ctrl, p.in.Timeouts().HoverSettle); err != nil {
		return err
	}

	p.enter(NavigationRequested)
	return p.in.Activate(ctx, ctrl, p.opts.ClickMode)
}

// awaitSettle re-evaluates both post-conditions on every poll. Stale handles
// and missing elements mean the page is still changing.
func (p *Paginator) awaitSettle(ctx context.Context, n int) (models.PageState, error) {
	drv := p.in.Driver()
	want := strconv.Itoa(n)
	var state models.PageState

	err := retry.Until(ctx, p.opts.SettleTimeout, p.in.Timeouts().PollInterval, func() (bool, error) {
		u, err := drv.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		if !urlutil.HasQueryValue(u, PageParam, want) {
			return false, nil
		}

		spec, err := p.in.Catalog().Resolve(locator.PageHeading)
		if err != nil {
			return false, err
		}
		h, err := drv.Locate(ctx, spec, browser.WithoutWait())
		if transient(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		ok, err := drv.IsVisible(ctx, h)
		if transient(err) {
			return false, nil
		}
		if err != nil || !ok {
			return false, err
		}
		text, err := drv.Text(ctx, h)
		if transient(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		state = models.PageState{URL: u, Heading: text, PageIndex: n}
		return true, nil
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return models.PageState{}, engine.TimeoutWaiting("page "+want+" to settle", err)
	}
	return state, err
}

func transient(err error) bool {
	return errors.Is(err, engine.ErrStaleElement) || errors.Is(err, engine.ErrNoSuchElement)
}
