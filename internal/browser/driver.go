// Package browser defines the automation backend the engine drives and its
// two implementations: Chrome over the DevTools protocol, and Static, which
// replays captured HTML offline.
package browser

import (
	"context"
	"time"

	"github.com/law-makers/shelfscan/internal/locator"
)

// Element is an opaque handle to a node in the current page. A handle is
// only valid for the navigation generation it was produced in; drivers
// reject handles from older generations with engine.ErrStaleElement.
type Element interface {
	Generation() uint64
	String() string
}

// Driver is the automation capability consumed by the engine. All calls are
// synchronous. Locate fails with engine.ErrNoSuchElement once the implicit
// wait elapses; LocateAll returns an empty slice instead.
type Driver interface {
	Locate(ctx context.Context, spec locator.Spec, opts ...LocateOption) (Element, error)
	LocateAll(ctx context.Context, spec locator.Spec, opts ...LocateOption) ([]Element, error)

	Click(ctx context.Context, el Element) error
	SendKeys(ctx context.Context, el Element, text string) error
	Hover(ctx context.Context, el Element) error

	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	IsVisible(ctx context.Context, el Element) (bool, error)
	IsEnabled(ctx context.Context, el Element) (bool, error)

	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// ExecuteScript runs src as a function body; Element arguments are
	// passed as live nodes and reachable through `arguments`.
	ExecuteScript(ctx context.Context, src string, args ...interface{}) (interface{}, error)
	Snapshot(ctx context.Context) (string, error)

	// Generation increases on every navigation, including ones started by
	// the page itself after a click.
	Generation() uint64
	Quit() error
}

// LocateOption tunes a single lookup
type LocateOption func(*LocateOptions)

// LocateOptions is the resolved form of a set of LocateOption values
type LocateOptions struct {
	Scope        Element
	ImplicitWait time.Duration
	NoWait       bool
}

// Within restricts the lookup to the subtree of scope
func Within(scope Element) LocateOption {
	return func(o *LocateOptions) { o.Scope = scope }
}

// WithoutWait makes a lookup probe once instead of waiting for a match.
func WithoutWait() LocateOption {
	return func(o *LocateOptions) { o.NoWait = true }
}

// WithImplicitWait overrides the driver's implicit wait for one lookup
func WithImplicitWait(d time.Duration) LocateOption {
	return func(o *LocateOptions) { o.ImplicitWait = d }
}

// ApplyLocateOptions folds opts over the driver default implicit wait
func ApplyLocateOptions(defaultWait time.Duration, opts ...LocateOption) LocateOptions {
	o := LocateOptions{ImplicitWait: defaultWait}
	for _, opt := range opts {
		opt(&o)
	}
	if o.NoWait {
		o.ImplicitWait = 0
	}
	return o
}
