// Package interact wraps a browser driver with synchronized operations:
// every action waits for its element to be visible first, and every wait is
// bounded.
package interact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/internal/retry"
)

// ClickMode selects how Activate delivers a click
type ClickMode int

const (
	// NativeClick dispatches a pointer click through the driver. It fails
	// when another element would intercept the pointer.
	NativeClick ClickMode = iota
	// ScriptClick calls element.click() in page script, skipping hit-testing.
	ScriptClick
)

// String returns the string representation of the click mode
func (m ClickMode) String() string {
	switch m {
	case NativeClick:
		return "native"
	case ScriptClick:
		return "script"
	default:
		return "unknown"
	}
}

// ParseClickMode parses "native" or "script"
func ParseClickMode(s string) (ClickMode, error) {
	switch s {
	case "native", "":
		return NativeClick, nil
	case "script", "js":
		return ScriptClick, nil
	}
	return NativeClick, fmt.Errorf("unknown click mode %q", s)
}

const scriptClick = "arguments[0].click();"

// Timeouts bounds the waits performed by an Interactor
type Timeouts struct {
	Wait         time.Duration // default visibility wait
	PollInterval time.Duration
	HoverSettle  time.Duration
	ActionSettle time.Duration
}

// DefaultTimeouts mirrors the configuration defaults
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Wait:         10 * time.Second,
		PollInterval: 100 * time.Millisecond,
		HoverSettle:  time.Second,
		ActionSettle: 2 * time.Second,
	}
}

// Interactor performs synchronized lookups and actions on one driver
type Interactor struct {
	driver   browser.Driver
	catalog  *locator.Catalog
	timeouts Timeouts
}

// New creates an Interactor
func New(driver browser.Driver, catalog *locator.Catalog, timeouts Timeouts) *Interactor {
	if timeouts.PollInterval <= 0 {
		timeouts.PollInterval = 100 * time.Millisecond
	}
	return &Interactor{driver: driver, catalog: catalog, timeouts: timeouts}
}

func (i *Interactor) Driver() browser.Driver    { return i.driver }
func (i *Interactor) Catalog() *locator.Catalog { return i.catalog }
func (i *Interactor) Timeouts() Timeouts        { return i.timeouts }

// WaitVisible polls until el is visible. On expiry it returns a TIMEOUT
// engine error; driver errors (a stale handle included) end the wait early.
func (i *Interactor) WaitVisible(ctx context.Context, el browser.Element, timeout time.Duration) (browser.Element, error) {
	err := retry.Until(ctx, timeout, i.timeouts.PollInterval, func() (bool, error) {
		return i.driver.IsVisible(ctx, el)
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, engine.TimeoutWaiting(fmt.Sprintf("%s to become visible", el), err).
			WithDetail("timeout", timeout.String())
	}
	if err != nil {
		return nil, err
	}
	return el, nil
}

// Locate resolves name (filling template verbs with args) and returns the
// first match after the driver's implicit wait. Visibility is not checked.
func (i *Interactor) Locate(ctx context.Context, name string, args ...interface{}) (browser.Element, error) {
	spec, err := i.catalog.ResolveWith(name, args...)
	if err != nil {
		return nil, err
	}
	return i.driver.Locate(ctx, spec)
}

// Find locates name and waits for it to be visible
func (i *Interactor) Find(ctx context.Context, name string, args ...interface{}) (browser.Element, error) {
	el, err := i.Locate(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return i.WaitVisible(ctx, el, i.timeouts.Wait)
}

// FindAll returns every match for name. No match is not an error.
func (i *Interactor) FindAll(ctx context.Context, name string, opts ...browser.LocateOption) ([]browser.Element, error) {
	spec, err := i.catalog.Resolve(name)
	if err != nil {
		return nil, err
	}
	return i.driver.LocateAll(ctx, spec, opts...)
}

// Activate waits for el to be visible, then clicks it with mode. A native
// click that is intercepted is reported, never retried as a script click.
func (i *Interactor) Activate(ctx context.Context, el browser.Element, mode ClickMode) error {
	if _, err := i.WaitVisible(ctx, el, i.timeouts.Wait); err != nil {
		return err
	}
	log.Debug().Str("element", el.String()).Stringer("mode", mode).Msg("Activating element")
	switch mode {
	case ScriptClick:
		_, err := i.driver.ExecuteScript(ctx, scriptClick, el)
		return err
	default:
		return i.driver.Click(ctx, el)
	}
}

// Click finds name and activates it
func (i *Interactor) Click(ctx context.Context, mode ClickMode, name string, args ...interface{}) error {
	el, err := i.Find(ctx, name, args...)
	if err != nil {
		return err
	}
	return i.Activate(ctx, el, mode)
}

// HoverThenWait moves the pointer over el and sleeps for settle so flyouts
// can open.
func (i *Interactor) HoverThenWait(ctx context.Context, el browser.Element, settle time.Duration) error {
	if err := i.driver.Hover(ctx, el); err != nil {
		return err
	}
	return Pause(ctx, settle)
}

// Hover finds name and hovers it with the configured settle delay
func (i *Interactor) Hover(ctx context.Context, name string, args ...interface{}) (browser.Element, error) {
	el, err := i.Find(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return el, i.HoverThenWait(ctx, el, i.timeouts.HoverSettle)
}

// Type waits for el to be visible and sends text to it
func (i *Interactor) Type(ctx context.Context, el browser.Element, text string) error {
	if _, err := i.WaitVisible(ctx, el, i.timeouts.Wait); err != nil {
		return err
	}
	return i.driver.SendKeys(ctx, el, text)
}

// ReadText returns the visible text of el
func (i *Interactor) ReadText(ctx context.Context, el browser.Element) (string, error) {
	return i.driver.Text(ctx, el)
}

// ReadAttr returns an attribute of el, "" when absent
func (i *Interactor) ReadAttr(ctx context.Context, el browser.Element, name string) (string, error) {
	v, _, err := i.driver.Attribute(ctx, el, name)
	return v, err
}

// VisibleText finds name and returns its text
func (i *Interactor) VisibleText(ctx context.Context, name string, args ...interface{}) (string, error) {
	el, err := i.Find(ctx, name, args...)
	if err != nil {
		return "", err
	}
	return i.ReadText(ctx, el)
}

// Settle pauses for the configured post-action delay
func (i *Interactor) Settle(ctx context.Context) error {
	return Pause(ctx, i.timeouts.ActionSettle)
}

// Pause sleeps for d or until ctx is done
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
