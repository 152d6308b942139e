package interact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/browser/browsertest"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/locator"
)

const menuPage = `<!DOCTYPE html>
<html><body>
<header>
	<button data-code="xp-455-food-departments">Grocery</button>
	<nav>
		<a href="/food/L2-Drinks">Drinks</a>
		<div class="flyout" hidden><a href="/food/L3-Drinks-Juice">Juice</a></div>
	</nav>
</header>
<main>
	<input placeholder="Search for product" name="q">
	<h1 data-testid="heading">Shop</h1>
</main>
<div class="sticky-footer-overlay" style="pointer-events: none">
	<a aria-label="Page 2" href="/food?page=2">2</a>
</div>
</body></html>`

func testTimeouts() Timeouts {
	return Timeouts{
		Wait:         50 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		HoverSettle:  10 * time.Millisecond,
		ActionSettle: time.Millisecond,
	}
}

func newInteractor(t *testing.T) (*Interactor, *browser.Static) {
	t.Helper()
	d := browser.NewStatic(map[string]string{
		browsertest.BaseURL + "/food":        menuPage,
		browsertest.BaseURL + "/food?page=2": `<html><body><h1 data-testid="heading">Page two</h1></body></html>`,
	})
	if err := d.Navigate(context.Background(), browsertest.BaseURL+"/food"); err != nil {
		t.Fatal(err)
	}
	return New(d, locator.Default(), testTimeouts()), d
}

func TestFindVisible(t *testing.T) {
	in, _ := newInteractor(t)
	text, err := in.VisibleText(context.Background(), locator.MenuGrocery)
	if err != nil {
		t.Fatal(err)
	}
	if text != "Grocery" {
		t.Fatalf("expected Grocery, got %q", text)
	}
}

func TestWaitVisibleTimesOut(t *testing.T) {
	in, _ := newInteractor(t)
	ctx := context.Background()

	el, err := in.Locate(ctx, locator.MenuDrinksJuice)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	_, err = in.WaitVisible(ctx, el, 30*time.Millisecond)
	if !errors.Is(err, engine.ErrTimeoutWaiting) {
		t.Fatalf("expected TimeoutWaiting, got %v", err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatal("wait returned before its timeout")
	}
	var ee *engine.EngineError
	if !errors.As(err, &ee) || !ee.Retry {
		t.Fatal("timeouts must be marked retryable")
	}
}

func TestFindUnknownLocator(t *testing.T) {
	in, _ := newInteractor(t)
	if _, err := in.Find(context.Background(), "menu.nope"); !errors.Is(err, engine.ErrUnknownLocator) {
		t.Fatalf("expected UnknownLocator, got %v", err)
	}
}

func TestActivateModes(t *testing.T) {
	ctx := context.Background()

	in, d := newInteractor(t)
	ctrl, err := in.Find(ctx, locator.PaginationPage, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := in.Activate(ctx, ctrl, NativeClick); !errors.Is(err, engine.ErrNotInteractable) {
		t.Fatalf("native click under the overlay should fail, got %v", err)
	}
	if u, _ := d.CurrentURL(ctx); u != browsertest.BaseURL+"/food" {
		t.Fatalf("failed native click must not fall back, now at %s", u)
	}

	if err := in.Activate(ctx, ctrl, ScriptClick); err != nil {
		t.Fatalf("script click: %v", err)
	}
	if u, _ := d.CurrentURL(ctx); u != browsertest.BaseURL+"/food?page=2" {
		t.Fatalf("script click should navigate, now at %s", u)
	}
	if _, err := in.driver.Text(ctx, ctrl); !errors.Is(err, engine.ErrStaleElement) {
		t.Fatalf("handle should be stale after navigation, got %v", err)
	}
}

func TestHoverThenWait(t *testing.T) {
	in, d := newInteractor(t)
	ctx := context.Background()

	el, err := in.Find(ctx, locator.MenuDrinks)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := in.HoverThenWait(ctx, el, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("hover returned before the settle delay")
	}
	if d.Hovered() == nil || d.Hovered().Data != "a" {
		t.Fatal("driver did not record the hover")
	}
}

func TestTypeAndRead(t *testing.T) {
	in, _ := newInteractor(t)
	ctx := context.Background()

	field, err := in.Find(ctx, locator.SearchField)
	if err != nil {
		t.Fatal(err)
	}
	if err := in.Type(ctx, field, "coffee"); err != nil {
		t.Fatal(err)
	}
	v, err := in.ReadAttr(ctx, field, "value")
	if err != nil || v != "coffee" {
		t.Fatalf("expected 'coffee', got %q, %v", v, err)
	}
}

func TestPauseHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Pause(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestParseClickMode(t *testing.T) {
	if m, _ := ParseClickMode("script"); m != ScriptClick {
		t.Fatal("script should parse to ScriptClick")
	}
	if m, _ := ParseClickMode("native"); m != NativeClick {
		t.Fatal("native should parse to NativeClick")
	}
	if _, err := ParseClickMode("auto"); err == nil {
		t.Fatal("automatic fallback is not a mode")
	}
}
