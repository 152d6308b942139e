package browser_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/locator"
)

const chromeOverlay = `<!DOCTYPE html>
<html>
<body>
	<h1 class="page-title__title">Juice</h1>
	<button id="buy" onclick="window.clicked = true">Buy</button>
	<div id="overlay" style="position: fixed; top: 0; left: 0; width: 100%; height: 100%; z-index: 10"></div>
</body>
</html>`

const chromeListing = `<!DOCTYPE html>
<html>
<body>
	<div class="card"><h3>First</h3><img src="/img/first.png"></div>
	<div class="card"><h3>Second</h3><img src="/img/second.png"></div>
	<a id="next" href="/other">next</a>
</body>
</html>`

func newChromeServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/overlay":
			w.Write([]byte(chromeOverlay))
		case "/listing":
			w.Write([]byte(chromeListing))
		default:
			w.Write([]byte("<html><body><h1>other</h1></body></html>"))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newChrome(t *testing.T) *browser.Chrome {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping chrome test in short mode")
	}
	if browser.FindChrome("") == "" {
		t.Skip("chrome not installed")
	}
	d, err := browser.NewChrome(browser.ChromeOptions{
		Headless:     true,
		ImplicitWait: 300 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewChrome failed: %v", err)
	}
	t.Cleanup(func() { d.Quit() })
	return d
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func xpath(expr string) locator.Spec {
	return locator.Spec{Name: expr, Strategy: locator.XPath, Expression: expr}
}

// waitGeneration polls until the driver has seen a navigation after before
func waitGeneration(t *testing.T, d *browser.Chrome, before uint64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for d.Generation() == before {
		if time.Now().After(deadline) {
			t.Fatal("navigation was never observed")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestChromeNativeClickBlockedByOverlay(t *testing.T) {
	server := newChromeServer(t)
	d := newChrome(t)
	ctx := testContext(t)

	if err := d.Navigate(ctx, server.URL+"/overlay"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	buy, err := d.Locate(ctx, css("#buy"))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	if err := d.Click(ctx, buy); !errors.Is(err, engine.ErrNotInteractable) {
		t.Fatalf("Expected NOT_INTERACTABLE, got %v", err)
	}
	if _, err := d.ExecuteScript(ctx, "arguments[0].click();", buy); err != nil {
		t.Fatalf("Script click failed: %v", err)
	}
	clicked, err := d.ExecuteScript(ctx, "return window.clicked === true;")
	if err != nil {
		t.Fatalf("ExecuteScript failed: %v", err)
	}
	if clicked != true {
		t.Errorf("Expected the script click to reach the button, got %v", clicked)
	}
}

func TestChromeExecuteScriptArguments(t *testing.T) {
	server := newChromeServer(t)
	d := newChrome(t)
	ctx := testContext(t)

	if err := d.Navigate(ctx, server.URL+"/overlay"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	got, err := d.ExecuteScript(ctx, "return arguments[0] + arguments[1].length;", 2, "abc")
	if err != nil {
		t.Fatalf("ExecuteScript failed: %v", err)
	}
	if got != float64(5) {
		t.Errorf("Expected 5, got %v", got)
	}

	heading, err := d.Locate(ctx, css("h1"))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	got, err = d.ExecuteScript(ctx, "return arguments[1].textContent + arguments[0];", "!", heading)
	if err != nil {
		t.Fatalf("ExecuteScript failed: %v", err)
	}
	if got != "Juice!" {
		t.Errorf("Expected 'Juice!', got %v", got)
	}
}

func TestChromeHandleStaleAfterPushState(t *testing.T) {
	server := newChromeServer(t)
	d := newChrome(t)
	ctx := testContext(t)

	if err := d.Navigate(ctx, server.URL+"/listing"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	card, err := d.Locate(ctx, css(".card"))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	before := d.Generation()
	if _, err := d.ExecuteScript(ctx, `history.pushState({}, "", "?page=2");`); err != nil {
		t.Fatalf("pushState failed: %v", err)
	}
	waitGeneration(t, d, before)

	if _, err := d.Text(ctx, card); !errors.Is(err, engine.ErrStaleElement) {
		t.Fatalf("Expected STALE_ELEMENT, got %v", err)
	}
	u, err := d.CurrentURL(ctx)
	if err != nil {
		t.Fatalf("CurrentURL failed: %v", err)
	}
	if !strings.HasSuffix(u, "/listing?page=2") {
		t.Errorf("Expected pushed URL, got %s", u)
	}
}

func TestChromeHandleStaleAfterLinkNavigation(t *testing.T) {
	server := newChromeServer(t)
	d := newChrome(t)
	ctx := testContext(t)

	if err := d.Navigate(ctx, server.URL+"/listing"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	next, err := d.Locate(ctx, css("#next"))
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	before := d.Generation()
	if err := d.Click(ctx, next); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	waitGeneration(t, d, before)

	if err := d.Hover(ctx, next); !errors.Is(err, engine.ErrStaleElement) {
		t.Fatalf("Expected STALE_ELEMENT, got %v", err)
	}
}

func TestChromeLocateMissing(t *testing.T) {
	server := newChromeServer(t)
	d := newChrome(t)
	ctx := testContext(t)

	if err := d.Navigate(ctx, server.URL+"/listing"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}

	start := time.Now()
	if _, err := d.Locate(ctx, css("#missing")); !errors.Is(err, engine.ErrNoSuchElement) {
		t.Fatalf("Expected NO_SUCH_ELEMENT, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("Expected Locate to wait out the implicit wait, returned after %v", elapsed)
	}

	all, err := d.LocateAll(ctx, css("#missing"))
	if err != nil {
		t.Fatalf("LocateAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected no matches, got %d", len(all))
	}
}

func TestChromeScopedLookups(t *testing.T) {
	server := newChromeServer(t)
	d := newChrome(t)
	ctx := testContext(t)

	if err := d.Navigate(ctx, server.URL+"/listing"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	cards, err := d.LocateAll(ctx, css(".card"))
	if err != nil || len(cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d, %v", len(cards), err)
	}

	title, err := d.Locate(ctx, xpath(".//h3"), browser.Within(cards[1]))
	if err != nil {
		t.Fatalf("Scoped xpath failed: %v", err)
	}
	text, err := d.Text(ctx, title)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "Second" {
		t.Errorf("Expected 'Second', got %q", text)
	}

	if _, err := d.Locate(ctx, xpath(".//span"), browser.Within(cards[0]), browser.WithoutWait()); !errors.Is(err, engine.ErrNoSuchElement) {
		t.Fatalf("Expected NO_SUCH_ELEMENT for a scoped miss, got %v", err)
	}

	img, err := d.Locate(ctx, css("img"), browser.Within(cards[0]))
	if err != nil {
		t.Fatalf("Scoped css failed: %v", err)
	}
	src, ok, err := d.Attribute(ctx, img, "src")
	if err != nil || !ok {
		t.Fatalf("Attribute failed: %v, %v", ok, err)
	}
	if src != server.URL+"/img/first.png" {
		t.Errorf("Expected resolved src, got %s", src)
	}
	if _, ok, err := d.Attribute(ctx, img, "alt"); err != nil || ok {
		t.Errorf("Expected missing alt, got %v, %v", ok, err)
	}
}

func TestChromeHonorsCallerDeadline(t *testing.T) {
	server := newChromeServer(t)
	d := newChrome(t)

	if err := d.Navigate(testContext(t), server.URL+"/listing"); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.CurrentURL(ctx); err == nil {
		t.Fatal("Expected an error from a cancelled context")
	}
	if _, err := d.CurrentURL(testContext(t)); err != nil {
		t.Fatalf("A cancelled call should not break the tab: %v", err)
	}
}
