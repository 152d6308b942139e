package scenario_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/browser/browsertest"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/interact"
	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/internal/output"
	"github.com/law-makers/shelfscan/internal/scenario"
	"github.com/law-makers/shelfscan/internal/session"
)

type harness struct {
	runner  *scenario.Runner
	mu      sync.Mutex
	sinks   map[string]*output.Memory
	drivers []*browser.Static
}

func newHarness(t *testing.T, opts browsertest.StorefrontOptions) *harness {
	t.Helper()
	h := &harness{sinks: make(map[string]*output.Memory)}
	h.runner = &scenario.Runner{
		Launch: func(ctx context.Context) (browser.Driver, error) {
			d := browsertest.NewDriver(browsertest.Storefront(opts))
			h.mu.Lock()
			h.drivers = append(h.drivers, d)
			h.mu.Unlock()
			return d, nil
		},
		Catalog:  locator.Default(),
		Timeouts: interact.Timeouts{Wait: 50 * time.Millisecond, PollInterval: 5 * time.Millisecond},
		BaseURL:  browsertest.BaseURL + "/",
		Session: session.Options{
			MaxPerPage:  5,
			GridTimeout: 50 * time.Millisecond,
		},
		OpenSink: func(file string) (output.Sink, error) {
			m := &output.Memory{}
			h.mu.Lock()
			h.sinks[file] = m
			h.mu.Unlock()
			return m, nil
		},
	}
	return h
}

func (h *harness) run(t *testing.T, name string) scenario.Result {
	t.Helper()
	s, ok := scenario.Default().Get(name)
	if !ok {
		t.Fatalf("scenario %s not registered", name)
	}
	return h.runner.Run(context.Background(), s)
}

func TestBuiltinScenariosPass(t *testing.T) {
	for _, s := range scenario.Default().List() {
		t.Run(s.Name, func(t *testing.T) {
			h := newHarness(t, browsertest.DefaultStorefront())
			res := h.run(t, s.Name)
			if !res.Passed() {
				t.Fatalf("scenario failed: %v", res.Err)
			}
			if len(h.drivers) != 1 {
				t.Fatalf("expected one driver per scenario, got %d", len(h.drivers))
			}
			if err := h.drivers[0].Navigate(context.Background(), browsertest.BaseURL+"/"); !errors.Is(err, engine.ErrBrowserCrash) {
				t.Errorf("driver not quit after teardown: %v", err)
			}
		})
	}
}

func TestScrapeScenarioExports(t *testing.T) {
	tests := []struct {
		scenario string
		file     string
		records  int
		last     string
	}{
		{"scrape-products", scenario.SinglePageExport, 5, "Juice p1 5"},
		{"scrape-multi-pages", scenario.MultiPageExport, 15, "Juice p3 5"},
		{"scrape-categories", scenario.CategoryExport, 10, "Coffee 5"},
	}

	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			h := newHarness(t, browsertest.DefaultStorefront())
			res := h.run(t, tt.scenario)
			if res.Err != nil {
				t.Fatal(res.Err)
			}
			if res.Records != tt.records {
				t.Errorf("expected %d records, got %d", tt.records, res.Records)
			}

			sink := h.sinks[tt.file]
			if sink == nil {
				t.Fatalf("no export opened for %s", tt.file)
			}
			if !sink.Closed {
				t.Error("export not closed")
			}
			if strings.Join(sink.Head, ",") != "No,Product Name,Price,Image URL" {
				t.Errorf("unexpected header %v", sink.Head)
			}
			if len(sink.Rows) != tt.records {
				t.Fatalf("expected %d rows, got %d", tt.records, len(sink.Rows))
			}
			last := sink.Rows[len(sink.Rows)-1]
			if last[1] != tt.last {
				t.Errorf("expected last product %q, got %q", tt.last, last[1])
			}
		})
	}
}

func TestScenarioCheckFails(t *testing.T) {
	opts := browsertest.DefaultStorefront()
	opts.OmitBrandPage = true
	h := newHarness(t, opts)

	res := h.run(t, "product-page-interact")
	if res.Passed() {
		t.Fatal("expected the brand filter step to fail")
	}
	if !strings.Contains(res.Err.Error(), "productBrand=SUND") {
		t.Errorf("unexpected error: %v", res.Err)
	}
	if err := h.drivers[0].Navigate(context.Background(), browsertest.BaseURL+"/"); !errors.Is(err, engine.ErrBrowserCrash) {
		t.Errorf("driver not quit after failure: %v", err)
	}
}

func TestScrapeWithoutProductsFails(t *testing.T) {
	opts := browsertest.DefaultStorefront()
	opts.CoffeeCards = 0
	opts.JuicePerPage = 0
	h := newHarness(t, opts)

	res := h.run(t, "scrape-products")
	if !engine.IsCode(res.Err, engine.ErrCodeCheckFailed) {
		t.Fatalf("expected CHECK_FAILED, got %v", res.Err)
	}
}

func TestRunnerSetupFailure(t *testing.T) {
	r := &scenario.Runner{
		Launch: func(ctx context.Context) (browser.Driver, error) {
			return nil, errors.New("no chrome")
		},
		Catalog: locator.Default(),
		BaseURL: browsertest.BaseURL + "/",
	}
	s, _ := scenario.Default().Get("menu-interact")
	res := r.Run(context.Background(), s)
	if res.Err == nil || !strings.Contains(res.Err.Error(), "setup") {
		t.Fatalf("expected setup error, got %v", res.Err)
	}
}

func TestRunnerRecoversPanic(t *testing.T) {
	h := newHarness(t, browsertest.DefaultStorefront())
	res := h.runner.Run(context.Background(), scenario.Scenario{
		Name: "boom",
		Run:  func(context.Context, *scenario.Env) error { panic("boom") },
	})
	if res.Err == nil || !strings.Contains(res.Err.Error(), "panicked") {
		t.Fatalf("expected panic to be reported, got %v", res.Err)
	}
	if err := h.drivers[0].Navigate(context.Background(), browsertest.BaseURL+"/"); !errors.Is(err, engine.ErrBrowserCrash) {
		t.Errorf("driver not quit after panic: %v", err)
	}
}

func TestRunAllAndFailed(t *testing.T) {
	h := newHarness(t, browsertest.DefaultStorefront())
	reg := scenario.NewRegistry(
		scenario.Scenario{Name: "ok", Run: func(context.Context, *scenario.Env) error { return nil }},
		scenario.Scenario{Name: "bad", Run: func(context.Context, *scenario.Env) error { return engine.CheckFailed("nope") }},
	)
	results := h.runner.RunAll(context.Background(), reg.List())
	if len(results) != 2 || !results[0].Passed() || results[1].Passed() {
		t.Fatalf("unexpected results: %+v", results)
	}
	err := scenario.Failed(results)
	if err == nil || !strings.Contains(err.Error(), "bad:") || strings.Contains(err.Error(), "ok:") {
		t.Fatalf("unexpected joined error: %v", err)
	}
	if scenario.Failed(results[:1]) != nil {
		t.Error("expected nil for all-passed results")
	}
}

func TestRegistry(t *testing.T) {
	reg := scenario.Default()
	want := []string{
		"menu-interact", "product-page-interact", "footer-interact", "scrape-products",
		"scrape-multi-pages", "scrape-categories", "search-products", "handle-popup",
	}
	list := reg.List()
	if len(list) != len(want) {
		t.Fatalf("expected %d scenarios, got %d", len(want), len(list))
	}
	for i, s := range list {
		if s.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], s.Name)
		}
	}

	if err := reg.Register(list[0]); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	sel, err := reg.Select("handle-popup", "menu-interact")
	if err != nil || len(sel) != 2 || sel[0].Name != "handle-popup" {
		t.Fatalf("unexpected selection %v, %v", sel, err)
	}
	if _, err := reg.Select("menu-interact", "nope", "also-nope"); err == nil || !strings.Contains(err.Error(), "also-nope, nope") {
		t.Fatalf("expected unknown names to be reported, got %v", err)
	}
}
