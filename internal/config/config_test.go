package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/shelfscan/internal/locator"
)

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	RegisterFlags(cmd)
	RegisterScrapeFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestDefaultsValid(t *testing.T) {
	cfg := Defaults()
	if err := validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.MaxPerPage != 5 || cfg.HoverSettle != time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shelfscan.yaml")
	yamlDoc := `
base_url: https://file.test/
max_per_page: 7
hover_settle: 250ms
settle_timeout: 3s
targets:
  - url: https://file.test/juice
    pages: 2
locators:
  product.card:
    strategy: xpath
    expression: //article
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvPrefix+"MAX_PER_PAGE", "9")
	t.Setenv(EnvPrefix+"HOVER_SETTLE", "500ms")

	cmd := newCmd(t, "--config", path, "--hover-settle", "2s")
	cfg, err := Load(cmd)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.BaseURL != "https://file.test/" {
		t.Errorf("file should set base url, got %s", cfg.BaseURL)
	}
	if cfg.SettleTimeout != 3*time.Second {
		t.Errorf("file should set settle timeout, got %s", cfg.SettleTimeout)
	}
	if cfg.MaxPerPage != 9 {
		t.Errorf("env should beat file, got %d", cfg.MaxPerPage)
	}
	if cfg.HoverSettle != 2*time.Second {
		t.Errorf("flag should beat env, got %s", cfg.HoverSettle)
	}
	if cfg.WaitTimeout != DefaultWaitTimeout {
		t.Errorf("unset keys keep defaults, got %s", cfg.WaitTimeout)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Pages != 2 || cfg.Targets[0].CategoryURL != "https://file.test/juice" {
		t.Errorf("unexpected targets %+v", cfg.Targets)
	}

	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	spec, _ := cat.Resolve(locator.ProductCard)
	if spec.Strategy != locator.XPath || spec.Expression != "//article" {
		t.Errorf("override not applied: %+v", spec)
	}
}

func TestFlagsOverrideTargets(t *testing.T) {
	cmd := newCmd(t, "-u", "https://shop.test/a", "-u", "https://shop.test/b", "-p", "3", "-v")
	cfg, err := Load(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Targets) != 2 || cfg.Targets[1].CategoryURL != "https://shop.test/b" || cfg.Targets[0].Pages != 3 {
		t.Fatalf("unexpected targets %+v", cfg.Targets)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("verbose should set debug, got %s", cfg.LogLevel)
	}

	cmd = newCmd(t, "-p", "4")
	cfg, err = Load(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Targets[0].CategoryURL != DefaultCategoryURL || cfg.Targets[0].Pages != 4 {
		t.Fatalf("--pages alone should apply to configured targets, got %+v", cfg.Targets)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"bad base url", func(c *Config) { c.BaseURL = "ftp://x" }, "base url"},
		{"zero max", func(c *Config) { c.MaxPerPage = 0 }, "max per page"},
		{"zero settle", func(c *Config) { c.SettleTimeout = 0 }, "must be > 0"},
		{"poll too long", func(c *Config) { c.PollInterval = time.Minute }, "exceeds"},
		{"negative hover", func(c *Config) { c.HoverSettle = -time.Second }, "negative"},
		{"bad click", func(c *Config) { c.PaginationClick = "auto" }, "click mode"},
		{"bad target", func(c *Config) { c.Targets[0].Pages = 0 }, "pages"},
		{"bad proxy", func(c *Config) { c.Proxy = "http://ok:1,ftp://nope:2" }, "scheme"},
		{"bad locator", func(c *Config) {
			c.Locators = map[string]LocatorOverride{"x": {Strategy: "id", Expression: "a"}}
		}, "strategy"},
		{"empty locator", func(c *Config) {
			c.Locators = map[string]LocatorOverride{"x": {Strategy: "css"}}
		}, "empty"},
		{"replay into itself", func(c *Config) { c.ReplayDir, c.SnapshotDir = "snap", "snap" }, "replayed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBadEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"SETTLE_TIMEOUT", "soon")
	if _, err := Load(newCmd(t)); err == nil {
		t.Fatal("expected an error for an unparseable duration")
	}
}

func TestHeaderFlags(t *testing.T) {
	cfg, err := Load(newCmd(t, "-H", "Accept-Language: en-CA", "--header", "X-Store: 0571"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Headers["Accept-Language"] != "en-CA" || cfg.Headers["X-Store"] != "0571" {
		t.Fatalf("unexpected headers %v", cfg.Headers)
	}

	if _, err := Load(newCmd(t, "-H", "no colon")); err == nil || !strings.Contains(err.Error(), "--header") {
		t.Fatalf("expected a header error, got %v", err)
	}
}

func TestRunDeadline(t *testing.T) {
	t.Setenv(EnvPrefix+"RUN_TIMEOUT", "0s")
	cfg, err := Load(newCmd(t))
	if err != nil {
		t.Fatalf("zero run timeout should validate: %v", err)
	}
	ctx, cancel := cfg.WithRunDeadline(context.Background())
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("zero run timeout should not set a deadline")
	}
	if ctx.Err() != nil {
		t.Fatalf("run context expired immediately: %v", ctx.Err())
	}
	cancel()
	if ctx.Err() != context.Canceled {
		t.Fatalf("expected cancellation, got %v", ctx.Err())
	}

	cfg, err = Load(newCmd(t, "--run-timeout", "1m"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel = cfg.WithRunDeadline(context.Background())
	defer cancel()
	if dl, ok := ctx.Deadline(); !ok || time.Until(dl) > time.Minute {
		t.Fatalf("expected a deadline within a minute, got %v %v", dl, ok)
	}
}

func TestPagesFlagRejectsNonPositive(t *testing.T) {
	for _, arg := range []string{"0", "-2"} {
		if _, err := Load(newCmd(t, "--pages="+arg)); err == nil || !strings.Contains(err.Error(), "--pages") {
			t.Errorf("--pages=%s: expected a pages error, got %v", arg, err)
		}
	}
}
