package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/law-makers/shelfscan/internal/utils/headers"
	"github.com/law-makers/shelfscan/pkg/models"
)

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", false, "Log in JSON format")
	pf.String("config", "", "Path to a YAML configuration file (optional)")
	pf.String("base-url", "", "Storefront home page")
	pf.Bool("headless", DefaultHeadless, "Run Chrome without a window")
	pf.String("chrome-path", "", "Path to the Chrome executable")
	pf.String("proxy", "", "HTTP/SOCKS5 proxy, or a comma-separated list to rotate (e.g., http://localhost:8080)")
	pf.String("user-agent", "", "Custom user agent string")
	pf.StringArrayP("header", "H", nil, "Extra request header for the browser (e.g., -H \"Accept-Language: en-CA\")")
	pf.Duration("implicit-wait", 0, "Driver implicit wait for element lookups")
	pf.Duration("wait-timeout", 0, "Timeout for explicit visibility waits")
	pf.Duration("settle-timeout", 0, "Timeout for a page change to settle")
	pf.Duration("hover-settle", 0, "Delay after hovering a menu before acting")
	pf.Duration("action-settle", 0, "Delay after scenario actions")
	pf.Duration("run-timeout", 0, "Hard timeout for the whole run (0 for no limit)")
	pf.Float64("rps", 0, "Page loads per second per host")
	pf.String("snapshot-dir", "", "Save every harvested page's HTML to this directory")
	pf.String("replay", "", "Replay a snapshot directory instead of launching Chrome")
}

// RegisterScrapeFlags registers the harvest flags on the scrape command
func RegisterScrapeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file (.csv or .jsonl, - for stdout)")
	f.IntP("max-per-page", "m", 0, "Maximum records per page")
	f.StringArrayP("url", "u", nil, "Category URL to harvest (repeatable)")
	f.IntP("pages", "p", 0, "Pages to harvest per category")
	f.String("pagination-click", "", "How to click page controls: native or script")
}

// applyFlags copies every flag the user set onto c
func (c *Config) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	changed := func(name string) (*pflag.Flag, bool) {
		f := flags.Lookup(name)
		return f, f != nil && f.Changed
	}
	str := func(name string, dst *string) {
		if f, ok := changed(name); ok {
			*dst = f.Value.String()
		}
	}
	var firstErr error
	dur := func(name string, dst *time.Duration) {
		if f, ok := changed(name); ok && firstErr == nil {
			d, err := time.ParseDuration(f.Value.String())
			if err != nil {
				firstErr = fmt.Errorf("--%s: %w", name, err)
				return
			}
			*dst = d
		}
	}

	if f, ok := changed("verbose"); ok && f.Value.String() == "true" {
		c.LogLevel = "debug"
	}
	if f, ok := changed("quiet"); ok && f.Value.String() == "true" {
		c.LogLevel = "error"
	}
	if f, ok := changed("json"); ok {
		c.JSONLog = f.Value.String() == "true"
	}
	if f, ok := changed("headless"); ok {
		c.Headless = f.Value.String() == "true"
	}

	str("base-url", &c.BaseURL)
	str("chrome-path", &c.ChromePath)
	str("proxy", &c.Proxy)
	str("user-agent", &c.UserAgent)
	str("snapshot-dir", &c.SnapshotDir)
	str("replay", &c.ReplayDir)
	str("output", &c.OutputPath)
	str("pagination-click", &c.PaginationClick)

	dur("implicit-wait", &c.ImplicitWait)
	dur("wait-timeout", &c.WaitTimeout)
	dur("settle-timeout", &c.SettleTimeout)
	dur("hover-settle", &c.HoverSettle)
	dur("action-settle", &c.ActionSettle)
	dur("run-timeout", &c.RunTimeout)
	if firstErr != nil {
		return firstErr
	}

	if _, ok := changed("header"); ok {
		raw, err := flags.GetStringArray("header")
		if err != nil {
			return err
		}
		parsed, err := headers.ParseHeaders(raw)
		if err != nil {
			return fmt.Errorf("--header: %w", err)
		}
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(parsed))
		}
		for k, v := range parsed {
			c.Headers[k] = v
		}
	}

	if f, ok := changed("rps"); ok {
		v, err := strconv.ParseFloat(f.Value.String(), 64)
		if err != nil {
			return fmt.Errorf("--rps: %w", err)
		}
		c.NavigationRPS = v
	}
	if f, ok := changed("max-per-page"); ok {
		v, err := strconv.Atoi(f.Value.String())
		if err != nil {
			return fmt.Errorf("--max-per-page: %w", err)
		}
		c.MaxPerPage = v
	}

	pages := 0
	if f, ok := changed("pages"); ok {
		v, err := strconv.Atoi(f.Value.String())
		if err != nil {
			return fmt.Errorf("--pages: %w", err)
		}
		if v < 1 {
			return fmt.Errorf("--pages must be >= 1, got %d", v)
		}
		pages = v
	}
	if _, ok := changed("url"); ok {
		urls, err := flags.GetStringArray("url")
		if err != nil {
			return err
		}
		if pages == 0 {
			pages = DefaultPages
		}
		c.Targets = c.Targets[:0]
		for _, u := range urls {
			c.Targets = append(c.Targets, models.Target{CategoryURL: u, Pages: pages})
		}
	} else if pages > 0 {
		for i := range c.Targets {
			c.Targets[i].Pages = pages
		}
	}
	return nil
}
