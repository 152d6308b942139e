package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/law-makers/shelfscan/internal/interact"
	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/internal/proxy"
	urlutil "github.com/law-makers/shelfscan/internal/utils/url"
)

func validate(c *Config) error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	if c.WaitTimeout <= 0 || c.SettleTimeout <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("wait timeout, settle timeout and poll interval must be > 0")
	}
	if c.PollInterval > c.WaitTimeout {
		return fmt.Errorf("poll interval %s exceeds wait timeout %s", c.PollInterval, c.WaitTimeout)
	}
	if c.ImplicitWait < 0 || c.GridTimeout < 0 || c.HoverSettle < 0 || c.ActionSettle < 0 || c.RunTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.MaxPerPage < 1 {
		return fmt.Errorf("max per page must be >= 1")
	}
	if c.NavigationRPS < 0 {
		return fmt.Errorf("navigation rps must be >= 0")
	}
	if _, err := proxy.Parse(c.Proxy); err != nil {
		return err
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive")
	}
	if _, err := interact.ParseClickMode(c.PaginationClick); err != nil {
		return err
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if c.ReplayDir != "" && c.ReplayDir == c.SnapshotDir {
		return fmt.Errorf("cannot record snapshots into the directory being replayed")
	}
	for i, t := range c.Targets {
		if t.Pages < 1 {
			return fmt.Errorf("target %d: pages must be >= 1", i+1)
		}
		if t.CategoryURL != "" {
			if err := urlutil.ValidateURL(t.CategoryURL); err != nil {
				return fmt.Errorf("target %d: %w", i+1, err)
			}
		}
	}
	for name, o := range c.Locators {
		if _, err := locator.ParseStrategy(o.Strategy); err != nil {
			return fmt.Errorf("locator %s: %w", name, err)
		}
		if o.Expression == "" {
			return fmt.Errorf("locator %s: expression must not be empty", name)
		}
	}
	return nil
}
