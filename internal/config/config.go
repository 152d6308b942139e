package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/pkg/models"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json_log"`

	// Site
	BaseURL string          `yaml:"base_url"`
	Targets []models.Target `yaml:"targets"`

	// Browser
	Headless   bool   `yaml:"headless"`
	ChromePath string `yaml:"chrome_path"`
	UserAgent  string `yaml:"user_agent"`
	// Proxy is one proxy URL or a comma-separated list rotated per browser.
	Proxy        string            `yaml:"proxy"`
	Headers      map[string]string `yaml:"headers"`
	WindowWidth  int               `yaml:"window_width"`
	WindowHeight int               `yaml:"window_height"`

	// Waits
	ImplicitWait  time.Duration `yaml:"implicit_wait"`
	WaitTimeout   time.Duration `yaml:"wait_timeout"`
	SettleTimeout time.Duration `yaml:"settle_timeout"`
	GridTimeout   time.Duration `yaml:"grid_timeout"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	HoverSettle   time.Duration `yaml:"hover_settle"`
	ActionSettle  time.Duration `yaml:"action_settle"`
	RunTimeout    time.Duration `yaml:"run_timeout"`

	// Harvest
	PaginationClick string  `yaml:"pagination_click"`
	MaxPerPage      int     `yaml:"max_per_page"`
	OutputPath      string  `yaml:"output"`
	SnapshotDir     string  `yaml:"snapshot_dir"`
	ReplayDir       string  `yaml:"replay_dir"`
	NavigationRPS   float64 `yaml:"navigation_rps"`
	NavigationBurst int     `yaml:"navigation_burst"`
	NavAttempts     int     `yaml:"navigation_attempts"`

	// Locators overrides catalog entries by name
	Locators map[string]LocatorOverride `yaml:"locators"`
}

// LocatorOverride replaces one catalog entry
type LocatorOverride struct {
	Strategy   string `yaml:"strategy"`
	Expression string `yaml:"expression"`
}

// Defaults returns a Config populated with default values
func Defaults() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		BaseURL:         DefaultBaseURL,
		Targets:         []models.Target{{CategoryURL: DefaultCategoryURL, Pages: DefaultPages}},
		Headless:        DefaultHeadless,
		UserAgent:       DefaultUserAgent,
		WindowWidth:     DefaultWindowWidth,
		WindowHeight:    DefaultWindowHeight,
		ImplicitWait:    DefaultImplicitWait,
		WaitTimeout:     DefaultWaitTimeout,
		SettleTimeout:   DefaultSettleTimeout,
		GridTimeout:     DefaultGridTimeout,
		PollInterval:    DefaultPollInterval,
		HoverSettle:     DefaultHoverSettle,
		ActionSettle:    DefaultActionSettle,
		RunTimeout:      DefaultRunTimeout,
		PaginationClick: DefaultPaginationClick,
		MaxPerPage:      DefaultMaxPerPage,
		OutputPath:      DefaultOutputPath,
		NavigationRPS:   DefaultNavigationRPS,
		NavigationBurst: DefaultNavigationBurst,
		NavAttempts:     DefaultNavAttempts,
	}
}

// Load builds a Config by combining defaults, an optional YAML file,
// environment variables and CLI flags, in that order of precedence.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()

	path := os.Getenv(EnvPrefix + "CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if cmd != nil {
		if err := cfg.applyFlags(cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFile overlays the YAML document at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	var firstErr error
	parse := func(key string, apply func(string) error) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" || firstErr != nil {
			return
		}
		if err := apply(v); err != nil {
			firstErr = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
	}
	dur := func(key string, dst *time.Duration) {
		parse(key, func(v string) (err error) {
			*dst, err = time.ParseDuration(v)
			return err
		})
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("BASE_URL", &c.BaseURL)
	str("CHROME_PATH", &c.ChromePath)
	str("USER_AGENT", &c.UserAgent)
	str("PROXY", &c.Proxy)
	str("OUTPUT", &c.OutputPath)
	str("SNAPSHOT_DIR", &c.SnapshotDir)
	str("REPLAY_DIR", &c.ReplayDir)
	str("PAGINATION_CLICK", &c.PaginationClick)

	parse("HEADLESS", func(v string) (err error) {
		c.Headless, err = strconv.ParseBool(v)
		return err
	})
	parse("JSON_LOG", func(v string) (err error) {
		c.JSONLog, err = strconv.ParseBool(v)
		return err
	})
	parse("MAX_PER_PAGE", func(v string) (err error) {
		c.MaxPerPage, err = strconv.Atoi(v)
		return err
	})
	parse("NAVIGATION_RPS", func(v string) (err error) {
		c.NavigationRPS, err = strconv.ParseFloat(v, 64)
		return err
	})

	dur("IMPLICIT_WAIT", &c.ImplicitWait)
	dur("WAIT_TIMEOUT", &c.WaitTimeout)
	dur("SETTLE_TIMEOUT", &c.SettleTimeout)
	dur("GRID_TIMEOUT", &c.GridTimeout)
	dur("POLL_INTERVAL", &c.PollInterval)
	dur("HOVER_SETTLE", &c.HoverSettle)
	dur("ACTION_SETTLE", &c.ActionSettle)
	dur("RUN_TIMEOUT", &c.RunTimeout)

	return firstErr
}

// WithRunDeadline bounds parent by RunTimeout. A zero RunTimeout means no
// limit and only adds cancellation.
func (c *Config) WithRunDeadline(parent context.Context) (context.Context, context.CancelFunc) {
	if c.RunTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.RunTimeout)
}

// Catalog returns the built-in locator catalog with the configured
// overrides applied.
func (c *Config) Catalog() (*locator.Catalog, error) {
	base := locator.Default()
	if len(c.Locators) == 0 {
		return base, nil
	}
	overrides := make([]locator.Spec, 0, len(c.Locators))
	for name, o := range c.Locators {
		strategy, err := locator.ParseStrategy(o.Strategy)
		if err != nil {
			return nil, fmt.Errorf("locator %s: %w", name, err)
		}
		overrides = append(overrides, locator.Spec{Name: name, Strategy: strategy, Expression: o.Expression})
	}
	return base.Merge(overrides...), nil
}
