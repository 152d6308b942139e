// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/config"
	"github.com/law-makers/shelfscan/internal/interact"
	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/internal/paginate"
	"github.com/law-makers/shelfscan/internal/proxy"
	"github.com/law-makers/shelfscan/internal/ratelimit"
	"github.com/law-makers/shelfscan/internal/retry"
	"github.com/law-makers/shelfscan/internal/session"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Catalog     *locator.Catalog
	RateLimiter ratelimit.RateLimiter
	// Recorder is nil unless a snapshot directory is configured.
	Recorder *browser.Recorder
	// Proxies rotates the configured proxies across launched browsers.
	Proxies   *proxy.Pool
	driver    browser.Driver
	driverMu  sync.Mutex
	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Builds the locator catalog with configured overrides
//   - Creates the rate limiter for per-host navigation throttling
//   - Prepares the snapshot recorder when requested
//
// The browser is not started here; see EnsureDriver.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := ConfigureLogging(cfg)

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int("entries", catalog.Len()).
		Int("overrides", len(cfg.Locators)).
		Msg("Locator catalog initialized")

	rateLimiter := ratelimit.New(cfg.NavigationRPS, cfg.NavigationBurst)
	logger.Debug().
		Float64("rps", cfg.NavigationRPS).
		Int("burst", cfg.NavigationBurst).
		Msg("Rate limiter initialized")

	var recorder *browser.Recorder
	if cfg.SnapshotDir != "" {
		recorder, err = browser.NewRecorder(cfg.SnapshotDir)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("dir", cfg.SnapshotDir).Msg("Snapshot recorder initialized")
	}

	proxies, err := proxy.Parse(cfg.Proxy)
	if err != nil {
		return nil, err
	}
	pool := proxy.NewPool(proxies, 0)
	if pool.Len() > 0 {
		logger.Debug().Int("proxies", pool.Len()).Msg("Proxy pool initialized")
	}

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Catalog:     catalog,
		RateLimiter: rateLimiter,
		Recorder:    recorder,
		Proxies:     pool,
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

// ConfigureLogging sets the global zerolog level and writer from cfg and
// returns a logger bound to them.
func ConfigureLogging(cfg *config.Config) zerolog.Logger {
	logLevel := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = os.Stderr
	} else {
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return logger
}

// LaunchDriver starts a new automation backend: a Static driver over the
// replay directory when one is configured, Chrome otherwise. The caller
// owns the driver and must Quit it.
func (a *Application) LaunchDriver(ctx context.Context) (browser.Driver, error) {
	cfg := a.Config
	if cfg.ReplayDir != "" {
		d, err := browser.LoadStatic(cfg.ReplayDir)
		if err != nil {
			return nil, err
		}
		a.Logger.Info().Str("dir", cfg.ReplayDir).Msg("Replaying snapshots")
		return d, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proxyURL := a.Proxies.Next()
	d, err := browser.NewChrome(browser.ChromeOptions{
		Headless:     cfg.Headless,
		ChromePath:   cfg.ChromePath,
		UserAgent:    cfg.UserAgent,
		Proxy:        proxyURL,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		ImplicitWait: cfg.ImplicitWait,
		PollInterval: cfg.PollInterval,
		Headers:      cfg.Headers,
	})
	if err != nil {
		if proxyURL != "" {
			a.Proxies.MarkFailed(proxyURL)
			return nil, fmt.Errorf("failed to start browser via proxy %s: %w", proxyURL, err)
		}
		return nil, err
	}
	a.Proxies.MarkHealthy(proxyURL)
	a.Logger.Debug().Bool("headless", cfg.Headless).Str("proxy", proxyURL).Msg("Chrome started")
	return d, nil
}

// EnsureDriver lazily creates the shared driver if it has not already been
// initialized. It is released by Close.
func (a *Application) EnsureDriver(ctx context.Context) (browser.Driver, error) {
	if a == nil {
		return nil, fmt.Errorf("application is nil")
	}

	a.driverMu.Lock()
	defer a.driverMu.Unlock()

	if a.driver != nil {
		return a.driver, nil
	}

	a.Logger.Debug().Msg("Initializing driver on demand")
	d, err := a.LaunchDriver(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to start driver")
		return nil, err
	}
	a.driver = d
	return d, nil
}

// Timeouts returns the interaction timeouts from config
func (a *Application) Timeouts() interact.Timeouts {
	cfg := a.Config
	return interact.Timeouts{
		Wait:         cfg.WaitTimeout,
		PollInterval: cfg.PollInterval,
		HoverSettle:  cfg.HoverSettle,
		ActionSettle: cfg.ActionSettle,
	}
}

// Interactor binds d to the application's catalog and timeouts
func (a *Application) Interactor(d browser.Driver) *interact.Interactor {
	return interact.New(d, a.Catalog, a.Timeouts())
}

// SessionOptions returns scrape session options from config
func (a *Application) SessionOptions() (session.Options, error) {
	cfg := a.Config
	mode, err := interact.ParseClickMode(cfg.PaginationClick)
	if err != nil {
		return session.Options{}, err
	}
	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.NavAttempts
	return session.Options{
		MaxPerPage:  cfg.MaxPerPage,
		GridTimeout: cfg.GridTimeout,
		Pagination: paginate.Options{
			SettleTimeout: cfg.SettleTimeout,
			ClickMode:     mode,
			Limiter:       a.RateLimiter,
		},
		Retry:    rc,
		Limiter:  a.RateLimiter,
		Recorder: a.Recorder,
	}, nil
}

// Close gracefully shuts down the application and all its resources.
//
// The shared driver, if one was started, is quit. A context with a timeout
// should be provided to prevent indefinite blocking. Errors are logged and
// returned.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	a.driverMu.Lock()
	d := a.driver
	a.driver = nil
	a.driverMu.Unlock()

	var err error
	if d != nil {
		done := make(chan error, 1)
		go func() { done <- d.Quit() }()
		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing driver")
		}
	}

	if a.Recorder != nil && a.Recorder.Len() > 0 {
		a.Logger.Info().Int("pages", a.Recorder.Len()).Str("dir", a.Config.SnapshotDir).Msg("Snapshots saved")
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
