// Package session runs a scrape: it walks targets and their pages, extracts
// listing cards and streams numbered rows to a sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/shelfscan/internal/browser"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/extract"
	"github.com/law-makers/shelfscan/internal/interact"
	"github.com/law-makers/shelfscan/internal/locator"
	"github.com/law-makers/shelfscan/internal/output"
	"github.com/law-makers/shelfscan/internal/paginate"
	"github.com/law-makers/shelfscan/internal/ratelimit"
	"github.com/law-makers/shelfscan/internal/reqctx"
	"github.com/law-makers/shelfscan/internal/retry"
	"github.com/law-makers/shelfscan/pkg/models"
)

// Options configures a Session
type Options struct {
	// MaxPerPage caps records written per page; zero means no cap.
	MaxPerPage int
	// GridTimeout bounds the wait for product cards after a direct load.
	GridTimeout time.Duration
	Pagination  paginate.Options
	Retry       retry.Config
	Limiter     ratelimit.RateLimiter
	// Recorder, when set, captures every listing page before extraction.
	Recorder *browser.Recorder
	// OnPage is called after each page is harvested.
	OnPage func(models.PageSummary)
}

// Session owns the running index for one run. It is single-use per browser
// and sink; concurrent sessions need their own.
type Session struct {
	in           *interact.Interactor
	extractor    *extract.Extractor
	pager        *paginate.Paginator
	sink         output.Sink
	opts         Options
	runningIndex int
	headerDone   bool
}

// New creates a Session writing to sink
func New(in *interact.Interactor, sink output.Sink, opts Options) *Session {
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if opts.Pagination.Limiter == nil {
		opts.Pagination.Limiter = opts.Limiter
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.DefaultConfig()
	}
	return &Session{
		in:        in,
		extractor: extract.New(in.Driver(), in.Catalog()),
		pager:     paginate.New(in, opts.Pagination),
		sink:      sink,
		opts:      opts,
	}
}

// RunningIndex returns the sequence number of the last written record
func (s *Session) RunningIndex() int { return s.runningIndex }

// Paginator exposes the session's pagination protocol
func (s *Session) Paginator() *paginate.Paginator { return s.pager }

// Run harvests every target in order. Numbering continues across targets
// and pages. The returned result is valid even when err is not nil: rows
// written before a failure stay written.
func (s *Session) Run(ctx context.Context, targets []models.Target) (result models.RunResult, err error) {
	result = models.RunResult{Status: models.StatusComplete, StartedAt: time.Now()}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	for i, t := range targets {
		if t.Pages < 1 {
			result.Status = models.StatusFailed
			return result, engine.NewEngineError(engine.ErrCodeValidation,
				fmt.Sprintf("target %d: pages must be at least 1, got %d", i+1, t.Pages), nil)
		}
	}

	if !s.headerDone {
		if err := s.sink.WriteHeader(output.Header); err != nil {
			result.Status = models.StatusFailed
			return result, fmt.Errorf("failed to write header: %w", err)
		}
		s.headerDone = true
	}

	for ti, t := range targets {
		logger := reqctx.Logger(ctx).With().Int("target", ti+1).Str("url", t.CategoryURL).Logger()
		logger.Info().Int("pages", t.Pages).Msg("Starting target")

		if t.CategoryURL != "" {
			if err := s.open(ctx, t.CategoryURL); err != nil {
				result.Status = models.StatusFailed
				return result, err
			}
		}

		for p := 1; p <= t.Pages; p++ {
			if p > 1 {
				if _, err := s.pager.GoToPage(ctx, p); err != nil {
					if errors.Is(err, engine.ErrNavigationNotConfirmed) {
						result.Status = models.StatusAborted
						logger.Error().Err(err).Int("page", p).Int("written", s.runningIndex).Msg("Aborting run")
					} else {
						result.Status = models.StatusFailed
					}
					return result, err
				}
			}

			if s.opts.Recorder != nil {
				if err := s.opts.Recorder.Capture(ctx, s.in.Driver()); err != nil {
					logger.Warn().Err(err).Int("page", p).Msg("Snapshot capture failed")
				}
			}

			summary, records, err := s.harvestPage(ctx, ti, p)
			result.Records = append(result.Records, records...)
			if err != nil {
				result.Status = models.StatusFailed
				return result, err
			}
			result.Pages = append(result.Pages, summary)

			if p == 1 && summary.Cards == 0 {
				logger.Warn().Msg("First page has no product cards, marking run incomplete")
				result.Status = models.StatusIncomplete
			}
			if s.opts.OnPage != nil {
				s.opts.OnPage(summary)
			}
		}
	}

	log.Info().
		Int("records", len(result.Records)).
		Str("status", string(result.Status)).
		Msg("Run finished")
	return result, nil
}

// open loads a category URL directly and waits for its grid. A grid that
// never appears is left for the empty-first-page check.
func (s *Session) open(ctx context.Context, url string) error {
	drv := s.in.Driver()
	err := retry.WithRetry(ctx, s.opts.Retry, func() error {
		if err := s.opts.Limiter.Wait(ctx, url); err != nil {
			return err
		}
		return drv.Navigate(ctx, url)
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}

	spec, err := s.in.Catalog().Resolve(locator.ProductCard)
	if err != nil {
		return err
	}
	err = retry.Until(ctx, s.opts.GridTimeout, s.in.Timeouts().PollInterval, func() (bool, error) {
		cards, err := drv.LocateAll(ctx, spec)
		return len(cards) > 0, err
	})
	if errors.Is(err, context.DeadlineExceeded) {
		log.Debug().Str("url", url).Msg("Product grid did not appear")
		return nil
	}
	return err
}

// harvestPage extracts cards from the current page. Cards are located
// fresh; no handle survives from an earlier page.
func (s *Session) harvestPage(ctx context.Context, ti, p int) (models.PageSummary, []models.ProductRecord, error) {
	start := time.Now()
	summary := models.PageSummary{TargetIndex: ti + 1, PageIndex: p}
	if u, err := s.in.Driver().CurrentURL(ctx); err == nil {
		summary.URL = u
	}

	cards, err := s.in.FindAll(ctx, locator.ProductCard)
	if err != nil {
		return summary, nil, err
	}
	summary.Cards = len(cards)

	var records []models.ProductRecord
	for _, card := range cards {
		if s.opts.MaxPerPage > 0 && summary.Written >= s.opts.MaxPerPage {
			break
		}
		listing, err := s.extractor.Extract(ctx, card)
		if errors.Is(err, engine.ErrMissingField) {
			summary.Skipped++
			log.Warn().Int("page", p).Str("card", card.String()).Err(err).Msg("Skipping card")
			continue
		}
		if err != nil {
			return summary, records, err
		}

		rec := models.NewProductRecord(s.runningIndex+1, listing)
		if err := s.sink.WriteRow(output.Fields(rec)); err != nil {
			return summary, records, fmt.Errorf("failed to write record %d: %w", rec.Seq, err)
		}
		s.runningIndex = rec.Seq
		records = append(records, rec)

		if summary.FirstSeq == 0 {
			summary.FirstSeq = rec.Seq
		}
		summary.LastSeq = rec.Seq
		summary.Written++
		log.Debug().Int("seq", rec.Seq).Str("name", rec.Name).Str("price", rec.Price).Msg("Record written")
	}

	summary.Elapsed = time.Since(start)
	log.Info().
		Int("page", p).
		Int("cards", summary.Cards).
		Int("written", summary.Written).
		Int("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("Page harvested")
	return summary, records, nil
}
