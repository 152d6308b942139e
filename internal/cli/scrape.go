// internal/cli/scrape.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/shelfscan/internal/config"
	"github.com/law-makers/shelfscan/internal/engine"
	"github.com/law-makers/shelfscan/internal/output"
	"github.com/law-makers/shelfscan/internal/reqctx"
	"github.com/law-makers/shelfscan/internal/session"
	"github.com/law-makers/shelfscan/internal/ui"
	"github.com/law-makers/shelfscan/pkg/models"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Harvest product listings from category pages",
	Long: `Opens each category URL, walks its pages through the pagination
control and writes up to --max-per-page products per page as numbered rows.

Numbering starts at 1 and continues across pages and categories. A page change
that cannot be confirmed aborts the run; rows already written are kept.`,
	Example: `  # Harvest the first three pages of the default category
  shelfscan scrape --pages 3

  # Two categories into one JSON-lines file
  shelfscan scrape -u https://www.zehrs.ca/food/drinks/juice/c/28230 -u https://www.zehrs.ca/food/drinks/coffee/c/28228 -o products.jsonl

  # Save every page for offline replay, then replay it
  shelfscan scrape --pages 3 --snapshot-dir ./snap
  shelfscan scrape --pages 3 --replay ./snap`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	config.RegisterScrapeFlags(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := a.Config

	ctx, cancel := cfg.WithRunDeadline(cmd.Context())
	defer cancel()
	ctx = reqctx.WithRun(ctx, "scrape")

	driver, err := a.EnsureDriver(ctx)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	opts, err := a.SessionOptions()
	if err != nil {
		return err
	}

	total := 0
	for _, t := range cfg.Targets {
		total += t.Pages
	}
	bar := newProgressBar(total, cfg.JSONLog || cfg.OutputPath == "-")
	opts.OnPage = func(p models.PageSummary) {
		_ = bar.Add(1)
	}

	sink, err := output.Open(cfg.OutputPath)
	if err != nil {
		return err
	}

	logger := reqctx.Logger(ctx)
	logger.Debug().
		Int("targets", len(cfg.Targets)).
		Int("pages", total).
		Int("max_per_page", cfg.MaxPerPage).
		Str("output", cfg.OutputPath).
		Msg("Starting scrape")

	res, runErr := session.New(a.Interactor(driver), sink, opts).Run(ctx, cfg.Targets)
	_ = bar.Finish()
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to close output: %w", err)
	}

	printSummary(res, cfg.OutputPath)

	if errors.Is(runErr, context.DeadlineExceeded) {
		runErr = fmt.Errorf("run exceeded %s: %w", cfg.RunTimeout, runErr)
	} else if p, ok := engine.PageOf(runErr); ok {
		runErr = fmt.Errorf("stopped before page %d: %w", p, runErr)
	}
	return reqctx.Wrap(ctx, runErr)
}

func newProgressBar(pages int, silent bool) *progressbar.ProgressBar {
	if silent {
		return progressbar.DefaultSilent(int64(pages))
	}
	return progressbar.NewOptions(pages,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Harvesting pages"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func printSummary(res models.RunResult, path string) {
	w := os.Stdout
	if path == "-" {
		w = os.Stderr
	}

	fmt.Fprintf(w, "\n%s %s\n", ui.Bold("Status: "), ui.Status(res.Status))
	fmt.Fprintf(w, "%s %d\n", ui.Bold("Records:"), len(res.Records))
	for _, p := range res.Pages {
		line := fmt.Sprintf("  target %d page %d: %d cards, %d written", p.TargetIndex, p.PageIndex, p.Cards, p.Written)
		if p.Written > 0 {
			line += fmt.Sprintf(" (#%d-#%d)", p.FirstSeq, p.LastSeq)
		}
		if p.Skipped > 0 {
			line += fmt.Sprintf(", %d skipped", p.Skipped)
		}
		fmt.Fprintln(w, ui.ColorDim+line+ui.ColorReset)
	}
	if path != "-" && len(res.Records) > 0 {
		fmt.Fprintf(w, "%s %s\n", ui.Bold("Saved to:"), path)
	}
	fmt.Fprintf(w, "%s %s\n", ui.Bold("Elapsed:"), res.Duration.Round(time.Millisecond))
}
