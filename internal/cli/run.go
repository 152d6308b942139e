// internal/cli/run.go
package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/law-makers/shelfscan/internal/output"
	"github.com/law-makers/shelfscan/internal/scenario"
	"github.com/law-makers/shelfscan/internal/ui"
)

var exportDir string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run named storefront scenarios",
	Long: `Runs each named scenario in a fresh browser that starts on the base URL
and is closed afterwards. With no names every scenario runs, in the order
"shelfscan scenarios" lists them.

Scrape scenarios write their exports under --export-dir.`,
	Example: `  # Run every scenario
  shelfscan run

  # Run two scenarios with a visible browser
  shelfscan run menu-interact search-products --headless=false`,
	RunE: runScenarios,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&exportDir, "export-dir", "resources", "Directory for scrape scenario exports")
}

func runScenarios(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	cfg := a.Config

	selected, err := scenario.Default().Select(args...)
	if err != nil {
		return err
	}

	opts, err := a.SessionOptions()
	if err != nil {
		return err
	}
	runner := &scenario.Runner{
		Launch:   a.LaunchDriver,
		Catalog:  a.Catalog,
		Timeouts: a.Timeouts(),
		BaseURL:  cfg.BaseURL,
		Session:  opts,
		OpenSink: func(file string) (output.Sink, error) {
			return output.Open(filepath.Join(exportDir, file))
		},
	}

	ctx, cancel := cfg.WithRunDeadline(cmd.Context())
	defer cancel()

	results := runner.RunAll(ctx, selected)

	fmt.Println()
	passed := 0
	for _, res := range results {
		mark := ui.Success("PASS")
		if !res.Passed() {
			mark = ui.Error("FAIL")
		} else {
			passed++
		}
		line := fmt.Sprintf("%s  %-24s %s", mark, res.Name, ui.ColorDim+res.Elapsed.Round(time.Millisecond).String()+ui.ColorReset)
		if res.Records > 0 {
			line += fmt.Sprintf("  %d records", res.Records)
		}
		fmt.Println(line)
		if res.Err != nil {
			fmt.Printf("      %s\n", ui.Error(res.Err.Error()))
		}
	}
	fmt.Printf("\n%s %d/%d passed\n", ui.Bold("Scenarios:"), passed, len(results))

	return scenario.Failed(results)
}
