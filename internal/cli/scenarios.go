// internal/cli/scenarios.go
package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/law-makers/shelfscan/internal/scenario"
	"github.com/law-makers/shelfscan/internal/ui"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the scenarios available to run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := scenario.Default().List()
		width := 0
		for _, s := range list {
			width = max(width, len(s.Name))
		}
		fmt.Println()
		for _, s := range list {
			fmt.Printf("  %s%-*s%s  %s\n", ui.ColorCyan, width, s.Name, ui.ColorReset, s.Description)
		}
		fmt.Println()
		return nil
	},
}

var locatorsCmd = &cobra.Command{
	Use:   "locators",
	Short: "Print the locator catalog, overrides applied",
	Long: `Prints every catalog entry with its strategy and expression. Entries
from the "locators" section of the config file replace built-ins by name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		names := a.Catalog.Names()
		sort.Strings(names)
		width := 0
		for _, n := range names {
			width = max(width, len(n))
		}
		for _, n := range names {
			spec, err := a.Catalog.Resolve(n)
			if err != nil {
				return err
			}
			marker := " "
			if _, ok := a.Config.Locators[n]; ok {
				marker = ui.ColorYellow + "*" + ui.ColorReset
			}
			fmt.Printf("%s %s%-*s%s  %-6s %s\n", marker, ui.ColorCyan, width, n, ui.ColorReset, spec.Strategy, spec.Expression)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(locatorsCmd)
}
