// internal/cli/root.go
package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/shelfscan/internal/app"
	"github.com/law-makers/shelfscan/internal/config"
)

// shutdownTimeout bounds Application.Close
const shutdownTimeout = 10 * time.Second

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shelfscan",
	Short: "Browser-driven product harvesting for grocery storefronts",
	Long: `Shelfscan drives a real browser through a grocery storefront, walks
category listings page by page and exports one numbered row per product.

It also runs named walkthroughs of the storefront (menus, search, footer
links, delivery popup) as scripted checks.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it with ctx.
// This is called by main.main(). The application is always closed, even
// when the command fails.
func Execute(ctx context.Context) error {
	defer closeApp()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Command failed")
	}
	return err
}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(a)
		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		closeApp()
	}
}

func closeApp() {
	a := GetApp()
	if a == nil {
		return
	}
	SetApp(nil)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = a.Close(ctx)
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().BoolP("help", "h", false, "Help for shelfscan")
	rootCmd.Flags().Bool("version", false, "Version for shelfscan")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}

// initConfig installs a console logger until the application configures
// the real one, so early warnings are readable.
func initConfig() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
