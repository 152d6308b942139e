// Package cli provides the command-line interface for shelfscan.
package cli

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/law-makers/shelfscan/internal/app"
)

var (
	appMu     sync.Mutex
	globalApp *app.Application
)

// SetApp stores the Application for the running command. Passing nil
// clears it.
func SetApp(a *app.Application) {
	appMu.Lock()
	defer appMu.Unlock()
	globalApp = a
}

// GetApp returns the Application, nil before PersistentPreRunE has run
func GetApp() *app.Application {
	appMu.Lock()
	defer appMu.Unlock()
	return globalApp
}

// GetAppFromCmd returns the Application for cmd. Commands share one
// instance per process.
func GetAppFromCmd(cmd *cobra.Command) *app.Application {
	return GetApp()
}
