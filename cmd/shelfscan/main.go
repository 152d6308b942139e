// cmd/shelfscan/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/shelfscan/internal/cli"
)

func main() {
	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if ctx.Err() == context.Canceled {
			log.Warn().Msg("Interrupt received, shutting down gracefully...")
		}
	}()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
