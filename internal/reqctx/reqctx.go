// Package reqctx tags a context with the identity of one run, a scrape or a
// scenario, so its log lines and errors can be told apart.
package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const runKey key = 0

// RunContext identifies one run
type RunContext struct {
	RunID     string
	Label     string
	StartTime time.Time
}

// WithRun returns a child of ctx carrying a fresh run identity
func WithRun(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     generateID(),
		Label:     label,
		StartTime: time.Now(),
	})
}

// FromContext returns the run identity of ctx. Contexts without one get a
// placeholder so callers never check for nil.
func FromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{RunID: "unknown", StartTime: time.Now()}
}

// Logger returns the global logger with run_id and run fields attached
func Logger(ctx context.Context) zerolog.Logger {
	rc := FromContext(ctx)
	lc := log.With().Str("run_id", rc.RunID)
	if rc.Label != "" {
		lc = lc.Str("run", rc.Label)
	}
	return lc.Logger()
}

func generateID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// RunError wraps an error with the run that produced it
type RunError struct {
	RunID string
	Label string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
	}
	return fmt.Sprintf("[%s %s] %v", e.Label, e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// Wrap attaches the run identity of ctx to err. A nil err stays nil.
func Wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	rc := FromContext(ctx)
	return &RunError{RunID: rc.RunID, Label: rc.Label, Err: err}
}
