// Package besteffort runs operations whose failure is recorded but never
// propagated: storage cleanup after a committed delete, cache invalidation.
package besteffort

import (
	"context"

	"carrental-backend/pkg/metrics"

	"github.com/rs/zerolog/log"
)

// Reporter receives failures of best-effort operations
type Reporter interface {
	Report(ctx context.Context, operation string, err error, fields map[string]interface{})
}

// LogReporter logs through zerolog and counts failures in Prometheus
type LogReporter struct{}

func (LogReporter) Report(ctx context.Context, operation string, err error, fields map[string]interface{}) {
	metrics.BestEffortFailuresTotal.WithLabelValues(operation).Inc()
	log.Warn().
		Err(err).
		Str("operation", operation).
		Fields(fields).
		Msg("best-effort operation failed")
}

// Runner executes best-effort operations against a Reporter
type Runner struct {
	reporter Reporter
}

// NewRunner falls back to LogReporter when reporter is nil
func NewRunner(reporter Reporter) *Runner {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Runner{reporter: reporter}
}

// Run executes fn and reports its error instead of returning it.
// Returns true when fn succeeded.
func (r *Runner) Run(ctx context.Context, operation string, fields map[string]interface{}, fn func(ctx context.Context) error) bool {
	if err := fn(ctx); err != nil {
		r.reporter.Report(ctx, operation, err, fields)
		return false
	}
	return true
}
