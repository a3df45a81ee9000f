// Package report implements the summary reporter: a scheduled read-only scan
// of the secret store that aggregates lifecycle statistics and dispatches a
// textual report over a notification channel.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/systmms/secretkeeper/internal/logging"
	"github.com/systmms/secretkeeper/pkg/keeper"
)

// Subject is the fixed subject line of the dispatched report.
const Subject = "Daily Secret Keeper Summary"

// Summary holds the aggregate statistics of one reporter run.
type Summary struct {
	// Total is the number of records physically present, expired or not.
	Total int

	// Expired counts records whose expiry has passed at run time.
	Expired int

	// AvgLifetimeSeconds is the mean configured lifetime over ALL records,
	// not just expired ones. Zero when the store is empty.
	AvgLifetimeSeconds float64
}

// AvgLifetimeMinutes returns the average lifetime in minutes for the report
// template.
func (s Summary) AvgLifetimeMinutes() float64 {
	return s.AvgLifetimeSeconds / 60
}

// Format renders the fixed report template.
func (s Summary) Format() string {
	return fmt.Sprintf(
		"Serverless Secret Keeper Summary\nTotal secrets: %d\nExpired: %d\nAvg TTL: %.2f min",
		s.Total, s.Expired, s.AvgLifetimeMinutes(),
	)
}

// Reporter scans the secret store and dispatches the summary. It never
// mutates the store.
type Reporter struct {
	store     keeper.Store
	publisher keeper.Publisher
	logger    *logging.Logger
	now       func() time.Time
}

// ReporterOption is a functional option for configuring the reporter.
type ReporterOption func(*Reporter)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = l
	}
}

// WithClock sets the time source. Tests use this to pin expiry accounting.
func WithClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) {
		r.now = now
	}
}

// NewReporter creates a reporter over the given store and publisher.
func NewReporter(store keeper.Store, publisher keeper.Publisher, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		store:     store,
		publisher: publisher,
		logger:    logging.New(false, true),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scans the store, computes the summary and dispatches the report. A
// scan failure aborts the run before any dispatch; a publish failure is
// returned alongside the computed summary, never swallowed.
func (r *Reporter) Run(ctx context.Context) (Summary, error) {
	secrets, err := r.store.ScanAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Compute(secrets, r.now().Unix())
	r.logger.Debug("summary: %d total, %d expired", summary.Total, summary.Expired)

	if err := r.publisher.Publish(ctx, Subject, summary.Format()); err != nil {
		return summary, err
	}

	r.logger.Info("dispatched summary report (%d secrets)", summary.Total)
	return summary, nil
}

// Compute aggregates the statistics at the given Unix timestamp. The average
// lifetime is taken over all records; expired ones keep contributing their
// full configured lifetime.
func Compute(secrets []keeper.Secret, nowUnix int64) Summary {
	s := Summary{Total: len(secrets)}
	if s.Total == 0 {
		return s
	}

	var lifetimeSum int64
	for _, secret := range secrets {
		if secret.Expired(nowUnix) {
			s.Expired++
		}
		lifetimeSum += secret.Lifetime()
	}
	s.AvgLifetimeSeconds = float64(lifetimeSum) / float64(s.Total)
	return s
}
