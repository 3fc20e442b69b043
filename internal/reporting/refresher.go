package reporting

import (
	"context"
	"log/slog"
	"time"
)

// Refresher recomputes cached reports on a fixed interval.
type Refresher struct {
	interval time.Duration
	reports  *Reports
	windows  []string
	limit    int
}

// NewRefresher creates a refresher for the inventory summary and the given
// top-seller windows.
func NewRefresher(interval time.Duration, reports *Reports, windows []string, limit int) *Refresher {
	return &Refresher{
		interval: interval,
		reports:  reports,
		windows:  windows,
		limit:    limit,
	}
}

// Start refreshes once immediately, then on every tick, until ctx is cancelled.
// Nothing is refreshed on shutdown: cached reports are disposable.
func (r *Refresher) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("[Refresher] Starting report refresher",
		"interval", r.interval,
		"windows", r.windows,
		"limit", r.limit,
	)

	r.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			r.refresh(ctx)
		case <-ctx.Done():
			slog.Info("[Refresher] Stopping (context cancelled)")
			return nil
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	start := time.Now()
	if err := r.reports.Refresh(ctx, r.windows, r.limit); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("[Refresher] Refresh failed", "error", err)
		return
	}
	slog.Debug("[Refresher] Reports refreshed", "duration", time.Since(start))
}
