package app

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// NextRun returns the first of hours (0-23, local to t) strictly after t.
// With no hours it returns the zero time.
func NextRun(t time.Time, hours []int) time.Time {
	if len(hours) == 0 {
		return time.Time{}
	}
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)

	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	for _, h := range sorted {
		if at := day.Add(time.Duration(h) * time.Hour); at.After(t) {
			return at
		}
	}
	return day.AddDate(0, 0, 1).Add(time.Duration(sorted[0]) * time.Hour)
}

// Schedule calls job at every configured hour until ctx is cancelled.
// Runs never overlap: a slow job delays the next slot.
func Schedule(ctx context.Context, hours []int, logger *slog.Logger, job func(ctx context.Context, at time.Time)) error {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		next := NextRun(time.Now(), hours)
		if next.IsZero() {
			<-ctx.Done()
			return ctx.Err()
		}
		logger.Info("⏰ Next run scheduled", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case at := <-timer.C:
			job(ctx, at)
		}
	}
}
