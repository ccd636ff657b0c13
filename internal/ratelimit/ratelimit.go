package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrBudgetExhausted is returned by Acquire once the per-run request budget is spent.
var ErrBudgetExhausted = errors.New("oracle request budget exhausted")

// Governor spaces oracle calls and enforces a per-run request budget.
type Governor struct {
	limiter *rate.Limiter
	logger  *slog.Logger

	mu          sync.Mutex
	maxRequests int
	used        int
	byOp        map[string]int
	refused     int
	cacheHits   int
	cacheMisses int
}

// NewGovernor allows one call every minInterval (no spacing when <= 0) and at
// most maxRequests calls per run (unlimited when <= 0).
func NewGovernor(minInterval time.Duration, maxRequests int, logger *slog.Logger) *Governor {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return NewGovernorWithLimiter(rate.NewLimiter(limit, 1), maxRequests, logger)
}

// NewGovernorWithLimiter uses the given limiter as is.
func NewGovernorWithLimiter(limiter *rate.Limiter, maxRequests int, logger *slog.Logger) *Governor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Governor{
		limiter:     limiter,
		logger:      logger,
		maxRequests: maxRequests,
		byOp:        make(map[string]int),
	}
}

// Acquire reserves one request for op and blocks until the limiter lets it through.
func (g *Governor) Acquire(ctx context.Context, op string) error {
	g.mu.Lock()
	if g.maxRequests > 0 && g.used >= g.maxRequests {
		g.refused++
		g.mu.Unlock()
		g.logger.Warn("⚠️ Oracle request budget reached", "used", g.maxRequests, "op", op)
		return fmt.Errorf("%s: %w", op, ErrBudgetExhausted)
	}
	g.used++
	g.byOp[op]++
	used := g.used
	g.mu.Unlock()

	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for oracle slot: %w", err)
	}
	g.logger.Debug("📊 Oracle usage", "op", op, "used", used, "limit", g.maxRequests)
	return nil
}

// Used returns the number of requests reserved since the last Reset.
func (g *Governor) Used() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.used
}

// Reset starts a new run budget.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.used = 0
	g.refused = 0
	g.byOp = make(map[string]int)
}

// RecordCacheHit counts a summary served from the memo instead of the oracle.
func (g *Governor) RecordCacheHit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cacheHits++
}

// RecordCacheMiss counts a memo lookup that had to go to the oracle.
func (g *Governor) RecordCacheMiss() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cacheMisses++
}

func (g *Governor) cacheHitRate() float64 {
	total := g.cacheHits + g.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(g.cacheHits) / float64(total) * 100
}

// GetStats returns current governor statistics
func (g *Governor) GetStats() map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	byOp := make(map[string]int, len(g.byOp))
	for k, v := range g.byOp {
		byOp[k] = v
	}
	return map[string]interface{}{
		"total_used":     g.used,
		"total_limit":    g.maxRequests,
		"refused":        g.refused,
		"by_operation":   byOp,
		"cache_hits":     g.cacheHits,
		"cache_misses":   g.cacheMisses,
		"cache_hit_rate": g.cacheHitRate(),
	}
}
