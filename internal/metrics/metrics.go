package metrics

import (
	"sync"
	"time"
)

// Metrics is the run-health record served on /health.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalArticlesCollected int64
	ArticlesAccepted       int64
	ArticlesRejected       int64
	DuplicatesCollapsed    int64
	ArticlesPublished      int64
	PublishFailures        int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunID     string
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

// RunCounts is what one pipeline run adds to the totals.
type RunCounts struct {
	Collected  int
	Accepted   int
	Rejected   int
	Duplicates int
	Published  int
	Failed     int
}

func (m *Metrics) AddRun(c RunCounts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalArticlesCollected += int64(c.Collected)
	m.ArticlesAccepted += int64(c.Accepted)
	m.ArticlesRejected += int64(c.Rejected)
	m.DuplicatesCollapsed += int64(c.Duplicates)
	m.ArticlesPublished += int64(c.Published)
	m.PublishFailures += int64(c.Failed)

	Articles("collected", c.Collected)
	Articles("accepted", c.Accepted)
	Articles("rejected", c.Rejected)
	Articles("duplicate", c.Duplicates)
	Articles("published", c.Published)
	Articles("publish_failed", c.Failed)
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
	RunDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetLastRun(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunID = runID
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
	RunErrors.Inc()
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_articles_collected":   m.TotalArticlesCollected,
		"articles_accepted":          m.ArticlesAccepted,
		"articles_rejected":          m.ArticlesRejected,
		"duplicates_collapsed":       m.DuplicatesCollapsed,
		"articles_published":         m.ArticlesPublished,
		"publish_failures":           m.PublishFailures,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_id":                m.LastRunID,
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
