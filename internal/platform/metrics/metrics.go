// Package metrics holds the in-process counters served at /metrics.
package metrics

import (
	"maps"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector counts HTTP outcomes by status class plus named domain events
// such as "attendance.clock_in" or "requests.review.completed". All methods
// are safe on a nil Collector.
type Collector struct {
	started time.Time

	requests    atomic.Uint64
	serverErrs  atomic.Uint64
	clientErrs  atomic.Uint64
	throttled   atomic.Uint64
	totalMillis atomic.Uint64
	maxMillis   atomic.Uint64

	mu     sync.Mutex
	events map[string]uint64
}

func New() *Collector {
	return &Collector{started: time.Now(), events: make(map[string]uint64)}
}

// Record counts one finished request.
func (c *Collector) Record(status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requests.Add(1)
	switch {
	case status >= 500:
		c.serverErrs.Add(1)
	case status == http.StatusTooManyRequests:
		c.throttled.Add(1)
	case status >= 400:
		c.clientErrs.Add(1)
	}
	ms := uint64(max(elapsed.Milliseconds(), 0))
	c.totalMillis.Add(ms)
	for {
		current := c.maxMillis.Load()
		if ms <= current || c.maxMillis.CompareAndSwap(current, ms) {
			break
		}
	}
}

// Inc bumps a domain event counter.
func (c *Collector) Inc(event string) {
	if c == nil || event == "" {
		return
	}
	c.mu.Lock()
	c.events[event]++
	c.mu.Unlock()
}

// Snapshot returns a point-in-time copy suitable for JSON encoding.
func (c *Collector) Snapshot() map[string]any {
	if c == nil {
		return map[string]any{"events": map[string]uint64{}}
	}
	total := c.requests.Load()
	totalMs := c.totalMillis.Load()
	avg := 0.0
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	events := maps.Clone(c.events)
	c.mu.Unlock()

	return map[string]any{
		"uptimeSeconds":     int64(time.Since(c.started).Seconds()),
		"requestsTotal":     total,
		"errorsTotal":       c.serverErrs.Load(),
		"clientErrorsTotal": c.clientErrs.Load(),
		"rateLimitedTotal":  c.throttled.Load(),
		"totalDurationMs":   totalMs,
		"avgDurationMs":     avg,
		"maxDurationMs":     c.maxMillis.Load(),
		"events":            events,
	}
}
