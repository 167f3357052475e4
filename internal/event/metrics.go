package event

import "time"

// Metrics is a point-in-time view of bus activity.
type Metrics struct {
	TotalEvents       int64   `json:"total_events"`
	EventsPerSecond   float64 `json:"events_per_second"`
	ActiveConnections int     `json:"active_connections"`
}

// Metrics reports the total emission count since process start, the
// emission rate over the last 60 seconds, and the number of live
// connections. Reading metrics never perturbs cursors, waiters, or
// subscribers beyond pruning idle connection entries.
func (b *Bus) Metrics() Metrics {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneConnsLocked(now)
	return Metrics{
		TotalEvents:       b.total,
		EventsPerSecond:   b.rate.perSecond(now),
		ActiveConnections: len(b.conns),
	}
}
