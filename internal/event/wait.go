package event

import (
	"context"
	"fmt"
	"time"
)

// WaitRequest parameterizes a wait_for_updates call.
type WaitRequest struct {
	// ConnectionID identifies the caller across calls. Empty falls
	// back to DefaultConnectionID.
	ConnectionID string

	// Targets and MinPriority filter which events resolve the wait.
	Targets     []string
	MinPriority Priority

	// Since overrides the connection's stored cursor (exclusive).
	// Nil means resume from the cursor; on first contact the cursor
	// starts at the current latest id, so only new events count.
	Since *int64

	// Timeout bounds the wait. Values are clamped into
	// [0, Options.MaxWait]; zero probes the backlog and returns
	// immediately.
	Timeout time.Duration
}

// Summary aggregates a batch of delivered events.
type Summary struct {
	Total    int            `json:"total"`
	ByTarget map[string]int `json:"by_target"`
	ByType   map[string]int `json:"by_type"`
}

// WaitResult is the resolution of a wait_for_updates call.
type WaitResult struct {
	Status      string  `json:"status"` // "updates" or "timeout"
	Events      []Event `json:"events"`
	Summary     Summary `json:"summary"`
	LastEventID int64   `json:"last_event_id"`
	Duration    float64 `json:"duration"` // seconds actually waited
}

// WaitForUpdates blocks until an event matching the request arrives,
// the timeout expires, ctx is cancelled, or the bus stops.
//
// The fast path scans the backlog under the bus lock and returns any
// matches without parking. Otherwise the waiter registers under that
// same lock acquisition, which is what rules out the lost wakeup: an
// Emit running concurrently either lands in the scan or sees the
// registered waiter. A burst of events between wake and re-scan is
// delivered as one batch.
//
// On delivery the connection cursor advances to the newest delivered
// id; on timeout it stays put and LastEventID echoes the cursor that
// was used.
func (b *Bus) WaitForUpdates(ctx context.Context, req WaitRequest) (*WaitResult, error) {
	start := time.Now()

	connID := req.ConnectionID
	if connID == "" {
		connID = DefaultConnectionID
	}

	timeout := req.Timeout
	if timeout < 0 {
		timeout = 0
	}
	if timeout > b.opts.MaxWait {
		timeout = b.opts.MaxWait
	}

	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil, ErrNotRunning
	}

	conn := b.touchLocked(connID, start)
	since := conn.cursor
	if req.Since != nil {
		since = *req.Since
		if since < 0 {
			since = 0
		}
	}
	f := Filter{Targets: req.Targets, MinPriority: clampPriority(req.MinPriority), Since: since}

	if evs := b.collectLocked(f); len(evs) > 0 {
		advanceCursor(conn, evs)
		b.mu.Unlock()
		return updatesResult(evs, start), nil
	}

	if timeout == 0 {
		b.mu.Unlock()
		return timeoutResult(since, start), nil
	}

	w := &waiter{filter: f, notify: make(chan struct{}, 1)}
	id := b.nextWaiter
	b.nextWaiter++
	b.waiters[id] = w
	stopCh := b.stopCh
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.waiters, id)
		b.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-stopCh:
			return nil, ErrNotRunning
		case <-timer.C:
			return timeoutResult(since, start), nil
		case <-w.notify:
			b.mu.Lock()
			evs := b.collectLocked(f)
			if len(evs) == 0 {
				// The matching event was evicted before we got the
				// lock. Keep waiting out the remaining timeout.
				b.mu.Unlock()
				continue
			}
			conn := b.touchLocked(connID, time.Now())
			advanceCursor(conn, evs)
			b.mu.Unlock()
			return updatesResult(evs, start), nil
		}
	}
}

func advanceCursor(c *connection, delivered []Event) {
	if last := delivered[len(delivered)-1].ID; last > c.cursor {
		c.cursor = last
	}
}

func updatesResult(evs []Event, start time.Time) *WaitResult {
	return &WaitResult{
		Status:      "updates",
		Events:      evs,
		Summary:     summarize(evs),
		LastEventID: evs[len(evs)-1].ID,
		Duration:    time.Since(start).Seconds(),
	}
}

func timeoutResult(since int64, start time.Time) *WaitResult {
	return &WaitResult{
		Status:      "timeout",
		Events:      []Event{},
		Summary:     summarize(nil),
		LastEventID: since,
		Duration:    time.Since(start).Seconds(),
	}
}

func summarize(evs []Event) Summary {
	s := Summary{
		Total:    len(evs),
		ByTarget: make(map[string]int),
		ByType:   make(map[string]int),
	}
	for _, ev := range evs {
		s.ByTarget[ev.Target]++
		s.ByType[string(ev.Type)]++
	}
	return s
}

// SyncRequest parameterizes a sync_changes call.
type SyncRequest struct {
	ConnectionID string
	LastSyncID   int64
	IncludeState bool
}

// SyncResult carries the catch-up answer. HistoryTruncated reports
// that eviction swallowed part of the requested range, so the events
// slice is not the complete story and the caller should fall back to
// full state.
type SyncResult struct {
	Events           []Event        `json:"events"`
	NextSyncID       int64          `json:"next_sync_id"`
	HistoryTruncated bool           `json:"history_truncated,omitempty"`
	State            map[string]any `json:"state,omitempty"`
}

// SnapshotProvider supplies full-state snapshots for sync_changes.
// Defined here at the consumer side; the notes and tasks stores are
// wired in behind it.
type SnapshotProvider interface {
	Kinds() []string
	Snapshot(ctx context.Context, kind string) ([]map[string]any, error)
}

// SyncChanges returns all resident events after LastSyncID plus the
// cursor to use next time. It mutates nothing except the connection
// liveness timestamp: calling it twice without intervening emits
// yields identical results. Snapshot loading runs outside the bus
// lock; a provider error fails the whole call.
func (b *Bus) SyncChanges(ctx context.Context, req SyncRequest, provider SnapshotProvider) (*SyncResult, error) {
	connID := req.ConnectionID
	if connID == "" {
		connID = DefaultConnectionID
	}
	last := req.LastSyncID
	if last < 0 {
		last = 0
	}

	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil, ErrNotRunning
	}

	evs := b.log.since(last)
	next := last
	if len(evs) > 0 {
		next = evs[len(evs)-1].ID
	}
	oldest := b.log.oldest()
	truncated := b.log.latest() > last && (oldest == 0 || oldest > last+1)
	b.touchLocked(connID, time.Now())
	b.mu.Unlock()

	if evs == nil {
		evs = []Event{}
	}
	res := &SyncResult{
		Events:           evs,
		NextSyncID:       next,
		HistoryTruncated: truncated,
	}

	if req.IncludeState && provider != nil {
		state := make(map[string]any)
		for _, kind := range provider.Kinds() {
			items, err := provider.Snapshot(ctx, kind)
			if err != nil {
				return nil, fmt.Errorf("snapshot %s: %w", kind, err)
			}
			state[kind] = items
		}
		res.State = state
	}

	return res, nil
}
