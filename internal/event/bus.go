package event

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultConnectionID is used when a caller does not identify itself.
const DefaultConnectionID = "claude"

// ErrNotRunning is returned by bus operations outside the Start/Stop
// window. Emitters treat it as a degraded-mode signal: the business
// operation that produced the event already succeeded and stays
// successful.
var ErrNotRunning = errors.New("event bus is not running")

// Options configures a Bus. Zero fields fall back to defaults.
type Options struct {
	Capacity         int           // ring buffer size (default 1024)
	SubscriberBuffer int           // per-subscriber channel depth (default 64)
	ConnectionTTL    time.Duration // idle connection eviction (default 5m)
	MaxWait          time.Duration // ceiling for wait_for_updates timeouts (default 300s)
}

func (o Options) withDefaults() Options {
	if o.Capacity < 1 {
		o.Capacity = 1024
	}
	if o.SubscriberBuffer < 1 {
		o.SubscriberBuffer = 64
	}
	if o.ConnectionTTL <= 0 {
		o.ConnectionTTL = 5 * time.Minute
	}
	if o.MaxWait <= 0 {
		o.MaxWait = 300 * time.Second
	}
	return o
}

// Bus owns the event log, the parked waiters, the streaming
// subscribers, and the connection pool. A single mutex serializes
// append and registry mutation so a waiter can scan the backlog and
// park atomically — an event emitted concurrently either shows up in
// the scan or finds the waiter registered. Critical sections only
// copy slices and flip registry entries; all I/O happens outside.
type Bus struct {
	opts Options

	mu          sync.Mutex
	running     bool
	stopCh      chan struct{}
	log         *log
	rate        rateCounter
	total       int64
	waiters     map[uint64]*waiter
	subscribers map[uint64]*subscriber
	conns       map[string]*connection
	nextWaiter  uint64
	nextSub     uint64
}

// waiter is one parked wait_for_updates call. The notify channel has
// capacity 1: a burst of matching events collapses into a single
// wake, and the woken call batches the whole backlog in one scan.
type waiter struct {
	filter Filter
	notify chan struct{}
}

// subscriber is one streaming consumer (SSE). Delivery is
// non-blocking: a full channel drops the subscriber instead of ever
// stalling Emit.
type subscriber struct {
	id     uint64
	connID string
	filter Filter
	ch     chan Event
	closed bool
}

// connection tracks per-client state across calls: the resume cursor
// used when wait_for_updates passes no explicit since, and the last
// activity time for liveness accounting.
type connection struct {
	cursor   int64
	lastSeen time.Time
}

// New creates a stopped Bus. Call Start before emitting.
func New(opts Options) *Bus {
	return &Bus{
		opts:        opts.withDefaults(),
		waiters:     make(map[uint64]*waiter),
		subscribers: make(map[uint64]*subscriber),
		conns:       make(map[string]*connection),
	}
}

// Start allocates the ring buffer and marks the bus running. After a
// Stop/Start cycle the log starts empty but the id sequence continues
// where it left off — ids stay unique for the process lifetime.
func (b *Bus) Start() {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	var lastID int64
	if b.log != nil {
		lastID = b.log.latest()
	}
	b.log = newLog(b.opts.Capacity, lastID)
	b.stopCh = make(chan struct{})
	b.running = true
	b.mu.Unlock()

	slog.Info("event bus started",
		"capacity", b.opts.Capacity,
		"max_wait", b.opts.MaxWait)
}

// Stop wakes every parked waiter (they resolve with ErrNotRunning),
// closes and drops all streaming subscribers, and clears the
// connection pool. Further Emit calls fail with ErrNotRunning.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.stopCh)

	for _, s := range b.subscribers {
		if !s.closed {
			s.closed = true
			close(s.ch)
		}
	}
	b.subscribers = make(map[uint64]*subscriber)
	b.conns = make(map[string]*connection)
	total := b.total
	b.mu.Unlock()

	slog.Info("event bus stopped", "total_events", total)
}

// Emit validates the draft, assigns the next id and timestamp,
// appends, and notifies matching waiters and subscribers. It never
// blocks on a consumer.
func (b *Bus) Emit(d Draft) (Event, error) {
	if !d.Type.Valid() {
		return Event{}, fmt.Errorf("unknown event type %q", d.Type)
	}
	if d.Target == "" {
		return Event{}, errors.New("event target is required")
	}
	d.Priority = clampPriority(d.Priority)

	var dropped []uint64

	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return Event{}, ErrNotRunning
	}

	now := time.Now()
	ev := b.log.append(d, now)
	b.total++
	b.rate.record(now)

	for _, w := range b.waiters {
		if !w.filter.Matches(ev) {
			continue
		}
		select {
		case w.notify <- struct{}{}:
		default: // already signalled, wake pending
		}
	}

	for id, s := range b.subscribers {
		if !s.filter.Matches(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			// Slow consumer: cut it loose rather than stall the
			// emitter or buffer without bound.
			s.closed = true
			close(s.ch)
			delete(b.subscribers, id)
			dropped = append(dropped, id)
		}
	}
	b.mu.Unlock()

	for _, id := range dropped {
		slog.Warn("dropped slow event subscriber", "subscriber_id", id)
	}

	slog.Debug("event emitted",
		"id", ev.ID,
		"type", string(ev.Type),
		"target", ev.Target,
		"priority", ev.Priority.String())

	return ev, nil
}

// Subscription is a live event feed handed to a streaming consumer.
// Backlog holds the replayed events (filter applied) that preceded
// registration; C carries everything after. The split is atomic: no
// event is lost between the two, none appears in both.
type Subscription struct {
	ID      uint64
	Backlog []Event
	C       <-chan Event

	bus *Bus
}

// Close deregisters the subscription. Safe to call more than once,
// and safe concurrently with the bus dropping the subscriber.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.ID)
}

// Subscribe registers a streaming subscriber. The zero Filter matches
// everything. When replay is true, events with id > f.Since still
// resident in the log are returned as Backlog.
func (b *Bus) Subscribe(connectionID string, f Filter, replay bool) (*Subscription, error) {
	if connectionID == "" {
		connectionID = DefaultConnectionID
	}

	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil, ErrNotRunning
	}

	var backlog []Event
	if replay {
		backlog = b.collectLocked(f)
	}

	id := b.nextSub
	b.nextSub++
	s := &subscriber{
		id:     id,
		connID: connectionID,
		filter: f,
		ch:     make(chan Event, b.opts.SubscriberBuffer),
	}
	b.subscribers[id] = s
	b.touchLocked(connectionID, time.Now())
	b.mu.Unlock()

	slog.Debug("event subscriber registered",
		"subscriber_id", id,
		"connection_id", connectionID,
		"replayed", len(backlog))

	return &Subscription{ID: id, Backlog: backlog, C: s.ch, bus: b}, nil
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	s, ok := b.subscribers[id]
	if ok {
		if !s.closed {
			s.closed = true
			close(s.ch)
		}
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Touch refreshes the liveness timestamp for a connection, creating
// the pool entry on first contact. New entries start their cursor at
// the current latest id so a fresh client only sees new events.
func (b *Bus) Touch(connectionID string) {
	if connectionID == "" {
		return
	}
	b.mu.Lock()
	if b.running {
		b.touchLocked(connectionID, time.Now())
	}
	b.mu.Unlock()
}

// Forget removes a connection from the pool (e.g. after a streaming
// client disconnects for good).
func (b *Bus) Forget(connectionID string) {
	b.mu.Lock()
	delete(b.conns, connectionID)
	b.mu.Unlock()
}

// touchLocked must be called with b.mu held and the bus running.
func (b *Bus) touchLocked(connectionID string, now time.Time) *connection {
	b.pruneConnsLocked(now)
	c, ok := b.conns[connectionID]
	if !ok {
		c = &connection{cursor: b.log.latest()}
		b.conns[connectionID] = c
	}
	c.lastSeen = now
	return c
}

func (b *Bus) pruneConnsLocked(now time.Time) {
	for id, c := range b.conns {
		if now.Sub(c.lastSeen) > b.opts.ConnectionTTL {
			delete(b.conns, id)
		}
	}
}

// collectLocked returns the filtered backlog, ascending by id.
// Must be called with b.mu held and the bus running.
func (b *Bus) collectLocked(f Filter) []Event {
	all := b.log.since(f.Since)
	if len(all) == 0 {
		return nil
	}
	out := all[:0]
	for _, ev := range all {
		if f.Matches(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// LatestID returns the id of the most recently emitted event, 0 when
// nothing has been emitted yet.
func (b *Bus) LatestID() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.log == nil {
		return 0
	}
	return b.log.latest()
}
