package event

import (
	"fmt"
	"time"
)

// log is a fixed-capacity ring of events. It carries no lock of its
// own: the Bus serializes every access so that appends and waiter
// registration share one synchronization domain.
type log struct {
	buf    []Event
	head   int // index of the oldest entry
	count  int
	lastID int64
}

func newLog(capacity int, lastID int64) *log {
	if capacity < 1 {
		capacity = 1
	}
	return &log{
		buf:    make([]Event, capacity),
		lastID: lastID,
	}
}

// append assigns the next id and timestamp to the draft, stores the
// resulting event (evicting the oldest entry when full), and returns
// it. Ids increase strictly; the sequence never resets or reuses.
func (l *log) append(d Draft, now time.Time) Event {
	id := l.lastID + 1
	if id <= l.lastID {
		panic(fmt.Sprintf("event: id sequence corrupted (last=%d next=%d)", l.lastID, id))
	}
	l.lastID = id

	ev := Event{
		ID:        id,
		Type:      d.Type,
		Target:    d.Target,
		Priority:  d.Priority,
		Payload:   d.Payload,
		UIHint:    d.UIHint,
		Timestamp: now,
	}

	if l.count < len(l.buf) {
		l.buf[(l.head+l.count)%len(l.buf)] = ev
		l.count++
	} else {
		l.buf[l.head] = ev
		l.head = (l.head + 1) % len(l.buf)
	}

	return ev
}

// since returns a copy of all resident events with id > after, in
// ascending id order. Events already evicted are simply absent.
func (l *log) since(after int64) []Event {
	if l.count == 0 || l.lastID <= after {
		return nil
	}

	out := make([]Event, 0, l.count)
	for i := 0; i < l.count; i++ {
		ev := l.buf[(l.head+i)%len(l.buf)]
		if ev.ID > after {
			out = append(out, ev)
		}
	}
	return out
}

// latest returns the id of the newest event ever appended (0 if none).
func (l *log) latest() int64 {
	return l.lastID
}

// oldest returns the id of the oldest resident event (0 when empty).
func (l *log) oldest() int64 {
	if l.count == 0 {
		return 0
	}
	return l.buf[l.head].ID
}

func (l *log) size() int {
	return l.count
}
