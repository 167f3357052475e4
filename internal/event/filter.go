package event

// Filter selects a subset of events for a waiter or subscriber.
// The zero value matches every event.
type Filter struct {
	// Targets restricts matching to these resource categories.
	// Empty means all targets.
	Targets []string

	// MinPriority excludes events below this priority.
	MinPriority Priority

	// Since is an exclusive cursor: only events with a strictly
	// greater id match.
	Since int64
}

// Matches reports whether ev passes the filter. Pure function — no
// clock, no I/O — so matching behaves identically on the fast path,
// on wake, and during subscriber dispatch.
func (f Filter) Matches(ev Event) bool {
	if ev.ID <= f.Since {
		return false
	}
	if ev.Priority < f.MinPriority {
		return false
	}
	if len(f.Targets) == 0 {
		return true
	}
	for _, t := range f.Targets {
		if ev.Target == t {
			return true
		}
	}
	return false
}
