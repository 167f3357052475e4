package event

import "time"

const rateWindow = 60 // seconds

// rateCounter tracks emissions per second over a sliding window.
// Callers pass the clock explicitly, which keeps tests free of
// sleeps; the Bus drives it with time.Now() under its lock.
type rateCounter struct {
	buckets [rateWindow]int64
	stamps  [rateWindow]int64 // unix second each bucket was last written
}

// record counts one emission in the bucket for now's second.
func (r *rateCounter) record(now time.Time) {
	sec := now.Unix()
	i := int(sec % rateWindow)
	if r.stamps[i] != sec {
		r.stamps[i] = sec
		r.buckets[i] = 0
	}
	r.buckets[i]++
}

// perSecond returns the average emission rate over the window ending
// at now.
func (r *rateCounter) perSecond(now time.Time) float64 {
	sec := now.Unix()
	var total int64
	for i := range rateWindow {
		if sec-r.stamps[i] < rateWindow {
			total += r.buckets[i]
		}
	}
	return float64(total) / rateWindow
}
