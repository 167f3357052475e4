package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func appendN(l *log, n int) {
	for i := 0; i < n; i++ {
		l.append(Draft{Type: TypeCreate, Target: "note", Priority: PriorityNormal}, time.Now())
	}
}

func TestLog_Append_AssignsSequentialIDs(t *testing.T) {
	t.Parallel()
	l := newLog(10, 0)

	first := l.append(Draft{Type: TypeCreate, Target: "note"}, time.Now())
	second := l.append(Draft{Type: TypeUpdate, Target: "task"}, time.Now())

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, int64(2), l.latest())
}

func TestLog_Append_ContinuesFromSeed(t *testing.T) {
	t.Parallel()
	l := newLog(10, 41)

	ev := l.append(Draft{Type: TypeCreate, Target: "note"}, time.Now())
	assert.Equal(t, int64(42), ev.ID)
}

func TestLog_Since_ReturnsOnlyNewerAscending(t *testing.T) {
	t.Parallel()
	l := newLog(10, 0)
	appendN(l, 5)

	got := l.since(2)
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(4), got[1].ID)
	assert.Equal(t, int64(5), got[2].ID)
}

func TestLog_Since_AtLatest_ReturnsNothing(t *testing.T) {
	t.Parallel()
	l := newLog(10, 0)
	appendN(l, 3)

	assert.Empty(t, l.since(3))
	assert.Empty(t, l.since(99))
}

func TestLog_Eviction_DropsOldestFirst(t *testing.T) {
	t.Parallel()
	l := newLog(3, 0)
	appendN(l, 5)

	assert.Equal(t, 3, l.size())
	assert.Equal(t, int64(3), l.oldest())
	assert.Equal(t, int64(5), l.latest())

	got := l.since(0)
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(5), got[2].ID)
}

func TestLog_Oldest_EmptyLogReturnsZero(t *testing.T) {
	t.Parallel()
	l := newLog(4, 0)

	assert.Equal(t, int64(0), l.oldest())
	assert.Equal(t, int64(0), l.latest())
	assert.Empty(t, l.since(0))
}

func TestProperty_LogOrderingAndBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 32).Draw(rt, "capacity")
		appends := rapid.IntRange(0, 100).Draw(rt, "appends")
		cursor := int64(rapid.IntRange(0, 100).Draw(rt, "cursor"))

		l := newLog(capacity, 0)
		var lastID int64
		for i := 0; i < appends; i++ {
			ev := l.append(Draft{Type: TypeCreate, Target: "note"}, time.Now())
			if ev.ID <= lastID {
				rt.Fatalf("id went backwards: %d after %d", ev.ID, lastID)
			}
			lastID = ev.ID
		}

		if l.size() > capacity {
			rt.Fatalf("resident count %d exceeds capacity %d", l.size(), capacity)
		}

		got := l.since(cursor)
		prev := cursor
		for _, ev := range got {
			if ev.ID <= prev {
				rt.Fatalf("since(%d) not strictly ascending: %d after %d", cursor, ev.ID, prev)
			}
			prev = ev.ID
		}

		// since must return exactly the resident ids in (cursor, latest]
		lo := l.oldest()
		want := 0
		for id := cursor + 1; id <= l.latest(); id++ {
			if id >= lo {
				want++
			}
		}
		if len(got) != want {
			rt.Fatalf("since(%d) returned %d events, want %d (oldest=%d latest=%d)",
				cursor, len(got), want, lo, l.latest())
		}
	})
}
