package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T, opts Options) *Bus {
	t.Helper()
	b := New(opts)
	b.Start()
	t.Cleanup(b.Stop)
	return b
}

func noteDraft(p Priority) Draft {
	return Draft{Type: TypeCreate, Target: "note", Priority: p, Payload: map[string]any{"note_id": "n1"}}
}

func taskDraft(p Priority) Draft {
	return Draft{Type: TypeUpdate, Target: "task", Priority: p, Payload: map[string]any{"task_id": "task-1"}}
}

func TestBus_Emit_AssignsIncreasingIDs(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{})

	first, err := b.Emit(noteDraft(PriorityNormal))
	require.NoError(t, err)
	second, err := b.Emit(taskDraft(PriorityHigh))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.False(t, first.Timestamp.IsZero())
	assert.Equal(t, int64(2), b.LatestID())
}

func TestBus_Emit_RejectsInvalidDrafts(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{})

	_, err := b.Emit(Draft{Type: "EXPLODE", Target: "note"})
	assert.ErrorContains(t, err, "unknown event type")

	_, err = b.Emit(Draft{Type: TypeCreate})
	assert.ErrorContains(t, err, "target is required")
}

func TestBus_Emit_ClampsUnknownPriority(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{})

	ev, err := b.Emit(Draft{Type: TypeCreate, Target: "note", Priority: Priority(42)})
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, ev.Priority)
}

func TestBus_Emit_WhenStopped_ReturnsErrNotRunning(t *testing.T) {
	t.Parallel()
	b := New(Options{})
	b.Start()
	b.Stop()

	_, err := b.Emit(noteDraft(PriorityNormal))
	assert.True(t, errors.Is(err, ErrNotRunning))
}

func TestBus_Emit_BeforeStart_ReturnsErrNotRunning(t *testing.T) {
	t.Parallel()
	b := New(Options{})

	_, err := b.Emit(noteDraft(PriorityNormal))
	assert.True(t, errors.Is(err, ErrNotRunning))
}

func TestBus_StartAfterStop_ContinuesIDSequence(t *testing.T) {
	t.Parallel()
	b := New(Options{})
	b.Start()

	_, err := b.Emit(noteDraft(PriorityNormal))
	require.NoError(t, err)
	_, err = b.Emit(noteDraft(PriorityNormal))
	require.NoError(t, err)

	b.Stop()
	b.Start()
	defer b.Stop()

	ev, err := b.Emit(noteDraft(PriorityNormal))
	require.NoError(t, err)
	assert.Equal(t, int64(3), ev.ID, "ids must stay unique across restarts")
	assert.Equal(t, 1, len(mustSync(t, b, 0).Events), "restart empties the log")
}

func mustSync(t *testing.T, b *Bus, last int64) *SyncResult {
	t.Helper()
	res, err := b.SyncChanges(context.Background(), SyncRequest{LastSyncID: last}, nil)
	require.NoError(t, err)
	return res
}

func TestBus_Subscribe_ReceivesLiveEvents(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{})

	sub, err := b.Subscribe("web-test", Filter{}, false)
	require.NoError(t, err)
	defer sub.Close()

	emitted, err := b.Emit(noteDraft(PriorityHigh))
	require.NoError(t, err)

	select {
	case got := <-sub.C:
		assert.Equal(t, emitted.ID, got.ID)
		assert.Equal(t, TypeCreate, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not receive the event")
	}
}

func TestBus_Subscribe_FilterExcludesNonMatching(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{})

	sub, err := b.Subscribe("web-test", Filter{Targets: []string{"note"}}, false)
	require.NoError(t, err)
	defer sub.Close()

	_, err = b.Emit(taskDraft(PriorityCritical))
	require.NoError(t, err)
	matching, err := b.Emit(noteDraft(PriorityLow))
	require.NoError(t, err)

	select {
	case got := <-sub.C:
		assert.Equal(t, matching.ID, got.ID, "the task event must have been skipped")
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not receive the note event")
	}
}

func TestBus_Subscribe_ReplayThenLive_NoGapNoDuplicate(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{})

	for i := 0; i < 3; i++ {
		_, err := b.Emit(noteDraft(PriorityNormal))
		require.NoError(t, err)
	}

	// Reconnect having last seen id 1: ids 2..3 replay, the rest stream.
	sub, err := b.Subscribe("web-test", Filter{Since: 1}, true)
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 2; i++ {
		_, err := b.Emit(noteDraft(PriorityNormal))
		require.NoError(t, err)
	}

	var ids []int64
	for _, ev := range sub.Backlog {
		ids = append(ids, ev.ID)
	}
	for len(ids) < 4 {
		select {
		case ev := <-sub.C:
			ids = append(ids, ev.ID)
		case <-time.After(2 * time.Second):
			t.Fatalf("stream stalled, got ids %v", ids)
		}
	}

	assert.Equal(t, []int64{2, 3, 4, 5}, ids)
}

func TestBus_Subscribe_SlowConsumer_IsDropped(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{SubscriberBuffer: 2})

	sub, err := b.Subscribe("web-slow", Filter{}, false)
	require.NoError(t, err)

	// Nobody drains the channel: the third matching emit overflows
	// the buffer and must cut the subscriber loose without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 4; i++ {
			_, _ = b.Emit(noteDraft(PriorityNormal))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow subscriber")
	}

	received := 0
	for range sub.C {
		received++
	}
	assert.Equal(t, 2, received, "only the buffered events arrive before the drop")
}

func TestBus_Subscribe_WhenStopped_ChannelCloses(t *testing.T) {
	t.Parallel()
	b := New(Options{})
	b.Start()

	sub, err := b.Subscribe("web-test", Filter{}, false)
	require.NoError(t, err)

	b.Stop()

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok, "channel must be closed after Stop")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Stop")
	}
}

func TestBus_Subscribe_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{})

	sub, err := b.Subscribe("web-test", Filter{}, false)
	require.NoError(t, err)

	sub.Close()
	sub.Close() // must not panic
}

func TestBus_Subscribe_WhenNotRunning_ReturnsError(t *testing.T) {
	t.Parallel()
	b := New(Options{})

	_, err := b.Subscribe("web-test", Filter{}, false)
	assert.True(t, errors.Is(err, ErrNotRunning))
}

func TestBus_Metrics_TracksTotalsAndConnections(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{})

	for i := 0; i < 3; i++ {
		_, err := b.Emit(noteDraft(PriorityNormal))
		require.NoError(t, err)
	}
	b.Touch("conn-a")
	b.Touch("conn-b")
	b.Touch("conn-a")

	m := b.Metrics()
	assert.Equal(t, int64(3), m.TotalEvents)
	assert.Equal(t, 2, m.ActiveConnections)
	assert.Greater(t, m.EventsPerSecond, 0.0)
}

func TestBus_Metrics_PrunesIdleConnections(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{ConnectionTTL: 50 * time.Millisecond})

	b.Touch("conn-a")
	time.Sleep(100 * time.Millisecond)

	m := b.Metrics()
	assert.Equal(t, 0, m.ActiveConnections)
}

func TestBus_Metrics_TotalSurvivesEviction(t *testing.T) {
	t.Parallel()
	b := newTestBus(t, Options{Capacity: 4})

	for i := 0; i < 10; i++ {
		_, err := b.Emit(noteDraft(PriorityNormal))
		require.NoError(t, err)
	}

	m := b.Metrics()
	assert.Equal(t, int64(10), m.TotalEvents, "total counts emissions, not resident events")
}
