package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/beacon/internal/event"
)

func emitDraft(t *testing.T, bus *event.Bus, target string, typ event.Type, prio event.Priority) event.Event {
	t.Helper()
	ev, err := bus.Emit(event.Draft{Type: typ, Target: target, Priority: prio})
	require.NoError(t, err)
	return ev
}

// --- WaitUpdates tests ---

func TestWaitUpdates_WhenBacklogMatches_ReturnsUpdates(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := WaitUpdates(d.bus, 30*time.Second)

	emitDraft(t, d.bus, "note", event.TypeCreate, event.PriorityHigh)

	result, err := handler(context.Background(), makeReq(map[string]any{
		"since":   float64(0),
		"timeout": float64(0),
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Equal(t, "updates", out["status"])
	events := out["events"].([]any)
	require.Len(t, events, 1)
	assert.Equal(t, "note", events[0].(map[string]any)["target"])
	assert.Equal(t, float64(1), out["last_event_id"])
}

func TestWaitUpdates_WhenTimeoutZeroAndNoBacklog_ReturnsImmediately(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := WaitUpdates(d.bus, 30*time.Second)

	start := time.Now()
	result, err := handler(context.Background(), makeReq(map[string]any{
		"timeout": float64(0),
	}))
	elapsed := time.Since(start)

	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "timeout", out["status"])
	assert.Less(t, elapsed, 500*time.Millisecond, "timeout=0 should probe and return")
}

func TestWaitUpdates_WhenEventArrivesDuringWait_Wakes(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := WaitUpdates(d.bus, 30*time.Second)

	go func() {
		time.Sleep(300 * time.Millisecond)
		_, _ = d.bus.Emit(event.Draft{Type: event.TypeUpdate, Target: "task", Priority: event.PriorityNormal})
	}()

	start := time.Now()
	result, err := handler(context.Background(), makeReq(map[string]any{
		"targets": []any{"task"},
		"timeout": float64(5),
	}))
	elapsed := time.Since(start)

	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "updates", out["status"])
	assert.Greater(t, elapsed, 200*time.Millisecond, "should have parked until the emit")
	assert.Less(t, elapsed, 2*time.Second, "should wake soon after the emit")
}

func TestWaitUpdates_WhenNoTimeoutGiven_UsesDefault(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := WaitUpdates(d.bus, 300*time.Millisecond)

	start := time.Now()
	result, err := handler(context.Background(), makeReq(map[string]any{}))
	elapsed := time.Since(start)

	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "timeout", out["status"])
	assert.Greater(t, elapsed, 200*time.Millisecond, "should wait out the default timeout")
	assert.Less(t, elapsed, 2*time.Second)
}

func TestWaitUpdates_PriorityFloorFiltersEvents(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := WaitUpdates(d.bus, 30*time.Second)

	emitDraft(t, d.bus, "note", event.TypeList, event.PriorityLow)
	emitDraft(t, d.bus, "note", event.TypeDelete, event.PriorityHigh)

	result, err := handler(context.Background(), makeReq(map[string]any{
		"since":        float64(0),
		"timeout":      float64(0),
		"priority_min": "HIGH",
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Equal(t, "updates", out["status"])
	events := out["events"].([]any)
	require.Len(t, events, 1)
	assert.Equal(t, "DELETE", events[0].(map[string]any)["type"])
}

func TestWaitUpdates_WhenBusStopped_ReturnsErrorStatus(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := WaitUpdates(d.bus, 30*time.Second)

	d.bus.Stop()

	result, err := handler(context.Background(), makeReq(map[string]any{
		"timeout": float64(1),
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "not running")
}

func TestWaitUpdates_WhenContextCancelled_ReturnsError(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := WaitUpdates(d.bus, 30*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := handler(ctx, makeReq(map[string]any{
		"timeout": float64(10),
	}))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// --- SyncChanges tests ---

func TestSyncChanges_ReturnsEventsAfterCursor(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := SyncChanges(d.bus, nil)

	emitDraft(t, d.bus, "note", event.TypeCreate, event.PriorityHigh)
	emitDraft(t, d.bus, "task", event.TypeCreate, event.PriorityNormal)
	emitDraft(t, d.bus, "task", event.TypeUpdate, event.PriorityNormal)

	result, err := handler(context.Background(), makeReq(map[string]any{
		"last_sync_id": float64(1),
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	events := out["events"].([]any)
	require.Len(t, events, 2)
	assert.Equal(t, float64(2), events[0].(map[string]any)["id"])
	assert.Equal(t, float64(3), out["next_sync_id"])
	_, truncated := out["history_truncated"]
	assert.False(t, truncated, "nothing was evicted")
}

func TestSyncChanges_WhenNoNews_EchoesCursor(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := SyncChanges(d.bus, nil)

	emitDraft(t, d.bus, "note", event.TypeCreate, event.PriorityHigh)

	result, err := handler(context.Background(), makeReq(map[string]any{
		"last_sync_id": float64(1),
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Empty(t, out["events"])
	assert.Equal(t, float64(1), out["next_sync_id"])
}

type stubProvider struct {
	fail bool
}

func (p *stubProvider) Kinds() []string { return []string{"notes", "tasks"} }

func (p *stubProvider) Snapshot(_ context.Context, kind string) ([]map[string]any, error) {
	if p.fail {
		return nil, errors.New("store offline")
	}
	return []map[string]any{{"id": kind + "-1"}}, nil
}

func TestSyncChanges_WhenIncludeFullState_LoadsSnapshots(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := SyncChanges(d.bus, &stubProvider{})

	result, err := handler(context.Background(), makeReq(map[string]any{
		"include_full_state": true,
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	state := out["state"].(map[string]any)
	assert.Contains(t, state, "notes")
	assert.Contains(t, state, "tasks")
}

func TestSyncChanges_WhenProviderFails_ReturnsErrorPayload(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := SyncChanges(d.bus, &stubProvider{fail: true})

	result, err := handler(context.Background(), makeReq(map[string]any{
		"include_full_state": true,
	}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "store offline")
}

func TestSyncChanges_WhenBusStopped_ReturnsErrorStatus(t *testing.T) {
	t.Parallel()
	d := newTestDeps(t)
	handler := SyncChanges(d.bus, nil)

	d.bus.Stop()

	result, err := handler(context.Background(), makeReq(map[string]any{}))
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Equal(t, "error", out["status"])
}
