package notes

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btouchard/beacon/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewManager(s)
}

func TestManager_Write_CreatesWithSlugID(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	n, created, err := m.Write(WriteInput{Title: "Meeting Notes: Q3 Planning!", Content: "Agenda items."})
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "meeting-notes-q3-planning", n.ID)
	assert.Equal(t, "Meeting Notes: Q3 Planning!", n.Title)
	assert.Equal(t, "Agenda items.", n.Summary)
}

func TestManager_Write_SlugCollision_AppendsSuffix(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	first, _, err := m.Write(WriteInput{Title: "Daily log", Content: "a"})
	require.NoError(t, err)
	second, _, err := m.Write(WriteInput{Title: "Daily log", Content: "b"})
	require.NoError(t, err)
	third, _, err := m.Write(WriteInput{Title: "Daily log", Content: "c"})
	require.NoError(t, err)

	assert.Equal(t, "daily-log", first.ID)
	assert.Equal(t, "daily-log-2", second.ID)
	assert.Equal(t, "daily-log-3", third.ID)
}

func TestManager_Write_ExistingID_Updates(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	orig, created, err := m.Write(WriteInput{Title: "Journal", Content: "day one"})
	require.NoError(t, err)
	require.True(t, created)

	updated, created, err := m.Write(WriteInput{ID: orig.ID, Content: "day two"})
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, orig.ID, updated.ID)
	assert.Equal(t, "Journal", updated.Title, "omitted title keeps the stored one")
	assert.Equal(t, "day two", updated.Content)
	assert.WithinDuration(t, orig.CreatedAt, updated.CreatedAt, time.Second, "creation time survives updates")

	got, err := m.Get(orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "day two", got.Content)
}

func TestManager_Write_UnknownID_Fails(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	_, _, err := m.Write(WriteInput{ID: "no-such-note", Title: "x", Content: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Write_RequiresTitle(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	_, _, err := m.Write(WriteInput{Title: "   ", Content: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}

func TestManager_Write_RequiresContent(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	_, _, err := m.Write(WriteInput{Title: "Empty", Content: " \n "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content is required")
}

func TestManager_Write_ExplicitSummaryWins(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	n, _, err := m.Write(WriteInput{Title: "Summarized", Content: "the full body", Summary: "hand-written summary"})
	require.NoError(t, err)

	assert.Equal(t, "hand-written summary", n.Summary)
}

func TestManager_Write_DerivesSummaryFromLongContent(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	content := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	n, _, err := m.Write(WriteInput{Title: "Long", Content: content})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(n.Summary, "…"), "truncated summary ends with an ellipsis")
	assert.LessOrEqual(t, len([]rune(n.Summary)), summaryLimit+1)
	assert.False(t, strings.HasSuffix(strings.TrimSuffix(n.Summary, "…"), " "), "cut lands on a word boundary")
}

func TestManager_Write_NormalizesTags(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	n, _, err := m.Write(WriteInput{Title: "Tagged", Content: "x", Tags: []string{" Work ", "work", "URGENT", ""}})
	require.NoError(t, err)

	assert.Equal(t, []string{"work", "urgent"}, n.Tags)
}

func TestManager_Get_NotFound(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	_, err := m.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	n, _, err := m.Write(WriteInput{Title: "Temp", Content: "x"})
	require.NoError(t, err)

	require.NoError(t, m.Delete(n.ID))

	_, err = m.Get(n.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.Delete(n.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_List_FiltersByTagNewestFirst(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	_, _, err := m.Write(WriteInput{Title: "Old work", Content: "x", Tags: []string{"work"}})
	require.NoError(t, err)
	_, _, err = m.Write(WriteInput{Title: "Private", Content: "x", Tags: []string{"home"}})
	require.NoError(t, err)
	_, _, err = m.Write(WriteInput{Title: "New work", Content: "x", Tags: []string{"Work"}})
	require.NoError(t, err)

	work, err := m.List(ListFilter{Tags: []string{"work"}})
	require.NoError(t, err)
	require.Len(t, work, 2)

	all, err := m.List(ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Simple Title", "simple-title"},
		{"  spaces  everywhere  ", "spaces-everywhere"},
		{"Symbols & Punctuation!!!", "symbols-punctuation"},
		{"Déjà vu", "déjà-vu"},
		{"123 go", "123-go"},
		{"!!!", "note"},
		{strings.Repeat("a", 100), strings.Repeat("a", maxSlugLen)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.title), "slugify(%q)", tt.title)
	}
}

func TestDeriveSummary(t *testing.T) {
	t.Parallel()

	short := deriveSummary("A short note.")
	assert.Equal(t, "A short note.", short)

	multiline := deriveSummary("line one\nline   two\n\nline three")
	assert.Equal(t, "line one line two line three", multiline)

	long := deriveSummary(strings.Repeat("word ", 60))
	assert.True(t, strings.HasSuffix(long, "…"))
	assert.LessOrEqual(t, len([]rune(long)), summaryLimit+1)

	unbroken := deriveSummary(strings.Repeat("x", 400))
	assert.Equal(t, summaryLimit+1, len([]rune(unbroken)), "unbreakable content is hard cut")
}
