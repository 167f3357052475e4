package notes

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/btouchard/beacon/internal/store"
)

// ErrNotFound is returned when a note does not exist.
var ErrNotFound = errors.New("note not found")

// Store is the persistence surface the manager needs.
type Store interface {
	PutNote(n *store.NoteRecord) error
	GetNote(id string) (*store.NoteRecord, error)
	DeleteNote(id string) error
	ListNotes(f store.NoteFilter) ([]store.NoteRecord, error)
}

// Manager handles note lifecycle: creation, updates, lookup, deletion.
type Manager struct {
	store Store
}

// NewManager creates a new note Manager backed by s.
func NewManager(s Store) *Manager {
	return &Manager{store: s}
}

// WriteInput carries the fields for creating or updating a note.
// An empty ID means a new note with an id derived from the title; a
// given ID must name an existing note. An empty Summary is derived
// from the content.
type WriteInput struct {
	ID      string
	Title   string
	Content string
	Summary string
	Tags    []string
}

// Write stores a note and reports whether it was created rather than updated.
func (m *Manager) Write(in WriteInput) (*Note, bool, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, false, fmt.Errorf("note content is required")
	}

	now := time.Now()
	title := strings.TrimSpace(in.Title)
	id := strings.TrimSpace(in.ID)
	createdAt := now
	created := id == ""

	if created {
		if title == "" {
			return nil, false, fmt.Errorf("note title is required")
		}
		slug, err := m.uniqueSlug(title)
		if err != nil {
			return nil, false, err
		}
		id = slug
	} else {
		existing, err := m.store.GetNote(id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, fmt.Errorf("note %q: %w", id, ErrNotFound)
		}
		if err != nil {
			return nil, false, fmt.Errorf("loading note: %w", err)
		}
		createdAt = existing.CreatedAt
		if title == "" {
			title = existing.Title
		}
	}

	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		summary = deriveSummary(in.Content)
	}

	n := &Note{
		ID:        id,
		Title:     title,
		Content:   in.Content,
		Summary:   summary,
		Tags:      normalizeTags(in.Tags),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}

	if err := m.store.PutNote(toRecord(n)); err != nil {
		return nil, false, fmt.Errorf("storing note: %w", err)
	}

	slog.Info("note written",
		"note_id", n.ID,
		"created", created)

	return n, created, nil
}

// Get returns a note by id.
func (m *Manager) Get(id string) (*Note, error) {
	rec, err := m.store.GetNote(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading note: %w", err)
	}
	return fromRecord(rec), nil
}

// Delete removes a note by id.
func (m *Manager) Delete(id string) error {
	if err := m.store.DeleteNote(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("note %q: %w", id, ErrNotFound)
		}
		return fmt.Errorf("deleting note: %w", err)
	}

	slog.Info("note deleted", "note_id", id)
	return nil
}

// ListFilter specifies criteria for listing notes.
// Tags matches notes carrying any of the given tags.
type ListFilter struct {
	Tags  []string
	Limit int
}

// List returns notes most recently updated first.
func (m *Manager) List(f ListFilter) ([]Note, error) {
	recs, err := m.store.ListNotes(store.NoteFilter{
		Tags:  normalizeTags(f.Tags),
		Limit: f.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	notes := make([]Note, 0, len(recs))
	for i := range recs {
		notes = append(notes, *fromRecord(&recs[i]))
	}
	return notes, nil
}

// uniqueSlug derives an id from the title, suffixing -2, -3, ... until
// it does not collide with a stored note.
func (m *Manager) uniqueSlug(title string) (string, error) {
	base := slugify(title)
	id := base
	for i := 2; ; i++ {
		_, err := m.store.GetNote(id)
		if errors.Is(err, store.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking slug %s: %w", id, err)
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

func toRecord(n *Note) *store.NoteRecord {
	return &store.NoteRecord{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Summary:   n.Summary,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func fromRecord(rec *store.NoteRecord) *Note {
	return &Note{
		ID:        rec.ID,
		Title:     rec.Title,
		Content:   rec.Content,
		Summary:   rec.Summary,
		Tags:      rec.Tags,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
