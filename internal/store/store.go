package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence interface for Beacon.
type Store interface {
	// Notes
	PutNote(n *NoteRecord) error
	GetNote(id string) (*NoteRecord, error)
	DeleteNote(id string) error
	ListNotes(f NoteFilter) ([]NoteRecord, error)

	// Tasks
	NextTaskSeq() (int64, error)
	CreateTask(t *TaskRecord) error
	GetTask(id string) (*TaskRecord, error)
	UpdateTask(t *TaskRecord) error
	DeleteTask(id string) error
	ListTasks(f TaskFilter) ([]TaskRecord, error)

	// Maintenance
	Close() error
}

// NoteRecord represents a persisted note.
type NoteRecord struct {
	ID        string
	Title     string
	Content   string
	Summary   string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteFilter specifies criteria for listing notes.
// Tags matches notes carrying any of the given tags.
type NoteFilter struct {
	Tags  []string
	Limit int
}

// TaskRecord represents a persisted task. Seq is the number reserved
// from NextTaskSeq and defines creation order; the id embeds it as
// "task-N" but sorts lexicographically, so listing orders by Seq.
type TaskRecord struct {
	ID          string
	Seq         int64
	Title       string
	Description string
	Status      string
	Priority    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	Status   string
	Priority string
	Limit    int
}
