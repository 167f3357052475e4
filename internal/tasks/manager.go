package tasks

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/btouchard/beacon/internal/store"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("task not found")

// Store is the persistence surface the manager needs.
type Store interface {
	NextTaskSeq() (int64, error)
	CreateTask(t *store.TaskRecord) error
	GetTask(id string) (*store.TaskRecord, error)
	UpdateTask(t *store.TaskRecord) error
	DeleteTask(id string) error
	ListTasks(f store.TaskFilter) ([]store.TaskRecord, error)
}

// Manager handles task lifecycle: creation, updates, lookup, deletion.
type Manager struct {
	store Store
}

// NewManager creates a new task Manager backed by s.
func NewManager(s Store) *Manager {
	return &Manager{store: s}
}

// CreateInput carries the fields for a new task.
type CreateInput struct {
	Title       string
	Description string
	Priority    string
}

// Create makes a new task with the next sequential id.
func (m *Manager) Create(in CreateInput) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("task title is required")
	}

	prio := Priority(in.Priority)
	if in.Priority == "" {
		prio = PriorityMedium
	}
	if !prio.Valid() {
		return nil, fmt.Errorf("unknown priority %q", in.Priority)
	}

	seq, err := m.store.NextTaskSeq()
	if err != nil {
		return nil, fmt.Errorf("reserving task id: %w", err)
	}

	now := time.Now()
	t := &Task{
		ID:          fmt.Sprintf("task-%d", seq),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      StatusTodo,
		Priority:    prio,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rec := toRecord(t)
	rec.Seq = seq
	if err := m.store.CreateTask(rec); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	slog.Info("task created",
		"task_id", t.ID,
		"priority", string(t.Priority))

	return t, nil
}

// Get returns a task by id.
func (m *Manager) Get(id string) (*Task, error) {
	rec, err := m.store.GetTask(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}
	return fromRecord(rec), nil
}

// UpdateInput carries optional changes; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
}

// Update applies the given changes to a task.
func (m *Manager) Update(id string, in UpdateInput) (*Task, error) {
	rec, err := m.store.GetTask(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading task: %w", err)
	}

	t := fromRecord(rec)

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("task title is required")
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		status := Status(*in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q", *in.Status)
		}
		t.Status = status
	}
	if in.Priority != nil {
		prio := Priority(*in.Priority)
		if !prio.Valid() {
			return nil, fmt.Errorf("unknown priority %q", *in.Priority)
		}
		t.Priority = prio
	}
	t.UpdatedAt = time.Now()

	if err := m.store.UpdateTask(toRecord(t)); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	slog.Info("task updated",
		"task_id", t.ID,
		"status", string(t.Status))

	return t, nil
}

// Delete removes a task by id.
func (m *Manager) Delete(id string) error {
	if err := m.store.DeleteTask(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("task %q: %w", id, ErrNotFound)
		}
		return fmt.Errorf("deleting task: %w", err)
	}

	slog.Info("task deleted", "task_id", id)
	return nil
}

// ListFilter specifies criteria for listing tasks.
type ListFilter struct {
	Status   string
	Priority string
	Limit    int
}

// List returns tasks matching the filter, in creation order.
func (m *Manager) List(f ListFilter) ([]Task, error) {
	if f.Status != "" && f.Status != "all" && !Status(f.Status).Valid() {
		return nil, fmt.Errorf("unknown status %q", f.Status)
	}
	if f.Priority != "" && !Priority(f.Priority).Valid() {
		return nil, fmt.Errorf("unknown priority %q", f.Priority)
	}

	recs, err := m.store.ListTasks(store.TaskFilter{
		Status:   f.Status,
		Priority: f.Priority,
		Limit:    f.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	tasks := make([]Task, 0, len(recs))
	for i := range recs {
		tasks = append(tasks, *fromRecord(&recs[i]))
	}
	return tasks, nil
}

func toRecord(t *Task) *store.TaskRecord {
	return &store.TaskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func fromRecord(rec *store.TaskRecord) *Task {
	return &Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Status:      Status(rec.Status),
		Priority:    Priority(rec.Priority),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}
