package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, zero CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and runs migrations.
// The database file is kept at 0600 permissions and its parent directory at 0700.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
			if err != nil {
				return nil, fmt.Errorf("creating database file: %w", err)
			}
			_ = f.Close()
		} else if err == nil {
			if err := os.Chmod(path, 0600); err != nil {
				return nil, fmt.Errorf("tightening database permissions: %w", err)
			}
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	// Ensure schema_version table exists
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		slog.Info("applying migration", "version", i+1)
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", i+1); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Notes ---

func (s *SQLiteStore) PutNote(n *NoteRecord) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO notes (id, title, content, summary, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, n.Summary, encodeTags(n.Tags),
		formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("storing note: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetNote(id string) (*NoteRecord, error) {
	row := s.db.QueryRow(`SELECT id, title, content, summary, tags, created_at, updated_at
		FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *SQLiteStore) DeleteNote(id string) error {
	res, err := s.db.Exec("DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListNotes(f NoteFilter) ([]NoteRecord, error) {
	query := "SELECT id, title, content, summary, tags, created_at, updated_at FROM notes WHERE 1=1"
	var args []interface{}

	if len(f.Tags) > 0 {
		query += " AND ("
		for i, tag := range f.Tags {
			if i > 0 {
				query += " OR "
			}
			// Tags are stored as a JSON array, so the quoted form
			// only matches a whole tag.
			query += "tags LIKE ?"
			args = append(args, `%"`+tag+`"%`)
		}
		query += ")"
	}

	query += " ORDER BY updated_at DESC, id ASC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []NoteRecord
	for rows.Next() {
		n, err := scanNoteRows(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// --- Tasks ---

// NextTaskSeq reserves and returns the next task sequence number.
func (s *SQLiteStore) NextTaskSeq() (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting sequence transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int64
	if err := tx.QueryRow("SELECT next FROM task_seq WHERE id = 1").Scan(&next); err != nil {
		return 0, fmt.Errorf("reading task sequence: %w", err)
	}
	if _, err := tx.Exec("UPDATE task_seq SET next = ? WHERE id = 1", next+1); err != nil {
		return 0, fmt.Errorf("advancing task sequence: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing task sequence: %w", err)
	}
	return next, nil
}

func (s *SQLiteStore) CreateTask(t *TaskRecord) error {
	_, err := s.db.Exec(`INSERT INTO tasks (id, seq, title, description, status, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Seq, t.Title, t.Description, t.Status, t.Priority,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTask(id string) (*TaskRecord, error) {
	row := s.db.QueryRow(`SELECT id, seq, title, description, status, priority, created_at, updated_at
		FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SQLiteStore) UpdateTask(t *TaskRecord) error {
	_, err := s.db.Exec(`UPDATE tasks SET
		title = ?, description = ?, status = ?, priority = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, t.Status, t.Priority,
		formatTime(t.UpdatedAt),
		t.ID)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteTask(id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListTasks(f TaskFilter) ([]TaskRecord, error) {
	query := "SELECT id, seq, title, description, status, priority, created_at, updated_at FROM tasks WHERE 1=1"
	var args []interface{}

	if f.Status != "" && f.Status != "all" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		query += " AND priority = ?"
		args = append(args, f.Priority)
	}

	// Creation order is the seq number, not the id: "task-10" sorts
	// before "task-2" as text.
	query += " ORDER BY seq ASC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []TaskRecord
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// --- Helpers ---

func scanNote(row *sql.Row) (*NoteRecord, error) {
	var n NoteRecord
	var tags, createdAt, updatedAt string

	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Summary, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning note: %w", err)
	}

	n.Tags = decodeTags(tags)
	n.CreatedAt = parseTime(createdAt)
	n.UpdatedAt = parseTime(updatedAt)

	return &n, nil
}

func scanNoteRows(rows *sql.Rows) (*NoteRecord, error) {
	var n NoteRecord
	var tags, createdAt, updatedAt string

	err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Summary, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning note: %w", err)
	}

	n.Tags = decodeTags(tags)
	n.CreatedAt = parseTime(createdAt)
	n.UpdatedAt = parseTime(updatedAt)

	return &n, nil
}

func scanTask(row *sql.Row) (*TaskRecord, error) {
	var t TaskRecord
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.Seq, &t.Title, &t.Description, &t.Status, &t.Priority, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return &t, nil
}

func scanTaskRows(rows *sql.Rows) (*TaskRecord, error) {
	var t TaskRecord
	var createdAt, updatedAt string

	err := rows.Scan(&t.ID, &t.Seq, &t.Title, &t.Description, &t.Status, &t.Priority, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return &t, nil
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func decodeTags(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var tags []string
	_ = json.Unmarshal([]byte(s), &tags)
	return tags
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeFormat, s)
	return t
}
