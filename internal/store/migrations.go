package store

// migrations holds one SQL script per schema version, applied in order.
// Never edit an existing entry once released; append a new one instead.
var migrations = []string{
	// v1: notes
	`CREATE TABLE notes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_notes_updated_at ON notes(updated_at);`,

	// v2: tasks; seq carries the creation-order number behind the
	// "task-N" id, since the id itself sorts lexicographically
	`CREATE TABLE tasks (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		priority TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_tasks_status ON tasks(status);
	CREATE UNIQUE INDEX idx_tasks_seq ON tasks(seq);`,

	// v3: monotonic counter behind task ids
	`CREATE TABLE task_seq (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next INTEGER NOT NULL
	);
	INSERT INTO task_seq (id, next) VALUES (1, 1);`,
}
