package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"medhub/pkg/a2a"
)

/*
SQLiteTaskStore persists tasks to a local SQLite file so task history
survives hub restarts.  The full task document is stored as a JSON blob
with the state denormalized into its own column for the terminal guard.
*/
type SQLiteTaskStore struct {
	db    *sql.DB
	locks keyedLocks
}

func NewSQLiteTaskStore(path string) (*SQLiteTaskStore, error) {
	db, err := sql.Open("sqlite", path)

	if err != nil {
		return nil, err
	}

	// The relay path issues interleaved reads and writes on one task, so a
	// single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id         TEXT PRIMARY KEY,
			context_id TEXT NOT NULL,
			state      TEXT NOT NULL,
			data       BLOB NOT NULL
		)
	`); err != nil {
		return nil, err
	}

	log.Info("sqlite task store ready", "path", path)

	return &SQLiteTaskStore{db: db}, nil
}

func (store *SQLiteTaskStore) Close() error {
	return store.db.Close()
}

// Create persists a fresh task.  Ids are never reused, so an existing row
// is a conflict rather than something to replace.
func (store *SQLiteTaskStore) Create(ctx context.Context, task *a2a.Task) error {
	lock := store.locks.lockFor(task.ID)
	lock.Lock()
	defer lock.Unlock()

	var count int

	if err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE id = ?`, task.ID,
	).Scan(&count); err != nil {
		return err
	}

	if count > 0 {
		return a2a.ErrTaskAlreadyExists.WithMessagef("task %s already exists", task.ID)
	}

	buf, err := json.Marshal(task)

	if err != nil {
		return err
	}

	_, err = store.db.ExecContext(ctx, `
		INSERT INTO tasks (id, context_id, state, data)
		VALUES (?, ?, ?, ?)
	`, task.ID, task.ContextID, string(task.Status.State), buf)

	return err
}

func (store *SQLiteTaskStore) Get(ctx context.Context, id string) (*a2a.Task, error) {
	var buf []byte

	err := store.db.QueryRowContext(ctx,
		`SELECT data FROM tasks WHERE id = ?`, id,
	).Scan(&buf)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, a2a.ErrTaskNotFound.WithMessagef("task %s not found", id)
	}

	if err != nil {
		return nil, err
	}

	var task a2a.Task

	if err := json.Unmarshal(buf, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (store *SQLiteTaskStore) Save(ctx context.Context, task *a2a.Task) error {
	lock := store.locks.lockFor(task.ID)
	lock.Lock()
	defer lock.Unlock()

	stored, err := store.Get(ctx, task.ID)

	if err != nil {
		return err
	}

	if stored.Status.State.IsTerminal() && stored.Status.State != task.Status.State {
		return &a2a.TerminalStateError{TaskID: task.ID, State: stored.Status.State}
	}

	buf, err := json.Marshal(task)

	if err != nil {
		return err
	}

	_, err = store.db.ExecContext(ctx, `
		UPDATE tasks SET context_id = ?, state = ?, data = ? WHERE id = ?
	`, task.ContextID, string(task.Status.State), buf, task.ID)

	return err
}

func (store *SQLiteTaskStore) Cancel(ctx context.Context, id string) (*a2a.Task, error) {
	lock := store.locks.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	task, err := store.Get(ctx, id)

	if err != nil {
		return nil, err
	}

	if task.Status.State.IsTerminal() {
		return nil, a2a.ErrTaskNotCancelable.WithMessagef(
			"task %s is already %s", id, task.Status.State,
		)
	}

	task.ToStatus(a2a.TaskStateCanceled, nil)

	buf, err := json.Marshal(task)

	if err != nil {
		return nil, err
	}

	if _, err := store.db.ExecContext(ctx, `
		UPDATE tasks SET state = ?, data = ? WHERE id = ?
	`, string(task.Status.State), buf, id); err != nil {
		return nil, err
	}

	return task, nil
}

var _ TaskStore = (*SQLiteTaskStore)(nil)
var _ TaskStore = (*InMemoryTaskStore)(nil)
