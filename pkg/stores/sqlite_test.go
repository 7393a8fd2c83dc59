package stores

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medhub/pkg/a2a"
)

func newTestSQLiteStore(t *testing.T) *SQLiteTaskStore {
	t.Helper()

	store, err := NewSQLiteTaskStore(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteCreateAndGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	task := a2a.NewTask("ctx-1")

	assert.NoError(t, store.Create(context.Background(), task))

	got, err := store.Get(context.Background(), task.ID)
	assert.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "ctx-1", got.ContextID)
}

func TestSQLiteCreateRefusesExistingID(t *testing.T) {
	store := newTestSQLiteStore(t)
	task := a2a.NewTask("")
	require.NoError(t, store.Create(context.Background(), task))

	task.ToStatus(a2a.TaskStateCanceled, nil)
	require.NoError(t, store.Save(context.Background(), task))

	fresh := a2a.NewTask("")
	fresh.ID = task.ID
	err := store.Create(context.Background(), fresh)
	assert.Error(t, err)

	rpcErr, ok := err.(*a2a.RpcError)
	assert.True(t, ok)
	assert.Equal(t, a2a.ErrTaskAlreadyExists.Code, rpcErr.Code)

	stored, _ := store.Get(context.Background(), task.ID)
	assert.Equal(t, a2a.TaskStateCanceled, stored.Status.State)
}

func TestSQLiteSaveRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	task := a2a.NewTask("")
	store.Create(context.Background(), task)

	task.ToStatus(a2a.TaskStateWorking, a2a.NewTextMessage("agent", "routing"))
	task.AddArtifact(a2a.NewTextArtifact("answer", "hello"))
	assert.NoError(t, store.Save(context.Background(), task))

	got, err := store.Get(context.Background(), task.ID)
	assert.NoError(t, err)
	assert.Equal(t, a2a.TaskStateWorking, got.Status.State)
	assert.Equal(t, "hello", got.LastArtifactText())
}

func TestSQLiteSaveRejectsLeavingTerminalState(t *testing.T) {
	store := newTestSQLiteStore(t)
	task := a2a.NewTask("")
	store.Create(context.Background(), task)

	task.ToStatus(a2a.TaskStateFailed, nil)
	assert.NoError(t, store.Save(context.Background(), task))

	task.ToStatus(a2a.TaskStateWorking, nil)
	err := store.Save(context.Background(), task)

	var terminal *a2a.TerminalStateError
	assert.ErrorAs(t, err, &terminal)
}

func TestSQLiteCancel(t *testing.T) {
	store := newTestSQLiteStore(t)
	task := a2a.NewTask("")
	store.Create(context.Background(), task)

	canceled, err := store.Cancel(context.Background(), task.ID)
	assert.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCanceled, canceled.Status.State)

	_, err = store.Cancel(context.Background(), task.ID)
	assert.Error(t, err)
}
