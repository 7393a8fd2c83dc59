package stores

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"medhub/pkg/a2a"
)

/*
TaskStore persists task records across the routing lifecycle.  Save must
refuse to overwrite a task that has already reached a terminal state so a
late relay can never resurrect a canceled or completed task.
*/
type TaskStore interface {
	Create(ctx context.Context, task *a2a.Task) error
	Get(ctx context.Context, id string) (*a2a.Task, error)
	Save(ctx context.Context, task *a2a.Task) error
	Cancel(ctx context.Context, id string) (*a2a.Task, error)
}

/*
InMemoryTaskStore is the default store.  A global lock guards the map while
per-task locks serialize read-modify-write cycles on individual tasks, so
concurrent relays for different tasks never contend.
*/
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
	locks keyedLocks
}

func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*a2a.Task),
	}
}

// keyedLocks hands out one mutex per task id so read-modify-write cycles on
// the same task serialize without blocking unrelated tasks.
type keyedLocks struct {
	locks sync.Map
}

func (kl *keyedLocks) lockFor(id string) *sync.Mutex {
	actual, _ := kl.locks.LoadOrStore(id, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Create persists a fresh task.  Ids are never reused: replacing an
// existing task would let a caller resurrect one that already finished.
func (store *InMemoryTaskStore) Create(ctx context.Context, task *a2a.Task) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.tasks[task.ID]; ok {
		return a2a.ErrTaskAlreadyExists.WithMessagef("task %s already exists", task.ID)
	}

	store.tasks[task.ID] = cloneTask(task)
	log.Debug("task created", "task", task.ID, "context", task.ContextID)

	return nil
}

func (store *InMemoryTaskStore) Get(ctx context.Context, id string) (*a2a.Task, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	task, ok := store.tasks[id]

	if !ok {
		return nil, a2a.ErrTaskNotFound.WithMessagef("task %s not found", id)
	}

	return cloneTask(task), nil
}

func (store *InMemoryTaskStore) Save(ctx context.Context, task *a2a.Task) error {
	lock := store.locks.lockFor(task.ID)
	lock.Lock()
	defer lock.Unlock()

	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.tasks[task.ID]

	if !ok {
		return a2a.ErrTaskNotFound.WithMessagef("task %s not found", task.ID)
	}

	if stored.Status.State.IsTerminal() && stored.Status.State != task.Status.State {
		return &a2a.TerminalStateError{TaskID: task.ID, State: stored.Status.State}
	}

	store.tasks[task.ID] = cloneTask(task)

	return nil
}

func (store *InMemoryTaskStore) Cancel(ctx context.Context, id string) (*a2a.Task, error) {
	lock := store.locks.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	store.mu.Lock()
	defer store.mu.Unlock()

	task, ok := store.tasks[id]

	if !ok {
		return nil, a2a.ErrTaskNotFound.WithMessagef("task %s not found", id)
	}

	if task.Status.State.IsTerminal() {
		return nil, a2a.ErrTaskNotCancelable.WithMessagef(
			"task %s is already %s", id, task.Status.State,
		)
	}

	task.ToStatus(a2a.TaskStateCanceled, nil)

	return cloneTask(task), nil
}

// cloneTask deep-copies through JSON so callers can never mutate stored
// state behind the store's back.
func cloneTask(task *a2a.Task) *a2a.Task {
	buf, err := json.Marshal(task)

	if err != nil {
		log.Error("failed to clone task", "task", task.ID, "error", err)
		copied := *task
		return &copied
	}

	var out a2a.Task

	if err := json.Unmarshal(buf, &out); err != nil {
		log.Error("failed to clone task", "task", task.ID, "error", err)
		copied := *task
		return &copied
	}

	return &out
}
