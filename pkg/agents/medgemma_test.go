package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medhub/pkg/a2a"
	"medhub/pkg/provider"
	"medhub/pkg/router"
	"medhub/pkg/stores"
)

type fakeProvider struct {
	out string
	err error
}

func (p *fakeProvider) Complete(ctx context.Context, messages []provider.Message) (string, error) {
	return p.out, p.err
}

func run(t *testing.T, executor router.Executor, query string) *a2a.Task {
	t.Helper()

	store := stores.NewInMemoryTaskStore()
	task := a2a.NewTask("")
	require.NoError(t, store.Create(context.Background(), task))

	err := executor.Execute(
		context.Background(),
		router.NewRequest(task, query),
		router.NewUpdater(store, task),
	)
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), task.ID)
	require.NoError(t, err)

	return stored
}

func TestMedGemmaAppendsDisclaimer(t *testing.T) {
	executor := NewMedGemmaExecutor(&fakeProvider{out: "Hypertension is high blood pressure."})

	task := run(t, executor, "what is hypertension?")
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.NotEmpty(t, task.Artifacts)
	assert.Contains(t, task.Artifacts[0].Text(), "consult a healthcare professional")
}

func TestMedGemmaKeepsExistingConsultAdvice(t *testing.T) {
	answer := "This needs a diagnosis; please consult your physician."
	executor := NewMedGemmaExecutor(&fakeProvider{out: answer})

	task := run(t, executor, "do I have hypertension?")
	assert.Equal(t, answer, task.Artifacts[0].Text())
}

func TestMedGemmaProviderFailureFailsTask(t *testing.T) {
	executor := NewMedGemmaExecutor(&fakeProvider{err: errors.New("model offline")})

	task := run(t, executor, "what is hypertension?")
	assert.Equal(t, a2a.TaskStateFailed, task.Status.State)
	assert.Contains(t, task.Status.Message.Text(), "model offline")
}

func TestMedGemmaCancelIsUnsupported(t *testing.T) {
	executor := NewMedGemmaExecutor(&fakeProvider{out: "ok"})

	store := stores.NewInMemoryTaskStore()
	task := a2a.NewTask("")
	require.NoError(t, store.Create(context.Background(), task))

	err := executor.Cancel(
		context.Background(),
		router.NewRequest(task, ""),
		router.NewUpdater(store, task),
	)
	require.Error(t, err)

	rpcErr, ok := err.(*a2a.RpcError)
	require.True(t, ok)
	assert.Equal(t, a2a.ErrUnsupportedOperation.Code, rpcErr.Code)

	// The task itself stays untouched: unsupported is not canceled.
	stored, _ := store.Get(context.Background(), task.ID)
	assert.Equal(t, a2a.TaskStateSubmitted, stored.Status.State)
}

func TestClinicalExecutor(t *testing.T) {
	executor := NewClinicalExecutor(&fakeProvider{out: "Two RCTs support this."})

	task := run(t, executor, "evidence for statins?")
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.NotEmpty(t, task.Artifacts)
	assert.Equal(t, "Two RCTs support this.", task.Artifacts[0].Text())
	assert.Equal(t, "clinical_summary", *task.Artifacts[0].Name)
}

func TestClinicalCancelIsUnsupported(t *testing.T) {
	executor := NewClinicalExecutor(&fakeProvider{out: "ok"})

	store := stores.NewInMemoryTaskStore()
	task := a2a.NewTask("")
	require.NoError(t, store.Create(context.Background(), task))

	err := executor.Cancel(
		context.Background(),
		router.NewRequest(task, ""),
		router.NewUpdater(store, task),
	)

	rpcErr, ok := err.(*a2a.RpcError)
	require.True(t, ok)
	assert.Equal(t, a2a.ErrUnsupportedOperation.Code, rpcErr.Code)
}
