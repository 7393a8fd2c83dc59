package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medhub/pkg/a2a"
	"medhub/pkg/catalog"
	"medhub/pkg/stores"
)

func newTestUpdater(t *testing.T) (*Updater, *a2a.Task, stores.TaskStore) {
	t.Helper()

	store := stores.NewInMemoryTaskStore()
	task := a2a.NewTask("")
	require.NoError(t, store.Create(context.Background(), task))

	return NewUpdater(store, task), task, store
}

func testDecision() Decision {
	return Decision{
		Agent:     catalog.Entry{Name: "medgemma", BaseURL: "http://localhost:9101"},
		Reasoning: "medical question",
	}
}

func eventChannel(events ...a2a.StreamEvent) <-chan a2a.StreamEvent {
	ch := make(chan a2a.StreamEvent, len(events))

	for _, event := range events {
		ch <- event
	}

	close(ch)

	return ch
}

func TestTransitionPersists(t *testing.T) {
	updater, task, store := newTestUpdater(t)

	assert.NoError(t, updater.Transition(context.Background(), a2a.TaskStateWorking, "routing"))

	stored, err := store.Get(context.Background(), task.ID)
	assert.NoError(t, err)
	assert.Equal(t, a2a.TaskStateWorking, stored.Status.State)
	assert.Equal(t, "routing", stored.Status.Message.Text())
}

func TestTransitionAfterTerminalFails(t *testing.T) {
	updater, _, _ := newTestUpdater(t)

	assert.NoError(t, updater.Transition(context.Background(), a2a.TaskStateCompleted, "done"))

	err := updater.Transition(context.Background(), a2a.TaskStateWorking, "again")

	var terminal *a2a.TerminalStateError
	assert.ErrorAs(t, err, &terminal)
}

func TestWorkingIsRepeatable(t *testing.T) {
	updater, _, _ := newTestUpdater(t)

	assert.NoError(t, updater.Transition(context.Background(), a2a.TaskStateWorking, "step 1"))
	assert.NoError(t, updater.Transition(context.Background(), a2a.TaskStateWorking, "step 2"))
}

func TestCompleteSynthesizesSummaryArtifact(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	assert.NoError(t, updater.Complete(context.Background(), "medgemma"))

	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, "router_summary", *task.Artifacts[0].Name)
	assert.Contains(t, task.Artifacts[0].Text(), "Routed to medgemma")
}

func TestCompleteKeepsRemoteArtifacts(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	require.NoError(t, updater.AddArtifact(context.Background(), a2a.NewTextArtifact("answer", "take your meds")))
	assert.NoError(t, updater.Complete(context.Background(), "medgemma"))

	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, "answer", *task.Artifacts[0].Name)
}

func TestRelayPreservesArtifactOrder(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	events := eventChannel(
		a2a.NewStatusEvent(task.ID, a2a.TaskStatus{State: a2a.TaskStateWorking}, false),
		a2a.NewArtifactEvent(task.ID, a2a.NewTextArtifact("first", "one")),
		a2a.NewArtifactEvent(task.ID, a2a.NewTextArtifact("second", "two")),
		a2a.NewStatusEvent(task.ID, a2a.TaskStatus{State: a2a.TaskStateCompleted}, true),
	)

	assert.NoError(t, updater.Relay(context.Background(), testDecision(), events))

	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.Len(t, task.Artifacts, 2)
	assert.Equal(t, "one", task.Artifacts[0].Text())
	assert.Equal(t, "two", task.Artifacts[1].Text())
}

func TestRelayWithoutCompletedEventStillCompletes(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	events := eventChannel(
		a2a.NewStatusEvent(task.ID, a2a.TaskStatus{State: a2a.TaskStateWorking}, false),
		a2a.NewArtifactEvent(task.ID, a2a.NewTextArtifact("answer", "hello")),
	)

	assert.NoError(t, updater.Relay(context.Background(), testDecision(), events))

	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, "answer", *task.Artifacts[0].Name)
}

func TestRelayCompletedEventKeepsMessage(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	events := eventChannel(
		a2a.NewArtifactEvent(task.ID, a2a.NewTextArtifact("answer", "hello")),
		a2a.NewStatusEvent(task.ID, a2a.TaskStatus{
			State:   a2a.TaskStateCompleted,
			Message: a2a.NewTextMessage("agent", "Consultation complete"),
		}, true),
	)

	assert.NoError(t, updater.Relay(context.Background(), testDecision(), events))

	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	assert.Equal(t, "Consultation complete", task.Status.Message.Text())
	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, "answer", *task.Artifacts[0].Name)
}

func TestRelayBareCompletedEventSynthesizesSummary(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	events := eventChannel(
		a2a.NewStatusEvent(task.ID, a2a.TaskStatus{State: a2a.TaskStateCompleted}, true),
	)

	assert.NoError(t, updater.Relay(context.Background(), testDecision(), events))

	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, "router_summary", *task.Artifacts[0].Name)
	assert.Contains(t, task.Status.Message.Text(), "Routed to medgemma")
}

func TestRelayEmptyStreamSynthesizesSummary(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	assert.NoError(t, updater.Relay(context.Background(), testDecision(), eventChannel()))

	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.NotEmpty(t, task.Artifacts)
	assert.Contains(t, task.LastArtifactText(), "Routed to medgemma")
}

func TestRelayErrEventFailsTask(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	events := eventChannel(
		a2a.NewStatusEvent(task.ID, a2a.TaskStatus{State: a2a.TaskStateWorking}, false),
		a2a.NewErrEvent(&InvocationError{
			Agent: "medgemma",
			URL:   "http://localhost:9101",
			Err:   assert.AnError,
		}),
	)

	assert.NoError(t, updater.Relay(context.Background(), testDecision(), events))

	assert.Equal(t, a2a.TaskStateFailed, task.Status.State)
	assert.Contains(t, task.Status.Message.Text(), "http://localhost:9101")
}

func TestRelayRemoteFailureUsesStateMessage(t *testing.T) {
	updater, task, _ := newTestUpdater(t)

	events := eventChannel(
		a2a.NewStatusEvent(task.ID, a2a.TaskStatus{
			State:   a2a.TaskStateFailed,
			Message: a2a.NewTextMessage("agent", "model unavailable"),
		}, true),
	)

	assert.NoError(t, updater.Relay(context.Background(), testDecision(), events))

	assert.Equal(t, a2a.TaskStateFailed, task.Status.State)
	assert.Equal(t, "model unavailable", task.Status.Message.Text())
}

func TestRelayStopsWhenCanceledConcurrently(t *testing.T) {
	updater, task, store := newTestUpdater(t)

	_, err := store.Cancel(context.Background(), task.ID)
	require.NoError(t, err)

	events := eventChannel(
		a2a.NewStatusEvent(task.ID, a2a.TaskStatus{State: a2a.TaskStateWorking}, false),
		a2a.NewArtifactEvent(task.ID, a2a.NewTextArtifact("late", "too late")),
	)

	assert.NoError(t, updater.Relay(context.Background(), testDecision(), events))

	stored, err := store.Get(context.Background(), task.ID)
	assert.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCanceled, stored.Status.State)
}

func TestSinkReceivesEvents(t *testing.T) {
	store := stores.NewInMemoryTaskStore()
	task := a2a.NewTask("")
	require.NoError(t, store.Create(context.Background(), task))

	sink := make(chan a2a.StreamEvent, 8)
	updater := NewUpdater(store, task, WithSink(sink))

	require.NoError(t, updater.Transition(context.Background(), a2a.TaskStateWorking, "routing"))
	require.NoError(t, updater.Complete(context.Background(), "medgemma"))
	close(sink)

	var kinds []string

	for event := range sink {
		switch {
		case event.Status != nil:
			kinds = append(kinds, string(event.Status.Status.State))
		case event.Artifact != nil:
			kinds = append(kinds, "artifact")
		}
	}

	assert.Equal(t, []string{"working", "artifact", "completed"}, kinds)
}
