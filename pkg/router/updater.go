package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"medhub/pkg/a2a"
	"medhub/pkg/stores"
)

/*
Updater is the sole writer of caller-visible task state.  Every mutation is
persisted through the store before it becomes observable, and the terminal
guard makes completed, failed, and canceled one-way doors.
*/
type Updater struct {
	store stores.TaskStore
	task  *a2a.Task
	sink  chan<- a2a.StreamEvent
	added bool
}

type UpdaterOption func(*Updater)

func NewUpdater(store stores.TaskStore, task *a2a.Task, options ...UpdaterOption) *Updater {
	updater := &Updater{
		store: store,
		task:  task,
	}

	for _, opt := range options {
		opt(updater)
	}

	return updater
}

// WithSink mirrors every transition and artifact into a channel, which the
// agent server uses to stream events back to a subscribed caller.
func WithSink(sink chan<- a2a.StreamEvent) UpdaterOption {
	return func(updater *Updater) {
		updater.sink = sink
	}
}

func (updater *Updater) Task() *a2a.Task {
	return updater.task
}

// Transition moves the task to a new state.  Working may repeat; terminal
// states are final and any transition out of one returns
// *a2a.TerminalStateError.
func (updater *Updater) Transition(ctx context.Context, state a2a.TaskState, text string) error {
	if updater.task.Status.State.IsTerminal() {
		return &a2a.TerminalStateError{
			TaskID: updater.task.ID,
			State:  updater.task.Status.State,
		}
	}

	var message *a2a.Message

	if text != "" {
		message = a2a.NewTextMessage("agent", text)
	}

	updater.task.ToStatus(state, message)

	if err := updater.store.Save(ctx, updater.task); err != nil {
		return err
	}

	updater.emit(a2a.NewStatusEvent(updater.task.ID, updater.task.Status, state.IsTerminal()))

	return nil
}

// AddArtifact appends an artifact to the task.  Artifacts cannot be added
// once the task is terminal.
func (updater *Updater) AddArtifact(ctx context.Context, artifact a2a.Artifact) error {
	if updater.task.Status.State.IsTerminal() {
		return &a2a.TerminalStateError{
			TaskID: updater.task.ID,
			State:  updater.task.Status.State,
		}
	}

	updater.task.AddArtifact(artifact)

	if err := updater.store.Save(ctx, updater.task); err != nil {
		return err
	}

	updater.added = true
	updater.emit(a2a.NewArtifactEvent(
		updater.task.ID,
		updater.task.Artifacts[len(updater.task.Artifacts)-1],
	))

	return nil
}

/*
Complete transitions the task to completed.  When no artifact arrived during
this invocation a summary artifact is synthesized first, so a completed task
always carries at least one artifact.
*/
func (updater *Updater) Complete(ctx context.Context, agentName string) error {
	if !updater.added {
		summary := a2a.NewTextArtifact(
			"router_summary",
			fmt.Sprintf("Routed to %s (completed)", agentName),
		)

		if err := updater.AddArtifact(ctx, summary); err != nil {
			return err
		}
	}

	return updater.Transition(
		ctx,
		a2a.TaskStateCompleted,
		fmt.Sprintf("Routed to %s", agentName),
	)
}

func (updater *Updater) Fail(ctx context.Context, text string) error {
	return updater.Transition(ctx, a2a.TaskStateFailed, text)
}

func (updater *Updater) Cancel(ctx context.Context, text string) error {
	return updater.Transition(ctx, a2a.TaskStateCanceled, text)
}

/*
Relay consumes a remote event stream in arrival order and mirrors it into
the local task.  A remote completed status is relayed exactly once; if the
stream ends without one, Complete is called so the task never hangs in
working.  A concurrent local cancel surfaces as a terminal-state error from
the store, at which point the relay stops consuming.
*/
func (updater *Updater) Relay(ctx context.Context, decision Decision, events <-chan a2a.StreamEvent) error {
	reached := false

	// Release the reader goroutine if the relay stops consuming before the
	// stream closes: its final send is unconditional.
	defer func() {
		go func() {
			for range events {
			}
		}()
	}()

	for event := range events {
		switch {
		case event.Err != nil:
			log.Error("remote stream failed",
				"task", updater.task.ID,
				"agent", decision.Agent.Name,
				"error", event.Err,
			)
			return updater.Fail(ctx, event.Err.Error())

		case event.Artifact != nil:
			if err := updater.AddArtifact(ctx, event.Artifact.Artifact); err != nil {
				return updater.stopRelay(err)
			}

		case event.Status != nil:
			state := event.Status.Status.State
			text := event.Status.Status.Message.Text()

			if text == "" {
				text = fmt.Sprintf("Routed to %s (%s)", decision.Agent.Name, state)
			}

			if state == a2a.TaskStateCompleted {
				reached = true

				if !updater.added {
					summary := a2a.NewTextArtifact(
						"router_summary",
						fmt.Sprintf("Routed to %s (completed)", decision.Agent.Name),
					)

					if err := updater.AddArtifact(ctx, summary); err != nil {
						return updater.stopRelay(err)
					}
				}

				// The event's own message text survives the relay.
				if err := updater.Transition(ctx, a2a.TaskStateCompleted, text); err != nil {
					return updater.stopRelay(err)
				}

				continue
			}

			if err := updater.Transition(ctx, state, text); err != nil {
				return updater.stopRelay(err)
			}
		}

		if updater.task.Status.State.IsTerminal() {
			break
		}
	}

	if !reached && !updater.task.Status.State.IsTerminal() {
		return updater.Complete(ctx, decision.Agent.Name)
	}

	return nil
}

// stopRelay swallows the terminal guard (another writer finished the task
// first) and propagates anything else.
func (updater *Updater) stopRelay(err error) error {
	var terminal *a2a.TerminalStateError

	if errors.As(err, &terminal) {
		log.Debug("relay stopped at terminal state",
			"task", terminal.TaskID,
			"state", terminal.State,
		)
		return nil
	}

	return err
}

func (updater *Updater) emit(event a2a.StreamEvent) {
	if updater.sink == nil {
		return
	}

	updater.sink <- event
}
