package a2a

import "encoding/json"

/*
TaskStatusUpdateEvent is sent when the agent wishes to inform the client of
a status transition.
*/
type TaskStatusUpdateEvent struct {
	ID       string         `json:"id"`
	Status   TaskStatus     `json:"status"`
	Final    bool           `json:"final"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

/*
TaskArtifactUpdateEvent is emitted when a new artefact is available for a
task.
*/
type TaskArtifactUpdateEvent struct {
	ID       string         `json:"id"`
	Artifact Artifact       `json:"artifact"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

/*
StreamEvent is the tagged union a streamed invocation yields.  Exactly one
field is set: Status, Artifact, Err for a transport‑level failure that
terminates the stream, or Unknown for envelopes this client does not
recognise (relayed nowhere, logged by the consumer).
*/
type StreamEvent struct {
	Status   *TaskStatusUpdateEvent
	Artifact *TaskArtifactUpdateEvent
	Err      error
	Unknown  json.RawMessage
}

func NewStatusEvent(taskID string, status TaskStatus, final bool) StreamEvent {
	return StreamEvent{
		Status: &TaskStatusUpdateEvent{
			ID:     taskID,
			Status: status,
			Final:  final,
		},
	}
}

func NewArtifactEvent(taskID string, artifact Artifact) StreamEvent {
	return StreamEvent{
		Artifact: &TaskArtifactUpdateEvent{
			ID:       taskID,
			Artifact: artifact,
		},
	}
}

func NewErrEvent(err error) StreamEvent {
	return StreamEvent{Err: err}
}

/*
DecodeStreamEvent turns one wire envelope into a StreamEvent.  The decode
happens once at the transport boundary; consumers switch on the populated
field instead of sniffing loosely‑typed maps.
*/
func DecodeStreamEvent(raw json.RawMessage) StreamEvent {
	var probe struct {
		ID       string     `json:"id"`
		Final    bool       `json:"final"`
		Status   *TaskStatus `json:"status"`
		Artifact *Artifact   `json:"artifact"`
	}

	if err := json.Unmarshal(raw, &probe); err != nil {
		return StreamEvent{Unknown: raw}
	}

	switch {
	case probe.Status != nil:
		return NewStatusEvent(probe.ID, *probe.Status, probe.Final)
	case probe.Artifact != nil:
		return NewArtifactEvent(probe.ID, *probe.Artifact)
	}

	return StreamEvent{Unknown: raw}
}
