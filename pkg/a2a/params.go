package a2a

// TaskSendParams represents the parameters for sending a task message.
type TaskSendParams struct {
	// ID is the unique identifier for the task being initiated or continued
	ID string `json:"id"`
	// ContextID is an optional conversation/thread identifier
	ContextID string `json:"contextId,omitempty"`
	// Message is the message content to send to the agent for processing
	Message Message `json:"message"`
	// Metadata is optional metadata associated with sending this message
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskIDParams represents the base parameters for task ID-based operations.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskQueryParams represents the parameters for querying task information.
type TaskQueryParams struct {
	TaskIDParams
	HistoryLength *int `json:"historyLength,omitempty"`
}
