package a2a

import "fmt"

/*
RpcError represents a JSON-RPC error response.
*/
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Convenience errors (JSON‑RPC reserved codes -32700 .. -32600, A2A codes
// -32000 .. -32099).
var (
	ErrParseError     = &RpcError{Code: -32700, Message: "Parse error"}
	ErrInvalidRequest = &RpcError{Code: -32600, Message: "Invalid Request"}
	ErrMethodNotFound = &RpcError{Code: -32601, Message: "Method not found"}
	ErrInvalidParams  = &RpcError{Code: -32602, Message: "Invalid params"}
	ErrInternal       = &RpcError{Code: -32603, Message: "Internal error"}

	ErrTaskNotFound         = &RpcError{Code: -32000, Message: "Task not found"}
	ErrTaskNotCancelable    = &RpcError{Code: -32001, Message: "Task cannot be canceled"}
	ErrTaskAlreadyExists    = &RpcError{Code: -32002, Message: "Task already exists"}
	ErrUnsupportedOperation = &RpcError{Code: -32003, Message: "Unsupported operation"}
)

// WithMessagef creates a *copy* of an RpcError with a formatted message.
// It does not modify the original error variable.
func (e *RpcError) WithMessagef(format string, args ...any) *RpcError {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

/*
TerminalStateError is returned when a caller attempts to move a task out of
a terminal state.  Terminal states are immutable; a second transition is a
programming error, not a silently accepted no-op.
*/
type TerminalStateError struct {
	TaskID string
	State  TaskState
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("task %s is already %s: no further transitions permitted", e.TaskID, e.State)
}
