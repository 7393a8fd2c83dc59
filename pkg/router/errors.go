package router

import "fmt"

// Error types for the router package
type (
	// TransportError is returned when a remote agent's capability card does
	// not declare a transport this client can speak
	TransportError struct {
		Agent     string
		URL       string
		Transport string
	}

	// InvocationError represents a failure while invoking a remote agent
	// after its card resolved successfully
	InvocationError struct {
		Agent string
		URL   string
		Err   error
	}
)

func (e *TransportError) Error() string {
	return fmt.Sprintf(
		"agent %s at %s does not support a compatible transport (got %q, need streaming JSONRPC)",
		e.Agent, e.URL, e.Transport,
	)
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("failed to invoke agent %s at %s: %v", e.Agent, e.URL, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
