package catalog

import "fmt"

// Error types for the catalog package
type (
	// NotFoundError represents an error when an agent is not registered
	NotFoundError struct {
		Agent string
	}

	// ConnectionError represents an error that occurred while reaching an
	// agent's discovery endpoint
	ConnectionError struct {
		URL string
		Err error
	}

	// DecodingError represents an error that occurred while decoding a
	// capability card
	DecodingError struct {
		URL string
		Err error
	}
)

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent not found: %s", e.Agent)
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to reach agent at %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to reach agent at %s", e.URL)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *DecodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode capability card from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to decode capability card from %s", e.URL)
}

func (e *DecodingError) Unwrap() error { return e.Err }
