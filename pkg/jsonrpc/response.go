package jsonrpc

import (
	"encoding/json"

	"medhub/pkg/a2a"
)

// Response is the server-side frame: Result is whatever the handler
// produced and gets marshalled on the way out.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *a2a.RpcError   `json:"error,omitempty"`
}

// RawResponse is the client-side frame: Result stays raw so the caller can
// decode it into the event type the envelope actually carries.
type RawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *a2a.RpcError   `json:"error,omitempty"`
}

func NewResponse(id json.RawMessage, result any) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

func NewErrorResponse(id json.RawMessage, rpcErr *a2a.RpcError) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Error:   rpcErr,
	}
}
