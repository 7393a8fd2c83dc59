// Package jsonrpc holds the minimal JSON-RPC 2.0 wire types shared by the
// agent servers and the remote task client.  It is intentionally not a
// framework: method routing lives with the services that own the methods.
package jsonrpc

import "encoding/json"

const Version = "2.0"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // accepts string | number | null
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest marshals params into a ready-to-send request.  Marshalling
// failures surface to the caller instead of producing a half-built frame.
func NewRequest(id string, method string, params any) (*Request, error) {
	buf, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	rawID, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}

	return &Request{
		JSONRPC: Version,
		ID:      rawID,
		Method:  method,
		Params:  buf,
	}, nil
}
