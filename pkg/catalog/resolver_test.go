package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"medhub/pkg/a2a"
)

func TestResolveCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, a2a.WellKnownCardPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "medgemma",
			"url": "http://localhost:9101",
			"version": "0.1.0",
			"preferredTransport": "JSONRPC",
			"capabilities": {"streaming": true},
			"skills": []
		}`))
	}))
	defer server.Close()

	card, err := NewResolver(server.Client()).Resolve(context.Background(), server.URL)
	assert.NoError(t, err)
	assert.Equal(t, "medgemma", card.Name)
	assert.True(t, card.SupportsStreaming())
}

func TestResolveConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewResolver(nil).Resolve(context.Background(), url)
	assert.Error(t, err)

	var connErr *ConnectionError
	assert.ErrorAs(t, err, &connErr)
	// The caller reports this message on the failed task, so it must name
	// the endpoint that was unreachable.
	assert.Contains(t, err.Error(), url)
}

func TestResolveNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewResolver(server.Client()).Resolve(context.Background(), server.URL)

	var connErr *ConnectionError
	assert.ErrorAs(t, err, &connErr)
}

func TestResolveMalformedCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewResolver(server.Client()).Resolve(context.Background(), server.URL)

	var decErr *DecodingError
	assert.ErrorAs(t, err, &decErr)
	assert.Contains(t, err.Error(), server.URL)
}
