package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"medhub/pkg/a2a"
	"medhub/pkg/catalog"
	"medhub/pkg/jsonrpc"
)

// eventBuffer bounds the stream channel so a slow consumer applies
// backpressure to the network read instead of growing memory.
const eventBuffer = 8

/*
TaskClient invokes remote agents over their streamed task interface.  It
resolves the agent's capability card first so incompatible agents are
rejected before any task is sent.
*/
type TaskClient struct {
	resolver *catalog.Resolver
	client   *http.Client
	timeout  time.Duration
}

type TaskClientOption func(*TaskClient)

func NewTaskClient(options ...TaskClientOption) *TaskClient {
	// No client-level timeout: the per-invocation deadline governs the
	// whole exchange, including the streamed read.
	httpClient := &http.Client{}

	client := &TaskClient{
		resolver: catalog.NewResolver(httpClient),
		client:   httpClient,
		timeout:  180 * time.Second,
	}

	for _, opt := range options {
		opt(client)
	}

	return client
}

func WithTimeout(timeout time.Duration) TaskClientOption {
	return func(client *TaskClient) {
		if timeout > 0 {
			client.timeout = timeout
		}
	}
}

func WithResolver(resolver *catalog.Resolver) TaskClientOption {
	return func(client *TaskClient) {
		client.resolver = resolver
	}
}

/*
Invoke sends a query to a remote agent and returns the stream of events the
agent produces.  Discovery and connection failures are returned immediately;
once the channel is handed out, failures arrive as an Err event and the
channel closes.  The channel always closes: on a final event, on EOF, or on
context cancellation.
*/
func (client *TaskClient) Invoke(
	ctx context.Context, entry catalog.Entry, query string,
) (<-chan a2a.StreamEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, client.timeout)

	card, err := client.resolver.Resolve(ctx, entry.BaseURL)

	if err != nil {
		cancel()
		return nil, err
	}

	if !card.SupportsStreaming() {
		cancel()
		return nil, &TransportError{
			Agent:     entry.Name,
			URL:       entry.BaseURL,
			Transport: card.PreferredTransport,
		}
	}

	resp, err := client.send(ctx, entry, query)

	if err != nil {
		cancel()
		return nil, err
	}

	events := make(chan a2a.StreamEvent, eventBuffer)

	go func() {
		defer cancel()
		defer close(events)
		defer resp.Body.Close()

		client.read(ctx, entry, resp.Body, events)
	}()

	return events, nil
}

func (client *TaskClient) send(
	ctx context.Context, entry catalog.Entry, query string,
) (*http.Response, error) {
	params := a2a.TaskSendParams{
		ID:      uuid.New().String(),
		Message: *a2a.NewTextMessage("user", query),
	}

	request, err := jsonrpc.NewRequest(uuid.New().String(), "tasks/sendSubscribe", params)

	if err != nil {
		return nil, &InvocationError{Agent: entry.Name, URL: entry.BaseURL, Err: err}
	}

	buf, err := json.Marshal(request)

	if err != nil {
		return nil, &InvocationError{Agent: entry.Name, URL: entry.BaseURL, Err: err}
	}

	url := strings.TrimRight(entry.BaseURL, "/") + "/rpc"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))

	if err != nil {
		return nil, &InvocationError{Agent: entry.Name, URL: url, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.client.Do(req)

	if err != nil {
		return nil, &InvocationError{Agent: entry.Name, URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &InvocationError{
			Agent: entry.Name,
			URL:   url,
			Err:   &a2a.RpcError{Code: resp.StatusCode, Message: resp.Status},
		}
	}

	return resp, nil
}

// read decodes newline-delimited JSON-RPC frames off the live body and
// forwards the decoded events in arrival order until a final event, EOF,
// or cancellation.
func (client *TaskClient) read(
	ctx context.Context, entry catalog.Entry, body io.Reader, events chan<- a2a.StreamEvent,
) {
	decoder := json.NewDecoder(body)

	for {
		var frame jsonrpc.RawResponse

		if err := decoder.Decode(&frame); err != nil {
			if err == io.EOF {
				return
			}

			if ctx.Err() != nil {
				err = ctx.Err()
			}

			client.emitFinal(events, a2a.NewErrEvent(
				&InvocationError{Agent: entry.Name, URL: entry.BaseURL, Err: err},
			))
			return
		}

		if frame.Error != nil {
			client.emitFinal(events, a2a.NewErrEvent(
				&InvocationError{Agent: entry.Name, URL: entry.BaseURL, Err: frame.Error},
			))
			return
		}

		event := a2a.DecodeStreamEvent(frame.Result)

		if event.Unknown != nil {
			log.Warn("unrecognised stream envelope", "agent", entry.Name)
			continue
		}

		if !client.emit(ctx, events, event) {
			// emit only aborts when the deadline fired mid-send; the
			// stream still has to end with the error, not silently.
			client.emitFinal(events, a2a.NewErrEvent(
				&InvocationError{Agent: entry.Name, URL: entry.BaseURL, Err: ctx.Err()},
			))
			return
		}

		if event.Status != nil && (event.Status.Final || event.Status.Status.State.IsTerminal()) {
			return
		}
	}
}

func (client *TaskClient) emit(
	ctx context.Context, events chan<- a2a.StreamEvent, event a2a.StreamEvent,
) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// emitFinal delivers a terminating Err event with a plain blocking send.
// A ctx-guarded select here would race the already-closed Done channel and
// drop the error, letting the relay mistake a timeout for a clean stream
// end.  The consumer drains the channel until close, so the send cannot
// hang.
func (client *TaskClient) emitFinal(events chan<- a2a.StreamEvent, event a2a.StreamEvent) {
	events <- event
}
