package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"medhub/pkg/a2a"
)

/*
Resolver fetches a remote agent's capability card from its well-known
discovery path.  The underlying HTTP client is pooled and may be shared
across concurrent invocations.
*/
type Resolver struct {
	client *http.Client
}

func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Resolver{client: client}
}

// Resolve fetches the card served at <baseURL>/.well-known/agent.json.
func (resolver *Resolver) Resolve(ctx context.Context, baseURL string) (*a2a.AgentCard, error) {
	url := strings.TrimRight(baseURL, "/") + a2a.WellKnownCardPath

	log.Debug("resolving capability card", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ConnectionError{URL: url, Err: err}
	}

	resp, err := resolver.client.Do(req)
	if err != nil {
		return nil, &ConnectionError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ConnectionError{
			URL: url,
			Err: &a2a.RpcError{Code: resp.StatusCode, Message: string(body)},
		}
	}

	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, &DecodingError{URL: url, Err: err}
	}

	log.Debug("resolved capability card",
		"agent", card.Name,
		"streaming", card.Capabilities.Streaming,
		"transport", card.PreferredTransport,
	)

	return &card, nil
}
