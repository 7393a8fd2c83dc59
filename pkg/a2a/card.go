package a2a

import (
	"fmt"

	"github.com/spf13/viper"
)

// TransportJSONRPC is the only transport this client speaks.  A capability
// card declaring anything else is rejected before a call is attempted.
const TransportJSONRPC = "JSONRPC"

// WellKnownCardPath is the discovery path every agent serves its card on.
const WellKnownCardPath = "/.well-known/agent.json"

// AgentCapabilities describes the capabilities of an agent.
type AgentCapabilities struct {
	// Streaming indicates if the agent supports streaming responses
	Streaming bool `json:"streaming,omitempty"`
	// PushNotifications indicates if the agent supports push notification mechanisms
	PushNotifications bool `json:"pushNotifications,omitempty"`
}

/*
AgentSkill defines a specific skill offered by an agent.  Input/output
schemas on cards are documentation for callers, not protocol; they stay
opaque description strings here.
*/
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// AgentCard represents the self-description an agent serves for discovery.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        *string           `json:"description,omitempty"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	PreferredTransport string            `json:"preferredTransport,omitempty"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	Skills             []AgentSkill      `json:"skills"`
}

// SupportsStreaming reports whether a streamed invocation can be attempted
// against this card.
func (card *AgentCard) SupportsStreaming() bool {
	if !card.Capabilities.Streaming {
		return false
	}
	return card.PreferredTransport == "" || card.PreferredTransport == TransportJSONRPC
}

func ptr[T any](v T) *T { return &v }

// NewAgentCardFromConfig builds a card from the viper keys under
// agents.<key>, the same way registry entries are loaded.
func NewAgentCardFromConfig(key string) *AgentCard {
	v := viper.GetViper()

	skillIDs := v.GetStringSlice(fmt.Sprintf("agents.%s.skills", key))
	skills := make([]AgentSkill, len(skillIDs))

	for i, id := range skillIDs {
		skills[i] = AgentSkill{
			ID:          id,
			Name:        id,
			Description: ptr(v.GetString(fmt.Sprintf("skills.%s.description", id))),
			Tags:        v.GetStringSlice(fmt.Sprintf("skills.%s.tags", id)),
		}
	}

	return &AgentCard{
		Name:               v.GetString(fmt.Sprintf("agents.%s.name", key)),
		Description:        ptr(v.GetString(fmt.Sprintf("agents.%s.description", key))),
		URL:                v.GetString(fmt.Sprintf("agents.%s.url", key)),
		Version:            v.GetString(fmt.Sprintf("agents.%s.version", key)),
		PreferredTransport: TransportJSONRPC,
		Capabilities: AgentCapabilities{
			Streaming: true,
		},
		Skills: skills,
	}
}
