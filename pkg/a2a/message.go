package a2a

import (
	"strings"

	"github.com/google/uuid"
)

/*
Message represents all non‑artifact communication between client & agent.
Every message carries a freshly generated identifier so that remote agents
can correlate streamed updates with the request that caused them.
*/
type Message struct {
	MessageID string         `json:"messageId,omitempty"`
	Role      string         `json:"role"` // "user" or "agent"
	Parts     []Part         `json:"parts"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewTextMessage(role string, text string) *Message {
	return &Message{
		MessageID: uuid.New().String(),
		Role:      role,
		Parts: []Part{
			{Type: PartTypeText, Text: text},
		},
	}
}

// Text concatenates all text parts of the message, newline separated.
func (msg *Message) Text() string {
	if msg == nil {
		return ""
	}

	var parts []string

	for _, part := range msg.Parts {
		if part.Type == PartTypeText && part.Text != "" {
			parts = append(parts, part.Text)
		}
	}

	return strings.Join(parts, "\n")
}
