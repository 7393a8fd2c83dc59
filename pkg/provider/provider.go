/*
Package provider abstracts the single chat-completion call the hub makes to
a language model endpoint.  The routing classifier and the specialist
executors share the same narrow interface so any OpenAI-compatible server
(LM Studio, vLLM, a hosted API) can back either of them.
*/
package provider

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Interface is one synchronous chat completion: ordered messages in,
// completion text or failure out.
type Interface interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
