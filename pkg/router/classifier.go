package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/kaptinlin/jsonrepair"

	"medhub/pkg/catalog"
	"medhub/pkg/provider"
)

/*
Decision is the outcome of classifying one query: the agent to route to and
the model's (or the fallback's) reasoning for the choice.
*/
type Decision struct {
	Agent     catalog.Entry
	Reasoning string
}

/*
Classifier picks the specialist agent for a query with a single
chat-completion call.  It never fails: any model, transport, or parsing
problem collapses into routing to the registry's default agent.
*/
type Classifier struct {
	provider provider.Interface
	registry *catalog.Registry
}

func NewClassifier(prvdr provider.Interface, registry *catalog.Registry) *Classifier {
	return &Classifier{
		provider: prvdr,
		registry: registry,
	}
}

const classifierSystemPrompt = `You are a medical query router. Given a user query and a list of
available specialist agents, pick the single best agent for the query.

Respond with ONLY a JSON object of the form:
{"agent": "<agent name>", "reasoning": "<one sentence>"}`

// Classify routes a query to an agent.  Exactly one model call is made, so
// routing latency is bounded by the provider's deadline.
func (classifier *Classifier) Classify(ctx context.Context, query string) Decision {
	fallback := Decision{
		Agent:     classifier.registry.Default(),
		Reasoning: "fallback: routing classifier unavailable",
	}

	out, err := classifier.provider.Complete(ctx, []provider.Message{
		provider.SystemMessage(classifierSystemPrompt),
		provider.UserMessage(classifier.buildPrompt(query)),
	})

	if err != nil {
		log.Warn("routing classifier call failed", "error", err)
		return fallback
	}

	choice, err := parseChoice(out)

	if err != nil {
		log.Warn("routing classifier returned unparseable output",
			"output", out,
			"error", err,
		)
		fallback.Reasoning = "fallback: classifier output was not valid JSON"
		return fallback
	}

	entry, err := classifier.registry.Resolve(choice.Agent)

	if err != nil {
		log.Warn("routing classifier picked an unregistered agent",
			"agent", choice.Agent,
		)
		// Keep the model's reasoning; only the target is corrected.
		return Decision{
			Agent:     classifier.registry.Default(),
			Reasoning: choice.Reasoning,
		}
	}

	log.Info("query routed",
		"agent", entry.Name,
		"reasoning", choice.Reasoning,
	)

	return Decision{Agent: entry, Reasoning: choice.Reasoning}
}

func (classifier *Classifier) buildPrompt(query string) string {
	var sb strings.Builder

	sb.WriteString("Available agents:\n")

	for _, entry := range classifier.registry.Entries() {
		sb.WriteString(fmt.Sprintf("- %s: %s", entry.Name, entry.Description))

		if len(entry.Skills) > 0 {
			sb.WriteString(fmt.Sprintf(" (skills: %s)", strings.Join(entry.Skills, ", ")))
		}

		sb.WriteString("\n")
	}

	sb.WriteString("\nUser query: ")
	sb.WriteString(query)

	return sb.String()
}

type routingChoice struct {
	Agent     string `json:"agent"`
	Reasoning string `json:"reasoning"`
}

// parseChoice decodes the model's routing answer.  Models wrap JSON in
// code fences or emit trailing prose often enough that a repair pass is
// attempted before giving up.
func parseChoice(out string) (*routingChoice, error) {
	cleaned := stripFences(out)

	var choice routingChoice

	if err := json.Unmarshal([]byte(cleaned), &choice); err == nil && choice.Agent != "" {
		return &choice, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(repaired), &choice); err != nil {
		return nil, err
	}

	if choice.Agent == "" {
		return nil, fmt.Errorf("routing answer has no agent field")
	}

	return &choice, nil
}

func stripFences(out string) string {
	trimmed := strings.TrimSpace(out)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	return strings.TrimSpace(trimmed)
}
