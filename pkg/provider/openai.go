package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/viper"
)

/*
OpenAIProvider talks to any OpenAI-compatible chat-completions endpoint.
*/
type OpenAIProvider struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

type OpenAIProviderOption func(*OpenAIProvider)

func NewOpenAIProvider(baseURL, apiKey string, options ...OpenAIProviderOption) *OpenAIProvider {
	requestOptions := []option.RequestOption{}

	if baseURL != "" {
		requestOptions = append(requestOptions, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/v1"))
	}

	if apiKey != "" {
		requestOptions = append(requestOptions, option.WithAPIKey(apiKey))
	}

	prvdr := &OpenAIProvider{
		client:      openai.NewClient(requestOptions...),
		temperature: 0.2,
		maxTokens:   2000,
	}

	for _, opt := range options {
		opt(prvdr)
	}

	return prvdr
}

// NewOpenAIProviderFromConfig builds a provider from the llm.* viper keys,
// using the model stored under llm.<modelKey>.
func NewOpenAIProviderFromConfig(modelKey string) *OpenAIProvider {
	v := viper.GetViper()

	return NewOpenAIProvider(
		v.GetString("llm.base_url"),
		v.GetString("llm.api_key"),
		WithModel(v.GetString(fmt.Sprintf("llm.%s", modelKey))),
		WithTemperature(v.GetFloat64("llm.temperature")),
		WithMaxTokens(v.GetInt64("llm.max_tokens")),
	)
}

func (prvdr *OpenAIProvider) Complete(
	ctx context.Context, messages []Message,
) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(prvdr.model),
		Messages:    prvdr.convertMessages(messages),
		Temperature: openai.Float(prvdr.temperature),
		MaxTokens:   openai.Int(prvdr.maxTokens),
	}

	completion, err := prvdr.client.Chat.Completions.New(ctx, params)

	if err != nil {
		log.Error("chat completion failed", "model", prvdr.model, "error", err)
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices for model %s", prvdr.model)
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func (prvdr *OpenAIProvider) convertMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			converted = append(converted, openai.SystemMessage(msg.Content))
		case "agent", "assistant":
			converted = append(converted, openai.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}

	return converted
}

func WithModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.model = model
	}
}

func WithTemperature(temperature float64) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.temperature = temperature
	}
}

func WithMaxTokens(maxTokens int64) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		if maxTokens > 0 {
			prvdr.maxTokens = maxTokens
		}
	}
}
