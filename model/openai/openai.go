// Package openai adapts the OpenAI chat completions API to the model.Model
// interface.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/supportmesh/model"
)

// Options configures the OpenAI model adapter.
type Options struct {
	// APIKey authenticates against the API. Required.
	APIKey string
	// BaseURL overrides the API endpoint, for proxies and compatible servers.
	BaseURL string
	// Temperature controls sampling randomness.
	Temperature float64
	// MaxTokens bounds the completion length. Zero means provider default.
	MaxTokens int64
}

// Model calls the OpenAI chat completions endpoint, non-streaming.
type Model struct {
	client openai.Client
	name   string
	opts   Options
}

// NewModel creates an OpenAI-backed model for the given model name.
func NewModel(name string, optFns ...func(o *Options)) *Model {
	opts := Options{
		Temperature: 0.2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Model{
		client: openai.NewClient(clientOpts...),
		name:   name,
		opts:   opts,
	}
}

// Complete sends one completion request and returns the first choice text.
func (m *Model) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(m.name),
		Messages:    buildMessages(req),
		Temperature: openai.Float(m.opts.Temperature),
	}
	if m.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(m.opts.MaxTokens)
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return model.Response{}, fmt.Errorf("openai completion: empty choices")
	}
	return model.Response{Text: completion.Choices[0].Message.Content}, nil
}

// Info identifies the configured model.
func (m *Model) Info() model.Info {
	return model.Info{Provider: "openai", Name: m.name}
}

func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case model.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case model.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}
