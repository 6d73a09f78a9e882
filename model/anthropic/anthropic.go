// Package anthropic adapts the Anthropic Messages API to the model.Model
// interface.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/supportmesh/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	// APIKey authenticates against the API. Required.
	APIKey string
	// Temperature controls sampling randomness.
	Temperature float64
	// MaxTokens bounds the completion length. Anthropic requires a value,
	// so zero falls back to a conservative default.
	MaxTokens int64
}

// Model calls the Anthropic Messages API, non-streaming.
type Model struct {
	client anthropic.Client
	name   string
	opts   Options
}

// NewModel creates an Anthropic-backed model for the given model name.
func NewModel(name string, optFns ...func(o *Options)) *Model {
	opts := Options{
		Temperature: 0.2,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}

	return &Model{
		client: anthropic.NewClient(option.WithAPIKey(opts.APIKey)),
		name:   name,
		opts:   opts,
	}
}

// Complete sends one message request and returns the concatenated text
// blocks of the reply.
func (m *Model) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.name),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages:    buildMessages(req),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("anthropic completion: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return model.Response{Text: b.String()}, nil
}

// Info identifies the configured model.
func (m *Model) Info() model.Info {
	return model.Info{Provider: "anthropic", Name: m.name}
}

func buildMessages(req model.Request) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == model.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	return msgs
}
