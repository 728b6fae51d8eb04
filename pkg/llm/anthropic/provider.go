// Package anthropic adapts the Anthropic Messages API to llm.LLMProvider.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"sponsor-advisor-be/pkg/llm"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultMaxTokens = 1024

type AnthropicProvider struct {
	client sdk.Client
	model  string
}

var _ llm.LLMProvider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, model string, opts ...option.RequestOption) *AnthropicProvider {
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicProvider{
		client: sdk.NewClient(reqOpts...),
		model:  model,
	}
}

func (p *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.ApplyOptions(llm.Options{Model: p.model, MaxTokens: defaultMaxTokens, Temperature: 0.4}, options...)

	var system []sdk.TextBlockParam
	messages := make([]sdk.MessageParam, 0, len(history))
	for _, m := range history {
		block := sdk.NewTextBlock(m.Content)
		switch llm.NormalizeRole(m.Role) {
		case llm.RoleSystem:
			system = append(system, sdk.TextBlockParam{Text: m.Content})
		case llm.RoleAssistant:
			messages = append(messages, sdk.NewAssistantMessage(block))
		default:
			messages = append(messages, sdk.NewUserMessage(block))
		}
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(opts.Model),
		MaxTokens:   int64(opts.MaxTokens),
		Messages:    messages,
		Temperature: sdk.Float(opts.Temperature),
	}
	if len(system) > 0 {
		params.System = system
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return eris.Wrap(llm.ClassifyStatus("anthropic", apiErr.StatusCode, apiErr.Error()), "anthropic: create message")
	}
	return eris.Wrap(err, "anthropic: create message")
}
