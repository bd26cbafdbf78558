package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// AnthropicModels lists available Anthropic models
var AnthropicModels = []Model{
	{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextWindow: 200000, InputCost: 3.0, OutputCost: 15.0},
	{ID: "claude-3-7-sonnet-20250219", Name: "Claude 3.7 Sonnet", ContextWindow: 200000, InputCost: 3.0, OutputCost: 15.0},
	{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextWindow: 200000, InputCost: 3.0, OutputCost: 15.0},
	{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ContextWindow: 200000, InputCost: 0.80, OutputCost: 4.0},
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey string, model string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}, nil
}

// ID returns the provider identifier
func (p *AnthropicProvider) ID() ProviderID {
	return ProviderAnthropic
}

// Name returns the human-readable provider name
func (p *AnthropicProvider) Name() string {
	return "Anthropic"
}

// Models returns available models
func (p *AnthropicProvider) Models() []Model {
	return AnthropicModels
}

// DefaultModel returns the default model
func (p *AnthropicProvider) DefaultModel() string {
	return p.model
}

// SetModel switches the active model after validating the ID
func (p *AnthropicProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, p.Models()); err != nil {
		return err
	}
	p.model = modelID
	return nil
}

// Chat sends a message and returns the response. Anthropic has no JSON
// mode switch, so Format is carried by the system prompt alone.
func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	messages := make([]anthropic.Message, len(req.Messages))
	for i, msg := range req.Messages {
		role := anthropic.RoleUser
		if msg.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		messages[i] = anthropic.Message{
			Role: role,
			Content: []anthropic.MessageContent{
				anthropic.NewTextMessageContent(msg.Content),
			},
		}
	}

	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(resolveModel(req, p.model)),
		MaxTokens: resolveMaxTokens(req),
		System:    req.SystemPrompt,
		Messages:  messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	var text strings.Builder
	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText && content.Text != nil {
			text.WriteString(*content.Text)
		}
	}

	return &ChatResponse{
		Content:    text.String(),
		StopReason: string(resp.StopReason),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
