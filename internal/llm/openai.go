package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	baseURL string

	// jsonMode is false for OpenAI-compatible backends whose
	// response_format support varies by model.
	jsonMode bool
}

// OpenAIModels lists available OpenAI models
var OpenAIModels = []Model{
	{ID: "gpt-4o", Name: "GPT-4o", ContextWindow: 128000, InputCost: 2.50, OutputCost: 10.0},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini", ContextWindow: 128000, InputCost: 0.15, OutputCost: 0.60},
	{ID: "gpt-4.1", Name: "GPT-4.1", ContextWindow: 1047576, InputCost: 2.0, OutputCost: 8.0},
	{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", ContextWindow: 1047576, InputCost: 0.40, OutputCost: 1.60},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextWindow: 128000, InputCost: 10.0, OutputCost: 30.0},
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAIProvider{
		client:   openai.NewClientWithConfig(config),
		model:    model,
		baseURL:  baseURL,
		jsonMode: true,
	}, nil
}

// ID returns the provider identifier
func (p *OpenAIProvider) ID() ProviderID {
	return ProviderOpenAI
}

// Name returns the human-readable provider name
func (p *OpenAIProvider) Name() string {
	return "OpenAI"
}

// Models returns available models
func (p *OpenAIProvider) Models() []Model {
	return OpenAIModels
}

// DefaultModel returns the default model
func (p *OpenAIProvider) DefaultModel() string {
	return p.model
}

// SetModel switches the active model after validating the ID
func (p *OpenAIProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, p.Models()); err != nil {
		return err
	}
	p.model = modelID
	return nil
}

// Chat sends a message and returns the response
func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	openaiReq := openai.ChatCompletionRequest{
		Model:     resolveModel(req, p.model),
		MaxTokens: resolveMaxTokens(req),
		Messages:  toOpenAIMessages(req),
	}

	if req.Format == FormatJSON && p.jsonMode {
		openaiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func toOpenAIMessages(req *ChatRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}

	for _, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return messages
}
