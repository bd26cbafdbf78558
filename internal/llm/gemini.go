package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements the Provider interface for Google Gemini
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// GeminiModels lists available Gemini models
var GeminiModels = []Model{
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", ContextWindow: 1000000, InputCost: 0.30, OutputCost: 2.50},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", ContextWindow: 1000000, InputCost: 1.25, OutputCost: 10.0},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", ContextWindow: 1000000, InputCost: 0.10, OutputCost: 0.40},
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", ContextWindow: 2000000, InputCost: 1.25, OutputCost: 5.0},
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// ID returns the provider identifier
func (p *GeminiProvider) ID() ProviderID {
	return ProviderGemini
}

// Name returns the human-readable provider name
func (p *GeminiProvider) Name() string {
	return "Google Gemini"
}

// Models returns available models
func (p *GeminiProvider) Models() []Model {
	return GeminiModels
}

// DefaultModel returns the default model
func (p *GeminiProvider) DefaultModel() string {
	return p.model
}

// SetModel switches the active model after validating the ID
func (p *GeminiProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, p.Models()); err != nil {
		return err
	}
	p.model = modelID
	return nil
}

// Chat sends a message and returns the response
func (p *GeminiProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages to send")
	}

	model := p.client.GenerativeModel(resolveModel(req, p.model))
	model.SetMaxOutputTokens(int32(resolveMaxTokens(req)))

	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}
	if req.Format == FormatJSON {
		model.ResponseMIMEType = "application/json"
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]

	lastMsg := contents[len(contents)-1]
	resp, err := cs.SendMessage(ctx, lastMsg.Parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return parseGeminiResponse(resp)
}

// Close closes the client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (*ChatResponse, error) {
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	response := &ChatResponse{
		StopReason: candidate.FinishReason.String(),
	}

	if resp.UsageMetadata != nil {
		response.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		response.Content = text.String()
	}

	return response, nil
}
