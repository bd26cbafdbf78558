package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderID represents a unique provider identifier
type ProviderID string

const (
	ProviderAnthropic  ProviderID = "anthropic"
	ProviderOpenAI     ProviderID = "openai"
	ProviderVenice     ProviderID = "venice"
	ProviderCopilot    ProviderID = "copilot"
	ProviderGemini     ProviderID = "gemini"
	ProviderOpenRouter ProviderID = "openrouter"
)

// Provider is the interface all LLM providers must implement
type Provider interface {
	// ID returns the unique provider identifier
	ID() ProviderID

	// Name returns the human-readable provider name
	Name() string

	// Chat sends the conversation and returns the model's reply text
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Models returns available models for this provider
	Models() []Model

	// DefaultModel returns the active model for this provider
	DefaultModel() string

	// SetModel switches the active model. Returns error if model ID is not
	// in the provider's supported model list.
	SetModel(modelID string) error
}

// Model represents an available model
type Model struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ContextWindow int     `json:"context_window"`
	InputCost     float64 `json:"input_cost"`  // per 1M tokens
	OutputCost    float64 `json:"output_cost"` // per 1M tokens
}

// Role values used in Message.Role
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Format selects the shape of the reply a provider is asked for.
type Format string

const (
	// FormatText leaves the reply format to the model.
	FormatText Format = ""
	// FormatJSON asks the backend for a single JSON object when it has a
	// native switch for it. Backends without one ignore it.
	FormatJSON Format = "json"
)

// ChatRequest is a provider-agnostic chat request
type ChatRequest struct {
	SystemPrompt string    `json:"system_prompt"`
	Messages     []Message `json:"messages"`
	Model        string    `json:"model,omitempty"` // Uses default if empty
	MaxTokens    int       `json:"max_tokens,omitempty"`
	Format       Format    `json:"format,omitempty"`
}

// ChatResponse is a provider-agnostic chat response
type ChatResponse struct {
	Content    string `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      Usage  `json:"usage"`
}

// Usage tracks token usage
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

const defaultMaxTokens = 4096

func resolveModel(req *ChatRequest, active string) string {
	if req.Model != "" {
		return req.Model
	}
	return active
}

func resolveMaxTokens(req *ChatRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

// EnvVarForProvider returns the environment variable name for a provider's API key
func EnvVarForProvider(id ProviderID) string {
	switch id {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderVenice:
		return "VENICE_API_KEY"
	case ProviderCopilot:
		return "GITHUB_TOKEN"
	case ProviderGemini:
		return "GOOGLE_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

// AllProviderIDs returns all known provider IDs in priority order
func AllProviderIDs() []ProviderID {
	return []ProviderID{
		ProviderAnthropic,
		ProviderOpenAI,
		ProviderOpenRouter,
		ProviderCopilot,
		ProviderGemini,
		ProviderVenice,
	}
}

// ParseProviderID maps user input to a known provider ID.
func ParseProviderID(s string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllProviderIDs() {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// ValidateModelID checks whether modelID exists in the given model list.
func ValidateModelID(modelID string, models []Model) error {
	for _, m := range models {
		if m.ID == modelID {
			return nil
		}
	}
	return fmt.Errorf("unknown model %q for this provider", modelID)
}

// NewProvider builds the provider for id with the given credential.
// An empty model selects the provider's default.
func NewProvider(ctx context.Context, id ProviderID, key, model string) (Provider, error) {
	switch id {
	case ProviderAnthropic:
		return NewAnthropicProvider(key, model)
	case ProviderOpenAI:
		return NewOpenAIProvider(key, model, "")
	case ProviderVenice:
		return NewVeniceProvider(key, model)
	case ProviderCopilot:
		return NewCopilotProvider(key, model)
	case ProviderGemini:
		return NewGeminiProvider(ctx, key, model)
	case ProviderOpenRouter:
		return NewOpenRouterProvider(key, model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
}

// Close releases clients that hold connections, such as Gemini's.
func Close(p Provider) {
	if c, ok := p.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
