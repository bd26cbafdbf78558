package llm

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	veniceBaseURL     = "https://api.venice.ai/api/v1"
	copilotBaseURL    = "https://api.githubcopilot.com"
)

// OpenRouterModels lists popular OpenRouter models
var OpenRouterModels = []Model{
	{ID: "anthropic/claude-sonnet-4", Name: "Claude Sonnet 4", ContextWindow: 200000, InputCost: 3.0, OutputCost: 15.0},
	{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet", ContextWindow: 200000, InputCost: 3.0, OutputCost: 15.0},
	{ID: "openai/gpt-4o", Name: "GPT-4o", ContextWindow: 128000, InputCost: 2.50, OutputCost: 10.0},
	{ID: "google/gemini-2.5-pro", Name: "Gemini 2.5 Pro", ContextWindow: 1000000, InputCost: 1.25, OutputCost: 10.0},
	{ID: "deepseek/deepseek-chat", Name: "DeepSeek V3", ContextWindow: 64000, InputCost: 0.27, OutputCost: 1.10},
	{ID: "meta-llama/llama-4-maverick", Name: "Llama 4 Maverick", ContextWindow: 1000000, InputCost: 0.25, OutputCost: 1.0},
}

// VeniceModels lists available Venice models. Pricing is not published per token.
var VeniceModels = []Model{
	{ID: "llama-3.3-70b", Name: "Llama 3.3 70B", ContextWindow: 128000},
	{ID: "llama-3.1-405b", Name: "Llama 3.1 405B", ContextWindow: 128000},
	{ID: "qwen-2.5-coder-32b", Name: "Qwen 2.5 Coder 32B", ContextWindow: 32000},
}

// CopilotModels lists available Copilot models. Usage is covered by the subscription.
var CopilotModels = []Model{
	{ID: "gpt-4o", Name: "GPT-4o (Copilot)", ContextWindow: 128000},
	{ID: "claude-3.5-sonnet", Name: "Claude 3.5 Sonnet (Copilot)", ContextWindow: 200000},
}

// OpenAICompatProvider wraps OpenAIProvider with provider metadata and a model
// list for validation. OpenAI-compatible backends (OpenRouter, Venice,
// Copilot) are thin constructors over it.
type OpenAICompatProvider struct {
	id     ProviderID
	name   string
	models []Model

	*OpenAIProvider
}

func newOpenAICompatProvider(apiKey, model, baseURL string, id ProviderID, name string, models []Model, defaultModel string) (*OpenAICompatProvider, error) {
	if model == "" {
		model = defaultModel
	}

	base, err := NewOpenAIProvider(apiKey, model, baseURL)
	if err != nil {
		return nil, err
	}
	base.jsonMode = false

	return &OpenAICompatProvider{
		id:             id,
		name:           name,
		models:         models,
		OpenAIProvider: base,
	}, nil
}

// NewOpenRouterProvider creates a provider backed by OpenRouter
func NewOpenRouterProvider(apiKey, model string) (*OpenAICompatProvider, error) {
	return newOpenAICompatProvider(apiKey, model, openRouterBaseURL, ProviderOpenRouter, "OpenRouter", OpenRouterModels, "anthropic/claude-sonnet-4")
}

// NewVeniceProvider creates a provider backed by Venice AI
func NewVeniceProvider(apiKey, model string) (*OpenAICompatProvider, error) {
	return newOpenAICompatProvider(apiKey, model, veniceBaseURL, ProviderVenice, "Venice AI", VeniceModels, "llama-3.3-70b")
}

// NewCopilotProvider creates a provider backed by GitHub Copilot
func NewCopilotProvider(token, model string) (*OpenAICompatProvider, error) {
	return newOpenAICompatProvider(token, model, copilotBaseURL, ProviderCopilot, "GitHub Copilot", CopilotModels, "gpt-4o")
}

func (p *OpenAICompatProvider) ID() ProviderID { return p.id }
func (p *OpenAICompatProvider) Name() string   { return p.name }
func (p *OpenAICompatProvider) Models() []Model {
	return p.models
}

func (p *OpenAICompatProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, p.models); err != nil {
		return err
	}
	p.model = modelID
	return nil
}
