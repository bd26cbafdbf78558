package auth

import "github.com/yolodolo42/devagent/internal/llm"

// keyHints tells the user where each provider issues keys
var keyHints = map[llm.ProviderID]string{
	llm.ProviderOpenAI:     "platform.openai.com/api-keys",
	llm.ProviderAnthropic:  "console.anthropic.com",
	llm.ProviderGemini:     "aistudio.google.com/apikey",
	llm.ProviderCopilot:    "a GitHub token with Copilot access (gh auth token)",
	llm.ProviderVenice:     "venice.ai/settings/api",
	llm.ProviderOpenRouter: "openrouter.ai/settings/keys",
}

// KeyHint returns where to obtain an API key for a provider
func KeyHint(providerID llm.ProviderID) string {
	if hint, ok := keyHints[providerID]; ok {
		return hint
	}
	return "the provider's dashboard"
}

// DisplayName returns the human-readable provider name without building a client
func DisplayName(providerID llm.ProviderID) string {
	switch providerID {
	case llm.ProviderAnthropic:
		return "Anthropic"
	case llm.ProviderOpenAI:
		return "OpenAI"
	case llm.ProviderGemini:
		return "Google Gemini"
	case llm.ProviderOpenRouter:
		return "OpenRouter"
	case llm.ProviderVenice:
		return "Venice AI"
	case llm.ProviderCopilot:
		return "GitHub Copilot"
	default:
		return string(providerID)
	}
}
