package setup

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yolodolo42/devagent/internal/auth"
	"github.com/yolodolo42/devagent/internal/llm"
)

// keyCheckTimeout bounds the test request made with a new key.
const keyCheckTimeout = 15 * time.Second

// CheckKey makes one minimal request with key to prove it works.
func CheckKey(ctx context.Context, id llm.ProviderID, key string) error {
	provider, err := llm.NewProvider(ctx, id, key, "")
	if err != nil {
		return err
	}
	defer llm.Close(provider)

	_, err = provider.Chat(ctx, &llm.ChatRequest{
		SystemPrompt: "You are a connectivity check.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Reply with the word ok."},
		},
		MaxTokens: 10,
	})
	if err != nil {
		return fmt.Errorf("API test failed: %w", err)
	}
	return nil
}

// validateKey tests the entered key in the background.
func (m WizardModel) validateKey() tea.Cmd {
	id := m.selectedProvider
	key := m.apiKeyInput.Value()
	check := m.checkKey

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), keyCheckTimeout)
		defer cancel()
		return keyValidatedMsg{err: check(ctx, id, key)}
	}
}

// saveProviderKey stores the key in auth.json and makes the provider the default.
func (m WizardModel) saveProviderKey() error {
	authManager, err := auth.NewManager(m.dataDir)
	if err != nil {
		return fmt.Errorf("failed to create auth manager: %w", err)
	}

	if err := authManager.SetAPIKey(m.selectedProvider, m.apiKeyInput.Value()); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	if err := authManager.SetDefaultProvider(m.selectedProvider); err != nil {
		return fmt.Errorf("failed to set default provider: %w", err)
	}
	return nil
}
