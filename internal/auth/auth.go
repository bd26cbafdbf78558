package auth

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/yolodolo42/devagent/internal/llm"
)

// Source says where a resolved API key came from
type Source string

const (
	SourceNone   Source = ""
	SourceEnv    Source = "env"
	SourceConfig Source = "config"
	SourceStored Source = "auth.json"
)

// Manager handles authentication for LLM providers
type Manager struct {
	store *Store
}

// NewManager creates a new auth manager
func NewManager(dataDir string) (*Manager, error) {
	store, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}

	return &Manager{store: store}, nil
}

// Store exposes the underlying credential store
func (m *Manager) Store() *Store {
	return m.store
}

// Lookup resolves a provider's API key. The provider's env var (for example
// ANTHROPIC_API_KEY) wins, then llm.providers.<id>.api_key from ~/.devagent/config.yaml,
// then the key saved in auth.json.
func (m *Manager) Lookup(providerID llm.ProviderID) (string, Source) {
	if envVar := llm.EnvVarForProvider(providerID); envVar != "" {
		if key := os.Getenv(envVar); key != "" {
			return key, SourceEnv
		}
	}

	if key := viper.GetString(configKey(providerID)); key != "" {
		if resolved := resolveEnvSubstitution(key); resolved != "" {
			return resolved, SourceConfig
		}
	}

	if cred, err := m.store.GetCredential(providerID); err == nil && cred.Key != "" {
		return cred.Key, SourceStored
	}

	return "", SourceNone
}

// GetAPIKey returns the resolved API key or an error naming the provider
func (m *Manager) GetAPIKey(providerID llm.ProviderID) (string, error) {
	key, src := m.Lookup(providerID)
	if src == SourceNone {
		return "", fmt.Errorf("no API key found for provider: %s", providerID)
	}
	return key, nil
}

// SetAPIKey stores an API key for a provider
func (m *Manager) SetAPIKey(providerID llm.ProviderID, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key for %s is empty", providerID)
	}
	return m.store.SetCredential(providerID, Credential{Key: key})
}

// RemoveCredential removes stored credentials for a provider
func (m *Manager) RemoveCredential(providerID llm.ProviderID) error {
	return m.store.RemoveCredential(providerID)
}

// HasCredential checks if a provider has a key from any source
func (m *Manager) HasCredential(providerID llm.ProviderID) bool {
	_, src := m.Lookup(providerID)
	return src != SourceNone
}

// ListConnected returns all providers with credentials, in priority order
func (m *Manager) ListConnected() []llm.ProviderID {
	connected := make([]llm.ProviderID, 0)
	for _, id := range llm.AllProviderIDs() {
		if m.HasCredential(id) {
			connected = append(connected, id)
		}
	}
	return connected
}

// GetDefaultProvider returns the provider to use when none is configured:
// the stored default, else the first connected provider, else Anthropic.
func (m *Manager) GetDefaultProvider() llm.ProviderID {
	if id := m.store.GetDefaultProvider(); id != "" {
		return id
	}
	if connected := m.ListConnected(); len(connected) > 0 {
		return connected[0]
	}
	return llm.ProviderAnthropic
}

// SetDefaultProvider sets the default provider
func (m *Manager) SetDefaultProvider(providerID llm.ProviderID) error {
	return m.store.SetDefaultProvider(providerID)
}

func configKey(providerID llm.ProviderID) string {
	return fmt.Sprintf("llm.providers.%s.api_key", providerID)
}

var envRef = regexp.MustCompile(`\{env:([^}]+)\}`)

// resolveEnvSubstitution expands {env:NAME} references in a config.yaml key
// so the file can point at a variable instead of holding the secret. Unset
// variables expand to "".
func resolveEnvSubstitution(value string) string {
	if !strings.Contains(value, "{env:") {
		return value
	}

	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[5 : len(match)-1])
	})
}
