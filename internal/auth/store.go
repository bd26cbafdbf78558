package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/yolodolo42/devagent/internal/llm"
)

// credentialsFileName lives in the devagent data dir next to sessions/ and audit.db.
const credentialsFileName = "auth.json"

// ErrNoCredential is returned when no key is stored for a provider.
var ErrNoCredential = errors.New("no stored credential")

// Credential is an API key saved by `devagent auth login` or the setup wizard.
type Credential struct {
	Key     string    `json:"key"`
	AddedAt time.Time `json:"added_at"`
}

// credentialsFile is the on-disk layout of auth.json.
type credentialsFile struct {
	Version         int                           `json:"version"`
	Providers       map[llm.ProviderID]Credential `json:"providers"`
	DefaultProvider llm.ProviderID                `json:"default_provider,omitempty"`
}

func emptyCredentials() credentialsFile {
	return credentialsFile{Version: 1, Providers: make(map[llm.ProviderID]Credential)}
}

// Store keeps provider keys in a 0600 JSON file. Every change is written
// through before the call returns.
type Store struct {
	mu    sync.RWMutex
	path  string
	creds credentialsFile
}

// NewStore opens the credentials file under dataDir, creating the directory
// if needed. A missing file is an empty store.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{path: filepath.Join(dataDir, credentialsFileName), creds: emptyCredentials()}
	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	creds := emptyCredentials()
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if creds.Providers == nil {
		creds.Providers = make(map[llm.ProviderID]Credential)
	}
	s.creds = creds
	return s, nil
}

// Path returns the credentials file location.
func (s *Store) Path() string {
	return s.path
}

// update applies fn under the write lock and flushes the result.
func (s *Store) update(fn func(*credentialsFile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.creds)
	return s.flush()
}

// flush writes to a temp file and renames it over auth.json.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// GetCredential returns the stored key for providerID, or an error wrapping
// ErrNoCredential.
func (s *Store) GetCredential(providerID llm.ProviderID) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds.Providers[providerID]
	if !ok {
		return Credential{}, fmt.Errorf("%w for provider %s", ErrNoCredential, providerID)
	}
	return cred, nil
}

func (s *Store) SetCredential(providerID llm.ProviderID, cred Credential) error {
	if cred.AddedAt.IsZero() {
		cred.AddedAt = time.Now().UTC()
	}
	return s.update(func(c *credentialsFile) {
		c.Providers[providerID] = cred
	})
}

// RemoveCredential forgets a provider's key. If it was the default provider
// the default is cleared too, so devagent falls back to setup.
func (s *Store) RemoveCredential(providerID llm.ProviderID) error {
	return s.update(func(c *credentialsFile) {
		delete(c.Providers, providerID)
		if c.DefaultProvider == providerID {
			c.DefaultProvider = ""
		}
	})
}

// GetDefaultProvider returns "" until a default has been chosen.
func (s *Store) GetDefaultProvider() llm.ProviderID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.DefaultProvider
}

func (s *Store) SetDefaultProvider(providerID llm.ProviderID) error {
	return s.update(func(c *credentialsFile) {
		c.DefaultProvider = providerID
	})
}

// ListProviders returns the providers with a stored key in name order.
func (s *Store) ListProviders() []llm.ProviderID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]llm.ProviderID, 0, len(s.creds.Providers))
	for id := range s.creds.Providers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
