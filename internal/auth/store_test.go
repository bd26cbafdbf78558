package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/devagent/internal/llm"
	"github.com/yolodolo42/devagent/internal/testutil"
)

func TestNewStore(t *testing.T) {
	t.Run("creates data directory", func(t *testing.T) {
		subDir := filepath.Join(testutil.TempDir(t), "newdir")

		store, err := NewStore(subDir)
		require.NoError(t, err)
		require.NotNil(t, store)

		_, err = os.Stat(subDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(subDir, "auth.json"), store.Path())
	})

	t.Run("loads existing auth.json", func(t *testing.T) {
		dir := testutil.TempDir(t)
		authJSON := `{
			"version": 1,
			"providers": {
				"anthropic": {"key": "sk-test-123"}
			},
			"default_provider": "anthropic"
		}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.json"), []byte(authJSON), 0600))

		store, err := NewStore(dir)
		require.NoError(t, err)

		cred, err := store.GetCredential(llm.ProviderAnthropic)
		require.NoError(t, err)
		assert.Equal(t, "sk-test-123", cred.Key)
		assert.Equal(t, llm.ProviderAnthropic, store.GetDefaultProvider())
	})

	t.Run("tolerates missing providers field", func(t *testing.T) {
		dir := testutil.TempDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.json"), []byte(`{"version":1}`), 0600))

		store, err := NewStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.SetCredential(llm.ProviderOpenAI, Credential{Key: "k"}))
	})

	t.Run("returns error for corrupt auth.json", func(t *testing.T) {
		dir := testutil.TempDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.json"), []byte("not valid json"), 0600))

		_, err := NewStore(dir)
		require.Error(t, err)
	})
}

func TestStore_SetCredential_GetCredential(t *testing.T) {
	t.Run("stamps AddedAt", func(t *testing.T) {
		store, err := NewStore(testutil.TempDir(t))
		require.NoError(t, err)

		require.NoError(t, store.SetCredential(llm.ProviderAnthropic, Credential{Key: "sk-test-key-123"}))

		cred, err := store.GetCredential(llm.ProviderAnthropic)
		require.NoError(t, err)
		assert.Equal(t, "sk-test-key-123", cred.Key)
		assert.False(t, cred.AddedAt.IsZero())
	})

	t.Run("persists to disk", func(t *testing.T) {
		dir := testutil.TempDir(t)

		store1, err := NewStore(dir)
		require.NoError(t, err)
		require.NoError(t, store1.SetCredential(llm.ProviderOpenAI, Credential{Key: "sk-openai-key"}))

		store2, err := NewStore(dir)
		require.NoError(t, err)

		cred, err := store2.GetCredential(llm.ProviderOpenAI)
		require.NoError(t, err)
		assert.Equal(t, "sk-openai-key", cred.Key)
	})

	t.Run("returns error for non-existent provider", func(t *testing.T) {
		store, err := NewStore(testutil.TempDir(t))
		require.NoError(t, err)

		_, err = store.GetCredential(llm.ProviderAnthropic)
		require.ErrorIs(t, err, ErrNoCredential)
		assert.Contains(t, err.Error(), "anthropic")
	})
}

func TestStore_RemoveCredential(t *testing.T) {
	t.Run("removes credential and clears matching default", func(t *testing.T) {
		store, err := NewStore(testutil.TempDir(t))
		require.NoError(t, err)

		require.NoError(t, store.SetCredential(llm.ProviderAnthropic, Credential{Key: "test-key"}))
		require.NoError(t, store.SetDefaultProvider(llm.ProviderAnthropic))

		require.NoError(t, store.RemoveCredential(llm.ProviderAnthropic))

		_, err = store.GetCredential(llm.ProviderAnthropic)
		require.Error(t, err)
		assert.Equal(t, llm.ProviderID(""), store.GetDefaultProvider())
	})

	t.Run("is idempotent", func(t *testing.T) {
		store, err := NewStore(testutil.TempDir(t))
		require.NoError(t, err)

		require.NoError(t, store.RemoveCredential(llm.ProviderVenice))
		require.NoError(t, store.RemoveCredential(llm.ProviderVenice))
	})
}

func TestStore_DefaultProvider(t *testing.T) {
	t.Run("empty by default", func(t *testing.T) {
		store, err := NewStore(testutil.TempDir(t))
		require.NoError(t, err)
		assert.Equal(t, llm.ProviderID(""), store.GetDefaultProvider())
	})

	t.Run("persists default provider", func(t *testing.T) {
		dir := testutil.TempDir(t)

		store1, err := NewStore(dir)
		require.NoError(t, err)
		require.NoError(t, store1.SetDefaultProvider(llm.ProviderGemini))

		store2, err := NewStore(dir)
		require.NoError(t, err)
		assert.Equal(t, llm.ProviderGemini, store2.GetDefaultProvider())
	})
}

func TestStore_ListProviders(t *testing.T) {
	store, err := NewStore(testutil.TempDir(t))
	require.NoError(t, err)
	assert.Empty(t, store.ListProviders())

	require.NoError(t, store.SetCredential(llm.ProviderOpenAI, Credential{Key: "key2"}))
	require.NoError(t, store.SetCredential(llm.ProviderAnthropic, Credential{Key: "key1"}))

	assert.Equal(t, []llm.ProviderID{llm.ProviderAnthropic, llm.ProviderOpenAI}, store.ListProviders())
}

func TestStore_FilePermissions(t *testing.T) {
	dir := testutil.TempDir(t)
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.SetCredential(llm.ProviderAnthropic, Credential{Key: "test"}))

	info, err := os.Stat(filepath.Join(dir, "auth.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dir, "auth.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_Concurrency(t *testing.T) {
	store, err := NewStore(testutil.TempDir(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.SetCredential(llm.ProviderAnthropic, Credential{Key: fmt.Sprintf("key-%d", i)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.GetCredential(llm.ProviderAnthropic)
			store.ListProviders()
			store.GetDefaultProvider()
		}()
	}
	wg.Wait()

	cred, err := store.GetCredential(llm.ProviderAnthropic)
	require.NoError(t, err)
	assert.Contains(t, cred.Key, "key-")
}
