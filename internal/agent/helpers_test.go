package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/devagent/internal/config"
	"github.com/yolodolo42/devagent/internal/llm"
	"github.com/yolodolo42/devagent/internal/testutil"
)

// testConfig returns a loaded default configuration rooted in a fresh
// workspace and data dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.RegisterDefaults(v)
	v.Set("workspace", testutil.TempDir(t))
	v.Set("data_dir", testutil.TempDir(t))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

// isolateProviders clears provider env vars and global viper state so only
// what the test sets is visible to credential lookup.
func isolateProviders(t *testing.T) {
	t.Helper()
	for _, id := range llm.AllProviderIDs() {
		testutil.UnsetEnv(t, llm.EnvVarForProvider(id))
	}
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestNew(t *testing.T) {
	t.Run("no providers connected", func(t *testing.T) {
		isolateProviders(t)
		_, err := New(testConfig(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no LLM providers connected")
	})

	t.Run("falls back to a connected provider", func(t *testing.T) {
		isolateProviders(t)
		testutil.SetEnv(t, "OPENAI_API_KEY", "sk-test")

		cfg := testConfig(t)
		a, err := New(cfg)
		require.NoError(t, err)
		t.Cleanup(a.Close)

		assert.Equal(t, llm.ProviderOpenAI, a.CurrentProviderID())
		assert.Len(t, a.Tools(), 4)
		require.NotNil(t, a.Audit())
		assert.FileExists(t, cfg.AuditDBPath())
		assert.FileExists(t, filepath.Join(cfg.SessionsDir(), a.SessionID()+".jsonl"))
	})

	t.Run("configured model is applied", func(t *testing.T) {
		isolateProviders(t)
		testutil.SetEnv(t, "OPENAI_API_KEY", "sk-test")

		cfg := testConfig(t)
		cfg.Provider = "openai"
		cfg.Model = "gpt-4o-mini"
		cfg.Audit = false
		cfg.SessionLog = false
		a, err := New(cfg)
		require.NoError(t, err)
		t.Cleanup(a.Close)

		assert.Equal(t, "gpt-4o-mini", a.CurrentModel())
		assert.Nil(t, a.Audit())
		_, err = os.Stat(cfg.SessionsDir())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("explicit provider without a key fails", func(t *testing.T) {
		isolateProviders(t)
		testutil.SetEnv(t, "OPENAI_API_KEY", "sk-test")

		cfg := testConfig(t)
		cfg.Provider = "anthropic"
		_, err := New(cfg)
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		isolateProviders(t)
		cfg := testConfig(t)
		cfg.Provider = "bogus"
		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")
	})
}
