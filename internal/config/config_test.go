package config

import (
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/devagent/internal/testutil"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	RegisterDefaults(v)
	v.Set("workspace", testutil.TempDir(t))
	v.Set("data_dir", testutil.TempDir(t))
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.MaxSteps)
	assert.Equal(t, 3, cfg.LoopWindow)
	assert.Equal(t, 10*time.Minute, cfg.TurnTimeout)
	assert.Equal(t, 2*time.Minute, cfg.CommandTimeout)
	assert.Equal(t, "/bin/sh", cfg.Shell)
	assert.Equal(t, 65536, cfg.MaxOutputBytes)
	assert.Equal(t, DefaultDenyCommands, cfg.Policy.DenyCommands)
	assert.Equal(t, DefaultProtectedPaths, cfg.Policy.ProtectedPaths)
	assert.Empty(t, cfg.Policy.AllowCommands)
	assert.True(t, cfg.SessionLog)
	assert.True(t, cfg.Audit)
	assert.True(t, filepath.IsAbs(cfg.Workspace))
}

func TestLoad_DataDirFallsBackToHome(t *testing.T) {
	home := testutil.TempDir(t)
	testutil.SetEnv(t, "HOME", home)

	v := newViper(t)
	v.Set("data_dir", "")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".devagent"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, ".devagent", "sessions"), cfg.SessionsDir())
	assert.Equal(t, filepath.Join(home, ".devagent", "audit.db"), cfg.AuditDBPath())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := testutil.TempDir(t)
	path := testutil.WriteFile(t, dir, "config.yaml", `
provider: openai
model: gpt-4o-mini
max_steps: 0
command_timeout: 30s
policy:
  deny_commands: ["rm", "git push*"]
  allow_commands: ["rm"]
`)

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 0, cfg.MaxSteps)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, []string{"rm", "git push*"}, cfg.Policy.DenyCommands)
	assert.Equal(t, []string{"rm"}, cfg.Policy.AllowCommands)
}

func TestBindEnv(t *testing.T) {
	testutil.SetEnv(t, "DEVAGENT_MAX_STEPS", "7")
	testutil.SetEnv(t, "DEVAGENT_SHELL", "/bin/bash")

	v := newViper(t)
	BindEnv(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxSteps)
	assert.Equal(t, "/bin/bash", cfg.Shell)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{"negative max steps", "max_steps", -1, "max_steps"},
		{"negative loop window", "loop_window", -2, "loop_window"},
		{"loop window of one", "loop_window", 1, "loop_window"},
		{"zero output cap", "max_output_bytes", 0, "max_output_bytes"},
		{"zero command timeout", "command_timeout", "0s", "command_timeout"},
		{"empty shell", "shell", "", "shell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper(t)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("workspace must exist", func(t *testing.T) {
		v := newViper(t)
		v.Set("workspace", filepath.Join(testutil.TempDir(t), "missing"))

		_, err := Load(v)
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("workspace must be a directory", func(t *testing.T) {
		dir := testutil.TempDir(t)
		v := newViper(t)
		v.Set("workspace", testutil.WriteFile(t, dir, "file.txt", "x"))

		_, err := Load(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}
