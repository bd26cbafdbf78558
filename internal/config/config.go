package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DEVAGENT_MAX_STEPS.
const EnvPrefix = "DEVAGENT"

// DefaultDenyCommands are refused by run_command unless explicitly allowed.
// Entries are doublestar patterns matched against the command name.
var DefaultDenyCommands = []string{
	"rm", "rmdir", "unlink", "shred",
	"sudo", "su", "doas",
	"mkfs*", "dd",
	"shutdown", "reboot", "halt", "poweroff",
	"chown",
}

// DefaultProtectedPaths cannot be written by write_file.
var DefaultProtectedPaths = []string{
	".git/**",
}

// Config is the effective runtime configuration.
type Config struct {
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model"`
	Workspace string `mapstructure:"workspace" yaml:"workspace"`
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir"`

	MaxSteps   int `mapstructure:"max_steps" yaml:"max_steps"`
	LoopWindow int `mapstructure:"loop_window" yaml:"loop_window"`
	MaxTokens  int `mapstructure:"max_tokens" yaml:"max_tokens"`

	TurnTimeout    time.Duration `mapstructure:"turn_timeout" yaml:"turn_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	Shell          string        `mapstructure:"shell" yaml:"shell"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes" yaml:"max_output_bytes"`

	Policy PolicyConfig `mapstructure:"policy" yaml:"policy"`

	SessionLog bool `mapstructure:"session_log" yaml:"session_log"`
	Audit      bool `mapstructure:"audit" yaml:"audit"`
}

// PolicyConfig scopes what the tools may touch.
type PolicyConfig struct {
	DenyCommands   []string `mapstructure:"deny_commands" yaml:"deny_commands"`
	AllowCommands  []string `mapstructure:"allow_commands" yaml:"allow_commands"`
	ProtectedPaths []string `mapstructure:"protected_paths" yaml:"protected_paths"`
}

// DefaultDataDir returns ~/.devagent.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".devagent"), nil
}

// RegisterDefaults installs every key's default on v.
func RegisterDefaults(v *viper.Viper) {
	v.SetDefault("provider", "")
	v.SetDefault("model", "")
	v.SetDefault("workspace", ".")
	v.SetDefault("data_dir", "")
	v.SetDefault("max_steps", 40)
	v.SetDefault("loop_window", 3)
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("turn_timeout", "10m")
	v.SetDefault("command_timeout", "2m")
	v.SetDefault("shell", "/bin/sh")
	v.SetDefault("max_output_bytes", 64*1024)
	v.SetDefault("policy.deny_commands", DefaultDenyCommands)
	v.SetDefault("policy.allow_commands", []string{})
	v.SetDefault("policy.protected_paths", DefaultProtectedPaths)
	v.SetDefault("session_log", true)
	v.SetDefault("audit", true)
}

// BindEnv routes DEVAGENT_* environment variables to keys, with nested keys
// spelled with underscores (DEVAGENT_POLICY_DENY_COMMANDS).
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config, fills derived values and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	if cfg.Workspace == "" {
		cfg.Workspace = "."
	}
	ws, err := filepath.Abs(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace %q: %w", cfg.Workspace, err)
	}
	cfg.Workspace = ws

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the agent cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.MaxSteps < 0:
		return fmt.Errorf("max_steps must be >= 0 (0 means unlimited), got %d", c.MaxSteps)
	case c.LoopWindow < 0:
		return fmt.Errorf("loop_window must be >= 0 (0 disables the guard), got %d", c.LoopWindow)
	case c.LoopWindow == 1:
		return fmt.Errorf("loop_window must be at least 2 to allow a single action")
	case c.MaxOutputBytes <= 0:
		return fmt.Errorf("max_output_bytes must be positive, got %d", c.MaxOutputBytes)
	case c.CommandTimeout <= 0:
		return fmt.Errorf("command_timeout must be positive, got %s", c.CommandTimeout)
	case c.TurnTimeout < 0:
		return fmt.Errorf("turn_timeout must be >= 0, got %s", c.TurnTimeout)
	case c.Shell == "":
		return fmt.Errorf("shell must not be empty")
	}

	info, err := os.Stat(c.Workspace)
	if err != nil {
		return fmt.Errorf("workspace %s: %w", c.Workspace, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace %s is not a directory", c.Workspace)
	}
	return nil
}

// SessionsDir is where JSONL session logs are written.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// AuditDBPath is the SQLite tool-invocation audit database.
func (c *Config) AuditDBPath() string {
	return filepath.Join(c.DataDir, "audit.db")
}
