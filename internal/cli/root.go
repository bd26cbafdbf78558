package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/devagent/internal/config"
	"github.com/yolodolo42/devagent/internal/setup"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "devagent",
		Short: "Terminal-first development agent",
		Long: `devagent is an interactive development partner in your terminal.

Describe what you want ("create a React app with a login page") and the
agent plans, writes files, installs dependencies and runs commands in the
workspace, showing every step it takes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if setup.NeedsSetup(cfg.DataDir) {
				if !setup.IsInteractive() {
					setup.PrintEnvInstructions(os.Stderr)
					return fmt.Errorf("setup required: run devagent interactively or set environment variables")
				}

				result, err := setup.RunWizard(cfg.DataDir)
				if err != nil {
					return fmt.Errorf("setup failed: %w", err)
				}

				// If user cancelled setup, exit cleanly
				if result == nil || result.Cancelled {
					return nil
				}
			}

			if plain, _ := cmd.Flags().GetBool("plain"); plain || !setup.IsInteractive() {
				return RunPlain(cmd.Context(), cfg, os.Stdin, os.Stdout)
			}
			return RunREPL(cfg)
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.devagent/config.yaml)")
	flags.String("provider", "", "LLM provider to use (anthropic, openai, gemini, openrouter, copilot, venice)")
	flags.String("model", "", "model ID for the provider")
	flags.String("workspace", ".", "directory the agent works in")
	flags.Int("max-steps", 40, "model round-trips allowed per request (0 = unlimited)")
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("workspace", flags.Lookup("workspace"))
	_ = viper.BindPFlag("max_steps", flags.Lookup("max-steps"))

	rootCmd.Flags().Bool("plain", false, "line-oriented output without the full-screen interface")
}

func initConfig() {
	config.RegisterDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := config.DefaultDataDir()
		cobra.CheckErr(err)

		if err := os.MkdirAll(configDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Silently ignore missing config file - it's optional
	_ = viper.ReadInConfig()
}

// loadConfig returns the effective configuration and makes sure the data
// directory exists.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return cfg, nil
}
