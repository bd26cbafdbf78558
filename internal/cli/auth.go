package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/devagent/internal/auth"
	"github.com/yolodolo42/devagent/internal/llm"
	"github.com/yolodolo42/devagent/internal/setup"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LLM provider authentication",
	Long:  `Connect, disconnect, and manage API keys for LLM providers.`,
}

var authConnectCmd = &cobra.Command{
	Use:   "connect [provider]",
	Short: "Connect to an LLM provider",
	Long: `Connect to an LLM provider by providing an API key.

Supported providers:
  anthropic   - Anthropic Claude
  openai      - OpenAI GPT
  gemini      - Google Gemini
  openrouter  - OpenRouter
  copilot     - GitHub Copilot (GitHub token)
  venice      - Venice AI`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthConnect,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected providers",
	RunE:  runAuthList,
}

var authDisconnectCmd = &cobra.Command{
	Use:   "disconnect <provider>",
	Short: "Disconnect from a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDisconnect,
}

var authDefaultCmd = &cobra.Command{
	Use:   "default [provider]",
	Short: "Get or set the default provider",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthDefault,
}

var authTestCmd = &cobra.Command{
	Use:   "test <provider>",
	Short: "Test connection to a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthTest,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authConnectCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authDisconnectCmd)
	authCmd.AddCommand(authDefaultCmd)
	authCmd.AddCommand(authTestCmd)

	authConnectCmd.Flags().String("key", "", "API key (will prompt if not provided)")
}

func getAuthManager() (*auth.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return auth.NewManager(cfg.DataDir)
}

func runAuthConnect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var providerID llm.ProviderID

	if len(args) == 0 {
		fmt.Fprintln(out, "Select a provider to connect:")
		providers := llm.AllProviderIDs()
		for i, p := range providers {
			fmt.Fprintf(out, "  %d. %s\n", i+1, auth.DisplayName(p))
		}
		fmt.Fprint(out, "\nEnter number: ")

		var choice int
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &choice)
		if choice < 1 || choice > len(providers) {
			return fmt.Errorf("invalid selection")
		}
		providerID = providers[choice-1]
	} else {
		id, err := llm.ParseProviderID(args[0])
		if err != nil {
			return err
		}
		providerID = id
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	apiKey, _ := cmd.Flags().GetString("key")
	if apiKey == "" {
		if envVar := llm.EnvVarForProvider(providerID); envVar != "" {
			fmt.Fprintf(out, "Tip: You can also set the %s environment variable\n", envVar)
		}
		fmt.Fprintf(out, "Get a key at: %s\n\n", auth.KeyHint(providerID))

		fmt.Fprintf(out, "Enter API key for %s: ", auth.DisplayName(providerID))
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		apiKey = string(keyBytes)
	}

	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("API key is required")
	}

	if err := manager.SetAPIKey(providerID, apiKey); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	fmt.Fprintf(out, "✓ Successfully connected to %s\n", auth.DisplayName(providerID))
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	connected := manager.ListConnected()
	defaultProvider := manager.GetDefaultProvider()

	if len(connected) == 0 {
		fmt.Fprintln(out, "No providers connected.")
		fmt.Fprintln(out, "\nUse 'devagent auth connect <provider>' to connect a provider.")
		fmt.Fprintln(out, "Or set environment variables:")
		for _, id := range llm.AllProviderIDs() {
			if envVar := llm.EnvVarForProvider(id); envVar != "" {
				fmt.Fprintf(out, "  %s  (%s)\n", envVar, id)
			}
		}
		return nil
	}

	fmt.Fprintln(out, "Connected providers:")
	for _, id := range connected {
		marker := "  "
		if id == defaultProvider {
			marker = "* "
		}
		_, src := manager.Lookup(id)
		fmt.Fprintf(out, "%s%-11s %s\n", marker, id, src)
	}

	fmt.Fprintf(out, "\n* = default provider\n")
	return nil
}

func runAuthDisconnect(cmd *cobra.Command, args []string) error {
	providerID, err := llm.ParseProviderID(args[0])
	if err != nil {
		return err
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	if err := manager.RemoveCredential(providerID); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Disconnected from %s\n", providerID)
	if envVar := llm.EnvVarForProvider(providerID); envVar != "" && os.Getenv(envVar) != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: %s is still set in the environment\n", envVar)
	}
	return nil
}

func runAuthDefault(cmd *cobra.Command, args []string) error {
	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Default provider: %s\n", manager.GetDefaultProvider())
		return nil
	}

	providerID, err := llm.ParseProviderID(args[0])
	if err != nil {
		return err
	}

	if !manager.HasCredential(providerID) {
		return fmt.Errorf("provider %s is not connected. Connect it first with 'devagent auth connect %s'", providerID, providerID)
	}

	if err := manager.SetDefaultProvider(providerID); err != nil {
		return fmt.Errorf("failed to set default provider: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default provider set to: %s\n", providerID)
	return nil
}

func runAuthTest(cmd *cobra.Command, args []string) error {
	providerID, err := llm.ParseProviderID(args[0])
	if err != nil {
		return err
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	apiKey, err := manager.GetAPIKey(providerID)
	if err != nil {
		return fmt.Errorf("no credentials found for %s", providerID)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Testing connection to %s (key: %s)...\n", providerID, maskKey(apiKey))

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := setup.CheckKey(ctx, providerID, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is reachable\n", auth.DisplayName(providerID))
	return nil
}

// maskKey shows the first and last four characters of long keys only.
func maskKey(key string) string {
	if len(key) < 12 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}
