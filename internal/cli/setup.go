package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/devagent/internal/setup"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the setup wizard",
	Long: `Run the interactive setup wizard to connect an LLM provider.

Use this command to reconfigure devagent or switch the default provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !setup.IsInteractive() {
			setup.PrintEnvInstructions(os.Stderr)
			return fmt.Errorf("setup requires an interactive terminal")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := setup.RunWizard(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}

		if result == nil || result.Cancelled {
			return nil
		}

		fmt.Println("\nSetup complete! Run 'devagent' to start.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
