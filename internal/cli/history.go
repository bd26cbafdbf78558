package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/devagent/internal/agent"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent tool invocations",
	Long:  `Show the most recent tool invocations recorded in the audit database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}

		if _, err := os.Stat(cfg.AuditDBPath()); os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "No tool invocations recorded yet.")
			return nil
		}

		store, err := agent.OpenAuditStore(cfg.AuditDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		res := historyResult(cmd.Context(), store, limit, outputWidth(out))
		if res.isError {
			return fmt.Errorf("%s", res.text)
		}
		fmt.Fprintln(out, res.text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "number of invocations to show")
}
