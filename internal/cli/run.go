package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/devagent/internal/agent"
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Run a single request and exit",
	Long: `Run one request non-interactively and print each step.

  devagent run "add a /health route and test it"
  echo "why does the build fail?" | devagent run -

The exit status is non-zero when the request stopped early.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request := strings.Join(args, " ")
		if request == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read request: %w", err)
			}
			request = string(data)
		}
		if strings.TrimSpace(request) == "" {
			return fmt.Errorf("request is empty")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ag, err := agent.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}
		defer ag.Close()

		out := cmd.OutOrStdout()
		return runRequest(cmd.Context(), ag, request, out, outputWidth(out))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
