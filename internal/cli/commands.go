package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yolodolo42/devagent/internal/agent"
	"github.com/yolodolo42/devagent/internal/auth"
	"github.com/yolodolo42/devagent/internal/config"
	"github.com/yolodolo42/devagent/internal/llm"
	"github.com/yolodolo42/devagent/internal/ui"
)

const helpText = `Available commands:
  /help, /?          - Show this help
  /model             - List available models
  /model <id>        - Switch to a different model
  /provider          - List connected providers
  /provider <id>     - Switch to a different provider
  /status            - Show provider, model, workspace and session
  /history [n]       - Show the last n tool invocations
  /clear             - Clear the conversation and start a new session
  /quit, /exit       - Exit devagent

Example requests:
  "Create a React app with a login page"
  "Now add form validation to the login page"
  "Run the tests and fix whatever fails"`

// commandResult is what a slash command produced.
type commandResult struct {
	text    string
	isError bool
	quit    bool
	// cleared means the conversation was reset and the transcript should be too.
	cleared bool
}

func errorResult(format string, args ...any) commandResult {
	return commandResult{text: fmt.Sprintf(format, args...), isError: true}
}

// isCommand reports whether a line is a slash command rather than a request.
func isCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// splitCommand returns the lowercased command word and its trimmed argument.
func splitCommand(input string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

// runCommand executes one slash command against the agent.
func runCommand(ctx context.Context, ag *agent.Agent, cfg *config.Config, input string) commandResult {
	cmd, arg := splitCommand(input)

	switch cmd {
	case "/quit", "/exit", "/q":
		return commandResult{quit: true}

	case "/clear":
		ag.Reset()
		return commandResult{text: "Conversation cleared. How can I help?", cleared: true}

	case "/help", "/?":
		return commandResult{text: helpText}

	case "/model":
		if arg == "" {
			return commandResult{text: listModels(ag)}
		}
		if err := ag.SetModel(arg); err != nil {
			return errorResult("Failed to switch model: %v", err)
		}
		return commandResult{text: fmt.Sprintf("Switched to %s. Conversation history cleared.", arg), cleared: true}

	case "/provider":
		if arg == "" {
			return commandResult{text: listProviders(ag, cfg)}
		}
		id, err := llm.ParseProviderID(arg)
		if err != nil {
			return errorResult("%v", err)
		}
		if err := ag.SetProvider(id); err != nil {
			return errorResult("Failed to switch provider: %v", err)
		}
		return commandResult{
			text:    fmt.Sprintf("Switched to %s (%s). Conversation history cleared.", ag.ProviderName(), ag.CurrentModel()),
			cleared: true,
		}

	case "/status":
		return commandResult{text: statusText(ag, cfg)}

	case "/history":
		limit := 10
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return errorResult("Usage: /history [n]")
			}
			limit = n
		}
		return historyResult(ctx, ag.Audit(), limit, 100)

	default:
		return errorResult("Unknown command: %s. Type /help for available commands.", cmd)
	}
}

func listModels(ag *agent.Agent) string {
	current := ag.CurrentModel()

	var b strings.Builder
	fmt.Fprintf(&b, "Models for %s:\n", ag.ProviderName())
	for _, md := range ag.ListModels() {
		marker := "  "
		if md.ID == current {
			marker = ui.SymbolArrow + " "
		}
		fmt.Fprintf(&b, "  %s%-32s %s\n", marker, md.ID, md.Name)
	}
	fmt.Fprintf(&b, "\nActive: %s", current)
	b.WriteString("\nUsage: /model <id>")
	return b.String()
}

func listProviders(ag *agent.Agent, cfg *config.Config) string {
	manager, err := auth.NewManager(cfg.DataDir)
	if err != nil {
		return fmt.Sprintf("Could not read credentials: %v", err)
	}

	var b strings.Builder
	b.WriteString("Connected providers:\n")
	for _, id := range manager.ListConnected() {
		marker := "  "
		if id == ag.CurrentProviderID() {
			marker = ui.SymbolArrow + " "
		}
		fmt.Fprintf(&b, "  %s%s\n", marker, auth.DisplayName(id))
	}
	b.WriteString("\nUsage: /provider <id>")
	return b.String()
}

func statusText(ag *agent.Agent, cfg *config.Config) string {
	steps := "unlimited"
	if cfg.MaxSteps > 0 {
		steps = strconv.Itoa(cfg.MaxSteps)
	}
	return fmt.Sprintf("Provider:  %s\nModel:     %s\nWorkspace: %s\nSession:   %s\nMax steps: %s",
		ag.ProviderName(), ag.CurrentModel(), cfg.Workspace, ag.SessionID(), steps)
}

// historyResult renders the most recent audited tool calls.
func historyResult(ctx context.Context, store *agent.AuditStore, limit, width int) commandResult {
	if store == nil {
		return commandResult{text: "Auditing is off (set audit: true in config.yaml)."}
	}
	rows, err := store.Recent(ctx, limit)
	if err != nil {
		return errorResult("Failed to read audit log: %v", err)
	}
	if len(rows) == 0 {
		return commandResult{text: "No tool invocations recorded yet."}
	}
	return commandResult{text: renderTable(width, historyTable(rows))}
}

func historyTable(rows []agent.Invocation) table {
	t := table{Headers: []string{"TIME", "TOOL", "STATUS", "INPUT"}}
	for _, inv := range rows {
		status := "ok"
		if inv.IsError {
			status = "error"
		}
		t.Rows = append(t.Rows, []string{
			inv.CreatedAt.Local().Format("01-02 15:04:05"),
			inv.Tool,
			status,
			oneLine(inv.Input),
		})
	}
	return t
}
