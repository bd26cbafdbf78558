package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/yolodolo42/devagent/internal/agent"
	"github.com/yolodolo42/devagent/internal/config"
	"github.com/yolodolo42/devagent/internal/ui"
	"golang.org/x/term"
)

// plainWidth is used when the output is not a terminal.
const plainWidth = 100

// RunPlain reads one request per line from in and prints every event to out.
// It is used when stdin is not a terminal or --plain is set.
func RunPlain(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	ag, err := agent.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	defer ag.Close()

	return replLines(ctx, ag, cfg, in, out, outputWidth(out))
}

// replLines is the line loop behind RunPlain.
func replLines(ctx context.Context, ag *agent.Agent, cfg *config.Config, in io.Reader, out io.Writer, width int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	fmt.Fprint(out, ui.PromptStyle.Render(ui.SymbolPrompt)+" ")
	for scanner.Scan() {
		line := scanner.Text()

		if isCommand(line) {
			res := runCommand(ctx, ag, cfg, line)
			if res.quit {
				return nil
			}
			if res.text != "" {
				if res.isError {
					fmt.Fprintln(out, ui.ErrorStyle.Render(res.text))
				} else {
					fmt.Fprintln(out, res.text)
				}
			}
		} else if err := runRequest(ctx, ag, line, out, width); err != nil {
			if text := turnErrorText(err); text != "" {
				fmt.Fprintln(out, ui.ErrorStyle.Render("Error: "+text))
			}
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprint(out, ui.PromptStyle.Render(ui.SymbolPrompt)+" ")
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

// runRequest runs one request, printing events as they arrive. An interrupt
// cancels only the running request.
func runRequest(ctx context.Context, ag *agent.Agent, request string, out io.Writer, width int) error {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	return ag.Run(turnCtx, request, func(e agent.Event) {
		fmt.Fprintln(out, renderEvent(width, e))
	})
}

func outputWidth(out io.Writer) int {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return plainWidth
}
