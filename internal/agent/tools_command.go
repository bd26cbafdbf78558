package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var runCommandSchema = mustCompileSchema("run_command", `{
	"oneOf": [
		{"type": "string", "minLength": 1},
		{
			"type": "object",
			"properties": {"command": {"type": "string", "minLength": 1}},
			"required": ["command"]
		}
	]
}`)

// CommandRunner executes shell commands for run_command.
type CommandRunner struct {
	Workspace Workspace
	Policy    *CommandPolicy
	Shell     string
	Timeout   time.Duration
}

// Tool describes run_command.
func (r *CommandRunner) Tool() Tool {
	return Tool{
		Name:        "run_command",
		Description: "Run a shell command in the project workspace and return its stdout, or stderr when stdout is empty.",
		InputHint:   `"<shell command>"`,
		Handler:     r.handle,
	}
}

func (r *CommandRunner) handle(ctx context.Context, input json.RawMessage) (string, error) {
	command, err := commandFromInput(input)
	if err != nil {
		return "", err
	}
	if r.Policy != nil {
		if err := r.Policy.Check(command); err != nil {
			return "", err
		}
	}
	return r.Run(ctx, command)
}

func commandFromInput(input json.RawMessage) (string, error) {
	if err := decodeInput(runCommandSchema, input, nil); err != nil {
		return "", err
	}

	var command string
	if err := json.Unmarshal(input, &command); err == nil {
		return command, nil
	}
	var obj struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(input, &obj); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	return obj.Command, nil
}

// Run executes command with the configured shell. It returns trimmed stdout,
// or trimmed stderr when stdout is empty.
func (r *CommandRunner) Run(ctx context.Context, command string) (string, error) {
	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, shell, "-c", command)
	cmd.Dir = r.Workspace.Root
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		out = strings.TrimSpace(stderr.String())
	}

	if runErr != nil {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			return "", fmt.Errorf("command timed out after %s%s", r.Timeout, suffixOutput(out))
		case ctx.Err() != nil:
			return "", fmt.Errorf("command cancelled: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", fmt.Errorf("failed to start command: %w", runErr)
		}
		if out == "" {
			return "", fmt.Errorf("command failed with exit code %d and no output", exitErr.ExitCode())
		}
	}

	return out, nil
}

func suffixOutput(out string) string {
	if out == "" {
		return ""
	}
	return "\n" + out
}
