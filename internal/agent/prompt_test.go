package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	tools := []Tool{
		{Name: "run_command", Description: "Run a command.", InputHint: `"<shell command>"`},
		{Name: "read_file", Description: "Read a file.", InputHint: `{"path": "<relative path>"}`},
	}

	got := BuildSystemPrompt(tools, "/home/dev/app")

	assert.Contains(t, got, "exactly one JSON object")
	assert.Contains(t, got, `"step": "output"`)
	assert.Contains(t, got, "- run_command: Run a command.\n  input: \"<shell command>\"")
	assert.Contains(t, got, "- read_file: Read a file.")
	assert.Contains(t, got, "The workspace is /home/dev/app.")

	assert.NotContains(t, BuildSystemPrompt(nil, ""), "The workspace is")
}
