package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/devagent/internal/config"
	"github.com/yolodolo42/devagent/internal/testutil"
)

func newTestRunner(t *testing.T) *CommandRunner {
	t.Helper()
	policy, err := NewCommandPolicy(config.DefaultDenyCommands, nil)
	require.NoError(t, err)
	return &CommandRunner{
		Workspace: Workspace{Root: testutil.TempDir(t)},
		Policy:    policy,
		Shell:     "/bin/sh",
		Timeout:   10 * time.Second,
	}
}

func runTool(t *testing.T, tool Tool, input string) (string, error) {
	t.Helper()
	return tool.Handler(context.Background(), json.RawMessage(input))
}

func TestCommandRunner(t *testing.T) {
	t.Run("returns stdout", func(t *testing.T) {
		out, err := runTool(t, newTestRunner(t).Tool(), `"echo hello"`)
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("accepts object input", func(t *testing.T) {
		out, err := runTool(t, newTestRunner(t).Tool(), `{"command": "echo hi"}`)
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	})

	t.Run("falls back to stderr", func(t *testing.T) {
		out, err := runTool(t, newTestRunner(t).Tool(), `"echo oops 1>&2"`)
		require.NoError(t, err)
		assert.Equal(t, "oops", out)
	})

	t.Run("runs in the workspace", func(t *testing.T) {
		r := newTestRunner(t)
		testutil.WriteFile(t, r.Workspace.Root, "marker.txt", "x")
		out, err := runTool(t, r.Tool(), `"ls"`)
		require.NoError(t, err)
		assert.Contains(t, out, "marker.txt")
	})

	t.Run("non-zero exit with output returns the output", func(t *testing.T) {
		out, err := runTool(t, newTestRunner(t).Tool(), `"echo partial; exit 1"`)
		require.NoError(t, err)
		assert.Equal(t, "partial", out)
	})

	t.Run("non-zero exit without output is an error", func(t *testing.T) {
		_, err := runTool(t, newTestRunner(t).Tool(), `"exit 3"`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exit code 3")
	})

	t.Run("timeout", func(t *testing.T) {
		r := newTestRunner(t)
		r.Timeout = 100 * time.Millisecond
		_, err := runTool(t, r.Tool(), `"sleep 5"`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("policy refusal happens before the shell", func(t *testing.T) {
		r := newTestRunner(t)
		testutil.WriteFile(t, r.Workspace.Root, "keep.txt", "x")

		_, err := runTool(t, r.Tool(), `"rm keep.txt"`)
		require.ErrorIs(t, err, ErrCommandRefused)
		assert.FileExists(t, r.Workspace.Root+"/keep.txt")
	})

	t.Run("refused commands leave the workspace untouched", func(t *testing.T) {
		for _, cmd := range []string{
			`"echo 'rm -f victim' | sh"`,
			`"sh <<'EOF'\nrm -f victim\nEOF"`,
			`"busybox rm -f victim"`,
			`"unlink victim"`,
			`"find . -name victim -delete"`,
		} {
			r := newTestRunner(t)
			testutil.WriteFile(t, r.Workspace.Root, "victim", "x")

			_, err := runTool(t, r.Tool(), cmd)
			require.ErrorIs(t, err, ErrCommandRefused, "command %s", cmd)
			assert.FileExists(t, r.Workspace.Root+"/victim")
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, input := range []string{`42`, `""`, `{"cmd": "ls"}`, ``} {
			_, err := runTool(t, newTestRunner(t).Tool(), input)
			require.Error(t, err, "input %q", input)
			assert.Contains(t, err.Error(), "invalid input")
		}
	})
}
