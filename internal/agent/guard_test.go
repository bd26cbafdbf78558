package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionGuard(t *testing.T) {
	in := json.RawMessage(`{"path": "a.txt"}`)

	t.Run("trips on the window-th identical action", func(t *testing.T) {
		g := actionGuard{window: 3}
		assert.False(t, g.observe("read_file", in))
		assert.False(t, g.observe("read_file", in))
		assert.True(t, g.observe("read_file", in))
	})

	t.Run("zero window never trips", func(t *testing.T) {
		g := actionGuard{}
		for i := 0; i < 10; i++ {
			assert.False(t, g.observe("read_file", in))
		}
	})

	t.Run("whitespace does not hide a repeat", func(t *testing.T) {
		g := actionGuard{window: 2}
		assert.False(t, g.observe("read_file", in))
		assert.True(t, g.observe("read_file", json.RawMessage(`{"path":"a.txt"}`)))
	})

	t.Run("a different action resets the run", func(t *testing.T) {
		g := actionGuard{window: 2}
		assert.False(t, g.observe("read_file", in))
		assert.False(t, g.observe("list_files", in))
		assert.False(t, g.observe("read_file", in))
		assert.True(t, g.observe("read_file", in))
	})
}

func TestActionFingerprint(t *testing.T) {
	a := actionFingerprint("run_command", json.RawMessage(`"ls"`))
	b := actionFingerprint("run_command", json.RawMessage(`"ls -la"`))
	c := actionFingerprint("run_commandx", json.RawMessage(`"ls"`))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, actionFingerprint("run_command", json.RawMessage(` "ls" `)))

	// Inputs that are not valid JSON still fingerprint.
	assert.Equal(t, actionFingerprint("x", json.RawMessage(`{bad`)), actionFingerprint("x", json.RawMessage(`{bad`)))
}

func TestDigest(t *testing.T) {
	assert.Len(t, digest("hello"), 64)
	assert.Equal(t, digest("hello"), digest("hello"))
	assert.NotEqual(t, digest("hello"), digest("hello!"))
}
