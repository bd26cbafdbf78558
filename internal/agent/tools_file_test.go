package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/devagent/internal/testutil"
)

func newTestFileTools(t *testing.T) (*FileTools, map[string]Tool) {
	t.Helper()
	f := &FileTools{Workspace: Workspace{
		Root:      testutil.TempDir(t),
		Protected: []string{".git/**", "secrets/*.key"},
	}}
	byName := make(map[string]Tool)
	for _, tool := range f.Tools() {
		byName[tool.Name] = tool
	}
	return f, byName
}

func TestWriteFile(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		f, tools := newTestFileTools(t)

		out, err := runTool(t, tools["write_file"], `{"path": "a/b/c.txt", "content": "hi"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "a/b/c.txt")

		b, err := os.ReadFile(filepath.Join(f.Workspace.Root, "a", "b", "c.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hi", string(b))
	})

	t.Run("overwrites", func(t *testing.T) {
		f, tools := newTestFileTools(t)
		testutil.WriteFile(t, f.Workspace.Root, "x.txt", "old content")

		out, err := runTool(t, tools["write_file"], `{"path": "x.txt", "content": "new"}`)
		require.NoError(t, err)
		assert.Equal(t, "Wrote 3 bytes to x.txt", out)

		b, err := os.ReadFile(filepath.Join(f.Workspace.Root, "x.txt"))
		require.NoError(t, err)
		assert.Equal(t, "new", string(b))
	})

	t.Run("empty content is allowed", func(t *testing.T) {
		_, tools := newTestFileTools(t)
		_, err := runTool(t, tools["write_file"], `{"path": "empty.txt", "content": ""}`)
		assert.NoError(t, err)
	})

	t.Run("refuses paths outside the workspace", func(t *testing.T) {
		_, tools := newTestFileTools(t)
		_, err := runTool(t, tools["write_file"], `{"path": "../escape.txt", "content": "x"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside the workspace")
	})

	t.Run("refuses protected paths", func(t *testing.T) {
		_, tools := newTestFileTools(t)
		for _, p := range []string{".git/config", ".git", "secrets/prod.key"} {
			_, err := runTool(t, tools["write_file"], `{"path": "`+p+`", "content": "x"}`)
			require.Error(t, err, p)
			assert.Contains(t, err.Error(), "protected")
		}
	})

	t.Run("missing content", func(t *testing.T) {
		_, tools := newTestFileTools(t)
		_, err := runTool(t, tools["write_file"], `{"path": "a.txt"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid input")
	})
}

func TestReadFile(t *testing.T) {
	t.Run("returns contents", func(t *testing.T) {
		f, tools := newTestFileTools(t)
		testutil.WriteFile(t, f.Workspace.Root, "src/main.go", "package main\n")

		out, err := runTool(t, tools["read_file"], `{"path": "src/main.go"}`)
		require.NoError(t, err)
		assert.Equal(t, "package main\n", out)
	})

	t.Run("missing file becomes an error observation", func(t *testing.T) {
		_, tools := newTestFileTools(t)
		out, isErr := NewToolRegistry(0).Invoke(context.Background(), tools["read_file"], []byte(`{"path": "missing.txt"}`))
		assert.True(t, isErr)
		assert.True(t, strings.HasPrefix(out, "Error: "))
		assert.Contains(t, out, "missing.txt")
		assert.Contains(t, out, "no such file")
	})
}

func TestListFiles(t *testing.T) {
	f, tools := newTestFileTools(t)
	root := f.Workspace.Root
	testutil.WriteFile(t, root, "main.go", "")
	testutil.WriteFile(t, root, "README.md", "")
	testutil.WriteFile(t, root, "pkg/util/util.go", "")
	testutil.WriteFile(t, root, ".git/HEAD", "")

	t.Run("lists recursively and skips .git", func(t *testing.T) {
		out, err := runTool(t, tools["list_files"], `{}`)
		require.NoError(t, err)
		assert.Equal(t, "README.md\nmain.go\npkg/util/util.go", out)
	})

	t.Run("null input lists the root", func(t *testing.T) {
		out, err := runTool(t, tools["list_files"], ``)
		require.NoError(t, err)
		assert.Contains(t, out, "main.go")
	})

	t.Run("pattern", func(t *testing.T) {
		out, err := runTool(t, tools["list_files"], `{"pattern": "**/*.go"}`)
		require.NoError(t, err)
		assert.Equal(t, "main.go\npkg/util/util.go", out)
	})

	t.Run("subdirectory", func(t *testing.T) {
		out, err := runTool(t, tools["list_files"], `{"path": "pkg"}`)
		require.NoError(t, err)
		assert.Equal(t, "util/util.go", out)
	})

	t.Run("no matches", func(t *testing.T) {
		out, err := runTool(t, tools["list_files"], `{"pattern": "*.rs"}`)
		require.NoError(t, err)
		assert.Equal(t, "No files found in .", out)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := runTool(t, tools["list_files"], `{"pattern": "["}`)
		assert.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := runTool(t, tools["list_files"], `{"path": "nope"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope")
	})
}

func TestFileTools_InvalidInput(t *testing.T) {
	_, tools := newTestFileTools(t)
	registry := NewToolRegistry(0)

	cases := []struct {
		name  string
		tool  string
		input string
	}{
		{"read_file with empty object", "read_file", `{}`},
		{"read_file with null", "read_file", `null`},
		{"read_file with no input", "read_file", ``},
		{"write_file without path", "write_file", `{"content": "x"}`},
		{"write_file with null", "write_file", `null`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, isErr := registry.Invoke(context.Background(), tools[tc.tool], json.RawMessage(tc.input))
			assert.True(t, isErr)
			assert.True(t, strings.HasPrefix(out, "Error: invalid input"), out)
			assert.Contains(t, out, "path")
		})
	}
}
