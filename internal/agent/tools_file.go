package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var writeFileSchema = mustCompileSchema("write_file", `{
	"type": "object",
	"properties": {
		"path": {"type": "string", "minLength": 1},
		"content": {"type": "string"}
	},
	"required": ["path", "content"]
}`)

var readFileSchema = mustCompileSchema("read_file", `{
	"type": "object",
	"properties": {"path": {"type": "string", "minLength": 1}},
	"required": ["path"]
}`)

var listFilesSchema = mustCompileSchema("list_files", `{
	"type": ["object", "null"],
	"properties": {
		"path": {"type": "string"},
		"pattern": {"type": "string"}
	}
}`)

// maxListedFiles caps list_files output.
const maxListedFiles = 500

// FileTools implements the workspace file capabilities.
type FileTools struct {
	Workspace Workspace
}

// Tools returns write_file, read_file and list_files.
func (f *FileTools) Tools() []Tool {
	return []Tool{
		{
			Name:        "write_file",
			Description: "Create or overwrite a file, creating parent directories as needed.",
			InputHint:   `{"path": "<relative path>", "content": "<full file content>"}`,
			Handler:     f.writeFile,
		},
		{
			Name:        "read_file",
			Description: "Read a file and return its contents.",
			InputHint:   `{"path": "<relative path>"}`,
			Handler:     f.readFile,
		},
		{
			Name:        "list_files",
			Description: "List files under a directory, optionally filtered by a glob such as **/*.go. Skips .git.",
			InputHint:   `{"path": "<directory, default .>", "pattern": "<optional glob>"}`,
			Handler:     f.listFiles,
		},
	}
}

type writeFileInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (f *FileTools) writeFile(_ context.Context, input json.RawMessage) (string, error) {
	var in writeFileInput
	if err := decodeInput(writeFileSchema, input, &in); err != nil {
		return "", err
	}

	abs, rel, err := f.Workspace.Resolve(in.Path)
	if err != nil {
		return "", err
	}
	if f.Workspace.IsProtected(rel) {
		return "", fmt.Errorf("refusing to write protected path %s", rel)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", fmt.Errorf("failed to create directories for %s: %w", in.Path, err)
	}
	if err := os.WriteFile(abs, []byte(in.Content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", in.Path, err)
	}

	return fmt.Sprintf("Wrote %d bytes to %s", len(in.Content), rel), nil
}

type readFileInput struct {
	Path string `json:"path"`
}

func (f *FileTools) readFile(_ context.Context, input json.RawMessage) (string, error) {
	var in readFileInput
	if err := decodeInput(readFileSchema, input, &in); err != nil {
		return "", err
	}

	abs, _, err := f.Workspace.Resolve(in.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", in.Path, err)
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", in.Path, unwrapPathError(err))
	}
	return string(b), nil
}

type listFilesInput struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
}

func (f *FileTools) listFiles(ctx context.Context, input json.RawMessage) (string, error) {
	var in listFilesInput
	if err := decodeInput(listFilesSchema, input, &in); err != nil {
		return "", err
	}
	if in.Path == "" {
		in.Path = "."
	}
	if in.Pattern != "" && !doublestar.ValidatePattern(in.Pattern) {
		return "", fmt.Errorf("invalid pattern %q", in.Pattern)
	}

	abs, rel, err := f.Workspace.Resolve(in.Path)
	if err != nil {
		return "", err
	}

	var files []string
	truncated := false
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		r, err := filepath.Rel(abs, p)
		if err != nil {
			return err
		}
		r = filepath.ToSlash(r)
		if in.Pattern != "" {
			if ok, _ := doublestar.Match(in.Pattern, r); !ok {
				return nil
			}
		}
		if len(files) >= maxListedFiles {
			truncated = true
			return filepath.SkipAll
		}
		files = append(files, r)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", in.Path, unwrapPathError(err))
	}

	if len(files) == 0 {
		return fmt.Sprintf("No files found in %s", rel), nil
	}
	sort.Strings(files)
	out := strings.Join(files, "\n")
	if truncated {
		out += fmt.Sprintf("\n... (listing stopped at %d files)", maxListedFiles)
	}
	return out, nil
}

// unwrapPathError drops the absolute path from fs errors so results name
// the path the model used.
func unwrapPathError(err error) error {
	if pe, ok := err.(*fs.PathError); ok {
		return pe.Err
	}
	return err
}
