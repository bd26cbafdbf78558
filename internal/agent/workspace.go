package agent

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Workspace is the directory file tools operate in and commands run from.
type Workspace struct {
	Root string
	// Protected holds doublestar patterns, relative to Root, that write_file refuses.
	Protected []string
}

// Resolve maps a tool path to an absolute path inside the workspace and its
// slash-separated relative form.
func (w Workspace) Resolve(path string) (abs string, rel string, err error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", "", fmt.Errorf("path is empty")
	}

	root := filepath.Clean(w.Root)
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Join(root, path)
	}

	r, err := filepath.Rel(root, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("path %s is outside the workspace", path)
	}
	return abs, filepath.ToSlash(r), nil
}

// IsProtected reports whether rel matches a protected pattern.
func (w Workspace) IsProtected(rel string) bool {
	for _, pattern := range w.Protected {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// "dir/**" also covers dir itself.
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if m, _ := doublestar.Match(dir, rel); m {
				return true
			}
		}
	}
	return false
}
