package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ToolHandler runs a tool. A returned error is reported to the model as
// an "Error: ..." observation, never raised to the dispatcher.
type ToolHandler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a named capability the model can call with an action step.
type Tool struct {
	Name        string
	Description string
	// InputHint shows the expected "input" value in the tool catalogue.
	InputHint string
	Handler   ToolHandler
}

// ToolRegistry maps tool names to capabilities. It only looks tools up;
// each handler validates its own input.
type ToolRegistry struct {
	mu        sync.RWMutex
	tools     map[string]Tool
	maxOutput int
}

// NewToolRegistry creates an empty registry. Results longer than maxOutput
// bytes are truncated; 0 disables truncation.
func NewToolRegistry(maxOutput int) *ToolRegistry {
	return &ToolRegistry{
		tools:     make(map[string]Tool),
		maxOutput: maxOutput,
	}
}

// Register adds a tool. Names are unique.
func (tr *ToolRegistry) Register(t Tool) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.tools[t.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	tr.tools[t.Name] = t
	return nil
}

// Lookup returns the tool registered under name.
func (tr *ToolRegistry) Lookup(name string) (Tool, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	t, ok := tr.tools[name]
	return t, ok
}

// Tools returns all registered tools sorted by name.
func (tr *ToolRegistry) Tools() []Tool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	out := make([]Tool, 0, len(tr.tools))
	for _, t := range tr.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke runs the named tool once and always returns a string result.
// The boolean reports whether the result is an error description.
func (tr *ToolRegistry) Invoke(ctx context.Context, t Tool, input json.RawMessage) (string, bool) {
	result, err := t.Handler(ctx, input)
	if err != nil {
		return truncateOutput("Error: "+err.Error(), tr.maxOutput), true
	}
	return truncateOutput(result, tr.maxOutput), false
}

// truncateOutput keeps the head and tail of s within limit bytes. Cuts are
// moved back to rune boundaries.
func truncateOutput(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}

	marker := fmt.Sprintf("\n... [%d bytes truncated] ...\n", len(s)-limit)
	head := limit / 2
	tail := limit - head
	for head > 0 && !isRuneStart(s[head]) {
		head--
	}
	start := len(s) - tail
	for start < len(s) && !isRuneStart(s[start]) {
		start++
	}
	return s[:head] + marker + s[start:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
