package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// sessionLogger appends one JSON record per line to <dir>/<session-id>.jsonl.
type sessionLogger struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func newSessionLogger(dir, sessionID string) (*sessionLogger, error) {
	if dir == "" {
		return nil, fmt.Errorf("session log dir not configured")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, sessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &sessionLogger{path: path, f: f}, nil
}

// Close is safe on a nil logger.
func (l *sessionLogger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f != nil {
		_ = l.f.Close()
		l.f = nil
	}
}

// log writes rec, stamping the time. Write failures are dropped: the log
// never interrupts a turn. Safe on a nil logger.
func (l *sessionLogger) log(rec sessionRecord) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return
	}

	rec.TS = nowTS()
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	b = append(b, '\n')
	_, _ = l.f.Write(b)
}

type sessionRecord struct {
	TS     string `json:"ts"`
	Type   string `json:"type"`
	TurnID string `json:"turn_id,omitempty"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	Content string `json:"content,omitempty"`
	Step    string `json:"step,omitempty"`

	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`

	ToolName string `json:"tool_name,omitempty"`
	Args     string `json:"args,omitempty"`
	IsError  bool   `json:"is_error,omitempty"`
}

// Record types written to the session log.
const (
	recordSession    = "session"
	recordUser       = "user"
	recordResponse   = "response"
	recordStep       = "step"
	recordToolCall   = "tool_call"
	recordToolResult = "tool_result"
	recordError      = "error"
)

func nowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
