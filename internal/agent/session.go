package agent

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/yolodolo42/devagent/internal/llm"
)

// Session is the conversation between two /clear commands. It only grows;
// nothing in it survives the process.
type Session struct {
	ID        string
	StartedAt time.Time

	mu       sync.Mutex
	messages []llm.Message
}

// NewSession creates an empty session with a sortable id.
func NewSession() *Session {
	return &Session{
		ID:        ulid.Make().String(),
		StartedAt: time.Now(),
		messages:  make([]llm.Message, 0),
	}
}

// Append adds a message. A message with the same role as the previous one
// is joined onto it so roles always alternate.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.messages); n > 0 && s.messages[n-1].Role == role {
		s.messages[n-1].Content += "\n\n" + content
		return
	}
	s.messages = append(s.messages, llm.Message{Role: role, Content: content})
}

// Messages returns a copy of the history.
func (s *Session) Messages() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
