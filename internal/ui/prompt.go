package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// maxHistory bounds the prompt's recall buffer.
const maxHistory = 100

// Prompt is a single-line input with a styled prefix and up/down recall of
// earlier submissions.
type Prompt struct {
	input   textinput.Model
	width   int
	focused bool

	history []string
	// histPos indexes history while recalling; len(history) means the draft.
	histPos int
	draft   string
}

// NewPrompt creates a new prompt component
func NewPrompt(placeholder string) Prompt {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 4000
	ti.Width = 76

	return Prompt{
		input:   ti,
		width:   80,
		focused: true,
	}
}

// Focus sets focus on the prompt
func (p *Prompt) Focus() tea.Cmd {
	p.focused = true
	return p.input.Focus()
}

// Blur removes focus from the prompt
func (p *Prompt) Blur() {
	p.focused = false
	p.input.Blur()
}

// Focused returns whether the prompt has focus
func (p *Prompt) Focused() bool {
	return p.focused
}

// SetWidth sets the width of the input
func (p *Prompt) SetWidth(w int) {
	p.width = w
	p.input.Width = w - 4 // prompt symbol and spacing
}

// Value returns the current input value
func (p *Prompt) Value() string {
	return p.input.Value()
}

// SetValue sets the input value
func (p *Prompt) SetValue(s string) {
	p.input.SetValue(s)
	p.input.CursorEnd()
}

// Reset clears the input
func (p *Prompt) Reset() {
	p.input.Reset()
	p.histPos = len(p.history)
	p.draft = ""
}

// Remember adds a submitted line to the recall buffer, skipping blanks and
// immediate repeats.
func (p *Prompt) Remember(line string) {
	if line == "" || (len(p.history) > 0 && p.history[len(p.history)-1] == line) {
		p.histPos = len(p.history)
		return
	}
	p.history = append(p.history, line)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
	p.histPos = len(p.history)
}

// Update handles input events
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyUp:
			p.recall(-1)
			return p, nil
		case tea.KeyDown:
			p.recall(1)
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Prompt) recall(delta int) {
	pos := p.histPos + delta
	if pos < 0 || pos > len(p.history) {
		return
	}
	if p.histPos == len(p.history) {
		p.draft = p.input.Value()
	}
	p.histPos = pos
	if pos == len(p.history) {
		p.SetValue(p.draft)
		return
	}
	p.SetValue(p.history[pos])
}

// View renders the prompt
func (p *Prompt) View() string {
	style := SelectorDim
	if p.focused {
		style = PromptStyle
	}
	return style.Render(SymbolPrompt) + " " + p.input.View()
}
