package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SelectorItem is one choice in a Selector.
type SelectorItem struct {
	ID          string
	Label       string
	Description string
	Current     bool
}

// Selector is an interactive single-choice list. It starts on the current
// item and finishes on enter (selected) or esc (cancelled).
type Selector struct {
	title     string
	items     []SelectorItem
	cursor    int
	done      bool
	cancelled bool
	width     int
}

// NewSelector creates a selector with the cursor on the current item.
func NewSelector(title string, items []SelectorItem) Selector {
	cursor := 0
	for i, item := range items {
		if item.Current {
			cursor = i
			break
		}
	}
	return Selector{
		title:  title,
		items:  items,
		cursor: cursor,
		width:  80,
	}
}

// SetWidth sets the selector width
func (s *Selector) SetWidth(w int) {
	s.width = w
}

// Active reports whether the selector still takes input.
func (s *Selector) Active() bool {
	return !s.done
}

// Cancelled reports whether the selector was dismissed without a choice.
func (s *Selector) Cancelled() bool {
	return s.done && s.cancelled
}

// Selected returns the chosen item ID, or "" while active or after cancel.
func (s *Selector) Selected() string {
	if !s.done || s.cancelled || len(s.items) == 0 {
		return ""
	}
	return s.items[s.cursor].ID
}

// Update handles navigation keys. Digits 1-9 pick an item directly.
func (s *Selector) Update(msg tea.Msg) (*Selector, tea.Cmd) {
	if s.done {
		return s, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch k := key.String(); k {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case "home", "g":
		s.cursor = 0
	case "end", "G":
		if len(s.items) > 0 {
			s.cursor = len(s.items) - 1
		}
	case "enter":
		s.done = true
		s.cancelled = len(s.items) == 0
	case "esc", "q":
		s.done = true
		s.cancelled = true
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			if i := int(k[0] - '1'); i < len(s.items) {
				s.cursor = i
				s.done = true
			}
		}
	}
	return s, nil
}

// View renders the selector
func (s *Selector) View() string {
	if s.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(HelpStyle.Render(s.title + " (↑/↓ navigate, enter select, esc cancel)"))
	b.WriteString("\n\n")

	labelWidth := 35
	if s.width < 60 {
		labelWidth = 20
	}

	for i, item := range s.items {
		isCursor := i == s.cursor
		if isCursor {
			b.WriteString(SelectorCursor.Render(SymbolArrow) + " ")
		} else {
			b.WriteString("  ")
		}

		display := item.Label
		if display == "" {
			display = item.ID
		}
		label := fmt.Sprintf("%-*s", labelWidth, display)
		if isCursor {
			b.WriteString(SelectorActive.Render(label))
		} else {
			b.WriteString(SelectorItemStyle.Render(label))
		}

		desc := item.Description
		if item.Current {
			desc = strings.TrimSpace(desc + " (current)")
		}
		if desc != "" {
			b.WriteString(SelectorDim.Render(desc))
		}
		b.WriteString("\n")
	}
	return b.String()
}
