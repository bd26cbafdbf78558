package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yolodolo42/devagent/internal/agent"
	"github.com/yolodolo42/devagent/internal/ui"
)

// maxObservationLines caps how much of a tool result is echoed to the
// terminal. The model always receives the full (registry-truncated) result.
const maxObservationLines = 12

// renderEvent formats one agent event for the terminal.
func renderEvent(width int, e agent.Event) string {
	switch e.Kind {
	case agent.EventPlan:
		return ui.PlanStyle.Render(ui.SymbolThinking + " " + e.Content)

	case agent.EventAction:
		head := ui.ActionStyle.Render(ui.SymbolArrow + " " + e.Tool)
		if e.Input == "" {
			return head
		}
		input := truncate(oneLine(e.Input), width-utf8.RuneCountInString(e.Tool)-4)
		return head + " " + ui.SystemStyle.Render(input)

	case agent.EventObservation:
		style := ui.ObservationStyle
		if e.IsError {
			style = ui.ErrorStyle
		}
		return style.Render(treeLines(e.Content, width, maxObservationLines))

	case agent.EventObserve:
		return ui.ObservationStyle.Render("  " + e.Content)

	case agent.EventOutput:
		return ui.OutputStyle.Render(ui.SymbolBullet) + " " + e.Content

	case agent.EventError:
		s := ui.ErrorStyle.Render(ui.SymbolCross + " " + e.Content)
		if e.Raw != "" {
			s += "\n" + ui.SystemStyle.Render("  raw: "+truncate(oneLine(e.Raw), width-9))
		}
		return s

	default:
		return e.Content
	}
}

// treeLines indents a tool result under its action, keeping at most limit
// lines.
func treeLines(s string, width, limit int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return "  " + ui.SymbolTree + " (no output)"
	}
	lines := strings.Split(s, "\n")
	extra := 0
	if len(lines) > limit {
		extra = len(lines) - limit
		lines = lines[:limit]
	}

	var b strings.Builder
	for i, line := range lines {
		prefix := "    "
		if i == 0 {
			prefix = "  " + ui.SymbolTree + " "
		}
		b.WriteString(prefix)
		b.WriteString(truncate(line, width-4))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	if extra > 0 {
		fmt.Fprintf(&b, "\n    … %d more lines", extra)
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// table is a plain text table for listings such as the audit history.
type table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func renderTable(width int, t table) string {
	cols := len(t.Headers)
	if cols == 0 {
		return ""
	}

	colW := make([]int, cols)
	for c := 0; c < cols; c++ {
		colW[c] = utf8.RuneCountInString(t.Headers[c])
	}
	for _, row := range t.Rows {
		for c := 0; c < cols && c < len(row); c++ {
			if l := utf8.RuneCountInString(row[c]); l > colW[c] {
				colW[c] = l
			}
		}
	}

	// Shrink the last columns first until the table fits.
	sep := 3 // " | "
	avail := width
	if avail < 20 {
		avail = 20
	}
	for totalWidth(colW, sep) > avail {
		shrunk := false
		for c := cols - 1; c >= 0; c-- {
			if colW[c] > 6 {
				colW[c]--
				shrunk = true
				break
			}
		}
		if !shrunk {
			break
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(t.Title)
		b.WriteString("\n")
	}

	b.WriteString(renderTableRow(t.Headers, colW))
	b.WriteString("\n")
	b.WriteString(renderTableSep(colW, sep))
	for _, row := range t.Rows {
		b.WriteString("\n")
		b.WriteString(renderTableRow(row, colW))
	}
	return b.String()
}

func totalWidth(colW []int, sep int) int {
	total := 0
	for _, w := range colW {
		total += w
	}
	total += sep * (len(colW) - 1)
	return total
}

func renderTableSep(colW []int, sep int) string {
	var b strings.Builder
	for c, w := range colW {
		if c > 0 {
			b.WriteString(strings.Repeat("-", sep))
		}
		b.WriteString(strings.Repeat("-", w))
	}
	return b.String()
}

func renderTableRow(cells []string, colW []int) string {
	var b strings.Builder
	for c, w := range colW {
		if c > 0 {
			b.WriteString(" | ")
		}
		val := ""
		if c < len(cells) {
			val = cells[c]
		}
		b.WriteString(padRight(truncate(val, w), w))
	}
	return strings.TrimRight(b.String(), " ")
}

func padRight(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}

// truncate shortens s to w runes, marking the cut with "...".
func truncate(s string, w int) string {
	if w <= 0 || utf8.RuneCountInString(s) <= w {
		return s
	}
	r := []rune(s)
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-3]) + "..."
}
