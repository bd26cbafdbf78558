package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary   = lipgloss.Color("205") // Pink/magenta
	ColorSuccess   = lipgloss.Color("35")  // Green
	ColorWarning   = lipgloss.Color("214") // Gold/yellow
	ColorError     = lipgloss.Color("196") // Red
	ColorDim       = lipgloss.Color("241") // Gray
	ColorAccent    = lipgloss.Color("39")  // Blue
	ColorHighlight = lipgloss.Color("212") // Light pink
	ColorPlan      = lipgloss.Color("141") // Lavender
)

const (
	SymbolPrompt     = "❯"
	SymbolBullet     = "●"
	SymbolArrow      = "▸"
	SymbolCheck      = "✓"
	SymbolCross      = "✗"
	SymbolThinking   = "◐"
	SymbolTree       = "└"
	SymbolTreeBranch = "├"
	SymbolTreePipe   = "│"
)

// Step renderings
var (
	PlanStyle = lipgloss.NewStyle().
			Foreground(ColorPlan).
			Italic(true)

	ActionStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ObservationStyle = lipgloss.NewStyle().
				Foreground(ColorDim)

	OutputStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)
)

var (
	PromptStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	UserStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	SystemStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	SelectorCursor = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	SelectorItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	SelectorDim = lipgloss.NewStyle().
			Foreground(ColorDim)

	SelectorActive = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true)
)
