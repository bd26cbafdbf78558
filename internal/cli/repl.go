package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/yolodolo42/devagent/internal/agent"
	"github.com/yolodolo42/devagent/internal/auth"
	"github.com/yolodolo42/devagent/internal/config"
	"github.com/yolodolo42/devagent/internal/ui"
)

// chrome is the number of rows around the viewport: title, status line,
// prompt and help.
const chrome = 7

// eventMsg carries one agent event from the running turn.
type eventMsg struct {
	event agent.Event
}

// turnDoneMsg is sent once when Run returns.
type turnDoneMsg struct {
	err error
}

// model represents the REPL state
type model struct {
	agent *agent.Agent
	cfg   *config.Config

	prompt   ui.Prompt
	viewport viewport.Model
	spinner  spinner.Model

	// transcript holds rendered blocks; it is re-rendered on resize.
	transcript []transcriptEntry

	selector  ui.Selector
	selecting string // "model", "provider" or "" when no selector is open

	running bool
	cancel  context.CancelFunc
	events  <-chan tea.Msg

	width    int
	height   int
	ready    bool
	quitting bool
}

// transcriptEntry is either an agent event or a line of REPL text.
type transcriptEntry struct {
	event *agent.Event
	role  string // "user", "system", "error"
	text  string
}

func initialModel(ag *agent.Agent, cfg *config.Config) model {
	p := ui.NewPrompt("Describe what to build or change...")
	p.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.TitleStyle

	return model{
		agent:   ag,
		cfg:     cfg,
		prompt:  p,
		spinner: sp,
		width:   80,
		transcript: []transcriptEntry{{
			role: "system",
			text: fmt.Sprintf("Welcome to devagent. Working in %s with %s.\nType a request below. Use /help for commands, /quit to exit.", cfg.Workspace, ag.ProviderName()),
		}},
	}
}

// Init initializes the model
func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates state
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.running {
				m.cancel()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		}

		if m.selecting != "" {
			return m.updateSelector(msg)
		}

		switch msg.Type {
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		case tea.KeyEnter:
			if m.running {
				return m, nil
			}
			input := strings.TrimSpace(m.prompt.Value())
			if input == "" {
				return m, nil
			}
			m.prompt.Remember(input)
			m.prompt.Reset()

			if isCommand(input) {
				return m.handleCommand(input)
			}

			m.append(transcriptEntry{role: "user", text: input})
			cmd := m.startTurn(input)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-chrome, 3))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-chrome, 3)
		}
		m.prompt.SetWidth(msg.Width)
		m.selector.SetWidth(msg.Width)
		m.refresh()
		return m, nil

	case eventMsg:
		e := msg.event
		m.append(transcriptEntry{event: &e})
		return m, waitForEvent(m.events)

	case turnDoneMsg:
		m.running = false
		if m.cancel != nil {
			m.cancel()
		}
		m.cancel = nil
		m.events = nil
		if text := turnErrorText(msg.err); text != "" {
			m.append(transcriptEntry{role: "error", text: text})
		}
		cmd := m.prompt.Focus()
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	if !m.running {
		_, cmd := m.prompt.Update(msg)
		cmds = append(cmds, cmd)
	}
	// Keys belong to the prompt; the viewport scrolls on PgUp/PgDn only.
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
	}
	return m, tea.Batch(cmds...)
}

// startTurn runs the request on a goroutine and streams its events back
// through a channel.
func (m *model) startTurn(input string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan tea.Msg, 64)

	m.running = true
	m.cancel = cancel
	m.events = ch
	m.prompt.Blur()

	ag := m.agent
	go func() {
		defer close(ch)
		err := ag.Run(ctx, input, func(e agent.Event) {
			select {
			case ch <- eventMsg{event: e}:
			case <-ctx.Done():
			}
		})
		ch <- turnDoneMsg{err: err}
	}()

	return tea.Batch(waitForEvent(ch), m.spinner.Tick)
}

func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// turnErrorText describes a Run error for the transcript. Budget and loop
// halts were already reported through an error event.
func turnErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, agent.ErrStepBudget), errors.Is(err, agent.ErrRepeatedAction):
		return ""
	case errors.Is(err, context.Canceled):
		return "Interrupted."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request took too long and was stopped."
	default:
		return err.Error()
	}
}

func (m model) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd, arg := splitCommand(input)
	if arg == "" {
		switch cmd {
		case "/model":
			items := make([]ui.SelectorItem, 0)
			current := m.agent.CurrentModel()
			for _, md := range m.agent.ListModels() {
				items = append(items, ui.SelectorItem{ID: md.ID, Label: md.ID, Description: md.Name, Current: md.ID == current})
			}
			return m.openSelector("model", "Switch model ("+m.agent.ProviderName()+")", items), nil

		case "/provider":
			manager, err := auth.NewManager(m.cfg.DataDir)
			if err != nil {
				m.append(transcriptEntry{role: "error", text: err.Error()})
				return m, nil
			}
			var items []ui.SelectorItem
			for _, id := range manager.ListConnected() {
				items = append(items, ui.SelectorItem{ID: string(id), Label: auth.DisplayName(id), Current: id == m.agent.CurrentProviderID()})
			}
			return m.openSelector("provider", "Switch provider", items), nil
		}
	}

	res := runCommand(context.Background(), m.agent, m.cfg, input)
	return m.applyResult(res)
}

func (m model) applyResult(res commandResult) (tea.Model, tea.Cmd) {
	if res.quit {
		m.quitting = true
		return m, tea.Quit
	}
	if res.cleared {
		m.transcript = nil
	}
	role := "system"
	if res.isError {
		role = "error"
	}
	if res.text != "" {
		m.append(transcriptEntry{role: role, text: res.text})
	}
	return m, nil
}

func (m model) openSelector(kind, title string, items []ui.SelectorItem) model {
	m.selector = ui.NewSelector(title, items)
	m.selector.SetWidth(m.width)
	m.selecting = kind
	m.prompt.Blur()
	return m
}

func (m model) updateSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.selector.Update(msg)
	if m.selector.Active() {
		return m, nil
	}

	kind := m.selecting
	m.selecting = ""
	focus := m.prompt.Focus()
	if m.selector.Cancelled() {
		return m, focus
	}

	next, cmd := m.applyResult(runCommand(context.Background(), m.agent, m.cfg, "/"+kind+" "+m.selector.Selected()))
	return next, tea.Batch(focus, cmd)
}

func (m *model) append(e transcriptEntry) {
	m.transcript = append(m.transcript, e)
	m.refresh()
}

// refresh re-renders the transcript into the viewport and follows the tail.
func (m *model) refresh() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, e := range m.transcript {
		b.WriteString(renderEntry(m.width, e))
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func renderEntry(width int, e transcriptEntry) string {
	if e.event != nil {
		return renderEvent(width, *e.event)
	}
	switch e.role {
	case "user":
		return ui.UserStyle.Render(ui.SymbolPrompt+" ") + e.text
	case "error":
		return ui.ErrorStyle.Render("Error: " + e.text)
	default:
		return ui.SystemStyle.Render(e.text)
	}
}

// View renders the UI
func (m model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.ready {
		return "Initializing...\n"
	}

	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("  devagent") + ui.SystemStyle.Render(fmt.Sprintf("  %s · %s", m.agent.ProviderName(), m.agent.CurrentModel())))
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.selecting != "":
		b.WriteString(m.selector.View())
		return b.String()
	case m.running:
		b.WriteString(fmt.Sprintf("\n  %s Working... (Ctrl+C to interrupt)\n\n", m.spinner.View()))
	default:
		b.WriteString("\n")
	}

	b.WriteString(m.prompt.View())
	b.WriteString("\n")
	b.WriteString(ui.HelpStyle.Render("  /help • /model • /provider • /clear • /quit • PgUp/PgDn scroll"))
	return b.String()
}

// RunREPL starts the interactive REPL
func RunREPL(cfg *config.Config) error {
	ag, err := agent.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	defer ag.Close()

	p := tea.NewProgram(
		initialModel(ag, cfg),
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if fm, ok := final.(model); ok && fm.cancel != nil {
		fm.cancel()
	}
	return err
}
