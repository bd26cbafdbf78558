package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/yolodolo42/devagent/internal/auth"
	"github.com/yolodolo42/devagent/internal/llm"
	"github.com/yolodolo42/devagent/internal/ui"
	"golang.org/x/term"
)

// WizardStep represents the current step in the wizard
type WizardStep int

const (
	StepWelcome WizardStep = iota
	StepProviderSelect
	StepProviderKey
	StepComplete
)

const totalSteps = 2 // Provider, Ready

// SetupResult contains the result of the setup wizard
type SetupResult struct {
	ProviderID llm.ProviderID
	Cancelled  bool
}

// WizardModel is the first-run Bubbletea model: pick a provider, paste a
// key, check it, save it.
type WizardModel struct {
	step     WizardStep
	status   *SetupStatus
	dataDir  string
	quitting bool

	providerList     []providerItem
	providerSelector ui.Selector
	selectedProvider llm.ProviderID
	apiKeyInput      textinput.Model
	validatingKey    bool
	keyError         string
	envKeyDetected   bool
	envKeyProvider   llm.ProviderID

	// checkKey is CheckKey outside tests.
	checkKey func(ctx context.Context, id llm.ProviderID, key string) error

	spinner  spinner.Model
	progress progress.Model

	result *SetupResult
}

type providerItem struct {
	id          llm.ProviderID
	description string
	recommended bool
}

type keyValidatedMsg struct {
	err error
}

var defaultProviders = []providerItem{
	{id: llm.ProviderAnthropic, description: "Strong at multi-step coding work", recommended: true},
	{id: llm.ProviderOpenAI, description: "Native JSON mode"},
	{id: llm.ProviderGemini, description: "1M token context window"},
	{id: llm.ProviderOpenRouter, description: "Many models with one key"},
	{id: llm.ProviderCopilot, description: "Uses a Copilot subscription"},
	{id: llm.ProviderVenice, description: "Privacy-focused"},
}

func providerSelectorItems(providers []providerItem) []ui.SelectorItem {
	items := make([]ui.SelectorItem, 0, len(providers))
	for _, p := range providers {
		desc := p.description
		if p.recommended {
			desc = "recommended - " + desc
		}
		items = append(items, ui.SelectorItem{
			ID:          string(p.id),
			Label:       auth.DisplayName(p.id),
			Description: desc,
		})
	}
	return items
}

// NewWizard creates a new wizard model
func NewWizard(dataDir string) *WizardModel {
	status, _ := DetectSetupStatus(dataDir)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	apiInput := textinput.New()
	apiInput.Prompt = ""
	apiInput.Placeholder = "Paste your API key here..."
	apiInput.EchoMode = textinput.EchoPassword
	apiInput.EchoCharacter = '•'
	apiInput.CharLimit = 300
	apiInput.Width = 50

	m := &WizardModel{
		step:             StepWelcome,
		status:           status,
		dataDir:          dataDir,
		providerList:     defaultProviders,
		providerSelector: ui.NewSelector("Choose an LLM provider", providerSelectorItems(defaultProviders)),
		apiKeyInput:      apiInput,
		checkKey:         CheckKey,
		spinner:          sp,
		progress:         prog,
	}

	m.detectEnvKeys()

	if status.HasProvider {
		m.selectedProvider = status.ProviderID
		m.step = StepComplete
	}

	return m
}

// detectEnvKeys checks for API keys in environment variables
func (m *WizardModel) detectEnvKeys() {
	for _, p := range m.providerList {
		envVar := llm.EnvVarForProvider(p.id)
		if envVar != "" && os.Getenv(envVar) != "" {
			m.envKeyDetected = true
			m.envKeyProvider = p.id
			return
		}
	}
}

// Init initializes the wizard
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// Update handles messages
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.result = &SetupResult{Cancelled: true}
			m.quitting = true
			return m, tea.Quit
		}

		switch m.step {
		case StepWelcome:
			if msg.Type == tea.KeyEnter {
				if m.envKeyDetected {
					m.selectedProvider = m.envKeyProvider
					m.step = StepComplete
				} else {
					m.step = StepProviderSelect
				}
			}
			return m, nil

		case StepProviderSelect:
			return m.updateProviderSelect(msg)

		case StepProviderKey:
			if m.validatingKey {
				return m, nil
			}
			switch msg.Type {
			case tea.KeyEsc:
				m.apiKeyInput.Blur()
				m.apiKeyInput.Reset()
				m.keyError = ""
				m.providerSelector = ui.NewSelector("Choose an LLM provider", providerSelectorItems(m.providerList))
				m.step = StepProviderSelect
				return m, nil
			case tea.KeyEnter:
				return m.submitKey()
			}
			// other keys edit the input below

		case StepComplete:
			if msg.Type == tea.KeyEnter {
				if m.envKeyDetected && m.selectedProvider == m.envKeyProvider {
					m.rememberDefault()
				}
				m.result = &SetupResult{ProviderID: m.selectedProvider}
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.progress.Width = min(40, msg.Width-20)
		m.providerSelector.SetWidth(msg.Width)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case keyValidatedMsg:
		m.validatingKey = false
		if msg.err != nil {
			m.keyError = formatKeyError(msg.err, m.selectedProvider)
			return m, nil
		}
		m.keyError = ""
		if err := m.saveProviderKey(); err != nil {
			m.keyError = fmt.Sprintf("Failed to save: %v", err)
			return m, nil
		}
		m.apiKeyInput.Blur()
		m.step = StepComplete
		return m, nil
	}

	if m.step == StepProviderKey && !m.validatingKey {
		var cmd tea.Cmd
		m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// rememberDefault records an env-detected provider as the default so later
// runs pick it even when other keys appear.
func (m WizardModel) rememberDefault() {
	if authManager, err := auth.NewManager(m.dataDir); err == nil {
		_ = authManager.SetDefaultProvider(m.selectedProvider)
	}
}

// formatKeyError returns a user-friendly error message
func formatKeyError(err error, provider llm.ProviderID) string {
	if err == nil {
		return "Invalid API key. Please try again."
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"):
		return "Connection failed. Check your internet and try again."

	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"), strings.Contains(lower, "invalid api key"):
		return fmt.Sprintf("Invalid key. Verify at %s", auth.KeyHint(provider))

	case strings.Contains(lower, "429"), strings.Contains(lower, "rate limit"):
		return "Rate limited. Wait a moment and try again."
	}

	if len(errStr) > 60 {
		return errStr[:57] + "..."
	}
	return errStr
}

func (m WizardModel) updateProviderSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.providerSelector.Update(msg)
	if m.providerSelector.Active() {
		return m, nil
	}

	if m.providerSelector.Cancelled() {
		m.step = StepWelcome
		m.providerSelector = ui.NewSelector("Choose an LLM provider", providerSelectorItems(m.providerList))
		return m, nil
	}

	m.selectedProvider = llm.ProviderID(m.providerSelector.Selected())
	m.step = StepProviderKey
	cmd := m.apiKeyInput.Focus()
	return m, cmd
}

func (m WizardModel) submitKey() (tea.Model, tea.Cmd) {
	if strings.TrimSpace(m.apiKeyInput.Value()) == "" {
		m.keyError = "API key is required"
		return m, nil
	}
	m.validatingKey = true
	m.keyError = ""
	return m, tea.Batch(m.validateKey(), m.spinner.Tick)
}

// View renders the wizard
func (m WizardModel) View() string {
	if m.quitting {
		if m.result != nil && m.result.Cancelled {
			return DimStyle.Render("\n  Setup cancelled.\n\n")
		}
		return ""
	}

	var b strings.Builder
	if m.step > StepWelcome && m.step < StepComplete {
		b.WriteString("\n")
		b.WriteString(m.renderProgress())
		b.WriteString("\n")
	}

	switch m.step {
	case StepWelcome:
		b.WriteString(m.viewWelcome())
	case StepProviderSelect:
		b.WriteString("\n" + m.providerSelector.View())
	case StepProviderKey:
		b.WriteString(m.viewProviderKey())
	case StepComplete:
		b.WriteString(m.viewComplete())
	}
	return b.String()
}

func (m WizardModel) renderProgress() string {
	currentStep := 1
	if m.step == StepComplete {
		currentStep = 2
	}
	bar := m.progress.ViewAs(float64(currentStep) / float64(totalSteps))
	return fmt.Sprintf("  %s\n%s", bar, DimStyle.Render("  Provider        Ready"))
}

func (m WizardModel) viewWelcome() string {
	var b strings.Builder
	b.WriteString("\n\n")

	body := TitleStyle.Render("Welcome to devagent") + "\n" +
		SubtitleStyle.Render("Your terminal development partner") + "\n\n"
	if m.envKeyDetected {
		envVar := llm.EnvVarForProvider(m.envKeyProvider)
		body += SuccessStyle.Render(fmt.Sprintf("%s Found %s in environment", ui.SymbolCheck, envVar)) + "\n" +
			fmt.Sprintf("  Using: %s", auth.DisplayName(m.envKeyProvider))
	} else {
		body += "Connect an LLM provider to get started."
	}

	b.WriteString(BoxStyle.Render(body))
	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("  Press Enter to continue..."))
	return b.String()
}

func (m WizardModel) viewProviderKey() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(TitleStyle.Render(fmt.Sprintf("  Enter %s API Key", auth.DisplayName(m.selectedProvider))))
	b.WriteString("\n\n")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("  Get your key at: %s", auth.KeyHint(m.selectedProvider))))
	b.WriteString("\n\n  ")
	b.WriteString(m.apiKeyInput.View())
	b.WriteString("\n")

	if m.validatingKey {
		b.WriteString(fmt.Sprintf("\n  %s Testing connection...\n", m.spinner.View()))
	} else if m.keyError != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", ErrorStyle.Render(ui.SymbolCross+" "+m.keyError)))
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("  Enter to validate • Esc back"))
	return b.String()
}

func (m WizardModel) viewComplete() string {
	content := fmt.Sprintf(
		"%s\n\n"+
			"Provider: %s\n\n"+
			"%s\n"+
			"  %s\n"+
			"  %s\n"+
			"  %s",
		TitleStyle.Render("You're all set!"),
		auth.DisplayName(m.selectedProvider),
		DimStyle.Render("Try these:"),
		"\"Create a React app with a login page\"",
		"\"Add a /health route to the server and test it\"",
		"\"Why does npm run build fail?\"",
	)

	return "\n\n" + BoxStyle.Render(content) + "\n\n" + HelpStyle.Render("  Press Enter to start devagent...")
}

// RunWizard runs the setup wizard against dataDir and returns the result.
func RunWizard(dataDir string) (*SetupResult, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	m := NewWizard(dataDir)
	if m.step == StepComplete && m.status.HasProvider {
		return &SetupResult{ProviderID: m.selectedProvider}, nil
	}

	p := tea.NewProgram(*m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	if fm, ok := finalModel.(WizardModel); ok && fm.result != nil {
		return fm.result, nil
	}
	return &SetupResult{Cancelled: true}, nil
}

// PrintEnvInstructions explains non-interactive setup.
func PrintEnvInstructions(w io.Writer) {
	fmt.Fprintln(w, "devagent requires an LLM provider to function.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Set one of these environment variables:")
	for _, id := range llm.AllProviderIDs() {
		fmt.Fprintf(w, "  %s=...   (%s)\n", llm.EnvVarForProvider(id), auth.DisplayName(id))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Or run 'devagent auth connect <provider>', or run devagent interactively for guided setup.")
}

// IsInteractive returns true if running in a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
