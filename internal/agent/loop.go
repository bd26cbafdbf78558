package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yolodolo42/devagent/internal/auth"
	"github.com/yolodolo42/devagent/internal/config"
	"github.com/yolodolo42/devagent/internal/llm"
)

// ErrStepBudget ends a turn that used up its step budget without an output step.
var ErrStepBudget = errors.New("step budget exhausted")

// Options tunes the driver. The zero value means no budget, no guard and
// no session log.
type Options struct {
	// MaxSteps bounds model round-trips per request; 0 is unlimited.
	MaxSteps int
	// LoopWindow is the number of identical consecutive actions that halt
	// a turn; 0 disables the guard.
	LoopWindow int
	MaxTokens  int
	// TurnTimeout bounds a whole request; 0 means only the caller's context.
	TurnTimeout time.Duration
	// SessionDir receives <session-id>.jsonl logs when non-empty.
	SessionDir string
	Workspace  string
	Audit      *AuditStore
}

// Agent drives a conversation: it sends the history to the model, hands each
// reply to the dispatcher and feeds the dispatcher's next message back until
// the turn ends.
type Agent struct {
	// mu serializes turns and guards session, provider and log.
	mu           sync.Mutex
	provider     llm.Provider
	authManager  *auth.Manager
	tools        *ToolRegistry
	systemPrompt string
	session      *Session
	log          *sessionLogger
	audit        *AuditStore
	opts         Options
}

// turn is the state of one request. It is never reused.
type turn struct {
	id    string
	steps int
	guard actionGuard
}

// New builds an agent from the effective configuration: credentials,
// provider, tools and audit store.
func New(cfg *config.Config) (*Agent, error) {
	authManager, err := auth.NewManager(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth manager: %w", err)
	}

	var targetProvider llm.ProviderID
	if cfg.Provider != "" {
		targetProvider, err = llm.ParseProviderID(cfg.Provider)
		if err != nil {
			return nil, err
		}
	} else {
		targetProvider = authManager.GetDefaultProvider()
	}

	provider, err := CreateProvider(authManager, targetProvider)
	if err != nil {
		connected := authManager.ListConnected()
		if len(connected) == 0 {
			return nil, fmt.Errorf("no LLM providers connected. Run 'devagent auth connect <provider>' or set an API key environment variable")
		}
		if cfg.Provider != "" {
			return nil, err
		}
		provider = nil
		for _, pid := range connected {
			p, perr := CreateProvider(authManager, pid)
			if perr == nil {
				provider = p
				break
			}
			err = perr
		}
		if provider == nil {
			return nil, fmt.Errorf("failed to initialize any LLM provider: %w", err)
		}
	}

	if cfg.Model != "" {
		if err := provider.SetModel(cfg.Model); err != nil {
			return nil, err
		}
	}

	tools, err := NewDefaultTools(cfg)
	if err != nil {
		return nil, err
	}

	var audit *AuditStore
	if cfg.Audit {
		audit, err = OpenAuditStore(cfg.AuditDBPath())
		if err != nil {
			return nil, err
		}
	}

	opts := Options{
		MaxSteps:    cfg.MaxSteps,
		LoopWindow:  cfg.LoopWindow,
		MaxTokens:   cfg.MaxTokens,
		TurnTimeout: cfg.TurnTimeout,
		Workspace:   cfg.Workspace,
		Audit:       audit,
	}
	if cfg.SessionLog {
		opts.SessionDir = cfg.SessionsDir()
	}

	a := NewWithProvider(provider, tools, opts)
	a.authManager = authManager
	return a, nil
}

// NewDefaultTools registers run_command and the file tools for cfg.
func NewDefaultTools(cfg *config.Config) (*ToolRegistry, error) {
	policy, err := NewCommandPolicy(cfg.Policy.DenyCommands, cfg.Policy.AllowCommands)
	if err != nil {
		return nil, err
	}
	ws := Workspace{Root: cfg.Workspace, Protected: cfg.Policy.ProtectedPaths}

	runner := &CommandRunner{
		Workspace: ws,
		Policy:    policy,
		Shell:     cfg.Shell,
		Timeout:   cfg.CommandTimeout,
	}
	files := &FileTools{Workspace: ws}

	registry := NewToolRegistry(cfg.MaxOutputBytes)
	for _, t := range append([]Tool{runner.Tool()}, files.Tools()...) {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewWithProvider builds an agent around an existing provider and registry.
func NewWithProvider(provider llm.Provider, tools *ToolRegistry, opts Options) *Agent {
	if tools == nil {
		tools = NewToolRegistry(0)
	}
	a := &Agent{
		provider:     provider,
		tools:        tools,
		systemPrompt: BuildSystemPrompt(tools.Tools(), opts.Workspace),
		audit:        opts.Audit,
		opts:         opts,
	}
	a.startSession()
	return a
}

// CreateProvider creates a provider instance from stored credentials.
func CreateProvider(authManager *auth.Manager, providerID llm.ProviderID) (llm.Provider, error) {
	key, err := authManager.GetAPIKey(providerID)
	if err != nil {
		return nil, err
	}

	return llm.NewProvider(context.Background(), providerID, key, "")
}

// startSession replaces the session and its log. Callers hold mu or own a.
func (a *Agent) startSession() {
	a.log.Close()
	a.session = NewSession()
	a.log = nil
	if a.opts.SessionDir == "" {
		return
	}
	l, err := newSessionLogger(a.opts.SessionDir, a.session.ID)
	if err != nil {
		return
	}
	a.log = l
	rec := sessionRecord{Type: recordSession}
	if a.provider != nil {
		rec.Provider = string(a.provider.ID())
		rec.Model = a.provider.DefaultModel()
	}
	a.log.log(rec)
}

// Run executes one user request, calling emit for every rendering, until the
// model produces an output step or the turn halts.
//
// Halts the model caused (unparseable reply, unknown step, missing tool) are
// reported through emit and return nil. Run returns an error for budget
// exhaustion, repeated actions, transport failures and cancellation.
func (a *Agent) Run(ctx context.Context, request string, emit func(Event)) error {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil
	}
	if emit == nil {
		emit = func(Event) {}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.provider == nil {
		return fmt.Errorf("agent provider not initialized")
	}

	if a.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.TurnTimeout)
		defer cancel()
	}

	t := &turn{id: uuid.NewString(), guard: actionGuard{window: a.opts.LoopWindow}}
	a.session.Append(llm.RoleUser, request)
	a.log.log(sessionRecord{Type: recordUser, TurnID: t.id, Content: request})

	for {
		if err := ctx.Err(); err != nil {
			a.log.log(sessionRecord{Type: recordError, TurnID: t.id, Content: err.Error()})
			return fmt.Errorf("turn cancelled: %w", err)
		}
		if a.opts.MaxSteps > 0 && t.steps >= a.opts.MaxSteps {
			emit(Event{Kind: EventError, Content: fmt.Sprintf("Stopped after %d steps without a final answer", t.steps)})
			a.log.log(sessionRecord{Type: recordError, TurnID: t.id, Content: ErrStepBudget.Error()})
			return ErrStepBudget
		}
		t.steps++

		resp, err := a.provider.Chat(ctx, &llm.ChatRequest{
			SystemPrompt: a.systemPrompt,
			Messages:     a.session.Messages(),
			MaxTokens:    a.opts.MaxTokens,
			Format:       llm.FormatJSON,
		})
		if err != nil {
			a.log.log(sessionRecord{Type: recordError, TurnID: t.id, Content: err.Error()})
			return fmt.Errorf("failed to get response: %w", err)
		}

		a.session.Append(llm.RoleAssistant, resp.Content)
		a.log.log(sessionRecord{
			Type:         recordResponse,
			TurnID:       t.id,
			Provider:     string(a.provider.ID()),
			Model:        a.provider.DefaultModel(),
			Content:      resp.Content,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		})

		tr := a.dispatch(ctx, t, resp.Content, emit)
		if tr.terminal() {
			return tr.err
		}
		a.session.Append(llm.RoleUser, tr.next)
	}
}

// RunWithEvents runs a request and collects its events.
func (a *Agent) RunWithEvents(ctx context.Context, request string) ([]Event, error) {
	var events []Event
	err := a.Run(ctx, request, func(e Event) {
		events = append(events, e)
	})
	return events, err
}

// Tools returns the registered tools.
func (a *Agent) Tools() []Tool {
	return a.tools.Tools()
}

// Messages returns a copy of the conversation history.
func (a *Agent) Messages() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Messages()
}

// SessionID returns the id of the current session.
func (a *Agent) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.ID
}

// GetProvider returns the current provider
func (a *Agent) GetProvider() llm.Provider {
	return a.provider
}

// SetModel switches the active model on the current provider and starts a
// new session.
func (a *Agent) SetModel(modelID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.provider.SetModel(modelID); err != nil {
		return err
	}
	a.startSession()
	return nil
}

// CurrentModel returns the active model ID for the current provider.
func (a *Agent) CurrentModel() string {
	return a.provider.DefaultModel()
}

// ListModels returns the available models for the current provider.
func (a *Agent) ListModels() []llm.Model {
	return a.provider.Models()
}

// ProviderName returns the human-readable name of the current provider.
func (a *Agent) ProviderName() string {
	return a.provider.Name()
}

// CurrentProviderID returns the provider identifier for the active provider.
func (a *Agent) CurrentProviderID() llm.ProviderID {
	return a.provider.ID()
}

// SetProvider switches to a new provider and starts a new session.
// If initialization fails, the current provider remains unchanged.
func (a *Agent) SetProvider(providerID llm.ProviderID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.authManager == nil {
		return fmt.Errorf("auth manager not initialized")
	}

	newProvider, err := CreateProvider(a.authManager, providerID)
	if err != nil {
		return err
	}

	llm.Close(a.provider)
	a.provider = newProvider
	a.startSession()
	return nil
}

// Reset tears down the session and starts an empty one.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startSession()
}

// Audit returns the audit store, or nil when auditing is off.
func (a *Agent) Audit() *AuditStore {
	return a.audit
}

// Close releases the session log, audit DB and provider client.
func (a *Agent) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.log.Close()
	a.log = nil
	if a.audit != nil {
		_ = a.audit.Close()
		a.audit = nil
	}
	llm.Close(a.provider)
}
