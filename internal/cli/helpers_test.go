package cli

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/devagent/internal/agent"
	"github.com/yolodolo42/devagent/internal/config"
	"github.com/yolodolo42/devagent/internal/llm"
	"github.com/yolodolo42/devagent/internal/testutil"
)

// fakeProvider replays canned replies in order.
type fakeProvider struct {
	mu      sync.Mutex
	replies []string
	model   string
}

func (p *fakeProvider) ID() llm.ProviderID { return llm.ProviderOpenAI }
func (p *fakeProvider) Name() string       { return "Fake" }

func (p *fakeProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.replies) == 0 {
		return nil, fmt.Errorf("script exhausted")
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return &llm.ChatResponse{Content: reply}, nil
}

func (p *fakeProvider) Models() []llm.Model {
	return []llm.Model{
		{ID: "fake-1", Name: "Fake One"},
		{ID: "fake-2", Name: "Fake Two"},
	}
}

func (p *fakeProvider) DefaultModel() string {
	if p.model == "" {
		return "fake-1"
	}
	return p.model
}

func (p *fakeProvider) SetModel(id string) error {
	if err := llm.ValidateModelID(id, p.Models()); err != nil {
		return err
	}
	p.model = id
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.RegisterDefaults(v)
	v.Set("workspace", testutil.TempDir(t))
	v.Set("data_dir", testutil.TempDir(t))
	v.Set("max_steps", 0)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

// newTestAgent builds an agent with the default tools and a scripted provider.
func newTestAgent(t *testing.T, cfg *config.Config, replies ...string) *agent.Agent {
	t.Helper()
	tools, err := agent.NewDefaultTools(cfg)
	require.NoError(t, err)
	ag := agent.NewWithProvider(&fakeProvider{replies: replies}, tools, agent.Options{
		MaxSteps:   cfg.MaxSteps,
		LoopWindow: cfg.LoopWindow,
		Workspace:  cfg.Workspace,
	})
	t.Cleanup(ag.Close)
	return ag
}
