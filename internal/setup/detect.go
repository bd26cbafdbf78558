package setup

import (
	"github.com/yolodolo42/devagent/internal/auth"
	"github.com/yolodolo42/devagent/internal/llm"
)

// SetupStatus represents the current setup state
type SetupStatus struct {
	HasProvider bool
	ProviderID  llm.ProviderID
	// Source is where the default provider's key resolves from.
	Source     auth.Source
	IsComplete bool
}

// DetectSetupStatus checks whether any LLM provider can be used.
func DetectSetupStatus(dataDir string) (*SetupStatus, error) {
	status := &SetupStatus{}

	authManager, err := auth.NewManager(dataDir)
	if err != nil {
		return status, nil // No auth setup yet
	}

	if connected := authManager.ListConnected(); len(connected) > 0 {
		status.HasProvider = true
		status.ProviderID = authManager.GetDefaultProvider()
		_, status.Source = authManager.Lookup(status.ProviderID)
	}

	status.IsComplete = status.HasProvider
	return status, nil
}

// NeedsSetup returns true if interactive setup should run
func NeedsSetup(dataDir string) bool {
	status, _ := DetectSetupStatus(dataDir)
	return !status.IsComplete
}
