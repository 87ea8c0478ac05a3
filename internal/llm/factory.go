package llm

import (
	"fmt"

	"jobscout/internal/config"
	"jobscout/internal/llm/providers"
)

// ProviderFactory creates LLM provider instances
type ProviderFactory struct {
	config *config.Config
}

func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{config: cfg}
}

// CreateProvider creates the provider named in the configuration
func (f *ProviderFactory) CreateProvider() (Provider, error) {
	switch f.config.LLM.Provider {
	case "claude", "anthropic", "":
		return providers.NewClaudeProvider(f.config), nil
	case "openai":
		return providers.NewOpenAIProvider(f.config), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", f.config.LLM.Provider)
	}
}

// SupportedProviders returns the accepted provider names
func (f *ProviderFactory) SupportedProviders() []string {
	return []string{"claude", "openai"}
}
