// Package agent selects the active LLM provider from configuration.
package agent

import (
	"fmt"

	"attention_guiding/pkg/core/llm"
)

// Config is the models.yaml shape: which provider is active plus the
// tunables the pipeline reads.
type Config struct {
	ActiveProvider string `yaml:"active_provider"`
	Model          string `yaml:"model"`
	AnomalyTopN    int    `yaml:"anomaly_top_n"`
	HistoryLimit   int    `yaml:"history_limit"`
}

// Manager owns the provider instances and resolves the active one.
type Manager struct {
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"openai":   &llm.OpenAIProvider{},
			"deepseek": &llm.DeepSeekProvider{},
			"gemini":   &llm.GeminiProvider{},
			"qwen":     &llm.QwenProvider{},
		},
	}
}

// GetProvider returns the configured active provider, falling back to
// OpenAI when the configuration names an unknown one.
func (m *Manager) GetProvider() llm.Provider {
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return m.providers["openai"]
}

// GetProviderByName retrieves a provider instance by its specific name.
func (m *Manager) GetProviderByName(name string) llm.Provider {
	if p, ok := m.providers[name]; ok {
		return p
	}
	return nil
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	return nil
}

func (m *Manager) GetActiveProvider() string {
	return m.config.ActiveProvider
}

// Settings exposes the loaded configuration values.
func (m *Manager) Settings() Config {
	return m.config
}
