package llm

import (
	"fmt"
	"slices"
	"sync"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
)

// LLMPreference represents a single provider/model preference.
type LLMPreference struct {
	Provider    string
	Model       string
	Temperature *float64
}

// ClientKey uniquely identifies an LLM client configuration.
type ClientKey struct {
	Provider     string
	Model        string
	Temperature  *float64
	APIKey       string // For credential-based providers
	Host         string // For Ollama
	BaseURL      string // For OpenAI-compatible endpoints
	Organization string // For OpenAI
}

// ProviderConfig holds the configuration needed for provider registry.
// This avoids import cycles by not importing the config package.
type ProviderConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OllamaHost      string
	OllamaModel     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIOrg       string
}

// ProviderRegistry manages LLM provider selection and configuration resolution.
// Client creation is handled by the caller to avoid import cycles.
type ProviderRegistry struct {
	enabledProviders []string // in configured order
	mu               sync.RWMutex
	config           *ProviderConfig
}

// NewProviderRegistry creates a new ProviderRegistry with the given config and enabled providers.
func NewProviderRegistry(providerConfig *ProviderConfig, enabledProviders []string) *ProviderRegistry {
	if providerConfig == nil {
		providerConfig = &ProviderConfig{}
	}
	enabled := make([]string, 0, len(enabledProviders))
	for _, p := range enabledProviders {
		if !slices.Contains(enabled, p) {
			enabled = append(enabled, p)
		}
	}
	return &ProviderRegistry{
		enabledProviders: enabled,
		config:           providerConfig,
	}
}

// IsProviderEnabled checks if a provider is in the enabled providers list.
func (r *ProviderRegistry) IsProviderEnabled(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.enabledProviders, provider)
}

// IsProviderConfigured checks if a provider has the required configuration (API keys, hosts, etc.).
func (r *ProviderRegistry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isProviderConfiguredUnlocked(provider)
}

// Resolve returns a ClientKey for the first usable provider in prefs.
// With no preferences the first enabled and configured provider is used with its default model.
func (r *ProviderRegistry) Resolve(prefs []LLMPreference) (*ClientKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(prefs) > 0 {
		var attempted []string
		for _, pref := range prefs {
			attempted = append(attempted, pref.Provider)
			if !slices.Contains(r.enabledProviders, pref.Provider) {
				continue
			}
			if !r.isProviderConfiguredUnlocked(pref.Provider) {
				continue
			}
			key, err := r.resolveProviderConfig(pref.Provider, pref.Model)
			if err != nil {
				continue
			}
			key.Temperature = pref.Temperature
			return key, nil
		}
		return nil, fmt.Errorf("no available provider from preferences %v (enabled: %v)", attempted, r.enabledProviders)
	}

	if len(r.enabledProviders) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}
	for _, provider := range r.enabledProviders {
		if !r.isProviderConfiguredUnlocked(provider) {
			continue
		}
		key, err := r.resolveProviderConfig(provider, "")
		if err != nil {
			continue
		}
		return key, nil
	}
	return nil, fmt.Errorf("none of the enabled providers %v is configured", r.enabledProviders)
}

// isProviderConfiguredUnlocked is the unlocked version of IsProviderConfigured.
// Must be called with r.mu already locked.
func (r *ProviderRegistry) isProviderConfiguredUnlocked(provider string) bool {
	switch provider {
	case ProviderAnthropic:
		return r.config.AnthropicAPIKey != ""
	case ProviderOllama:
		// Ollama doesn't require API key, just needs host (which has a default)
		return true
	case ProviderOpenAI:
		return r.config.OpenAIAPIKey != ""
	default:
		return false
	}
}

// resolveProviderConfig resolves provider-specific configuration and returns a ClientKey.
func (r *ProviderRegistry) resolveProviderConfig(provider, modelOverride string) (*ClientKey, error) {
	key := &ClientKey{
		Provider: provider,
		Model:    modelOverride,
	}

	switch provider {
	case ProviderAnthropic:
		if r.config.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic API key not configured")
		}
		key.APIKey = r.config.AnthropicAPIKey
		if key.Model == "" {
			key.Model = r.config.AnthropicModel
		}
		if key.Model == "" {
			key.Model = "claude-haiku-4-5"
		}

	case ProviderOllama:
		key.Host = r.config.OllamaHost
		if key.Host == "" {
			key.Host = "http://localhost:11434"
		}
		if key.Model == "" {
			key.Model = r.config.OllamaModel
		}
		if key.Model == "" {
			return nil, fmt.Errorf("ollama model not specified and no default configured")
		}

	case ProviderOpenAI:
		if r.config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		key.APIKey = r.config.OpenAIAPIKey
		key.BaseURL = r.config.OpenAIBaseURL
		key.Organization = r.config.OpenAIOrg
		if key.Model == "" {
			key.Model = r.config.OpenAIModel
		}
		if key.Model == "" {
			return nil, fmt.Errorf("openai model not specified and no default configured")
		}

	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return key, nil
}
