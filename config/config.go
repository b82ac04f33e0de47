package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aschepis/backscratcher/study/llm"
	"github.com/aschepis/backscratcher/study/memory"
)

const (
	MemoryBackendSQLite = "sqlite"
	MemoryBackendMem0   = "mem0"

	EmbedderOllama = "ollama"
	EmbedderHash   = "hash"

	// DefaultHFModel is the chat model served through the Hugging Face router when only HF_TOKEN is set.
	DefaultHFModel = "google/gemma-3-12b-it"
)

// AnthropicConfig represents configuration for Anthropic LLM provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty" env:"ANTHROPIC_API_KEY"`
	Model  string `yaml:"model,omitempty" env:"ANTHROPIC_MODEL"`
}

// OllamaConfig represents configuration for Ollama LLM provider.
type OllamaConfig struct {
	Host           string `yaml:"host,omitempty" env:"OLLAMA_HOST"`   // Ollama host (default: "http://localhost:11434")
	Model          string `yaml:"model,omitempty" env:"OLLAMA_MODEL"` // Chat model name
	EmbeddingModel string `yaml:"embedding_model,omitempty" env:"STUDY_EMBEDDING_MODEL"`
}

// OpenAIConfig represents configuration for OpenAI-compatible providers, including the Hugging Face router.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty" env:"OPENAI_API_KEY"`
	BaseURL      string `yaml:"base_url,omitempty" env:"OPENAI_BASE_URL"` // Custom base URL (default: official API)
	Model        string `yaml:"model,omitempty" env:"OPENAI_MODEL"`
	Organization string `yaml:"organization,omitempty" env:"OPENAI_ORG_ID"`
	HFToken      string `yaml:"hf_token,omitempty" env:"HF_TOKEN"`
}

// GatewayConfig holds the per-prompt defaults.
type GatewayConfig struct {
	Model          string  `yaml:"model,omitempty" env:"STUDY_MODEL"` // Overrides the provider default
	System         string  `yaml:"system,omitempty"`
	MaxTokens      int64   `yaml:"max_tokens,omitempty" env:"STUDY_MAX_TOKENS"`
	Temperature    float64 `yaml:"temperature,omitempty" env:"STUDY_TEMPERATURE"` // 0 leaves the provider default
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty" env:"STUDY_TIMEOUT_SECONDS"`
	MaxRetries     uint64  `yaml:"max_retries,omitempty" env:"STUDY_MAX_RETRIES"`
}

// MemoryConfig selects and scopes the conversational memory.
type MemoryConfig struct {
	Backend     string `yaml:"backend,omitempty" env:"STUDY_MEMORY_BACKEND"` // sqlite | mem0
	DBPath      string `yaml:"db_path,omitempty" env:"STUDY_DB_PATH"`
	MemoryID    string `yaml:"memory_id,omitempty" env:"STUDY_MEMORY_ID"`
	UserID      string `yaml:"user_id,omitempty" env:"STUDY_USER_ID"`
	WindowDays  int    `yaml:"window_days,omitempty" env:"STUDY_WINDOW_DAYS"`
	Mem0APIKey  string `yaml:"mem0_api_key,omitempty" env:"MEM0_API_KEY"`
	Mem0BaseURL string `yaml:"mem0_base_url,omitempty" env:"MEM0_BASE_URL"`
}

// RetrievalConfig controls chunking and passage lookup over the study material.
type RetrievalConfig struct {
	TopK         int    `yaml:"top_k,omitempty" env:"STUDY_TOP_K"`
	ChunkTokens  int    `yaml:"chunk_tokens,omitempty" env:"STUDY_CHUNK_TOKENS"`
	ChunkOverlap int    `yaml:"chunk_overlap,omitempty" env:"STUDY_CHUNK_OVERLAP"`
	Embedder     string `yaml:"embedder,omitempty" env:"STUDY_EMBEDDER"` // ollama | hash
}

// WorkflowConfig tunes the study workflow handlers.
type WorkflowConfig struct {
	QuizLimit     int `yaml:"quiz_limit,omitempty" env:"STUDY_QUIZ_LIMIT"`
	ContextTokens int `yaml:"context_tokens,omitempty" env:"STUDY_CONTEXT_TOKENS"` // 0 disables the budget
}

// Config is the full configuration of the study assistant.
type Config struct {
	LLMProviders []string `yaml:"llm_providers,omitempty" env:"STUDY_LLM_PROVIDERS" envSeparator:","`

	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	Ollama    OllamaConfig    `yaml:"ollama,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`

	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Memory    MemoryConfig    `yaml:"memory,omitempty"`
	Retrieval RetrievalConfig `yaml:"retrieval,omitempty"`
	Workflow  WorkflowConfig  `yaml:"workflow,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLMProviders: []string{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderOllama},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku-4-5",
		},
		Ollama: OllamaConfig{
			Host:           "http://localhost:11434",
			Model:          "llama3.2:3b",
			EmbeddingModel: "mxbai-embed-large",
		},
		Gateway: GatewayConfig{
			MaxTokens:      llm.DefaultGatewayMaxTokens,
			TimeoutSeconds: 30,
			MaxRetries:     llm.DefaultMaxRetries,
		},
		Memory: MemoryConfig{
			Backend:    MemoryBackendSQLite,
			DBPath:     "~/.study/memory.db",
			MemoryID:   memory.DefaultScope.MemoryID,
			UserID:     memory.DefaultScope.UserID,
			WindowDays: 7,
		},
		Retrieval: RetrievalConfig{
			TopK:         4,
			ChunkTokens:  400,
			ChunkOverlap: 50,
			Embedder:     EmbedderOllama,
		},
		Workflow: WorkflowConfig{
			QuizLimit: 20,
		},
	}
}

// DefaultConfigPath returns the default config file path.
// Can be overridden via STUDY_CONFIG_PATH environment variable.
func DefaultConfigPath() string {
	if envPath := os.Getenv("STUDY_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.study/config.yaml"
	}
	return filepath.Join(homeDir, ".study", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Load builds the configuration from defaults, the YAML file at path (if it exists),
// a .env file in the working directory (if it exists) and the process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	expandedPath := expandPath(path)
	if expandedPath != "" {
		if _, err := os.Stat(expandedPath); err == nil {
			data, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
			}
			var fileConfig Config
			if err := yaml.Unmarshal(data, &fileConfig); err != nil {
				return nil, fmt.Errorf("failed to parse config file %q: %w", expandedPath, err)
			}
			if err := mergo.Merge(&cfg, fileConfig, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("failed to merge config file: %w", err)
			}
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyHuggingFace()
	cfg.Memory.DBPath = expandPath(cfg.Memory.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs from path without overriding variables already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyHuggingFace points the OpenAI provider at the Hugging Face router when only HF_TOKEN is configured.
func (c *Config) applyHuggingFace() {
	if c.OpenAI.APIKey != "" || c.OpenAI.HFToken == "" {
		return
	}
	c.OpenAI.APIKey = c.OpenAI.HFToken
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = huggingFaceRouterURL
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultHFModel
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if len(c.LLMProviders) == 0 {
		errs = append(errs, errors.New("llm_providers must not be empty"))
	}
	for _, p := range c.LLMProviders {
		if !slices.Contains([]string{llm.ProviderAnthropic, llm.ProviderOllama, llm.ProviderOpenAI}, p) {
			errs = append(errs, fmt.Errorf("unknown llm provider %q", p))
		}
	}
	if c.Gateway.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("gateway.max_tokens must be positive, got %d", c.Gateway.MaxTokens))
	}
	if c.Gateway.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("gateway.timeout_seconds must be positive, got %d", c.Gateway.TimeoutSeconds))
	}
	if c.Gateway.Temperature < 0 {
		errs = append(errs, fmt.Errorf("gateway.temperature must not be negative, got %g", c.Gateway.Temperature))
	}
	switch c.Memory.Backend {
	case MemoryBackendSQLite:
		if c.Memory.DBPath == "" {
			errs = append(errs, errors.New("memory.db_path is required for the sqlite backend"))
		}
	case MemoryBackendMem0:
		if c.Memory.Mem0APIKey == "" {
			errs = append(errs, errors.New("memory.mem0_api_key (MEM0_API_KEY) is required for the mem0 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown memory backend %q", c.Memory.Backend))
	}
	if c.Memory.MemoryID == "" || c.Memory.UserID == "" {
		errs = append(errs, errors.New("memory.memory_id and memory.user_id are required"))
	}
	if c.Memory.WindowDays <= 0 {
		errs = append(errs, fmt.Errorf("memory.window_days must be positive, got %d", c.Memory.WindowDays))
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK))
	}
	if c.Retrieval.ChunkTokens <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.chunk_tokens must be positive, got %d", c.Retrieval.ChunkTokens))
	}
	if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkTokens {
		errs = append(errs, fmt.Errorf("retrieval.chunk_overlap must be in [0, chunk_tokens), got %d", c.Retrieval.ChunkOverlap))
	}
	if c.Retrieval.Embedder != EmbedderOllama && c.Retrieval.Embedder != EmbedderHash {
		errs = append(errs, fmt.Errorf("unknown embedder %q", c.Retrieval.Embedder))
	}
	if c.Workflow.QuizLimit <= 0 {
		errs = append(errs, fmt.Errorf("workflow.quiz_limit must be positive, got %d", c.Workflow.QuizLimit))
	}
	if c.Workflow.ContextTokens < 0 {
		errs = append(errs, fmt.Errorf("workflow.context_tokens must not be negative, got %d", c.Workflow.ContextTokens))
	}
	return errors.Join(errs...)
}

// Window returns the memory recency window.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Memory.WindowDays) * 24 * time.Hour
}

// Timeout returns the per-prompt gateway timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// Scope returns the memory scope every record is written under.
func (c *Config) Scope() memory.Scope {
	return memory.Scope{MemoryID: c.Memory.MemoryID, UserID: c.Memory.UserID}
}

// ProviderConfig flattens the provider sections for llm.NewProviderRegistry.
func (c *Config) ProviderConfig() *llm.ProviderConfig {
	return &llm.ProviderConfig{
		AnthropicAPIKey: c.Anthropic.APIKey,
		AnthropicModel:  c.Anthropic.Model,
		OllamaHost:      c.Ollama.Host,
		OllamaModel:     c.Ollama.Model,
		OpenAIAPIKey:    c.OpenAI.APIKey,
		OpenAIBaseURL:   c.OpenAI.BaseURL,
		OpenAIModel:     c.OpenAI.Model,
		OpenAIOrg:       c.OpenAI.Organization,
	}
}

// GatewayConfig returns the gateway defaults. Model is left empty so the resolved client's model applies
// unless gateway.model is set.
func (c *Config) GatewayConfig() llm.GatewayConfig {
	gc := llm.GatewayConfig{
		Model:     c.Gateway.Model,
		System:    c.Gateway.System,
		MaxTokens: c.Gateway.MaxTokens,
		Timeout:   c.Timeout(),
	}
	if c.Gateway.Temperature > 0 {
		t := c.Gateway.Temperature
		gc.Temperature = &t
	}
	return gc
}

// RetryPolicy returns the caller-side retry policy.
func (c *Config) RetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{MaxRetries: c.Gateway.MaxRetries}
}
