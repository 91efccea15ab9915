package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Error reports a missing or invalid configuration value. It is fatal: the
// process refuses to start rather than failing on the first request.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config is the immutable application configuration, built once at startup
// from the environment plus an optional YAML tuning file, and passed by
// reference into the fetcher and summarizer constructors.
type Config struct {
	GeminiAPIKey string
	FileModel    string
	ProjectModel string

	// OpenAI fallback is disabled when the key is empty.
	OpenAIAPIKey string
	OpenAIModel  string

	// GitHubToken is optional; unauthenticated API lookups work for public
	// repositories but are rate-limited more aggressively.
	GitHubToken string

	Port int

	AI         AIConfig         `yaml:"ai"`
	Repository RepositoryConfig `yaml:"repository"`
}

// AIConfig contains generation parameters for the two Gemini models.
type AIConfig struct {
	File    GenerationConfig `yaml:"file"`
	Project GenerationConfig `yaml:"project"`
}

// GenerationConfig mirrors the Gemini generation settings.
type GenerationConfig struct {
	Temperature     float32 `yaml:"temperature"`
	TopK            int32   `yaml:"top_k"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// RepositoryConfig contains checkout and file enumeration settings.
type RepositoryConfig struct {
	// UseIgnoreRules controls whether .gitignore patterns and the default
	// ignore lists are applied during enumeration. Enabled by default.
	UseIgnoreRules *bool `yaml:"use_ignore_rules"`
	// MaxFileSizeBytes caps the size of a single file; larger files are
	// skipped rather than read.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`
}

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultPort        = 8080
	defaultMaxFileSize = 1 << 20 // 1 MiB
)

// Load builds the configuration from the environment. If CONFIG_PATH is set,
// tuning parameters are read from that YAML file first; environment variables
// always win for credentials and model identifiers.
func Load() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		FileModel:    os.Getenv("AI_MODEL_FILE"),
		ProjectModel: os.Getenv("AI_MODEL_PROJECT"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		Port:         defaultPort,
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadTuningFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, &Error{Field: "PORT", Reason: fmt.Sprintf("invalid port %q", portStr)}
		}
		cfg.Port = port
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTuningFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Field: "CONFIG_PATH", Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &Error{Field: "CONFIG_PATH", Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.FileModel == "" {
		c.FileModel = defaultGeminiModel
	}
	if c.ProjectModel == "" {
		c.ProjectModel = defaultGeminiModel
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = defaultOpenAIModel
	}
	if c.AI.File == (GenerationConfig{}) {
		c.AI.File = GenerationConfig{Temperature: 0.1, TopK: 20, TopP: 0.9, MaxOutputTokens: 2048}
	}
	if c.AI.Project == (GenerationConfig{}) {
		c.AI.Project = GenerationConfig{Temperature: 0.2, TopK: 30, TopP: 0.9, MaxOutputTokens: 4096}
	}
	if c.Repository.UseIgnoreRules == nil {
		enabled := true
		c.Repository.UseIgnoreRules = &enabled
	}
	if c.Repository.MaxFileSizeBytes <= 0 {
		c.Repository.MaxFileSizeBytes = defaultMaxFileSize
	}
}

// Validate reports the first fatal configuration problem.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return &Error{Field: "GEMINI_API_KEY", Reason: "not set; the summarizer cannot run without a Gemini credential"}
	}
	if c.FileModel == "" {
		return &Error{Field: "AI_MODEL_FILE", Reason: "model identifier is empty"}
	}
	if c.ProjectModel == "" {
		return &Error{Field: "AI_MODEL_PROJECT", Reason: "model identifier is empty"}
	}
	return nil
}

// IgnoreRulesEnabled reports whether ignore patterns apply during enumeration.
func (c *Config) IgnoreRulesEnabled() bool {
	return c.Repository.UseIgnoreRules == nil || *c.Repository.UseIgnoreRules
}

// OpenAIFallbackEnabled reports whether a failed Gemini call may be retried
// against OpenAI.
func (c *Config) OpenAIFallbackEnabled() bool {
	return c.OpenAIAPIKey != ""
}
