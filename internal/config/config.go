// Package config loads the service configuration from an optional YAML file
// and RAGCHAT_* environment variables. A loaded Config is never mutated;
// a reload produces a new value.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/ragchat-go/internal/adapters/llm"
	"github.com/0xcro3dile/ragchat-go/internal/adapters/retrieval"
	"github.com/0xcro3dile/ragchat-go/internal/domain/usecases"
)

const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

const (
	DefaultInternalErrorMessage = "Une erreur s'est produite lors du traitement de votre demande."
	DefaultRateLimitedMessage   = "Trop de requêtes. Veuillez patienter un instant avant de réessayer."
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Policy    PolicyConfig    `yaml:"policy"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Messages  MessagesConfig  `yaml:"messages"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
	Watch     bool            `yaml:"watch"`

	path string
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst    int           `yaml:"rate_burst"`
	GinMode      string        `yaml:"gin_mode"`
}

type RetrievalConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	TopK    int           `yaml:"top_k"`
}

type LLMConfig struct {
	Backend      string        `yaml:"backend"`
	URL          string        `yaml:"url"`
	Model        string        `yaml:"model"`
	Timeout      time.Duration `yaml:"timeout"`
	APIKey       string        `yaml:"api_key"`
	PromptFormat string        `yaml:"prompt_format"`
}

type PolicyConfig struct {
	CrisisKeywords []string `yaml:"crisis_keywords"`
	CrisisMessage  string   `yaml:"crisis_message"`
	CrisisSource   string   `yaml:"crisis_source"`
}

type PromptConfig struct {
	SystemInstruction  string `yaml:"system_instruction"`
	ContextPreamble    string `yaml:"context_preamble"`
	QuestionLabel      string `yaml:"question_label"`
	ClosingInstruction string `yaml:"closing_instruction"`
	ExcerptLabel       string `yaml:"excerpt_label"`
}

type MessagesConfig struct {
	RetrievalFailure  string `yaml:"retrieval_failure"`
	CompletionFailure string `yaml:"completion_failure"`
	CompletionEmpty   string `yaml:"completion_empty"`
	InternalError     string `yaml:"internal_error"`
	RateLimited       string `yaml:"rate_limited"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"` // empty disables export
	ServiceName  string `yaml:"service_name"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and defaults, then validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{path: path}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read the config file: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode rejects unknown keys so typos in the file surface at load time.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string { return c.path }

func (c *Config) applyDefaults() {
	setString(&c.Server.Addr, ":8080")
	setDuration(&c.Server.ReadTimeout, 15*time.Second)
	setDuration(&c.Server.WriteTimeout, 180*time.Second)
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = 5
	}
	setString(&c.Server.GinMode, "release")

	setString(&c.Retrieval.URL, retrieval.DefaultServiceURL)
	setDuration(&c.Retrieval.Timeout, usecases.DefaultRetrievalTimeout)
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = usecases.DefaultTopK
	}

	setString(&c.LLM.Backend, BackendOllama)
	// An empty openai url means the public OpenAI endpoint.
	if c.LLM.Backend == BackendOllama {
		setString(&c.LLM.URL, llm.DefaultOllamaURL)
	}
	setString(&c.LLM.Model, llm.DefaultModel)
	setDuration(&c.LLM.Timeout, usecases.DefaultCompletionTimeout)
	setString(&c.LLM.PromptFormat, string(llm.FormatLlama3))

	if len(c.Policy.CrisisKeywords) == 0 {
		c.Policy.CrisisKeywords = append([]string(nil), usecases.DefaultCrisisKeywords...)
	}
	setString(&c.Policy.CrisisMessage, usecases.DefaultCrisisMessage)
	setString(&c.Policy.CrisisSource, usecases.DefaultCrisisSource)

	setString(&c.Prompt.SystemInstruction, usecases.DefaultSystemInstruction)
	setString(&c.Prompt.ContextPreamble, usecases.DefaultContextPreamble)
	setString(&c.Prompt.QuestionLabel, usecases.DefaultQuestionLabel)
	setString(&c.Prompt.ClosingInstruction, usecases.DefaultClosingInstruction)
	setString(&c.Prompt.ExcerptLabel, usecases.DefaultExcerptLabel)

	setString(&c.Messages.RetrievalFailure, usecases.DefaultRetrievalFailureMessage)
	setString(&c.Messages.CompletionFailure, usecases.DefaultCompletionFailureMessage)
	setString(&c.Messages.CompletionEmpty, usecases.DefaultCompletionEmptyMessage)
	setString(&c.Messages.InternalError, DefaultInternalErrorMessage)
	setString(&c.Messages.RateLimited, DefaultRateLimitedMessage)

	setString(&c.Telemetry.ServiceName, "ragchat")

	setString(&c.Log.Level, "info")
	setString(&c.Log.Format, "json")
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.gin_mode must be debug, release or test, got %q", c.Server.GinMode)
	}

	if err := validateURL("retrieval.url", c.Retrieval.URL); err != nil {
		return err
	}
	if c.Retrieval.Timeout <= 0 {
		return errors.New("retrieval.timeout must be positive")
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be at least 1, got %d", c.Retrieval.TopK)
	}

	switch c.LLM.Backend {
	case BackendOllama, BackendOpenAI:
	default:
		return fmt.Errorf("unknown llm.backend %q", c.LLM.Backend)
	}
	if c.LLM.URL != "" || c.LLM.Backend == BackendOllama {
		if err := validateURL("llm.url", c.LLM.URL); err != nil {
			return err
		}
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if _, err := llm.ParsePromptFormat(c.LLM.PromptFormat); err != nil {
		return fmt.Errorf("llm.prompt_format: %w", err)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// PipelineSettings maps the policy, prompt and message sections onto the
// immutable settings a ChatUseCase is built from.
func (c *Config) PipelineSettings() usecases.Settings {
	return usecases.Settings{
		TopK:              c.Retrieval.TopK,
		RetrievalTimeout:  c.Retrieval.Timeout,
		CompletionTimeout: c.LLM.Timeout,
		CrisisKeywords:    append([]string(nil), c.Policy.CrisisKeywords...),
		CrisisMessage:     c.Policy.CrisisMessage,
		CrisisSource:      c.Policy.CrisisSource,
		Templates: usecases.PromptTemplates{
			SystemInstruction:  c.Prompt.SystemInstruction,
			ContextPreamble:    c.Prompt.ContextPreamble,
			QuestionLabel:      c.Prompt.QuestionLabel,
			ClosingInstruction: c.Prompt.ClosingInstruction,
			ExcerptLabel:       c.Prompt.ExcerptLabel,
		},
		RetrievalFailureMessage: c.Messages.RetrievalFailure,
		Completion: usecases.CompletionMessages{
			Failure: c.Messages.CompletionFailure,
			Empty:   c.Messages.CompletionEmpty,
		},
	}
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	return nil
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}
