package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"aipedia/internal/article"
)

// Config contains runtime configuration derived from flags, an optional
// config file, and environment variables.
type Config struct {
	Port            string
	Provider        string
	Model           string
	BaseURL         string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AnthropicModel  string
	Temperature     float64
	MaxTokens       int
	GenerateTimeout time.Duration
	StubDelay       time.Duration
}

// NewViper returns a viper instance with defaults and environment bindings.
// Every key can be set as AIPEDIA_<KEY>; the usual provider variables are
// honoured as well.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("provider", "")
	v.SetDefault("model", "gpt-4o")
	v.SetDefault("base_url", "")
	v.SetDefault("anthropic_model", "claude-sonnet-4-20250514")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("generate_timeout", 90*time.Second)
	v.SetDefault("stub_delay", 150*time.Millisecond)

	v.SetEnvPrefix("AIPEDIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("port", "AIPEDIA_PORT", "PORT")
	_ = v.BindEnv("base_url", "AIPEDIA_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai_api_key", "AIPEDIA_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("anthropic_api_key", "AIPEDIA_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	return v
}

// ReadConfigFile loads path, or aipedia.yaml from the working directory or
// ~/.config/aipedia when path is empty. A missing default file is not an error.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("aipedia")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "aipedia"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// LoadConfig populates Config from v and validates the provider selection.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:            v.GetString("port"),
		Provider:        strings.ToLower(strings.TrimSpace(v.GetString("provider"))),
		Model:           v.GetString("model"),
		BaseURL:         v.GetString("base_url"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		AnthropicModel:  v.GetString("anthropic_model"),
		Temperature:     v.GetFloat64("temperature"),
		MaxTokens:       v.GetInt("max_tokens"),
		GenerateTimeout: v.GetDuration("generate_timeout"),
		StubDelay:       v.GetDuration("stub_delay"),
	}

	if cfg.Port == "" {
		return cfg, errors.New("port must not be empty")
	}

	switch article.ResolveProvider(cfg.ArticleSettings()) {
	case article.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return cfg, errors.New("provider openai requires OPENAI_API_KEY")
		}
	case article.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return cfg, errors.New("provider anthropic requires ANTHROPIC_API_KEY")
		}
	case article.ProviderStub:
	default:
		return cfg, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}

	return cfg, nil
}

// ArticleSettings returns the generation settings carried by cfg.
func (c Config) ArticleSettings() article.Settings {
	return article.Settings{
		Provider:        c.Provider,
		Model:           c.Model,
		BaseURL:         c.BaseURL,
		OpenAIAPIKey:    c.OpenAIAPIKey,
		AnthropicAPIKey: c.AnthropicAPIKey,
		AnthropicModel:  c.AnthropicModel,
		Temperature:     c.Temperature,
		MaxTokens:       c.MaxTokens,
		Timeout:         c.GenerateTimeout,
	}
}

// NewGenerator builds the article generator selected by cfg.
func NewGenerator(cfg Config) (article.Generator, error) {
	g, err := article.NewGenerator(cfg.ArticleSettings())
	if err != nil {
		return nil, err
	}
	if stub, ok := g.(article.StubGenerator); ok {
		stub.Delay = cfg.StubDelay
		return stub, nil
	}
	return g, nil
}
