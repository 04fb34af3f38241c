package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aipedia/internal/article"
)

// clearEnv blanks every variable the config reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"PORT", "OPENAI_API_KEY", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY",
		"AIPEDIA_PORT", "AIPEDIA_PROVIDER", "AIPEDIA_MODEL", "AIPEDIA_BASE_URL",
		"AIPEDIA_OPENAI_API_KEY", "AIPEDIA_ANTHROPIC_API_KEY", "AIPEDIA_ANTHROPIC_MODEL",
		"AIPEDIA_TEMPERATURE", "AIPEDIA_MAX_TOKENS", "AIPEDIA_GENERATE_TIMEOUT", "AIPEDIA_STUB_DELAY",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.AnthropicModel)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 90*time.Second, cfg.GenerateTimeout)
	assert.Equal(t, article.ProviderStub, article.ResolveProvider(cfg.ArticleSettings()))

	g, err := NewGenerator(cfg)
	require.NoError(t, err)
	stub, ok := g.(article.StubGenerator)
	require.True(t, ok, "got %T", g)
	assert.Equal(t, 150*time.Millisecond, stub.Delay)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AIPEDIA_MODEL", "gpt-4o-mini")
	t.Setenv("AIPEDIA_GENERATE_TIMEOUT", "30s")

	cfg, err := LoadConfig(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 30*time.Second, cfg.GenerateTimeout)
	assert.Equal(t, article.ProviderOpenAI, article.ResolveProvider(cfg.ArticleSettings()))

	g, err := NewGenerator(cfg)
	require.NoError(t, err)
	assert.IsType(t, &article.OpenAIGenerator{}, g)
}

func TestLoadConfigRejectsBadProvider(t *testing.T) {
	clearEnv(t)

	t.Setenv("AIPEDIA_PROVIDER", "carrier-pigeon")
	_, err := LoadConfig(NewViper())
	assert.Error(t, err)

	t.Setenv("AIPEDIA_PROVIDER", "anthropic")
	_, err = LoadConfig(NewViper())
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")

	t.Setenv("ANTHROPIC_API_KEY", "key")
	cfg, err := LoadConfig(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
}

func TestReadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "aipedia.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nprovider: stub\ntemperature: 0.2\n"), 0o600))

	v := NewViper()
	require.NoError(t, ReadConfigFile(v, path))
	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "stub", cfg.Provider)
	assert.Equal(t, 0.2, cfg.Temperature)

	t.Setenv("AIPEDIA_PORT", "6060")
	cfg, err = LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Port, "environment overrides the file")
}

func TestReadConfigFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	assert.NoError(t, ReadConfigFile(NewViper(), ""), "missing default file is ignored")
	assert.Error(t, ReadConfigFile(NewViper(), filepath.Join(t.TempDir(), "nope.yaml")))
}
