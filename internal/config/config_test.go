package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanghonghuy/gitmsg/internal/prompt"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultLanguage, cfg.Language)
	assert.Equal(t, DefaultMaxTitleLength, cfg.MaxTitleLength)
	assert.Equal(t, DefaultPromptMode, cfg.PromptMode)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.Providers)

	_, ok := cfg.Active()
	assert.False(t, ok)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitmsg.json")
	writeFile(t, path, `{
  "providers": [
    {"id": "p1", "name": "zhipu", "base_url": "https://open.bigmodel.cn/api/paas/v4", "model": "glm-4"}
  ],
  "active_provider": "p1",
  "prompt_mode": "summary",
  "language": "中文",
  "max_title_length": 50
}`)

	t.Setenv("GITMSG_LANGUAGE", "Deutsch")
	t.Setenv("GITMSG_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	p, ok := cfg.Active()
	require.True(t, ok)
	assert.Equal(t, "zhipu", p.Name)
	assert.Equal(t, "glm-4", p.Model)
	assert.Equal(t, "summary", cfg.PromptMode)
	assert.Equal(t, 50, cfg.MaxTitleLength)
	assert.Equal(t, "Deutsch", cfg.Language)
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad base url", `{"providers":[{"id":"p","name":"n","base_url":"not a url","model":"m"}]}`},
		{"missing model", `{"providers":[{"id":"p","name":"n","base_url":"https://x.io"}]}`},
		{"unknown mode", `{"prompt_mode":"verbose"}`},
		{"negative title length", `{"max_title_length":-1}`},
		{"unknown log level", `{"log_level":"trace"}`},
		{"dangling active provider", `{"active_provider":"nope"}`},
		{"not json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "gitmsg.json")
			writeFile(t, path, tt.content)

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestProviderManagement(t *testing.T) {
	var cfg FileConfig

	a, err := cfg.AddProvider("openai", "https://api.openai.com/v1", "gpt-4o-mini")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, a.ID, cfg.ActiveProvider, "first provider becomes active")

	b, err := cfg.AddProvider("local", "http://localhost:11434", "llama3")
	require.NoError(t, err)
	assert.Equal(t, a.ID, cfg.ActiveProvider)

	_, err = cfg.AddProvider("broken", "::", "m")
	assert.Error(t, err)
	assert.Len(t, cfg.Providers, 2)

	got, err := cfg.SetActive("local")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.ID, cfg.ActiveProvider)

	_, err = cfg.SetActive("missing")
	assert.ErrorIs(t, err, ErrProviderNotFound)

	_, err = cfg.RemoveProvider(b.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, cfg.ActiveProvider, "removing the active provider activates the first remaining")

	_, err = cfg.RemoveProvider("openai")
	require.NoError(t, err)
	assert.Empty(t, cfg.ActiveProvider)
	assert.Empty(t, cfg.Providers)

	_, err = cfg.RemoveProvider("openai")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gitmsg.json")

	cfg := FileConfig{MaxTitleLength: 60, PromptMode: "detailed", APIKey: "must-not-persist"}
	_, err := cfg.AddProvider("openai", "https://api.openai.com", "gpt-4o")
	require.NoError(t, err)
	require.NoError(t, Save(cfg, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "must-not-persist")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Providers, loaded.Providers)
	assert.Equal(t, cfg.ActiveProvider, loaded.ActiveProvider)
	assert.Equal(t, 60, loaded.MaxTitleLength)
	assert.Equal(t, "detailed", loaded.PromptMode)
}

func TestSecretStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.json")
	store := NewSecretStore(path)

	got, err := store.Get("p1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set("p1", "sk-1"))
	require.NoError(t, store.Set("p2", "sk-2"))

	got, err = store.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, "sk-1", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, store.Delete("p1"))
	got, err = store.Get("p1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NewSecretStore(path).Get("p2")
	require.NoError(t, err)
	assert.Equal(t, "sk-2", got)
}

func TestSecretStoreToleratesNullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	writeFile(t, path, "null")
	store := NewSecretStore(path)

	got, err := store.Get("p1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set("p1", "sk-1"))
	got, err = store.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, "sk-1", got)

	writeFile(t, path, "null")
	assert.NoError(t, store.Delete("p1"))
}

func TestSettings(t *testing.T) {
	store := NewSecretStore(filepath.Join(t.TempDir(), "credentials.json"))

	var cfg FileConfig
	p, err := cfg.AddProvider("openai", "https://api.openai.com", "gpt-4o")
	require.NoError(t, err)
	other, err := cfg.AddProvider("other", "https://other.example.com", "m")
	require.NoError(t, err)
	cfg.PromptMode = "custom"
	cfg.PromptTemplate = "{lang}: {diff}"
	cfg.MaxTitleLength = 72

	s, err := NewSettings(cfg, store)
	require.NoError(t, err)

	active, ok := s.ActiveProvider()
	require.True(t, ok)
	assert.Equal(t, p.ID, active.ID)
	assert.Equal(t, prompt.ModeCustom, s.PromptMode())
	assert.Equal(t, "{lang}: {diff}", s.PromptTemplate())
	assert.Equal(t, DefaultLanguage, s.Language())
	assert.Equal(t, 72, s.MaxTitleLength())

	key, err := s.APIKey(p.ID)
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, s.SetAPIKey(p.ID, "stored"))
	key, err = s.APIKey(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "stored", key)

	cfg.APIKey = "from-env"
	s, err = NewSettings(cfg, store)
	require.NoError(t, err)
	key, err = s.APIKey(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	key, err = s.APIKey(other.ID)
	require.NoError(t, err)
	assert.Empty(t, key, "env key only applies to the active provider")

	cfg.PromptMode = "bogus"
	_, err = NewSettings(cfg, store)
	assert.Error(t, err)
}
