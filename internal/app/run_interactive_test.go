package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanghonghuy/gitmsg/internal/config"
)

func TestConfigFormAddsFirstProvider(t *testing.T) {
	cfg := config.FileConfig{MaxTitleLength: 72}
	v := formValuesFrom(cfg)
	assert.Equal(t, "title", v.Mode)
	assert.Equal(t, "info", v.LogLevel)

	v.Name = "deepseek"
	v.BaseURL = "https://api.deepseek.com"
	v.Model = "deepseek-chat"
	v.Language = " 中文 "
	v.MaxDiffTokens = "4000"

	got, err := v.apply(cfg)
	require.NoError(t, err)
	require.Len(t, got.Providers, 1)
	p, ok := got.Active()
	require.True(t, ok)
	assert.Equal(t, "deepseek-chat", p.Model)
	assert.Equal(t, "中文", got.Language)
	assert.Equal(t, 4000, got.MaxDiffTokens)
	assert.Empty(t, cfg.Providers, "input config is not modified")
}

func TestConfigFormUpdatesActiveProvider(t *testing.T) {
	var cfg config.FileConfig
	first, err := cfg.AddProvider("openai", "https://api.openai.com/v1", "gpt-4o-mini")
	require.NoError(t, err)
	second, err := cfg.AddProvider("local", "http://localhost:11434/v1", "llama3")
	require.NoError(t, err)
	_, err = cfg.SetActive(second.ID)
	require.NoError(t, err)

	v := formValuesFrom(cfg)
	assert.Equal(t, "local", v.Name)
	v.Model = "qwen2.5"
	v.Mode = "custom"
	v.Template = "{diff}"

	got, err := v.apply(cfg)
	require.NoError(t, err)
	require.Len(t, got.Providers, 2)
	assert.Equal(t, first, got.Providers[0])
	assert.Equal(t, "qwen2.5", got.Providers[1].Model)
	assert.Equal(t, "llama3", cfg.Providers[1].Model, "input config is not modified")
	assert.Equal(t, "custom", got.PromptMode)
	assert.Equal(t, "{diff}", got.PromptTemplate)
}

func TestConfigFormRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *configFormValues)
	}{
		{"non numeric title length", func(v *configFormValues) { v.MaxTitleLength = "abc" }},
		{"negative diff tokens", func(v *configFormValues) { v.MaxDiffTokens = "-5" }},
		{"bad base url", func(v *configFormValues) { v.Name, v.BaseURL, v.Model = "x", "not a url", "m" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := formValuesFrom(config.FileConfig{})
			tt.mutate(&v)
			_, err := v.apply(config.FileConfig{})
			assert.Error(t, err)
		})
	}
}

func TestValidateInt(t *testing.T) {
	assert.NoError(t, validateInt(" 12 "))
	assert.NoError(t, validateInt("0"))
	assert.Error(t, validateInt("-1"))
	assert.Error(t, validateInt("1.5"))
}
