package config

import (
	"github.com/hoanghonghuy/gitmsg/internal/prompt"
)

// Settings serves a loaded FileConfig and the secret store to a generation
// run. It is read once per run; nothing here mutates the config file.
type Settings struct {
	cfg     FileConfig
	mode    prompt.Mode
	secrets *SecretStore
}

// NewSettings parses the prompt mode up front so an unknown mode fails at
// startup instead of mid-run.
func NewSettings(cfg FileConfig, secrets *SecretStore) (*Settings, error) {
	mode, err := prompt.ParseMode(cfg.PromptMode)
	if err != nil {
		return nil, err
	}
	return &Settings{cfg: cfg, mode: mode, secrets: secrets}, nil
}

func (s *Settings) ActiveProvider() (Provider, bool) {
	return s.cfg.Active()
}

// APIKey prefers GITMSG_API_KEY for the active provider, then the secret
// store. It returns "" when no key is known.
func (s *Settings) APIKey(providerID string) (string, error) {
	if s.cfg.APIKey != "" && providerID == s.cfg.ActiveProvider {
		return s.cfg.APIKey, nil
	}
	return s.secrets.Get(providerID)
}

func (s *Settings) SetAPIKey(providerID, apiKey string) error {
	return s.secrets.Set(providerID, apiKey)
}

func (s *Settings) PromptMode() prompt.Mode {
	return s.mode
}

func (s *Settings) PromptTemplate() string {
	return prompt.Template(s.mode, s.cfg.PromptTemplate)
}

func (s *Settings) Language() string {
	if s.cfg.Language == "" {
		return DefaultLanguage
	}
	return s.cfg.Language
}

func (s *Settings) MaxTitleLength() int {
	return s.cfg.MaxTitleLength
}

func (s *Settings) MaxDiffTokens() int {
	return s.cfg.MaxDiffTokens
}
