package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const (
	DefaultLanguage       = "English"
	DefaultMaxTitleLength = 72
	DefaultPromptMode     = "title"
	DefaultLogLevel       = "info"

	envPrefix = "GITMSG"
)

var ErrProviderNotFound = errors.New("provider not found")

// Provider is one OpenAI-compatible endpoint configuration.
type Provider struct {
	ID      string `json:"id" mapstructure:"id" validate:"required"`
	Name    string `json:"name" mapstructure:"name" validate:"required"`
	BaseURL string `json:"base_url" mapstructure:"base_url" validate:"required,url"`
	Model   string `json:"model" mapstructure:"model" validate:"required"`
}

type FileConfig struct {
	Providers      []Provider `json:"providers,omitempty" mapstructure:"providers" validate:"dive"`
	ActiveProvider string     `json:"active_provider,omitempty" mapstructure:"active_provider"`

	PromptMode     string `json:"prompt_mode,omitempty" mapstructure:"prompt_mode" validate:"omitempty,oneof=title summary detailed custom"`
	PromptTemplate string `json:"prompt_template,omitempty" mapstructure:"prompt_template"`
	Language       string `json:"language,omitempty" mapstructure:"language"`
	MaxTitleLength int    `json:"max_title_length" mapstructure:"max_title_length" validate:"gte=0"`
	MaxDiffTokens  int    `json:"max_diff_tokens,omitempty" mapstructure:"max_diff_tokens" validate:"gte=0"`

	LogLevel string `json:"log_level,omitempty" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// APIKey only comes from GITMSG_API_KEY and is never written back.
	APIKey string `json:"-" mapstructure:"api_key"`
}

// DefaultPath returns ~/.gitmsg.json, or a relative name when the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gitmsg.json"
	}
	return filepath.Join(home, ".gitmsg.json")
}

// Load reads the config file at path (DefaultPath when empty) and applies
// GITMSG_* environment overrides. A missing file yields the defaults.
func Load(path string) (FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetDefault("providers", []Provider{})
	v.SetDefault("active_provider", "")
	v.SetDefault("prompt_mode", DefaultPromptMode)
	v.SetDefault("prompt_template", "")
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("max_title_length", DefaultMaxTitleLength)
	v.SetDefault("max_diff_tokens", 0)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("api_key", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that the active provider exists.
func Validate(cfg FileConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.ActiveProvider != "" {
		if _, ok := cfg.FindProvider(cfg.ActiveProvider); !ok {
			return fmt.Errorf("invalid config: active_provider %q: %w", cfg.ActiveProvider, ErrProviderNotFound)
		}
	}
	return nil
}

// Save writes cfg as indented JSON, replacing the file atomically.
func Save(cfg FileConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// FindProvider looks a provider up by id, then by name.
func (c *FileConfig) FindProvider(ref string) (Provider, bool) {
	for _, p := range c.Providers {
		if p.ID == ref {
			return p, true
		}
	}
	for _, p := range c.Providers {
		if p.Name == ref {
			return p, true
		}
	}
	return Provider{}, false
}

// Active returns the active provider, if one is configured.
func (c *FileConfig) Active() (Provider, bool) {
	if c.ActiveProvider == "" {
		return Provider{}, false
	}
	return c.FindProvider(c.ActiveProvider)
}

// AddProvider appends a provider with a fresh id. The first provider added
// becomes the active one.
func (c *FileConfig) AddProvider(name, baseURL, model string) (Provider, error) {
	p := Provider{
		ID:      uuid.New().String(),
		Name:    name,
		BaseURL: baseURL,
		Model:   model,
	}
	if err := validate.Struct(p); err != nil {
		return Provider{}, fmt.Errorf("invalid provider: %w", err)
	}
	c.Providers = append(c.Providers, p)
	if len(c.Providers) == 1 {
		c.ActiveProvider = p.ID
	}
	return p, nil
}

// SetActive makes the referenced provider the active one.
func (c *FileConfig) SetActive(ref string) (Provider, error) {
	p, ok := c.FindProvider(ref)
	if !ok {
		return Provider{}, fmt.Errorf("%q: %w", ref, ErrProviderNotFound)
	}
	c.ActiveProvider = p.ID
	return p, nil
}

// RemoveProvider deletes the referenced provider. Removing the active one
// activates the first remaining provider, if any.
func (c *FileConfig) RemoveProvider(ref string) (Provider, error) {
	p, ok := c.FindProvider(ref)
	if !ok {
		return Provider{}, fmt.Errorf("%q: %w", ref, ErrProviderNotFound)
	}

	kept := c.Providers[:0]
	for _, q := range c.Providers {
		if q.ID != p.ID {
			kept = append(kept, q)
		}
	}
	c.Providers = kept

	if c.ActiveProvider == p.ID {
		c.ActiveProvider = ""
		if len(c.Providers) > 0 {
			c.ActiveProvider = c.Providers[0].ID
		}
	}
	return p, nil
}
