package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hoanghonghuy/gitmsg/internal/config"
	"github.com/hoanghonghuy/gitmsg/internal/prompt"
)

// configFormValues holds the editable fields of the config form as the
// form binds them.
type configFormValues struct {
	Name    string
	BaseURL string
	Model   string
	APIKey  string

	Mode           string
	Template       string
	Language       string
	MaxTitleLength string
	MaxDiffTokens  string
	LogLevel       string
}

func formValuesFrom(cfg config.FileConfig) configFormValues {
	v := configFormValues{
		Mode:           cfg.PromptMode,
		Template:       cfg.PromptTemplate,
		Language:       cfg.Language,
		MaxTitleLength: strconv.Itoa(cfg.MaxTitleLength),
		MaxDiffTokens:  strconv.Itoa(cfg.MaxDiffTokens),
		LogLevel:       cfg.LogLevel,
	}
	if p, ok := cfg.Active(); ok {
		v.Name, v.BaseURL, v.Model = p.Name, p.BaseURL, p.Model
	}
	if v.Mode == "" {
		v.Mode = config.DefaultPromptMode
	}
	if v.LogLevel == "" {
		v.LogLevel = config.DefaultLogLevel
	}
	return v
}

// apply writes the form values into cfg. The active provider is updated in
// place, or added when none exists and a name was given.
func (v configFormValues) apply(cfg config.FileConfig) (config.FileConfig, error) {
	maxTitle, err := strconv.Atoi(strings.TrimSpace(v.MaxTitleLength))
	if err != nil {
		return cfg, fmt.Errorf("max title length: %w", err)
	}
	maxDiff, err := strconv.Atoi(strings.TrimSpace(v.MaxDiffTokens))
	if err != nil {
		return cfg, fmt.Errorf("max diff tokens: %w", err)
	}

	cfg.Providers = append([]config.Provider(nil), cfg.Providers...)
	name := strings.TrimSpace(v.Name)
	baseURL := strings.TrimSpace(v.BaseURL)
	model := strings.TrimSpace(v.Model)
	if active, ok := cfg.Active(); ok {
		for i := range cfg.Providers {
			if cfg.Providers[i].ID == active.ID {
				cfg.Providers[i].Name = name
				cfg.Providers[i].BaseURL = baseURL
				cfg.Providers[i].Model = model
			}
		}
	} else if name != "" {
		p, err := cfg.AddProvider(name, baseURL, model)
		if err != nil {
			return cfg, err
		}
		cfg.ActiveProvider = p.ID
	}

	cfg.PromptMode = v.Mode
	cfg.PromptTemplate = v.Template
	cfg.Language = strings.TrimSpace(v.Language)
	cfg.MaxTitleLength = maxTitle
	cfg.MaxDiffTokens = maxDiff
	cfg.LogLevel = v.LogLevel

	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a whole number")
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// RunConfigForm edits cfg in a TUI form. It returns the updated config and
// the API key typed for the active provider ("" keeps the stored one).
// ok is false when the user aborted the form.
func RunConfigForm(ctx context.Context, cfg config.FileConfig, path string) (config.FileConfig, string, bool, error) {
	v := formValuesFrom(cfg)

	modeOptions := make([]huh.Option[string], 0, len(prompt.ModeNames()))
	for _, name := range prompt.ModeNames() {
		modeOptions = append(modeOptions, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("gitmsg Configuration").
				Description("Update your settings in "+path),

			huh.NewInput().
				Title("Provider Name").
				Description("Label for this endpoint").
				Placeholder("openai").
				Value(&v.Name),

			huh.NewInput().
				Title("Base URL").
				Description("OpenAI-compatible endpoint; /chat/completions is appended").
				Placeholder("https://api.openai.com/v1 or http://localhost:11434/v1").
				Value(&v.BaseURL),

			huh.NewInput().
				Title("Model").
				Suggestions([]string{"gpt-4o-mini", "gpt-4o", "glm-4", "deepseek-chat", "llama3"}).
				Value(&v.Model),

			huh.NewInput().
				Title("API Key").
				Description("Leave empty to keep the stored key").
				EchoMode(huh.EchoModePassword).
				Value(&v.APIKey),
		),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Prompt Mode").
				Options(modeOptions...).
				Value(&v.Mode),

			huh.NewInput().
				Title("Language").
				Description("Language the message is written in").
				Value(&v.Language),

			huh.NewInput().
				Title("Max Title Length").
				Description("0 disables the limit").
				Value(&v.MaxTitleLength).
				Validate(validateInt),

			huh.NewInput().
				Title("Max Diff Tokens").
				Description("0 sends the whole diff").
				Value(&v.MaxDiffTokens).
				Validate(validateInt),

			huh.NewSelect[string]().
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&v.LogLevel),
		),

		huh.NewGroup(
			huh.NewText().
				Title("Custom Prompt Template").
				Description("Placeholders: {diff} {files} {branch} {lang}").
				Value(&v.Template),
		).WithHideFunc(func() bool { return v.Mode != prompt.ModeCustom.String() }),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return cfg, "", false, nil
		}
		return cfg, "", false, err
	}

	updated, err := v.apply(cfg)
	if err != nil {
		return cfg, "", false, err
	}
	return updated, strings.TrimSpace(v.APIKey), true, nil
}

// HuhPrompter asks for a missing API key with a password field.
type HuhPrompter struct{}

func (HuhPrompter) PromptAPIKey(ctx context.Context, p config.Provider) (string, error) {
	var key string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("API key for %s", p.Name)).
				Description(fmt.Sprintf("%s (%s)", p.BaseURL, p.Model)).
				EchoMode(huh.EchoModePassword).
				Value(&key),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return key, nil
}

// Action is the user's choice after a message was generated.
type Action int

const (
	ActionCommit Action = iota
	ActionRegenerate
	ActionEdit
	ActionCancel
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))
	messageBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			MarginBottom(1)
)

// RenderMessage draws the final message in a box.
func RenderMessage(w io.Writer, msg string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Generated Commit Message:"))
	fmt.Fprintln(w, messageBox.Render(strings.TrimSpace(msg)))
}

func confirmCommitInteractive(ctx context.Context, w io.Writer, msg string) (Action, error) {
	RenderMessage(w, msg)

	selected := ActionCommit
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Action]().
				Title("What would you like to do?").
				Options(
					huh.NewOption("Commit (Apply)", ActionCommit),
					huh.NewOption("Regenerate", ActionRegenerate),
					huh.NewOption("Edit", ActionEdit),
					huh.NewOption("Cancel", ActionCancel),
				).
				Value(&selected),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ActionCancel, nil
		}
		return ActionCancel, err
	}
	return selected, nil
}

func editCommitMessageInteractive(ctx context.Context, initial string) (string, error) {
	content := initial
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Edit Commit Message").
				Description("Modify the message, then submit").
				Value(&content),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return initial, nil
		}
		return "", err
	}
	return content, nil
}
