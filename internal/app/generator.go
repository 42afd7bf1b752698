package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hoanghonghuy/gitmsg/internal/ai"
	"github.com/hoanghonghuy/gitmsg/internal/config"
	"github.com/hoanghonghuy/gitmsg/internal/openai"
	"github.com/hoanghonghuy/gitmsg/internal/prompt"
	"github.com/hoanghonghuy/gitmsg/internal/tokens"
)

var (
	ErrNoStagedChanges = errors.New("no staged changes")
	ErrNoProvider      = errors.New("no provider configured")
	ErrNoAPIKey        = errors.New("no API key")
)

const diffTruncatedMarker = "\n...[Diff truncated due to size]..."

// Settings is the configuration a run reads. It is consulted once per run.
type Settings interface {
	ActiveProvider() (config.Provider, bool)
	APIKey(providerID string) (string, error)
	SetAPIKey(providerID, apiKey string) error
	PromptTemplate() string
	Language() string
	MaxTitleLength() int
}

// VCS supplies the staged state of a repository.
type VCS interface {
	StagedDiff(ctx context.Context, repoRoot string) (string, error)
	StagedFiles(ctx context.Context, repoRoot string) (string, error)
	CurrentBranch(ctx context.Context, repoRoot string) (string, error)
}

// Repository is the part of a host repository a run needs: where it lives
// and where the generated text is shown. WriteText replaces the shown text.
type Repository interface {
	Root() string
	WriteText(text string) error
	ClearText() error
}

// KeyPrompter asks the user for a missing API key. An empty key with a nil
// error means the user declined.
type KeyPrompter interface {
	PromptAPIKey(ctx context.Context, provider config.Provider) (string, error)
}

// Notifier is the user-facing notice surface.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// StreamerFactory builds the completion client for one run.
type StreamerFactory func(p config.Provider, apiKey string) ai.Streamer

// OpenAIStreamer is the default StreamerFactory.
func OpenAIStreamer(logger *slog.Logger) StreamerFactory {
	return func(p config.Provider, apiKey string) ai.Streamer {
		return openai.New(openai.Config{
			BaseURL: p.BaseURL,
			APIKey:  apiKey,
			Model:   p.Model,
			Logger:  logger,
		})
	}
}

type Status int

const (
	StatusCompleted Status = iota
	StatusCancelled
	StatusAborted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result describes one finished run. Text is the final message for a
// completed run and the text accumulated so far otherwise.
type Result struct {
	RunID  string
	Status Status
	Text   string
	Err    error
}

type Deps struct {
	Settings Settings
	VCS      VCS
	Prompter KeyPrompter
	Notifier Notifier
	Streamer StreamerFactory

	// Tokens counts prompt tokens; nil falls back to a byte estimate.
	Tokens        *tokens.Counter
	MaxDiffTokens int

	Logger *slog.Logger
}

// Generator drives a single generation run end to end.
type Generator struct {
	settings      Settings
	vcs           VCS
	prompter      KeyPrompter
	notifier      Notifier
	streamer      StreamerFactory
	tokens        *tokens.Counter
	maxDiffTokens int
	logger        *slog.Logger
}

func NewGenerator(d Deps) *Generator {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	streamer := d.Streamer
	if streamer == nil {
		streamer = OpenAIStreamer(logger)
	}
	return &Generator{
		settings:      d.Settings,
		vcs:           d.VCS,
		prompter:      d.Prompter,
		notifier:      d.Notifier,
		streamer:      streamer,
		tokens:        d.Tokens,
		maxDiffTokens: d.MaxDiffTokens,
		logger:        logger,
	}
}

// Run generates a message for repo, streaming it into repo as it arrives.
// ctx is the cancellation token for the whole run. Failures are reported
// through the Notifier and returned in the Result, never as a panic or a
// separate error.
func (g *Generator) Run(ctx context.Context, repo Repository) Result {
	res := Result{RunID: uuid.New().String()}
	logger := g.logger.With("run_id", res.RunID, "repo", repo.Root())

	res.Text, res.Err = g.generate(ctx, repo, logger)

	switch err := res.Err; {
	case err == nil:
		res.Status = StatusCompleted
		logger.Debug("generation completed", "chars", len(res.Text))
	case errors.Is(err, ai.ErrCancelled) || ctx.Err() != nil:
		res.Status = StatusCancelled
		logger.Info("generation cancelled by user", "chars", len(res.Text))
	case errors.Is(err, ErrNoStagedChanges):
		res.Status = StatusAborted
		g.notifier.Warn("No staged changes. Run: git add <files>")
	case errors.Is(err, ErrNoProvider):
		res.Status = StatusAborted
		g.notifier.Error("No provider configured. Run: gitmsg provider add")
	case errors.Is(err, ErrNoAPIKey):
		res.Status = StatusAborted
		g.notifier.Warn("No API key entered, generation skipped")
	default:
		res.Status = StatusFailed
		logger.Error("generation failed", "error", err)
		g.notifier.Error("Generation failed: " + err.Error())
	}
	return res
}

func (g *Generator) generate(ctx context.Context, repo Repository, logger *slog.Logger) (string, error) {
	root := repo.Root()

	diff, err := g.stagedDiff(ctx, root)
	if err != nil {
		return "", err
	}

	provider, ok := g.settings.ActiveProvider()
	if !ok {
		return "", ErrNoProvider
	}
	apiKey, err := g.apiKey(ctx, provider)
	if err != nil {
		return "", err
	}

	p, err := g.buildPrompt(ctx, root, diff, logger)
	if err != nil {
		return "", err
	}

	if err := repo.ClearText(); err != nil {
		return "", fmt.Errorf("clear message: %w", err)
	}

	logger.Debug("generating commit message", "provider", provider.Name, "model", provider.Model)
	stream, err := g.streamer(provider, apiKey).Stream(ctx, p)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var state strings.Builder
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ai.ErrCancelled) {
			g.enforceTitle(repo, state.String())
			return state.String(), err
		}
		if err != nil {
			return state.String(), err
		}
		state.WriteString(fragment)
		if err := repo.WriteText(state.String()); err != nil {
			return state.String(), fmt.Errorf("write message: %w", err)
		}
	}

	return g.finish(repo, state.String())
}

// Prompt builds the prompt for root without contacting the model.
func (g *Generator) Prompt(ctx context.Context, root string) (string, error) {
	diff, err := g.stagedDiff(ctx, root)
	if err != nil {
		return "", err
	}
	return g.buildPrompt(ctx, root, diff, g.logger)
}

func (g *Generator) stagedDiff(ctx context.Context, root string) (string, error) {
	diff, err := g.vcs.StagedDiff(ctx, root)
	if err != nil {
		return "", fmt.Errorf("read staged diff: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		return "", ErrNoStagedChanges
	}
	return diff, nil
}

func (g *Generator) apiKey(ctx context.Context, provider config.Provider) (string, error) {
	key, err := g.settings.APIKey(provider.ID)
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	if key != "" {
		return key, nil
	}
	if g.prompter == nil {
		return "", ErrNoAPIKey
	}

	key, err = g.prompter.PromptAPIKey(ctx, provider)
	if err != nil {
		return "", fmt.Errorf("prompt for API key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrNoAPIKey
	}
	if err := g.settings.SetAPIKey(provider.ID, key); err != nil {
		return "", fmt.Errorf("save API key: %w", err)
	}
	return key, nil
}

func (g *Generator) buildPrompt(ctx context.Context, root, diff string, logger *slog.Logger) (string, error) {
	var files, branch string
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		files, err = g.vcs.StagedFiles(egCtx, root)
		if err != nil {
			return fmt.Errorf("list staged files: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		branch, err = g.vcs.CurrentBranch(egCtx, root)
		if err != nil {
			return fmt.Errorf("read current branch: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return "", err
	}

	if cut, truncated := g.tokens.Truncate(diff, g.maxDiffTokens); truncated {
		logger.Debug("diff truncated to token budget", "max_diff_tokens", g.maxDiffTokens)
		g.notifier.Info(fmt.Sprintf("Diff truncated to %d tokens", g.maxDiffTokens))
		diff = cut + diffTruncatedMarker
	}

	p := prompt.Build(g.settings.PromptTemplate(), prompt.Variables{
		Diff:   diff,
		Files:  files,
		Branch: strings.TrimSpace(branch),
		Lang:   g.settings.Language(),
	})
	logger.Debug("prompt built", "prompt_tokens", g.tokens.Count(p))
	return p, nil
}

// finish post-processes a completed message: a fenced reply is unwrapped,
// and an over-long title is cut to the limit with the body dropped.
func (g *Generator) finish(repo Repository, text string) (string, error) {
	if text == "" {
		return text, nil
	}

	out := text
	if strings.HasPrefix(strings.TrimSpace(text), "```") {
		if inner, ok := prompt.ExtractOneTextCodeBlock(text); ok {
			out = inner
		}
	}
	out, _ = EnforceTitleLength(out, g.settings.MaxTitleLength())

	if out != text {
		if err := repo.WriteText(out); err != nil {
			return text, fmt.Errorf("write message: %w", err)
		}
	}
	return out, nil
}

// enforceTitle cuts an over-long title in the sink after a cancelled run.
// The accumulated text itself is kept as received.
func (g *Generator) enforceTitle(repo Repository, text string) {
	if out, changed := EnforceTitleLength(text, g.settings.MaxTitleLength()); changed {
		if err := repo.WriteText(out); err != nil {
			g.logger.Warn("write truncated title after cancellation", "error", err)
		}
	}
}

// EnforceTitleLength returns the first line cut to max characters when it
// is longer than that; subsequent lines are dropped in that case. Otherwise
// text is returned unchanged. max <= 0 disables the check.
func EnforceTitleLength(text string, max int) (string, bool) {
	if max <= 0 {
		return text, false
	}
	title, _, _ := strings.Cut(text, "\n")
	r := []rune(title)
	if len(r) <= max {
		return text, false
	}
	return string(r[:max]), true
}
