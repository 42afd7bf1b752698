package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hoanghonghuy/gitmsg/internal/app"
	"github.com/hoanghonghuy/gitmsg/internal/config"
	"github.com/hoanghonghuy/gitmsg/internal/gitx"
	"github.com/hoanghonghuy/gitmsg/internal/logging"
	"github.com/hoanghonghuy/gitmsg/internal/queue"
	"github.com/hoanghonghuy/gitmsg/internal/tokens"
)

var (
	cfgPath   string
	hookFile  string
	yes       bool
	printOnly bool
)

var rootCmd = &cobra.Command{
	Use:   "gitmsg [repo...]",
	Short: "Generate commit messages for staged changes with an OpenAI-compatible model",
	Long: `gitmsg reads the staged diff of each repository, asks the active provider
for a commit message and streams it to the terminal as it is written.
Repositories are processed one at a time in the order they were given.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
	rootCmd.Flags().StringVar(&hookFile, "hook", "", "write the message to this file (prepare-commit-msg mode)")
	rootCmd.Flags().BoolVarP(&yes, "yes", "y", false, "commit without asking")
	rootCmd.Flags().BoolVar(&printOnly, "print", false, "print the message and exit")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !app.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	roots, err := resolveRoots(ctx, args)
	if err != nil {
		return err
	}
	if hookFile != "" && len(roots) > 1 {
		return fmt.Errorf("--hook takes a single repository, got %d", len(roots))
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	session := &app.Session{
		Queue:     queue.New(slog.Default()),
		Generator: gen,
		Out:       os.Stdout,
	}
	return session.RunAll(ctx, roots, app.Options{
		HookFile:  hookFile,
		Yes:       yes,
		PrintOnly: printOnly,
		Spinner:   isTerminal(os.Stdout),
	})
}

// loadConfig loads the config and sets up logging from it. It exits on an
// invalid config since no command can run without one.
func loadConfig() config.FileConfig {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, os.Stderr)
	return cfg
}

func newGenerator(cfg config.FileConfig) (*app.Generator, error) {
	settings, err := config.NewSettings(cfg, config.NewSecretStore(""))
	if err != nil {
		return nil, err
	}

	var counter *tokens.Counter
	if cfg.MaxDiffTokens > 0 {
		model := ""
		if p, ok := cfg.Active(); ok {
			model = p.Model
		}
		if counter, err = tokens.NewCounter(model); err != nil {
			slog.Warn("tokenizer unavailable, estimating diff size from bytes", "error", err)
		}
	}

	return app.NewGenerator(app.Deps{
		Settings:      settings,
		VCS:           gitx.Client{},
		Prompter:      app.HuhPrompter{},
		Notifier:      app.NewTerminalNotifier(os.Stderr),
		Tokens:        counter,
		MaxDiffTokens: settings.MaxDiffTokens(),
		Logger:        slog.Default(),
	}), nil
}

func resolveRoots(ctx context.Context, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{""}
	}
	seen := make(map[string]bool, len(args))
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		root, err := gitx.ResolveRepoRoot(ctx, arg)
		if err != nil {
			return nil, err
		}
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
