package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hoanghonghuy/gitmsg/internal/gitx"
	"github.com/hoanghonghuy/gitmsg/internal/queue"
)

var ErrCommitCancelled = errors.New("commit cancelled by user")

// reportedError marks an error the user has already been shown.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// Options selects how a completed message is handled.
type Options struct {
	// HookFile is the commit message file of a prepare-commit-msg hook.
	HookFile string
	// Yes commits without asking.
	Yes bool
	// PrintOnly prints the message and never commits.
	PrintOnly bool
	// Spinner shows a spinner while waiting for the first fragment.
	Spinner bool
}

// Session runs generations for one or more repositories through a shared
// queue. The zero values of Confirm, Edit and Commit select the
// interactive forms and git.
type Session struct {
	Queue     *queue.Queue
	Generator *Generator
	Out       io.Writer

	Confirm func(ctx context.Context, msg string) (Action, error)
	Edit    func(ctx context.Context, msg string) (string, error)
	Commit  func(ctx context.Context, repoRoot, msg string) error

	Logger *slog.Logger
}

// RunAll submits one job per repository root concurrently and waits for all
// of them. The queue runs the jobs one at a time.
func (s *Session) RunAll(ctx context.Context, roots []string, opts Options) error {
	var eg errgroup.Group
	for _, root := range roots {
		root := root
		eg.Go(func() error {
			return s.Submit(ctx, root, opts)
		})
	}
	return eg.Wait()
}

// Submit enqueues a job for root and blocks until it has finished. A job
// skipped because ctx was cancelled while it waited is not an error, except
// in hook mode where the commit must not go ahead.
func (s *Session) Submit(ctx context.Context, root string, opts Options) error {
	err := s.Queue.Enqueue(ctx, func(ctx context.Context) error {
		return s.job(ctx, root, opts)
	})
	if errors.Is(err, context.Canceled) {
		s.logger().Info("generation skipped, run cancelled", "repo", gitx.RepoNameFromRoot(root))
		if opts.HookFile != "" {
			return ErrCommitCancelled
		}
		return nil
	}
	return err
}

func (s *Session) job(ctx context.Context, root string, opts Options) error {
	logger := s.logger().With("repo", gitx.RepoNameFromRoot(root), "root", root)
	for {
		repo, done := s.newRepository(root, opts)
		res := s.Generator.Run(ctx, repo)
		done()

		switch res.Status {
		case StatusCancelled:
			fmt.Fprintln(s.Out, "Generation cancelled.")
			if opts.HookFile != "" {
				return ErrCommitCancelled
			}
			return nil
		case StatusAborted, StatusFailed:
			return reportedError{res.Err}
		}

		// The sink already holds the final text.
		if opts.PrintOnly {
			return nil
		}

		msg := res.Text
		if opts.Yes {
			return s.apply(ctx, root, msg, opts)
		}

		regenerate, err := s.decide(ctx, root, msg, opts)
		if err != nil {
			return err
		}
		if !regenerate {
			return nil
		}
		logger.Debug("regenerating commit message")
		fmt.Fprintln(s.Out, "Regenerating...")
	}
}

// decide runs the confirm loop for msg. It returns true when the user asked
// for a new message.
func (s *Session) decide(ctx context.Context, root, msg string, opts Options) (bool, error) {
	for {
		action, err := s.confirm(ctx, msg)
		if err != nil {
			return false, err
		}

		switch action {
		case ActionCommit:
			return false, s.apply(ctx, root, msg, opts)
		case ActionEdit:
			edited, err := s.edit(ctx, msg)
			if err != nil {
				return false, err
			}
			msg = edited
		case ActionRegenerate:
			return true, nil
		default:
			fmt.Fprintln(s.Out, "Cancelled.")
			if opts.HookFile != "" {
				return false, ErrCommitCancelled
			}
			return false, nil
		}
	}
}

func (s *Session) apply(ctx context.Context, root, msg string, opts Options) error {
	if strings.TrimSpace(msg) == "" {
		return errors.New("empty commit message")
	}
	if opts.HookFile != "" {
		if err := NewHookFile(root, opts.HookFile).WriteText(msg); err != nil {
			return err
		}
		fmt.Fprintln(s.Out, "Message generated for git hook.")
		return nil
	}
	commit := s.Commit
	if commit == nil {
		commit = gitx.Commit
	}
	if err := commit(ctx, root, msg); err != nil {
		return err
	}
	fmt.Fprintln(s.Out, "Committed.")
	return nil
}

func (s *Session) newRepository(root string, opts Options) (Repository, func()) {
	if opts.HookFile != "" {
		return NewHookFile(root, opts.HookFile), func() {}
	}
	t := NewTerminal(root, s.Out, opts.Spinner)
	return t, t.Done
}

func (s *Session) confirm(ctx context.Context, msg string) (Action, error) {
	if s.Confirm != nil {
		return s.Confirm(ctx, msg)
	}
	return confirmCommitInteractive(ctx, s.Out, msg)
}

func (s *Session) edit(ctx context.Context, msg string) (string, error) {
	if s.Edit != nil {
		return s.Edit(ctx, msg)
	}
	return editCommitMessageInteractive(ctx, msg)
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// DumpPrompt writes the prompt that would be sent for root.
func DumpPrompt(ctx context.Context, w io.Writer, g *Generator, root string) error {
	p, err := g.Prompt(ctx, root)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, p)
	if err == nil && !strings.HasSuffix(p, "\n") {
		_, err = io.WriteString(w, "\n")
	}
	return err
}
