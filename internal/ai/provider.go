package ai

import (
	"context"
	"errors"
)

// ErrCancelled is returned by a FragmentStream when the caller's context was
// cancelled. It is an outcome, not a failure: callers stop quietly and keep
// whatever text they already received.
var ErrCancelled = errors.New("generation cancelled")

// FragmentStream is a pull-based sequence of generated text fragments.
// Recv returns io.EOF once the model has finished.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

// Streamer opens a streaming completion for a single prompt.
type Streamer interface {
	// Stream sends the prompt and returns the fragment sequence. ctx is the
	// cancellation token for the whole stream, not only the request.
	Stream(ctx context.Context, prompt string) (FragmentStream, error)
}
