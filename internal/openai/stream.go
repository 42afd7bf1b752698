package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Stream is the fragment sequence of one completion. It is not restartable.
type Stream struct {
	ctx    context.Context
	body   io.ReadCloser
	frames *frameReader

	closeOnce sync.Once
	err       error
}

func newStream(ctx context.Context, body io.ReadCloser) *Stream {
	return &Stream{
		ctx:    ctx,
		body:   body,
		frames: newFrameReader(body),
	}
}

// Recv returns the next non-empty fragment. It returns io.EOF after [DONE]
// or when the server closes the body, and ai.ErrCancelled once ctx is done.
// After the first error every call returns that same error.
func (s *Stream) Recv() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for {
		if s.ctx.Err() != nil {
			return "", s.finish(cancelled(s.ctx))
		}

		payload, err := s.frames.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", s.finish(io.EOF)
			}
			if s.ctx.Err() != nil {
				return "", s.finish(cancelled(s.ctx))
			}
			return "", s.finish(fmt.Errorf("read stream: %w", err))
		}

		if payload == doneSentinel {
			return "", s.finish(io.EOF)
		}
		if content, ok := deltaContent(payload); ok {
			return content, nil
		}
	}
}

// Close releases the connection. It is safe to call more than once and after
// Recv has already returned an error.
func (s *Stream) Close() error {
	if s.err == nil {
		s.err = io.EOF
	}
	return s.release()
}

func (s *Stream) finish(err error) error {
	s.err = err
	s.release()
	return err
}

func (s *Stream) release() error {
	var err error
	s.closeOnce.Do(func() { err = s.body.Close() })
	return err
}

// frameReader turns a byte stream into event payloads. Lines are framed on
// '\n' by bufio, so a multi-byte character split across two reads is only
// decoded once the whole line has arrived.
type frameReader struct {
	r *bufio.Reader
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: bufio.NewReader(r)}
}

// next returns the payload of the next "data: " line, skipping blank lines
// and other event fields. The final line is processed even without a
// trailing newline.
func (f *frameReader) next() (string, error) {
	for {
		raw, err := f.r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && raw != "") {
			return "", err
		}

		line := strings.TrimSpace(strings.ToValidUTF8(raw, "\uFFFD"))
		if payload, ok := strings.CutPrefix(line, dataPrefix); ok {
			return payload, nil
		}
		if err != nil {
			return "", err
		}
	}
}

type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// deltaContent extracts choices[0].delta.content. Payloads that are not JSON
// or carry no content are reported as !ok and skipped by the caller.
func deltaContent(payload string) (string, bool) {
	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return "", false
	}
	if len(c.Choices) == 0 || c.Choices[0].Delta.Content == "" {
		return "", false
	}
	return c.Choices[0].Delta.Content, true
}
