package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Terminal shows a run on a terminal: a spinner until the first fragment,
// then the message as it grows. Only the new suffix is printed while the
// text keeps extending; a rewrite prints the whole text again.
type Terminal struct {
	root string
	out  io.Writer

	mu      sync.Mutex
	spin    *spinner.Spinner
	shown   string
	started bool
}

// NewTerminal writes to out. withSpinner should be false when out is not
// an interactive terminal.
func NewTerminal(root string, out io.Writer, withSpinner bool) *Terminal {
	t := &Terminal{root: root, out: out}
	if withSpinner {
		t.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
		t.spin.Suffix = " Generating commit message..."
	}
	return t
}

func (t *Terminal) Root() string { return t.root }

func (t *Terminal) ClearText() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		if _, err := fmt.Fprintln(t.out); err != nil {
			return err
		}
	}
	t.shown = ""
	t.started = true
	if t.spin != nil {
		t.spin.Start()
	}
	return nil
}

func (t *Terminal) WriteText(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopSpinner()
	var err error
	if rest, ok := strings.CutPrefix(text, t.shown); ok {
		_, err = io.WriteString(t.out, rest)
	} else {
		_, err = fmt.Fprintf(t.out, "\n\n%s", text)
	}
	if err != nil {
		return err
	}
	t.shown = text
	return nil
}

// Done stops the spinner and ends the streamed line.
func (t *Terminal) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopSpinner()
	if t.shown != "" {
		fmt.Fprintln(t.out)
	}
}

func (t *Terminal) stopSpinner() {
	if t.spin != nil && t.spin.Active() {
		t.spin.Stop()
	}
}

// HookFile keeps the commit message file git passes to prepare-commit-msg
// in sync with the run: every write replaces the file content.
type HookFile struct {
	root string
	path string
}

func NewHookFile(root, path string) *HookFile {
	return &HookFile{root: root, path: path}
}

func (h *HookFile) Root() string { return h.root }

func (h *HookFile) WriteText(text string) error {
	if err := os.WriteFile(h.path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write hook file: %w", err)
	}
	return nil
}

func (h *HookFile) ClearText() error {
	return h.WriteText("")
}
