package app

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// TerminalNotifier prints styled notices, one per line.
type TerminalNotifier struct {
	out io.Writer
}

func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{out: out}
}

func (n *TerminalNotifier) Info(msg string) {
	fmt.Fprintln(n.out, infoStyle.Render(msg))
}

func (n *TerminalNotifier) Warn(msg string) {
	fmt.Fprintln(n.out, warnStyle.Render("⚠ "+msg))
}

func (n *TerminalNotifier) Error(msg string) {
	fmt.Fprintln(n.out, errorStyle.Render("✗ "+msg))
}
