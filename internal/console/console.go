// Package console prints human progress narration for deploy runs.
//
// Narration is advisory. The process exit status is the only contract, and structured
// logs go through internal/log.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Console writes styled single-line messages to one writer.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	info    lipgloss.Style
	comment lipgloss.Style
	err     lipgloss.Style
}

// New creates a Console writing to w. Colour is only emitted when w is a terminal.
func New(w io.Writer) *Console {
	if w == nil {
		w = io.Discard
	}
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:       w,
		info:    r.NewStyle().Foreground(lipgloss.Color("2")),
		comment: r.NewStyle().Foreground(lipgloss.Color("3")),
		err:     r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// Discard returns a Console that prints nothing.
func Discard() *Console {
	return New(io.Discard)
}

// Info prints a progress line.
func (c *Console) Info(format string, args ...any) {
	c.line(c.info, format, args...)
}

// Comment prints a secondary line, such as a command about to run.
func (c *Console) Comment(format string, args ...any) {
	c.line(c.comment, format, args...)
}

// Error prints a failure line.
func (c *Console) Error(format string, args ...any) {
	c.line(c.err, format, args...)
}

// Plain prints an unstyled line. Used for machine-readable output.
func (c *Console) Plain(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format+"\n", args...)
}

// Writer returns the underlying writer, for streaming subprocess output.
func (c *Console) Writer() io.Writer {
	return c.w
}

func (c *Console) line(style lipgloss.Style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, style.Render(msg))
}
