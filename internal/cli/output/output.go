// Package output writes user-facing CLI text.
//
// Styling is applied only when the output is a terminal; piped output and
// tests get plain text.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styles holds the lipgloss styles used by the CLI.
type Styles struct {
	Banner  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// Palette
var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
)

// NewStyles creates styles bound to r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Banner:  r.NewStyle().Bold(true).Foreground(colorAccent),
		Success: r.NewStyle().Foreground(colorGreen),
		Error:   r.NewStyle().Bold(true).Foreground(colorRed),
		Muted:   r.NewStyle().Foreground(colorMuted),
	}
}

// Renderer writes command output and diagnostics.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	Styles Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer) *Renderer {
	return NewRendererWithTTY(out, errOut, IsTerminal(out))
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool) *Renderer {
	lr := lipgloss.NewRenderer(out)
	if isTTY {
		lr.SetColorProfile(termenv.NewOutput(out).EnvColorProfile())
	} else {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		isTTY:  isTTY,
		Styles: NewStyles(lr),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// IsTTY reports whether the renderer writes to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Out returns the standard output writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// ErrOut returns the diagnostics writer.
func (r *Renderer) ErrOut() io.Writer {
	return r.errOut
}

// Println writes a plain line to standard output.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Result writes a command reply. Replies already end with a newline when
// they are tables, so none is added twice.
func (r *Renderer) Result(s string) {
	if s == "" {
		return
	}
	if s[len(s)-1] == '\n' {
		_, _ = io.WriteString(r.out, s)
		return
	}
	_, _ = fmt.Fprintln(r.out, s)
}

// Success writes a styled confirmation line.
func (r *Renderer) Success(s string) {
	_, _ = fmt.Fprintln(r.out, r.Styles.Success.Render(s))
}

// Banner writes the session banner followed by a muted hint.
func (r *Renderer) Banner(title, hint string) {
	_, _ = fmt.Fprintln(r.out, r.Styles.Banner.Render(title))
	if hint != "" {
		_, _ = fmt.Fprintln(r.out, r.Styles.Muted.Render(hint))
	}
}

// Error writes "Error: ..." to the error writer.
func (r *Renderer) Error(err error) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles.Error.Render("Error:")+" "+err.Error())
}

// Muted writes a dimmed line to standard output.
func (r *Renderer) Muted(s string) {
	_, _ = fmt.Fprintln(r.out, r.Styles.Muted.Render(s))
}
