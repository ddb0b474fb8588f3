// Package console renders the human-facing progress narrative: the startup
// banner, bracketed status lines and the live counter shown while records
// are merged. It is purely cosmetic; all operational logging goes through
// the logger package.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

const banner = `
   ____  __  ______   __  ______  ____  ___  ____________
  / __ \/ / / /  _/  / / / / __ \/ __ \/   |/_  __/ ____/
 / / / / / / // /   / / / / /_/ / / / / /| | / / / __/
/ /_/ / /_/ // /   / /_/ / ____/ /_/ / ___ |/ / / /___
\____/\____/___/   \____/_/   /_____/_/  |_/_/ /_____/
`

// clearLine erases the current terminal line before a carriage return
// rewrite of the live progress counter.
const clearLine = "\r\x1b[K"

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Printer writes styled status lines to a single output stream.
type Printer struct {
	out io.Writer
}

// New returns a Printer writing to the provided stream, or stdout when nil.
func New(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}

	return &Printer{out: out}
}

// Banner prints the startup banner and tool title.
func (p *Printer) Banner(version string) {
	fmt.Fprintln(p.out, bannerStyle.Render(banner))
	fmt.Fprintf(p.out, "%s\n\n", titleStyle.Render(fmt.Sprintf("  ---===[ OUI UPDATER V%s ]===---", version)))
}

// Infof prints an informational status line.
func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.out, " [%s] %s\n", infoStyle.Render("*"), fmt.Sprintf(format, args...))
}

// Successf prints a success status line.
func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintf(p.out, " [%s] %s\n", successStyle.Render("+"), successStyle.Render(fmt.Sprintf(format, args...)))
}

// Errorf prints an error status line.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.out, " [%s] %s %s\n", errorStyle.Render("-"), errorStyle.Render("ERROR:"), fmt.Sprintf(format, args...))
}

// Progressf rewrites the current line in place, for live counters.
// Call ProgressDone to finish the line.
func (p *Printer) Progressf(format string, args ...any) {
	fmt.Fprintf(p.out, "%s [%s] %s", clearLine, infoStyle.Render("*"), fmt.Sprintf(format, args...))
}

// ProgressDone clears any live progress line and prints a final status.
func (p *Printer) ProgressDone(format string, args ...any) {
	fmt.Fprint(p.out, clearLine)
	p.Successf(format, args...)
}
