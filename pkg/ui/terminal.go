// Package ui prints styled status lines for the command line.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	cyan    = lipgloss.Color("#00FFFF")
	yellow  = lipgloss.Color("#FFFF00")
	red     = lipgloss.Color("#FF3B3B")
	green   = lipgloss.Color("#39FF14")
	magenta = lipgloss.Color("#FF00FF")
)

// Printer writes colored messages. Colors are dropped when the writer is
// not a terminal.
type Printer struct {
	out io.Writer

	label     lipgloss.Style
	value     lipgloss.Style
	errStyle  lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	highlight lipgloss.Style
}

// NewPrinter creates a Printer writing to w
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out:       w,
		label:     r.NewStyle().Foreground(cyan),
		value:     r.NewStyle().Foreground(yellow),
		errStyle:  r.NewStyle().Foreground(red).Bold(true),
		success:   r.NewStyle().Foreground(green),
		warning:   r.NewStyle().Foreground(yellow),
		highlight: r.NewStyle().Foreground(magenta).Bold(true),
	}
}

var std = NewPrinter(os.Stdout)

// PrintError prints an error message in red
func (p *Printer) PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(p.out, p.errStyle.Render(withDetail(msg, args)))
}

// PrintSuccess prints a success message in green
func (p *Printer) PrintSuccess(msg string) {
	fmt.Fprintln(p.out, p.success.Render(msg))
}

// PrintInfo prints a label and value
func (p *Printer) PrintInfo(label, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", p.label.Render(label), p.value.Render(value))
}

// PrintWarning prints a warning message in yellow
func (p *Printer) PrintWarning(msg string, args ...interface{}) {
	fmt.Fprintln(p.out, p.warning.Render(withDetail(msg, args)))
}

// PrintHighlight prints a highlighted message in magenta
func (p *Printer) PrintHighlight(msg string) {
	fmt.Fprintln(p.out, p.highlight.Render(msg))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf("%s: %v", msg, args[0])
	}
	return msg
}

func PrintError(msg string, args ...interface{})   { std.PrintError(msg, args...) }
func PrintSuccess(msg string)                     { std.PrintSuccess(msg) }
func PrintInfo(label, value string)               { std.PrintInfo(label, value) }
func PrintWarning(msg string, args ...interface{}) { std.PrintWarning(msg, args...) }
func PrintHighlight(msg string)                   { std.PrintHighlight(msg) }
