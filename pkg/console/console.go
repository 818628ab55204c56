package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ErrorPosition represents a position in a source file
type ErrorPosition struct {
	File   string
	Line   int
	Column int
}

// SourceError is an error tied to a position in a file, rendered with the
// surrounding lines
type SourceError struct {
	Position ErrorPosition
	Type     string // "error", "warning", "info"
	Message  string
	Context  []string // Source lines centered on Position.Line
	Hint     string
}

// Dracula palette
const (
	colorRed     = "#FF5555"
	colorOrange  = "#FFB86C"
	colorCyan    = "#8BE9FD"
	colorGreen   = "#50FA7B"
	colorPurple  = "#BD93F9"
	colorComment = "#6272A4"
	colorFG      = "#F8F8F2"
	colorBG      = "#282A36"
)

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func bold(color string) lipgloss.Style {
	return fg(color).Bold(true)
}

var (
	locationStyle = bold(colorPurple)
	gutterStyle   = fg(colorComment)
	sourceStyle   = fg(colorFG)
	markStyle     = lipgloss.NewStyle().Background(lipgloss.Color(colorRed)).Foreground(lipgloss.Color(colorBG))
	noteStyle     = fg(colorGreen).Italic(true)
)

// severity describes how one SourceError type is labelled and colored
type severity struct {
	label string
	style lipgloss.Style
}

var severities = map[string]severity{
	"error":   {"error", bold(colorRed)},
	"warning": {"warning", bold(colorOrange)},
	"info":    {"info", bold(colorCyan)},
}

func severityOf(kind string) severity {
	if s, ok := severities[kind]; ok {
		return s
	}
	return severities["error"]
}

// isTTY checks if stdout is a terminal
func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// IsTerminal reports whether stdout is a terminal
func IsTerminal() bool {
	return isTTY()
}

// applyStyle renders text with style only when stdout is a terminal
func applyStyle(style lipgloss.Style, text string) string {
	if !isTTY() {
		return text
	}
	return style.Render(text)
}

// ToRelativePath shortens an absolute path relative to the working directory.
// Relative paths and paths that cannot be made relative are returned as is.
func ToRelativePath(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	if wd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(wd, path); err == nil {
			return rel
		}
	}
	return path
}

// FormatError renders a SourceError as file:line:column: type: message,
// followed by context lines and an optional hint
func FormatError(err SourceError) string {
	sev := severityOf(err.Type)
	pos := err.Position

	var b strings.Builder
	if pos.File != "" {
		loc := fmt.Sprintf("%s:%d:%d:", ToRelativePath(pos.File), pos.Line, pos.Column)
		b.WriteString(applyStyle(locationStyle, loc) + " ")
	}
	fmt.Fprintf(&b, "%s %s\n", applyStyle(sev.style, sev.label+":"), err.Message)

	if pos.Line > 0 && len(err.Context) > 0 {
		b.WriteString(renderContext(err))
	}
	if err.Hint != "" {
		fmt.Fprintf(&b, "\n%s%s\n", applyStyle(noteStyle, "hint: "), err.Hint)
	}
	return b.String()
}

// renderContext prints the numbered context window. The line at
// Position.Line is highlighted and, with a column, followed by a caret.
func renderContext(err SourceError) string {
	pos := err.Position
	first := pos.Line - len(err.Context)/2
	width := len(strconv.Itoa(first + len(err.Context) - 1))

	var b strings.Builder
	for i, text := range err.Context {
		n := first + i
		if n < 1 {
			continue
		}
		b.WriteString(applyStyle(gutterStyle, fmt.Sprintf("%*d", width, n)) + " | ")
		if n != pos.Line {
			b.WriteString(applyStyle(sourceStyle, text) + "\n")
			continue
		}
		b.WriteString(markColumn(text, pos.Column) + "\n")
		if pos.Column > 0 {
			pad := strings.Repeat(" ", width+3+pos.Column-1)
			b.WriteString(pad + applyStyle(severities["error"].style, "^") + "\n")
		}
	}
	return b.String()
}

// markColumn highlights the byte at the 1-based column, or the whole line
// when the column falls outside it
func markColumn(text string, col int) string {
	if col < 1 || col > len(text) {
		return applyStyle(markStyle, text)
	}
	return applyStyle(sourceStyle, text[:col-1]) +
		applyStyle(markStyle, text[col-1:col]) +
		applyStyle(sourceStyle, text[col:])
}

func prefixed(style lipgloss.Style, icon, message string) string {
	return applyStyle(style, icon+" ") + message
}

// FormatSuccessMessage formats a success message with styling
func FormatSuccessMessage(message string) string {
	return prefixed(bold(colorGreen), "✓", message)
}

// FormatInfoMessage formats an informational message
func FormatInfoMessage(message string) string {
	return prefixed(severities["info"].style, "ℹ", message)
}

// FormatWarningMessage formats a warning message
func FormatWarningMessage(message string) string {
	return prefixed(severities["warning"].style, "⚠", message)
}

// FormatErrorMessage formats a one-line error for stderr
func FormatErrorMessage(message string) string {
	return prefixed(severities["error"].style, "✗", message)
}

// FormatVerboseMessage formats verbose debugging output
func FormatVerboseMessage(message string) string {
	return prefixed(gutterStyle.Italic(true), "🔍", message)
}

// FormatLocationMessage formats a file:line location
func FormatLocationMessage(message string) string {
	return prefixed(bold(colorOrange), "📁", message)
}

// FormatCountMessage formats a count or other numeric status
func FormatCountMessage(message string) string {
	return prefixed(bold(colorCyan), "📊", message)
}

// FormatListHeader formats a section header
func FormatListHeader(header string) string {
	return applyStyle(bold(colorGreen).Underline(true), header)
}

// FormatListItem formats a bulleted list item
func FormatListItem(item string) string {
	return applyStyle(sourceStyle, "  • "+item)
}
