// Package hover renders the hover text shown for a SQL statement: the
// expected result table, the expected error, or a note that the statement
// produced no output.
package hover

import (
	"fmt"
	"strings"

	"github.com/githubnext/sqlresult/pkg/parser"
)

// NoDataPlaceholder is rendered in place of a table with no header
const NoDataPlaceholder = "*No data*"

// Options controls hover generation
type Options struct {
	// ShowContent includes result and error bodies. When false no hover is produced.
	ShowContent bool
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{ShowContent: true}
}

// Generate builds the markdown (with embedded HTML) hover for a record.
// The boolean is false when there is nothing to show.
func Generate(r *parser.SQLResult, opts Options) (string, bool) {
	if r == nil || !opts.ShowContent {
		return "", false
	}

	var md strings.Builder

	switch r.Type {
	case parser.ResultTypeResult:
		if r.ResultContent == "" {
			return "", false
		}
		grid := r.Cells()
		if len(grid) > 0 {
			md.WriteString(TableHTML(grid))
		} else {
			md.WriteString("\nExpected result:\n")
			md.WriteString(CodeBlock(r.ResultContent, "text"))
		}
	case parser.ResultTypeError:
		if r.ErrorContent == "" {
			return "", false
		}
		md.WriteString("\nExpected error:\n")
		md.WriteString(CodeBlock(r.ErrorContent, "text"))
	case parser.ResultTypeEmpty:
		md.WriteString("\nExpected result: empty\n")
	default:
		return "", false
	}

	return md.String(), true
}

// TableHTML renders a cell grid as an HTML table. The first row is the header.
func TableHTML(grid parser.CellGrid) string {
	headers := grid.Header()
	if len(headers) == 0 {
		return NoDataPlaceholder
	}

	var html strings.Builder
	html.WriteString("<table border=\"1\" cellpadding=\"8\" cellspacing=\"0\">\n")
	html.WriteString("<thead>\n<tr>\n")
	for _, header := range headers {
		fmt.Fprintf(&html, "<th bgcolor=\"#f0f0f0\">%s</th>\n", EscapeHTML(header))
	}
	html.WriteString("</tr>\n</thead>\n")

	html.WriteString("<tbody>\n")
	for _, row := range grid.Rows() {
		html.WriteString("<tr>\n")
		for _, cell := range row {
			if strings.Contains(cell, "\n") {
				// Keep multi-line values (JSON documents, plans) unwrapped
				fmt.Fprintf(&html, "<td><pre style=\"white-space: pre; overflow-x: auto;\">%s</pre></td>\n", EscapeHTML(cell))
			} else {
				fmt.Fprintf(&html, "<td>%s</td>\n", EscapeHTML(cell))
			}
		}
		html.WriteString("</tr>\n")
	}
	html.WriteString("</tbody>\n")
	html.WriteString("</table>")

	return html.String()
}

// CodeBlock wraps text in a fenced block long enough not to collide with
// backtick runs inside the text
func CodeBlock(text, language string) string {
	fence := "```"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	return fmt.Sprintf("\n%s%s\n%s\n%s\n", fence, language, text, fence)
}

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&#39;",
	"\n", "<br>",
)

// EscapeHTML escapes text for an HTML cell, turning line breaks into <br>
func EscapeHTML(text string) string {
	return htmlReplacer.Replace(text)
}

var markdownReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"|", "\\|",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"#", "\\#",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeMarkdown escapes inline markdown syntax
func EscapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}
