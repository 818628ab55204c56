package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/githubnext/sqlresult/pkg/console"
	"github.com/githubnext/sqlresult/pkg/parser"
)

// Output formats accepted by the parse command
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// recordView is a parsed record with its derived status and cells
type recordView struct {
	parser.SQLResult `yaml:",inline"`
	Status           parser.Status   `json:"status" yaml:"status"`
	Cells            parser.CellGrid `json:"cells,omitempty" yaml:"cells,omitempty"`
}

// parseReport is the document written by parse --format json|yaml
type parseReport struct {
	File     string       `json:"file" yaml:"file"`
	Records  []recordView `json:"records" yaml:"records"`
	Degraded int          `json:"degraded" yaml:"degraded"`
}

// ParseResultFile prints every record of a result file in the given format
func ParseResultFile(w io.Writer, resultPath, format string, verbose bool) error {
	content, err := os.ReadFile(resultPath)
	if err != nil {
		return fmt.Errorf("failed to read result file %s: %w", resultPath, err)
	}

	results := parser.ParseResultContent(string(content))
	if verbose {
		fmt.Fprintln(os.Stderr, console.FormatVerboseMessage(fmt.Sprintf("Parsed %d records from %s", results.Len(), console.ToRelativePath(resultPath))))
	}

	report := parseReport{
		File:     resultPath,
		Records:  make([]recordView, 0, results.Len()),
		Degraded: len(results.Degraded()),
	}
	for _, r := range results.Results() {
		report.Records = append(report.Records, recordView{
			SQLResult: *r,
			Status:    r.Status(),
			Cells:     r.Cells(),
		})
	}

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode records as JSON: %w", err)
		}
		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode records as YAML: %w", err)
		}
		return encoder.Close()
	case FormatTable, "":
		renderParseTable(w, report)
		return nil
	default:
		return fmt.Errorf("invalid format '%s'. Must be one of: %s, %s, %s", format, FormatTable, FormatJSON, FormatYAML)
	}
}

func renderParseTable(w io.Writer, report parseReport) {
	if len(report.Records) == 0 {
		fmt.Fprintln(w, console.FormatInfoMessage(fmt.Sprintf("No records found in %s", console.ToRelativePath(report.File))))
		return
	}

	rows := make([][]string, 0, len(report.Records))
	for _, r := range report.Records {
		rows = append(rows, []string{
			strconv.Itoa(r.LineNumber),
			string(r.Type),
			r.Status.String(),
			firstLine(r.SQLContent),
			issueSummary(r.Issues),
		})
	}

	fmt.Fprint(w, console.RenderTable(console.TableConfig{
		Title:   console.ToRelativePath(report.File),
		Headers: []string{"Line", "Type", "Status", "SQL", "Issues"},
		Rows:    rows,
	}))
	fmt.Fprintln(w, console.FormatCountMessage(fmt.Sprintf("%d records, %d degraded", len(report.Records), report.Degraded)))
}

// firstLine keeps table rows to a single physical line per statement
func firstLine(s string) string {
	line, rest, found := strings.Cut(s, "\n")
	if found && strings.TrimSpace(rest) != "" {
		return line + " …"
	}
	return line
}

func issueSummary(issues []parser.Issue) string {
	reasons := make([]string, 0, len(issues))
	for _, i := range issues {
		reasons = append(reasons, string(i.Reason))
	}
	return strings.Join(reasons, ", ")
}
