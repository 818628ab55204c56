package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/githubnext/sqlresult/pkg/console"
	"github.com/githubnext/sqlresult/pkg/parser"
)

// ListResultMarkers prints every #SQL marker of a result file with the
// physical line it sits on
func ListResultMarkers(w io.Writer, resultPath string, verbose bool) error {
	content, err := os.ReadFile(resultPath)
	if err != nil {
		return fmt.Errorf("failed to read result file %s: %w", resultPath, err)
	}

	markers := parser.ListMarkers(string(content))
	if len(markers) == 0 {
		fmt.Fprintln(w, console.FormatInfoMessage(fmt.Sprintf("No markers found in %s", console.ToRelativePath(resultPath))))
		return nil
	}

	rows := make([][]string, 0, len(markers))
	for _, m := range markers {
		rows = append(rows, []string{
			strconv.Itoa(m.ResultFileLine),
			strconv.Itoa(m.SourceLine),
			strconv.Itoa(m.SQLLength),
			string(m.Kind),
			m.Info,
			issueSummary(m.Issues),
		})
	}

	fmt.Fprint(w, console.RenderTable(console.TableConfig{
		Headers: []string{"Result Line", "SQL Line", "SQL Bytes", "Kind", "Info", "Issues"},
		Rows:    rows,
	}))
	if verbose {
		fmt.Fprintln(w, console.FormatCountMessage(fmt.Sprintf("%d markers", len(markers))))
	}
	return nil
}
