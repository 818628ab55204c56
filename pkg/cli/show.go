package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/console"
	"github.com/githubnext/sqlresult/pkg/hover"
	"github.com/githubnext/sqlresult/pkg/parser"
	"github.com/githubnext/sqlresult/pkg/provider"
)

// Output formats accepted by the show command
const (
	FormatTerminal = "terminal"
	FormatMarkdown = "markdown"
)

// ShowResult prints the recorded outcome of the statement on a line of a
// SQL file
func ShowResult(w io.Writer, cfg config.Config, sqlPath string, line int, format string, verbose bool) error {
	p, _, err := newProvider(cfg, verbose)
	if err != nil {
		return err
	}

	switch format {
	case FormatMarkdown:
		md, err := p.Hover(sqlPath, line)
		if err != nil {
			return err
		}
		if md == "" {
			fmt.Fprintln(os.Stderr, console.FormatInfoMessage("Nothing to show for this line"))
			return nil
		}
		if r, err := p.ResultAt(sqlPath, line); err == nil {
			fmt.Fprintf(w, "**Line %d:** %s\n", r.LineNumber, hover.EscapeMarkdown(firstLine(r.SQLContent)))
		}
		fmt.Fprintln(w, md)
		return nil
	case FormatTerminal, "":
		if !cfg.Enabled {
			fmt.Fprintln(os.Stderr, console.FormatInfoMessage("Result hints are disabled in the configuration"))
			return nil
		}
		r, err := p.ResultAt(sqlPath, line)
		if err != nil {
			return err
		}
		renderResult(w, cfg, r)
		return nil
	default:
		return fmt.Errorf("invalid format '%s'. Must be one of: %s, %s", format, FormatTerminal, FormatMarkdown)
	}
}

func renderResult(w io.Writer, cfg config.Config, r *parser.SQLResult) {
	fmt.Fprintln(w, console.FormatListHeader(fmt.Sprintf("Line %d", r.LineNumber)))
	fmt.Fprintln(w, strings.TrimRight(console.HighlightSQL(r.SQLContent, cfg.HighlightStyle), "\n"))
	fmt.Fprintln(w)

	switch r.Type {
	case parser.ResultTypeResult:
		grid := r.Cells()
		if len(grid.Header()) > 0 && cfg.GoToResultHints {
			fmt.Fprint(w, console.RenderTable(console.TableConfig{
				Headers:      grid.Header(),
				Rows:         grid.Rows(),
				MaxCellWidth: cfg.MaxCellWidth,
			}))
			fmt.Fprintln(w, console.FormatCountMessage(fmt.Sprintf("%d rows", len(grid.Rows()))))
		} else {
			fmt.Fprintln(w, "Expected result:")
			if cfg.GoToResultHints {
				fmt.Fprintln(w, r.ResultContent)
			}
		}
	case parser.ResultTypeError:
		fmt.Fprintln(w, console.FormatErrorMessage("Expected error:"))
		if cfg.GoToResultHints {
			fmt.Fprintln(w, r.ErrorContent)
		}
	default:
		fmt.Fprintln(w, console.FormatInfoMessage("Expected result: empty"))
	}

	for _, issue := range r.Issues {
		fmt.Fprintln(w, console.FormatWarningMessage(issue.String()))
	}
}

// GoTo prints the counterpart location of a line: the marker in the result
// file for a SQL file, the statement in the SQL file for a result file
func GoTo(w io.Writer, cfg config.Config, path string, line int, verbose bool) error {
	p, _, err := newProvider(cfg, verbose)
	if err != nil {
		return err
	}

	var loc provider.Location
	if p.IsResultFile(path) {
		loc, err = p.GoToSQL(path, line)
	} else {
		loc, err = p.GoToResult(path, line)
	}
	if err != nil {
		return err
	}
	printLocation(w, loc)
	return nil
}

// ShowLenses prints the code lenses of a SQL or result file
func ShowLenses(w io.Writer, cfg config.Config, path string, verbose bool) error {
	p, _, err := newProvider(cfg, verbose)
	if err != nil {
		return err
	}

	lenses, err := p.CodeLenses(path)
	if err != nil {
		return err
	}
	if len(lenses) == 0 {
		fmt.Fprintln(w, console.FormatInfoMessage(fmt.Sprintf("No code lenses for %s", console.ToRelativePath(path))))
		return nil
	}

	rows := make([][]string, 0, len(lenses))
	for _, l := range lenses {
		rows = append(rows, []string{
			fmt.Sprintf("%d", l.Line),
			l.Title,
			l.Command,
			fmt.Sprintf("%s:%d", console.ToRelativePath(l.Target.Path), l.Target.Line),
		})
	}
	fmt.Fprint(w, console.RenderTable(console.TableConfig{
		Headers: []string{"Line", "Title", "Command", "Target"},
		Rows:    rows,
	}))
	return nil
}
