package provider

import (
	"errors"
	"fmt"
	"os"

	"github.com/githubnext/sqlresult/pkg/parser"
)

// Commands carried by code lenses
const (
	CommandGoToResult = "goToResult"
	CommandGoToSQL    = "goToSql"
)

// CodeLens is an actionable annotation drawn above a line
type CodeLens struct {
	Line    int      `json:"line"`
	Title   string   `json:"title"`
	Command string   `json:"command"`
	Target  Location `json:"target"`
}

// CodeLenses returns the lenses for a SQL file or a result file
func (p *Provider) CodeLenses(path string) ([]CodeLens, error) {
	if !p.cfg.Enabled {
		return nil, nil
	}
	if p.IsResultFile(path) {
		return p.resultFileLenses(path)
	}
	return p.sqlFileLenses(path)
}

// sqlFileLenses puts one lens on every statement with a result or an error
func (p *Provider) sqlFileLenses(sqlPath string) ([]CodeLens, error) {
	doc, err := p.load(sqlPath)
	if err != nil {
		if errors.Is(err, ErrResultFileNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var lenses []CodeLens
	for _, r := range doc.results.Results() {
		var title string
		switch r.Type {
		case parser.ResultTypeResult:
			title = "📊 View result"
		case parser.ResultTypeError:
			title = "❌ View error"
		default:
			continue
		}

		target := Location{Path: doc.resultPath}
		if line, ok := parser.LocateRecordLine(doc.content, r.LineNumber); ok {
			target.Line = line
		}
		lenses = append(lenses, CodeLens{
			Line:    r.LineNumber,
			Title:   title,
			Command: CommandGoToResult,
			Target:  target,
		})
	}
	return lenses, nil
}

// resultFileLenses puts a jump-back lens on every Result marker
func (p *Provider) resultFileLenses(resultPath string) ([]CodeLens, error) {
	content, err := p.readFile(resultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResultFileNotFound, resultPath)
		}
		return nil, fmt.Errorf("failed to read result file %s: %w", resultPath, err)
	}

	sqlPath := p.SQLFilePath(resultPath)
	var lenses []CodeLens
	for _, m := range parser.ListMarkers(string(content)) {
		if m.Kind != parser.MarkerKindResult {
			continue
		}
		lenses = append(lenses, CodeLens{
			Line:    m.ResultFileLine,
			Title:   fmt.Sprintf("🔗 Go to line %d", m.SourceLine),
			Command: CommandGoToSQL,
			Target:  Location{Path: sqlPath, Line: m.SourceLine},
		})
	}
	return lenses, nil
}
