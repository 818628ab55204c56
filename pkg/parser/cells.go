package parser

import (
	"strings"
	"unicode/utf8"
)

// ColumnDelimiter separates cells within one line of a result table
const ColumnDelimiter = "  ¦  "

// CellGrid is a decoded result table, row 0 being the header. Rows are not
// guaranteed to have the same number of cells.
type CellGrid [][]string

// Header returns the first row, or nil for an empty grid
func (g CellGrid) Header() []string {
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

// Rows returns the data rows
func (g CellGrid) Rows() [][]string {
	if len(g) < 2 {
		return nil
	}
	return g[1:]
}

// Extraction is a cell grid together with the recoveries made to build it
type Extraction struct {
	Grid   CellGrid
	Issues []Issue
}

// Status reports whether every declared line was read cleanly
func (e Extraction) Status() Status {
	return statusOf(e.Issues)
}

// ExtractCells splits outcome text into cells using the declared byte
// length of the header line and of every data row. A headerLength of 0
// means no lengths were declared.
func ExtractCells(outcome string, headerLength int, rowLengths []int) CellGrid {
	return ExtractCellsReport(outcome, headerLength, rowLengths).Grid
}

// ExtractCellsReport is ExtractCells with the degradation report
func ExtractCellsReport(outcome string, headerLength int, rowLengths []int) Extraction {
	var e Extraction
	e.Grid = CellGrid{}

	if headerLength <= 0 || len(rowLengths) == 0 || strings.TrimSpace(outcome) == "" {
		return e
	}

	lengths := make([]int, 0, 1+len(rowLengths))
	lengths = append(lengths, headerLength)
	lengths = append(lengths, rowLengths...)

	buf := []byte(outcome)
	pos := 0
	for i, n := range lengths {
		if n < 0 || pos+n > len(buf) {
			e.Issues = append(e.Issues, newIssue(ReasonRowTruncated,
				"line %d declares %d bytes but only %d remain; %d line(s) dropped", i, n, len(buf)-pos, len(lengths)-i))
			return e
		}

		line := buf[pos : pos+n]
		if !utf8.Valid(line) {
			e.Issues = append(e.Issues, newIssue(ReasonSplitRune, "line %d ends inside a multi-byte character", i))
		}
		e.Grid = append(e.Grid, strings.Split(strings.ToValidUTF8(string(line), "�"), ColumnDelimiter))

		pos += n
		if pos < len(buf) && buf[pos] == '\n' {
			pos++
		}
	}

	if pos < len(buf) {
		e.Issues = append(e.Issues, newIssue(ReasonTrailingContent, "%d byte(s) after the last declared row", len(buf)-pos))
	}

	return e
}
