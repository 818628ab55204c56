package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	tableHeaderStyle    = bold(colorPurple)
	tableCellStyle      = fg(colorFG)
	tableSeparatorStyle = fg(colorComment)
	tableBorderStyle    = fg(colorComment)
)

// TableConfig represents configuration for table rendering
type TableConfig struct {
	Headers []string
	Rows    [][]string
	Title   string
	// MaxCellWidth truncates each cell line to this many display columns. Zero disables truncation.
	MaxCellWidth int
}

// RenderTable renders a table whose columns are sized by terminal display
// width. Cells containing line breaks span several physical lines.
func RenderTable(config TableConfig) string {
	if len(config.Headers) == 0 {
		return ""
	}

	var output strings.Builder

	if config.Title != "" {
		output.WriteString(applyStyle(bold(colorGreen), config.Title))
		output.WriteString("\n")
	}

	columns := len(config.Headers)
	for _, row := range config.Rows {
		if len(row) > columns {
			columns = len(row)
		}
	}

	header := splitCells(config.Headers, columns, config.MaxCellWidth)
	rows := make([][][]string, len(config.Rows))
	for i, row := range config.Rows {
		rows[i] = splitCells(row, columns, config.MaxCellWidth)
	}

	colWidths := make([]int, columns)
	measure := func(cells [][]string) {
		for i, lines := range cells {
			for _, line := range lines {
				if w := runewidth.StringWidth(line); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	output.WriteString(renderTableRow(header, colWidths, tableHeaderStyle))

	separator := make([]string, columns)
	for i, width := range colWidths {
		separator[i] = strings.Repeat("-", width)
	}
	output.WriteString(renderTableLine(separator, colWidths, tableSeparatorStyle))

	for _, row := range rows {
		output.WriteString(renderTableRow(row, colWidths, tableCellStyle))
	}

	return output.String()
}

// splitCells pads a row to the column count and splits every cell into its lines
func splitCells(row []string, columns, maxWidth int) [][]string {
	cells := make([][]string, columns)
	for i := range cells {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		lines := strings.Split(strings.ReplaceAll(cell, "\r\n", "\n"), "\n")
		if maxWidth > 0 {
			for j, line := range lines {
				lines[j] = runewidth.Truncate(line, maxWidth, "…")
			}
		}
		cells[i] = lines
	}
	return cells
}

// renderTableRow renders one logical row, which may span several lines
func renderTableRow(cells [][]string, colWidths []int, style lipgloss.Style) string {
	height := 1
	for _, lines := range cells {
		if len(lines) > height {
			height = len(lines)
		}
	}

	var row strings.Builder
	for l := 0; l < height; l++ {
		line := make([]string, len(cells))
		for i, lines := range cells {
			if l < len(lines) {
				line[i] = lines[l]
			}
		}
		row.WriteString(renderTableLine(line, colWidths, style))
	}
	return row.String()
}

// renderTableLine renders a single physical line of the table
func renderTableLine(cells []string, colWidths []int, style lipgloss.Style) string {
	var line strings.Builder
	for i, cell := range cells {
		if i == len(cells)-1 {
			// No trailing padding on the last column
			line.WriteString(applyStyle(style, cell))
			break
		}
		line.WriteString(applyStyle(style, runewidth.FillRight(cell, colWidths[i])))
		line.WriteString(applyStyle(tableBorderStyle, " | "))
	}
	line.WriteString("\n")
	return line.String()
}
