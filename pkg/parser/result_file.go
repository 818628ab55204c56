package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ResultType is the outcome category derived for a record
type ResultType string

const (
	ResultTypeResult ResultType = "result"
	ResultTypeError  ResultType = "error"
	ResultTypeEmpty  ResultType = "empty"
)

// Metadata holds the structural lengths declared in a marker's info field.
// A zero value or nil slice means the length was not declared.
type Metadata struct {
	ResultLength int   `json:"resultLength,omitempty" yaml:"resultLength,omitempty"` // header + data rows
	HeaderLength int   `json:"headerLength,omitempty" yaml:"headerLength,omitempty"`
	RowLengths   []int `json:"rowLengths,omitempty" yaml:"rowLengths,omitempty"`
	ErrorLength  int   `json:"errorLength,omitempty" yaml:"errorLength,omitempty"`
}

// SQLResult is one annotation record from a result file
type SQLResult struct {
	LineNumber    int        `json:"lineNumber" yaml:"lineNumber"`
	SQLLength     int        `json:"sqlLength" yaml:"sqlLength"`
	Kind          MarkerKind `json:"kind" yaml:"kind"`
	SQLContent    string     `json:"sqlContent" yaml:"sqlContent"`
	Type          ResultType `json:"type" yaml:"type"`
	ResultContent string     `json:"resultContent,omitempty" yaml:"resultContent,omitempty"`
	ErrorContent  string     `json:"errorContent,omitempty" yaml:"errorContent,omitempty"`
	Metadata      Metadata   `json:"metadata" yaml:"metadata"`
	Issues        []Issue    `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Status reports whether the record was parsed cleanly
func (r *SQLResult) Status() Status {
	return statusOf(r.Issues)
}

// Cells extracts the cell grid of a result record. Records without
// tabular content yield an empty grid.
func (r *SQLResult) Cells() CellGrid {
	if r.Type != ResultTypeResult {
		return CellGrid{}
	}
	return ExtractCells(r.ResultContent, r.Metadata.HeaderLength, r.Metadata.RowLengths)
}

func (r *SQLResult) addIssue(reason Reason, format string, args ...any) {
	r.Issues = append(r.Issues, newIssue(reason, format, args...))
}

// ResultSet is the ordered collection of records of one result file, keyed
// by source line. A later marker for the same source line replaces the
// earlier record but keeps its position.
type ResultSet struct {
	order  []int
	byLine map[int]*SQLResult
}

// NewResultSet creates an empty result set
func NewResultSet() *ResultSet {
	return &ResultSet{byLine: make(map[int]*SQLResult)}
}

func (s *ResultSet) set(r *SQLResult) {
	if prev, exists := s.byLine[r.LineNumber]; exists {
		r.addIssue(ReasonDuplicateLine, "replaces earlier marker for line %d (sql length %d)", prev.LineNumber, prev.SQLLength)
	} else {
		s.order = append(s.order, r.LineNumber)
	}
	s.byLine[r.LineNumber] = r
}

// Get returns the record for a source line
func (s *ResultSet) Get(line int) (*SQLResult, bool) {
	if s == nil {
		return nil, false
	}
	r, ok := s.byLine[line]
	return r, ok
}

// Len returns the number of distinct source lines
func (s *ResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Results returns the records in order of first appearance
func (s *ResultSet) Results() []*SQLResult {
	if s == nil {
		return nil
	}
	results := make([]*SQLResult, 0, len(s.order))
	for _, line := range s.order {
		results = append(results, s.byLine[line])
	}
	return results
}

// Degraded returns the records that carry at least one issue
func (s *ResultSet) Degraded() []*SQLResult {
	var degraded []*SQLResult
	for _, r := range s.Results() {
		if r.Status() == StatusDegraded {
			degraded = append(degraded, r)
		}
	}
	return degraded
}

// ParseResultContent parses the text of a result file. It never fails:
// malformed markers and lengths produce degraded records instead.
func ParseResultContent(content string) *ResultSet {
	set := NewResultSet()

	matches := markerRegex.FindAllStringSubmatchIndex(content, -1)
	for i, m := range matches {
		sectionEnd := len(content)
		if i+1 < len(matches) {
			sectionEnd = matches[i+1][0]
		}

		marker := markerFromMatch(content, m)
		r := &SQLResult{
			LineNumber: marker.SourceLine,
			SQLLength:  marker.SQLLength,
			Kind:       marker.Kind,
		}
		r.Issues = append(r.Issues, marker.Issues...)

		// The section starts at the marker itself; content begins after the marker line.
		section := content[m[0]:sectionEnd]
		sqlContent, remaining := extractSQLContent(r, section, marker.SQLLength)
		r.SQLContent = sqlContent
		outcome := strings.TrimSpace(remaining)

		switch marker.Kind {
		case MarkerKindResult:
			r.Metadata = parseResultMetadata(r, marker.Info)
			if outcome != "" {
				r.Type = ResultTypeResult
				r.ResultContent = outcome
				if r.Metadata.HeaderLength == 0 {
					r.addIssue(ReasonOutcomeWithoutMetadata, "result content has no declared header length")
				}
			} else {
				r.Type = ResultTypeEmpty
				if r.Metadata.HeaderLength > 0 || len(r.Metadata.RowLengths) > 0 {
					r.addIssue(ReasonMetadataWithoutOutcome, "lengths [%s] declared without result content", marker.Info)
				}
				r.Metadata = Metadata{}
			}
		case MarkerKindError:
			r.Metadata = parseErrorMetadata(r, marker.Info)
			if outcome != "" {
				r.Type = ResultTypeError
				r.ErrorContent = outcome
			} else {
				r.Type = ResultTypeEmpty
				if r.Metadata.ErrorLength > 0 {
					r.addIssue(ReasonMetadataWithoutOutcome, "error length [%s] declared without error content", marker.Info)
				}
				r.Metadata = Metadata{}
			}
		}

		set.set(r)
	}

	return set
}

// extractSQLContent splits a section into the trimmed SQL statement and the
// remaining outcome payload. Lengths are byte counts.
func extractSQLContent(r *SQLResult, section string, sqlLength int) (string, string) {
	firstNewline := strings.IndexByte(section, '\n')
	if firstNewline == -1 {
		r.addIssue(ReasonMissingPayload, "marker is not followed by a line break")
		return "", ""
	}

	content := trimLeadingEmptyLines(section[firstNewline+1:])

	if sqlLength <= 0 {
		return strings.TrimSpace(content), ""
	}

	if sqlLength > len(content) {
		r.addIssue(ReasonSQLLengthExceeded, "declared sql length %d exceeds the %d bytes available", sqlLength, len(content))
		return strings.TrimSpace(decodeBytes(r, content)), ""
	}

	sql := decodeBytes(r, content[:sqlLength])
	rest := strings.ToValidUTF8(content[sqlLength:], "�")
	return strings.TrimSpace(sql), skipStatementTerminator(rest)
}

// skipStatementTerminator drops the ';' and line break the writer emits
// right after the counted SQL bytes. Both are optional.
func skipStatementTerminator(s string) string {
	s = strings.TrimPrefix(s, ";")
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	return strings.TrimPrefix(s, "\n")
}

// trimLeadingEmptyLines removes blank lines at the start of content
func trimLeadingEmptyLines(content string) string {
	start := 0
	for start < len(content) {
		switch {
		case content[start] == '\n':
			start++
		case strings.HasPrefix(content[start:], "\r\n"):
			start += 2
		default:
			return content[start:]
		}
	}
	return content[start:]
}

// decodeBytes returns s as valid UTF-8, replacing sequences cut by a byte
// length with U+FFFD
func decodeBytes(r *SQLResult, s string) string {
	if utf8.ValidString(s) {
		return s
	}
	r.addIssue(ReasonSplitRune, "declared length splits a multi-byte character")
	return strings.ToValidUTF8(s, "�")
}

// parseResultMetadata parses "<header>, <row>, <row>..."
func parseResultMetadata(r *SQLResult, info string) Metadata {
	parts := splitInfo(info)
	if len(parts) == 0 {
		return Metadata{}
	}

	headerLength := parseLength(r, parts[0])
	var rowLengths []int
	for _, p := range parts[1:] {
		rowLengths = append(rowLengths, parseLength(r, p))
	}

	meta := Metadata{
		HeaderLength: headerLength,
		RowLengths:   rowLengths,
	}
	if resultLength := 1 + len(rowLengths); resultLength > 1 {
		meta.ResultLength = resultLength
	}
	return meta
}

// parseErrorMetadata parses "<errorLength>"
func parseErrorMetadata(r *SQLResult, info string) Metadata {
	parts := splitInfo(info)
	if len(parts) == 0 {
		return Metadata{}
	}
	if len(parts) > 1 {
		r.addIssue(ReasonMalformedLength, "error marker declares %d lengths, only the first is used", len(parts))
	}
	return Metadata{ErrorLength: parseLength(r, parts[0])}
}

func splitInfo(info string) []string {
	var parts []string
	for _, p := range strings.Split(info, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// parseLength reads a leading decimal integer the way the result writer's
// consumers always have: "12px" is 12, "abc" is 0. Anything other than a
// clean non-negative integer is recorded as an issue.
func parseLength(r *SQLResult, s string) int {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}

	i := 0
	negative := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		negative = s[i] == '-'
		i++
	}
	digitsStart := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	n := 0
	if i > digitsStart {
		if v, err := strconv.Atoi(s[digitsStart:i]); err == nil {
			n = v
		}
	}
	if negative {
		n = 0
	}

	r.addIssue(ReasonMalformedLength, "length %q read as %d", s, n)
	return n
}
