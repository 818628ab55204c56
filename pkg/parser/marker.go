package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// MarkerKind is the outcome category declared by a marker
type MarkerKind string

const (
	MarkerKindResult MarkerKind = "Result"
	MarkerKindError  MarkerKind = "Error"
)

// markerRegex matches #SQL[@<line>,N<sqlLen>]<Kind>[<info>]
var markerRegex = regexp.MustCompile(`#SQL\[@(\d+),N(\d+)\](Result|Error)\[([^\]]*)\]`)

// markerPrefixRegex matches a marker up to the opening bracket of its info
var markerPrefixRegex = regexp.MustCompile(`#SQL\[@(\d+),N(\d+)\](Result|Error)\[`)

// Marker is a single #SQL tag and the result-file line it sits on
type Marker struct {
	SourceLine     int        `json:"lineNumber" yaml:"lineNumber"`
	SQLLength      int        `json:"sqlLength" yaml:"sqlLength"`
	Kind           MarkerKind `json:"type" yaml:"type"`
	Info           string     `json:"info" yaml:"info"`
	ResultFileLine int        `json:"resultFileLineNumber" yaml:"resultFileLineNumber"` // 1-based
	Issues         []Issue    `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// markerFromMatch builds a Marker from a submatch index slice of markerRegex
func markerFromMatch(content string, m []int) Marker {
	marker := Marker{
		Kind: MarkerKind(content[m[6]:m[7]]),
		Info: content[m[8]:m[9]],
	}
	marker.SourceLine = parseMarkerInt(&marker, "line", content[m[2]:m[3]])
	marker.SQLLength = parseMarkerInt(&marker, "sql length", content[m[4]:m[5]])
	return marker
}

func parseMarkerInt(marker *Marker, field, digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		marker.Issues = append(marker.Issues, newIssue(ReasonMalformedMarker, "%s %q is out of range", field, digits))
		return 0
	}
	return n
}

// ListMarkers reports every marker in content with the physical line it
// occupies, without extracting statement or outcome bodies
func ListMarkers(content string) []Marker {
	var markers []Marker
	for i, line := range strings.Split(content, "\n") {
		m := markerRegex.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		marker := markerFromMatch(line, m)
		marker.ResultFileLine = i + 1
		markers = append(markers, marker)
	}
	return markers
}

// LocateRecordLine finds the 1-based line in content holding the first
// marker declared for sourceLine
func LocateRecordLine(content string, sourceLine int) (int, bool) {
	for i, line := range strings.Split(content, "\n") {
		m := markerPrefixRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n == sourceLine {
			return i + 1, true
		}
	}
	return 0, false
}

// MarkerAt returns the marker whose section contains the given 1-based
// physical line, that is the nearest marker at or above it
func MarkerAt(content string, physicalLine int) (Marker, bool) {
	var found Marker
	ok := false
	for _, marker := range ListMarkers(content) {
		if marker.ResultFileLine > physicalLine {
			break
		}
		found = marker
		ok = true
	}
	return found, ok
}
