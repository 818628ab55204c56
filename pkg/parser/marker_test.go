package parser

import (
	"testing"
)

const navigationResultFile = `-- generated by the test runner
#SQL[@1,N32]Result[]
create database if not exists db;

#SQL[@3,N8]Result[1, 1]
select 1
1
1
#SQL[@9,N43]Error[53]
insert into t values (1, 1), (1, 1), (2, 2);
1062 (HY000): Duplicate entry '(1,1)' for key '(a,b)'
#SQL[@3,N8]Result[1, 1]
select 2
2
2
`

func TestListMarkers(t *testing.T) {
	markers := ListMarkers(navigationResultFile)

	expected := []Marker{
		{SourceLine: 1, SQLLength: 32, Kind: MarkerKindResult, Info: "", ResultFileLine: 2},
		{SourceLine: 3, SQLLength: 8, Kind: MarkerKindResult, Info: "1, 1", ResultFileLine: 5},
		{SourceLine: 9, SQLLength: 43, Kind: MarkerKindError, Info: "53", ResultFileLine: 9},
		{SourceLine: 3, SQLLength: 8, Kind: MarkerKindResult, Info: "1, 1", ResultFileLine: 12},
	}

	if len(markers) != len(expected) {
		t.Fatalf("Expected %d markers, got %d", len(expected), len(markers))
	}
	for i, want := range expected {
		got := markers[i]
		if got.SourceLine != want.SourceLine || got.SQLLength != want.SQLLength || got.Kind != want.Kind ||
			got.Info != want.Info || got.ResultFileLine != want.ResultFileLine {
			t.Errorf("Marker %d: expected %+v, got %+v", i, want, got)
		}
	}

	if got := ListMarkers(""); len(got) != 0 {
		t.Errorf("Expected no markers in empty content, got %d", len(got))
	}
}

func TestLocateRecordLine(t *testing.T) {
	tests := []struct {
		name       string
		sourceLine int
		expected   int
		found      bool
	}{
		{name: "first marker", sourceLine: 1, expected: 2, found: true},
		{name: "first of duplicated markers", sourceLine: 3, expected: 5, found: true},
		{name: "error marker", sourceLine: 9, expected: 9, found: true},
		{name: "unknown line", sourceLine: 4, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, found := LocateRecordLine(navigationResultFile, tt.sourceLine)
			if found != tt.found {
				t.Fatalf("Expected found=%v, got %v", tt.found, found)
			}
			if line != tt.expected {
				t.Errorf("Expected line %d, got %d", tt.expected, line)
			}
		})
	}
}

func TestLocateRecordLineIgnoresUnclosedInfo(t *testing.T) {
	// The locator only needs the marker prefix, so an info field broken
	// across lines still resolves.
	line, found := LocateRecordLine("\n#SQL[@7,N8]Result[1,\n2]\nselect 1\n", 7)
	if !found || line != 2 {
		t.Errorf("Expected line 2, got %d (found=%v)", line, found)
	}
}

func TestMarkerAt(t *testing.T) {
	tests := []struct {
		physicalLine int
		sourceLine   int
		found        bool
	}{
		{physicalLine: 1, found: false},
		{physicalLine: 2, sourceLine: 1, found: true},
		{physicalLine: 4, sourceLine: 1, found: true},
		{physicalLine: 7, sourceLine: 3, found: true},
		{physicalLine: 11, sourceLine: 9, found: true},
		{physicalLine: 100, sourceLine: 3, found: true},
	}

	for _, tt := range tests {
		marker, found := MarkerAt(navigationResultFile, tt.physicalLine)
		if found != tt.found {
			t.Errorf("line %d: expected found=%v, got %v", tt.physicalLine, tt.found, found)
			continue
		}
		if found && marker.SourceLine != tt.sourceLine {
			t.Errorf("line %d: expected source line %d, got %d", tt.physicalLine, tt.sourceLine, marker.SourceLine)
		}
	}
}

func TestMarkerOutOfRange(t *testing.T) {
	markers := ListMarkers("#SQL[@99999999999999999999999,N1]Result[]\n")
	if len(markers) != 1 {
		t.Fatalf("Expected 1 marker, got %d", len(markers))
	}
	if markers[0].SourceLine != 0 || !HasReason(markers[0].Issues, ReasonMalformedMarker) {
		t.Errorf("Expected a malformed-marker issue, got %+v", markers[0])
	}
}
