package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/console"
	"github.com/githubnext/sqlresult/pkg/provider"
)

const testSQL = `create table t (id int);

select id from t;

select x;
`

const testResult = `#SQL[@1,N24]Result[]
create table t (id int);

#SQL[@3,N17]Result[2, 1]
select id from t;
id
1
#SQL[@5,N8]Error[5]
select x
boom!
`

const degradedResult = `#SQL[@1,N999]Result[]
select 1
`

// writeFiles creates files under a temporary directory and returns it
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestVersionInfo(t *testing.T) {
	original := GetVersion()
	defer SetVersionInfo(original)

	SetVersionInfo("1.2.3")
	if GetVersion() != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %s", GetVersion())
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		arg      string
		expected int
		wantErr  bool
	}{
		{arg: "1", expected: 1},
		{arg: "42", expected: 42},
		{arg: "0", wantErr: true},
		{arg: "-3", wantErr: true},
		{arg: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			line, err := ParseLine(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q", tt.arg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if line != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, line)
			}
		})
	}
}

func TestLoadConfigFromPath(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"custom.yaml": "cache-size: 5\nresult-extension: .out\n",
		"broken.yaml": "enabled: true\nbogus: 1\n",
	})

	cfg, err := LoadConfig(filepath.Join(dir, "custom.yaml"), false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.CacheSize != 5 || cfg.ResultExtension != ".out" {
		t.Errorf("Expected overrides to apply, got %+v", cfg)
	}

	_, err = LoadConfig(filepath.Join(dir, "broken.yaml"), false)
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected a *config.Error, got %v", err)
	}
	if cfgErr.Position.Line != 2 {
		t.Errorf("Expected the error on line 2, got %d", cfgErr.Position.Line)
	}
	if FormatCommandError(err) != cfgErr.Error() {
		t.Error("Expected configuration errors to keep their own rendering")
	}
}

func TestFormatCommandError(t *testing.T) {
	got := FormatCommandError(errors.New("something failed"))
	if !strings.Contains(got, "something failed") {
		t.Errorf("Expected the message to be kept, got %q", got)
	}
}

func TestParseResultFileJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.result": testResult})

	var buf bytes.Buffer
	if err := ParseResultFile(&buf, filepath.Join(dir, "q.result"), FormatJSON, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var report struct {
		Records []struct {
			LineNumber int        `json:"lineNumber"`
			Type       string     `json:"type"`
			Status     string     `json:"status"`
			Cells      [][]string `json:"cells"`
		} `json:"records"`
		Degraded int `json:"degraded"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode output: %v\n%s", err, buf.String())
	}

	if len(report.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(report.Records))
	}
	second := report.Records[1]
	if second.LineNumber != 3 || second.Type != "result" || second.Status != "parsed" {
		t.Errorf("Unexpected second record: %+v", second)
	}
	if len(second.Cells) != 2 || second.Cells[0][0] != "id" || second.Cells[1][0] != "1" {
		t.Errorf("Unexpected cells: %v", second.Cells)
	}
	if report.Records[2].Type != "error" {
		t.Errorf("Expected the third record to be an error, got %s", report.Records[2].Type)
	}
	if report.Degraded != 0 {
		t.Errorf("Expected no degraded records, got %d", report.Degraded)
	}
}

func TestParseResultFileYAML(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.result": degradedResult})

	var buf bytes.Buffer
	if err := ParseResultFile(&buf, filepath.Join(dir, "q.result"), FormatYAML, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var report struct {
		Records []struct {
			LineNumber int    `yaml:"lineNumber"`
			Status     string `yaml:"status"`
			Issues     []struct {
				Reason string `yaml:"reason"`
			} `yaml:"issues"`
		} `yaml:"records"`
		Degraded int `yaml:"degraded"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode output: %v\n%s", err, buf.String())
	}

	if len(report.Records) != 1 || report.Degraded != 1 {
		t.Fatalf("Expected one degraded record, got %+v", report)
	}
	record := report.Records[0]
	if record.Status != "degraded" {
		t.Errorf("Expected status degraded, got %s", record.Status)
	}
	if len(record.Issues) == 0 || record.Issues[0].Reason != "sql-length-exceeded" {
		t.Errorf("Expected a sql-length-exceeded issue, got %+v", record.Issues)
	}
}

func TestParseResultFileTable(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.result": testResult, "empty.result": ""})

	var buf bytes.Buffer
	if err := ParseResultFile(&buf, filepath.Join(dir, "q.result"), FormatTable, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Line", "Status", "select id from t;", "3 records, 0 degraded"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}

	buf.Reset()
	if err := ParseResultFile(&buf, filepath.Join(dir, "empty.result"), FormatTable, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No records found") {
		t.Errorf("Expected an empty notice, got %q", buf.String())
	}
}

func TestParseResultFileErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.result": testResult})

	var buf bytes.Buffer
	if err := ParseResultFile(&buf, filepath.Join(dir, "q.result"), "xml", false); err == nil {
		t.Error("Expected an error for an unknown format")
	}
	if err := ParseResultFile(&buf, filepath.Join(dir, "missing.result"), FormatJSON, false); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "select 1", expected: "select 1"},
		{in: "select 1\nfrom t", expected: "select 1 …"},
		{in: "select 1\n", expected: "select 1"},
	}
	for _, tt := range tests {
		if got := firstLine(tt.in); got != tt.expected {
			t.Errorf("firstLine(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestListResultMarkers(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.result": testResult, "none.result": "no markers here\n"})

	var buf bytes.Buffer
	if err := ListResultMarkers(&buf, filepath.Join(dir, "q.result"), true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Result Line", "Error", "2, 1", "3 markers"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}

	buf.Reset()
	if err := ListResultMarkers(&buf, filepath.Join(dir, "none.result"), false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No markers found") {
		t.Errorf("Expected an empty notice, got %q", buf.String())
	}
}

func TestShowResult(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": testSQL, "q.result": testResult})
	sqlPath := filepath.Join(dir, "q.sql")

	tests := []struct {
		name     string
		line     int
		format   string
		mutate   func(*config.Config)
		contains []string
		absent   []string
	}{
		{name: "terminal table", line: 3, format: FormatTerminal, contains: []string{"select id from t;", "id", "1 rows"}},
		{name: "terminal error", line: 5, format: FormatTerminal, contains: []string{"Expected error:", "boom!"}},
		{name: "terminal empty", line: 1, format: FormatTerminal, contains: []string{"Expected result: empty"}},
		{name: "terminal without bodies", line: 5, format: FormatTerminal, mutate: func(c *config.Config) { c.GoToResultHints = false }, contains: []string{"Expected error:"}, absent: []string{"boom!"}},
		{name: "markdown", line: 3, format: FormatMarkdown, contains: []string{"**Line 3:** select id from t;", "<table", "<td>1</td>"}},
		{name: "disabled", line: 3, format: FormatTerminal, mutate: func(c *config.Config) { c.Enabled = false }, absent: []string{"select"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			var buf bytes.Buffer
			if err := ShowResult(&buf, cfg, sqlPath, tt.line, tt.format, false); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			output := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, output)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(output, unwanted) {
					t.Errorf("Expected output not to contain %q, got:\n%s", unwanted, output)
				}
			}
		})
	}
}

func TestShowResultMarkdownEscapesStatement(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"q.sql":    "select a*b from t_1;\n",
		"q.result": "#SQL[@1,N19]Error[4]\nselect a*b from t_1;\nboom\n",
	})

	var buf bytes.Buffer
	if err := ShowResult(&buf, config.Default(), filepath.Join(dir, "q.sql"), 1, FormatMarkdown, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if want := `**Line 1:** select a\*b from t\_1`; !strings.Contains(buf.String(), want) {
		t.Errorf("Expected output to contain %q, got:\n%s", want, buf.String())
	}
}

func TestShowResultErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": testSQL, "q.result": testResult})
	sqlPath := filepath.Join(dir, "q.sql")

	var buf bytes.Buffer
	if err := ShowResult(&buf, config.Default(), sqlPath, 2, FormatTerminal, false); !errors.Is(err, provider.ErrNoResult) {
		t.Errorf("Expected ErrNoResult, got %v", err)
	}
	if err := ShowResult(&buf, config.Default(), sqlPath, 3, "html", false); err == nil {
		t.Error("Expected an error for an unknown format")
	}
	if err := ShowResult(&buf, config.Default(), filepath.Join(dir, "other.sql"), 1, FormatTerminal, false); !errors.Is(err, provider.ErrResultFileNotFound) {
		t.Errorf("Expected ErrResultFileNotFound, got %v", err)
	}
}

func TestGoTo(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": testSQL, "q.result": testResult})
	sqlPath := filepath.Join(dir, "q.sql")
	resultPath := filepath.Join(dir, "q.result")

	tests := []struct {
		name     string
		path     string
		line     int
		expected string
	}{
		{name: "sql to result", path: sqlPath, line: 3, expected: console.ToRelativePath(resultPath) + ":4"},
		{name: "result to sql", path: resultPath, line: 6, expected: console.ToRelativePath(sqlPath) + ":3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := GoTo(&buf, config.Default(), tt.path, tt.line, false); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}

	var buf bytes.Buffer
	if err := GoTo(&buf, config.Default(), sqlPath, 2, false); !errors.Is(err, provider.ErrMarkerNotFound) {
		t.Errorf("Expected ErrMarkerNotFound, got %v", err)
	}
}

func TestShowLenses(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": testSQL, "q.result": testResult, "lonely.sql": "select 1;\n"})

	var buf bytes.Buffer
	if err := ShowLenses(&buf, config.Default(), filepath.Join(dir, "q.sql"), false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"📊 View result", "❌ View error", provider.CommandGoToResult} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}

	buf.Reset()
	if err := ShowLenses(&buf, config.Default(), filepath.Join(dir, "q.result"), false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "🔗 Go to line 3") {
		t.Errorf("Expected a jump-back lens, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := ShowLenses(&buf, config.Default(), filepath.Join(dir, "lonely.sql"), false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No code lenses") {
		t.Errorf("Expected an empty notice, got %q", buf.String())
	}
}
