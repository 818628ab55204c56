package console

import (
	"regexp"
	"strings"
	"testing"
)

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

func TestHighlightSQL(t *testing.T) {
	sql := "SELECT id FROM users WHERE id = 1;"
	output := highlightSQL(sql, "monokai")

	if !strings.Contains(output, "\x1b[") {
		t.Errorf("Expected ANSI color codes, got: %q", output)
	}
	if plain := ansiEscape.ReplaceAllString(output, ""); strings.TrimSpace(plain) != sql {
		t.Errorf("Expected highlighted text to keep the statement, got: %q", plain)
	}
}

func TestHighlightSQLUnknownStyleFallsBack(t *testing.T) {
	output := highlightSQL("SELECT 1", "no-such-style")
	if plain := ansiEscape.ReplaceAllString(output, ""); strings.TrimSpace(plain) != "SELECT 1" {
		t.Errorf("Expected the statement to survive a fallback style, got: %q", plain)
	}
}

func TestHighlightSQLEmpty(t *testing.T) {
	if output := highlightSQL("", "monokai"); output != "" {
		t.Errorf("Expected empty output, got: %q", output)
	}
}

func TestHighlightSQLWithoutTerminal(t *testing.T) {
	if isTTY() {
		t.Skip("stdout is a terminal")
	}
	if output := HighlightSQL("SELECT 1", "monokai"); output != "SELECT 1" {
		t.Errorf("Expected plain output outside a terminal, got: %q", output)
	}
}

func TestHighlightStyleExists(t *testing.T) {
	if !HighlightStyleExists("monokai") {
		t.Error("Expected monokai to be a registered style")
	}
	if HighlightStyleExists("no-such-style") {
		t.Error("Expected no-such-style to be unknown")
	}
}
