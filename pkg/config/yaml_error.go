package config

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/githubnext/sqlresult/pkg/console"
)

// yamlPositionRegex matches the "[line:column] message" prefix of goccy errors
var yamlPositionRegex = regexp.MustCompile(`^\[(\d+):(\d+)\]\s*(.*)`)

// newYAMLError converts a YAML syntax error into a positioned configuration error
func newYAMLError(err error, content []byte, filePath string) error {
	line, column, message := extractYAMLPosition(err)
	if line == 0 {
		line, column = 1, 1
	}

	return &Error{console.SourceError{
		Position: console.ErrorPosition{
			File:   filePath,
			Line:   line,
			Column: column,
		},
		Type:    "error",
		Message: message,
		Context: contextLines(string(content), line),
		Hint:    "check the indentation and quoting around this position",
	}}
}

// extractYAMLPosition returns the 1-based position and message of a YAML
// error, or a zero position when the error carries none
func extractYAMLPosition(err error) (line int, column int, message string) {
	var yerr yaml.Error
	if errors.As(err, &yerr) {
		if tk := yerr.GetToken(); tk != nil && tk.Position != nil {
			return tk.Position.Line, tk.Position.Column, yerr.GetMessage()
		}
		return 0, 0, yerr.GetMessage()
	}

	// Errors wrapped as text keep goccy's "[line:column] message" first line
	errStr := strings.TrimSpace(err.Error())
	firstLine, _, _ := strings.Cut(errStr, "\n")
	if m := yamlPositionRegex.FindStringSubmatch(firstLine); m != nil {
		line, _ = strconv.Atoi(m[1])
		column, _ = strconv.Atoi(m[2])
		return line, column, strings.TrimSpace(m[3])
	}

	return 0, 0, errStr
}
