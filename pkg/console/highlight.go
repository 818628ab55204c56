package console

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultHighlightStyle is used when no style is configured
const DefaultHighlightStyle = "monokai"

// HighlightSQL colors a SQL statement for terminal output. The statement
// is returned unchanged when stdout is not a terminal.
func HighlightSQL(sql, styleName string) string {
	if !isTTY() {
		return sql
	}
	return highlightSQL(sql, styleName)
}

func highlightSQL(sql, styleName string) string {
	if sql == "" {
		return sql
	}
	if styleName == "" {
		styleName = DefaultHighlightStyle
	}

	lexer := lexers.Get("sql")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var out strings.Builder
	if err := formatters.Get("terminal256").Format(&out, styles.Get(styleName), iterator); err != nil {
		return sql
	}
	return out.String()
}

// HighlightStyleExists reports whether name is a registered highlight style
func HighlightStyleExists(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}
