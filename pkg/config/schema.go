package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/githubnext/sqlresult/internal/mapper"
	"github.com/githubnext/sqlresult/pkg/console"
)

//go:embed schemas/config_schema.json
var configSchema string

const schemaURL = "https://sqlresult.local/config_schema.json"

var printer = message.NewPrinter(language.English)

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var schemaDoc any
	if err := json.Unmarshal([]byte(configSchema), &schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to parse config schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to add config schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Error is a configuration error positioned in the YAML file
type Error struct {
	console.SourceError
}

func (e *Error) Error() string {
	return console.FormatError(e.SourceError)
}

// violation is one leaf failure of a schema validation
type violation struct {
	span    mapper.Span
	message string
	hint    string
}

// validate checks the decoded document against the schema and the
// registered highlight styles
func validate(raw any, content []byte, filePath string) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so numbers and maps have the shapes the validator expects
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to normalize config file %s: %w", filePath, err)
	}
	var normalized any
	if err := json.Unmarshal(encoded, &normalized); err != nil {
		return fmt.Errorf("failed to normalize config file %s: %w", filePath, err)
	}

	if err := schema.Validate(normalized); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return fmt.Errorf("failed to validate config file %s: %w", filePath, err)
		}
		return newError(content, filePath, violations(ve, content))
	}

	if m, ok := normalized.(map[string]any); ok {
		if style, ok := m["highlight-style"].(string); ok && !console.HighlightStyleExists(style) {
			span, _ := mapper.Locate(content, "/highlight-style", mapper.ErrorMeta{Kind: mapper.KindValue})
			return newError(content, filePath, []violation{{
				span:    span,
				message: fmt.Sprintf("unknown highlight style '%s'", style),
				hint:    fmt.Sprintf("use a chroma style name such as '%s'", console.DefaultHighlightStyle),
			}})
		}
	}

	return nil
}

// violations flattens a validation error into its leaf failures, ordered by position
func violations(ve *jsonschema.ValidationError, content []byte) []violation {
	var out []violation

	var visit func(e *jsonschema.ValidationError)
	visit = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				visit(c)
			}
			return
		}

		pointer := mapper.EncodeJSONPointer(e.InstanceLocation)
		meta := mapper.ErrorMeta{Kind: mapper.KindValue}
		subject := strings.TrimPrefix(pointer, "/")
		hint := ""

		switch k := e.ErrorKind.(type) {
		case *kind.AdditionalProperties:
			meta = mapper.ErrorMeta{Kind: mapper.KindAdditionalProperty}
			if len(k.Properties) > 0 {
				meta.Property = k.Properties[0]
				subject = k.Properties[0]
			}
			hint = "valid keys are: " + strings.Join(knownKeys(), ", ")
		case *kind.Required:
			meta = mapper.ErrorMeta{Kind: mapper.KindRequired}
			if len(k.Missing) > 0 {
				meta.Property = k.Missing[0]
			}
		}

		span, err := mapper.Locate(content, pointer, meta)
		if err != nil {
			span = mapper.Span{StartLine: 1, StartCol: 1}
		}

		msg := e.ErrorKind.LocalizedString(printer)
		if subject != "" && meta.Kind != mapper.KindAdditionalProperty {
			msg = fmt.Sprintf("'%s': %s", subject, msg)
		}
		out = append(out, violation{span: span, message: msg, hint: hint})
	}
	visit(ve)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].span.StartLine != out[j].span.StartLine {
			return out[i].span.StartLine < out[j].span.StartLine
		}
		return out[i].span.StartCol < out[j].span.StartCol
	})
	return out
}

// newError reports the first violation with its source context
func newError(content []byte, filePath string, vs []violation) error {
	if len(vs) == 0 {
		return &Error{console.SourceError{
			Position: console.ErrorPosition{File: filePath, Line: 1, Column: 1},
			Type:     "error",
			Message:  "configuration does not match the schema",
		}}
	}

	first := vs[0]
	msg := first.message
	if len(vs) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(vs)-1)
	}

	return &Error{console.SourceError{
		Position: console.ErrorPosition{
			File:   filePath,
			Line:   first.span.StartLine,
			Column: first.span.StartCol,
		},
		Type:    "error",
		Message: msg,
		Context: contextLines(string(content), first.span.StartLine),
		Hint:    first.hint,
	}}
}

// contextLines returns the lines around line, centered on it
func contextLines(content string, line int) []string {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return nil
	}

	var ctx []string
	if line >= 2 {
		ctx = append(ctx, lines[line-2])
	} else {
		// Keeps the error line centered; line 0 is never rendered
		ctx = append(ctx, "")
	}
	ctx = append(ctx, lines[line-1])
	if line < len(lines) {
		ctx = append(ctx, lines[line])
	}
	return ctx
}

// knownKeys lists the top-level keys accepted by the schema
func knownKeys() []string {
	var doc struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal([]byte(configSchema), &doc); err != nil {
		return nil
	}
	keys := make([]string, 0, len(doc.Properties))
	for k := range doc.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
