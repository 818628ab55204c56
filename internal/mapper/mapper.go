package mapper

import (
	"fmt"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// Locate maps a schema violation at instancePath to the YAML span that best
// explains it. The document start is returned when nothing more precise
// can be found.
func Locate(yamlBytes []byte, instancePath string, meta ErrorMeta) (Span, error) {
	segments, err := decodeJSONPointer(instancePath)
	if err != nil {
		return Span{}, err
	}

	file, err := parser.ParseBytes(yamlBytes, 0)
	if err != nil {
		return Span{}, fmt.Errorf("yaml parse error: %w", err)
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return documentSpan(), nil
	}
	root := file.Docs[0].Body

	node, key, depth := walk(root, segments)

	if depth == len(segments) {
		switch meta.Kind {
		case KindAdditionalProperty:
			if k := findKey(node, meta.Property); k != nil {
				return nodeSpan(k, fmt.Sprintf("unknown key '%s'", meta.Property)), nil
			}
		case KindRequired:
			if span, ok := insertionAnchor(node, meta.Property); ok {
				return span, nil
			}
		default:
			if _, isNull := node.(*ast.NullNode); !isNull || key == nil {
				if span, ok := tokenSpan(node.GetToken(), "offending value"); ok {
					return span, nil
				}
			}
			if key != nil {
				return nodeSpan(key, "key with missing value"), nil
			}
		}
	}

	// Nearest existing ancestor
	if key != nil {
		return nodeSpan(key, fmt.Sprintf("closest existing key at depth %d", depth)), nil
	}
	return documentSpan(), nil
}

// walk follows segments from root. It returns the deepest node reached,
// the mapping key that led to it, and how many segments were consumed.
func walk(root ast.Node, segments []string) (ast.Node, ast.Node, int) {
	current := root
	var key ast.Node

	for depth, segment := range segments {
		switch node := current.(type) {
		case *ast.MappingNode:
			mv := findEntry(node.Values, segment)
			if mv == nil {
				return current, key, depth
			}
			current, key = mv.Value, mv.Key
		case *ast.MappingValueNode:
			mv := findEntry([]*ast.MappingValueNode{node}, segment)
			if mv == nil {
				return current, key, depth
			}
			current, key = mv.Value, mv.Key
		case *ast.SequenceNode:
			idx := parseIndex(segment)
			if idx < 0 || idx >= len(node.Values) {
				return current, key, depth
			}
			current = node.Values[idx]
		default:
			return current, key, depth
		}
	}

	return current, key, len(segments)
}

func findEntry(values []*ast.MappingValueNode, name string) *ast.MappingValueNode {
	for _, mv := range values {
		if keyMatches(mv.Key, name) {
			return mv
		}
	}
	return nil
}

func mappingEntries(node ast.Node) []*ast.MappingValueNode {
	switch n := node.(type) {
	case *ast.MappingNode:
		return n.Values
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{n}
	}
	return nil
}

// keyMatches checks if a mapping key node matches the expected segment string
func keyMatches(keyNode ast.MapKeyNode, segment string) bool {
	switch key := keyNode.(type) {
	case *ast.StringNode:
		return key.Value == segment
	case *ast.MappingKeyNode:
		return key.Value.GetToken().Value == segment
	default:
		if tk := key.GetToken(); tk != nil {
			return tk.Value == segment
		}
		return false
	}
}

func findKey(node ast.Node, name string) ast.Node {
	if mv := findEntry(mappingEntries(node), name); mv != nil {
		return mv.Key
	}
	return nil
}

// insertionAnchor returns the line below the last entry of a mapping, where
// a missing key would go
func insertionAnchor(node ast.Node, property string) (Span, bool) {
	entries := mappingEntries(node)
	if len(entries) == 0 {
		return Span{}, false
	}
	last := entries[len(entries)-1]
	tk := last.Key.GetToken()
	if tk == nil {
		return Span{}, false
	}
	line := tk.Position.Line + 1
	if vt := last.Value.GetToken(); vt != nil && vt.Position.Line >= tk.Position.Line {
		line = vt.Position.Line + 1
	}
	return Span{
		StartLine: line,
		StartCol:  tk.Position.Column,
		EndLine:   line,
		EndCol:    tk.Position.Column,
		Reason:    fmt.Sprintf("insertion point for missing key '%s'", property),
	}, true
}

func nodeSpan(node ast.Node, reason string) Span {
	if span, ok := tokenSpan(node.GetToken(), reason); ok {
		return span
	}
	return documentSpan()
}

func tokenSpan(tk *token.Token, reason string) (Span, bool) {
	if tk == nil || tk.Position == nil {
		return Span{}, false
	}
	pos := tk.Position
	return Span{
		StartLine: pos.Line,
		StartCol:  pos.Column,
		EndLine:   pos.Line,
		EndCol:    pos.Column + len(tk.Value),
		Reason:    reason,
	}, true
}

func documentSpan() Span {
	return Span{StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 1, Reason: "document start"}
}
