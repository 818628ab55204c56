package mapper

import (
	"errors"
	"strconv"
	"strings"
)

// decodeJSONPointer decodes an RFC6901 pointer (e.g. "/a/0/b") into its
// segments. Returns an empty slice for "" or "/".
func decodeJSONPointer(ptr string) ([]string, error) {
	if ptr == "" || ptr == "/" {
		return []string{}, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, errors.New("invalid json pointer: must start with '/'")
	}
	parts := strings.Split(ptr[1:], "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		parts[i] = p
	}
	return parts, nil
}

// EncodeJSONPointer builds an RFC6901 pointer from instance location segments
func EncodeJSONPointer(segments []string) string {
	var sb strings.Builder
	for _, s := range segments {
		sb.WriteByte('/')
		s = strings.ReplaceAll(s, "~", "~0")
		sb.WriteString(strings.ReplaceAll(s, "/", "~1"))
	}
	return sb.String()
}

// parseIndex returns the array index a segment denotes, or -1
func parseIndex(segment string) int {
	if segment == "" || segment[0] == '-' || segment[0] == '+' {
		return -1
	}
	i, err := strconv.Atoi(segment)
	if err != nil {
		return -1
	}
	return i
}
