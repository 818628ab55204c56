package parser

import "fmt"

// Status tells whether a record or an extraction had to recover from
// malformed input
type Status int

const (
	StatusParsed Status = iota
	StatusDegraded
)

func (s Status) String() string {
	if s == StatusDegraded {
		return "degraded"
	}
	return "parsed"
}

// MarshalText lets Status appear by name in JSON and YAML output
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reason identifies the kind of malformed input that was recovered from
type Reason string

const (
	ReasonMalformedLength        Reason = "malformed-length"
	ReasonMalformedMarker        Reason = "malformed-marker"
	ReasonMissingPayload         Reason = "missing-payload"
	ReasonSQLLengthExceeded      Reason = "sql-length-exceeded"
	ReasonSplitRune              Reason = "split-rune"
	ReasonDuplicateLine          Reason = "duplicate-line"
	ReasonMetadataWithoutOutcome Reason = "metadata-without-outcome"
	ReasonOutcomeWithoutMetadata Reason = "outcome-without-metadata"
	ReasonRowTruncated           Reason = "row-truncated"
	ReasonTrailingContent        Reason = "trailing-content"
)

// Issue describes one recovery made while parsing
type Issue struct {
	Reason Reason `json:"reason" yaml:"reason"`
	Detail string `json:"detail" yaml:"detail"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Reason, i.Detail)
}

func newIssue(reason Reason, format string, args ...any) Issue {
	return Issue{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func statusOf(issues []Issue) Status {
	if len(issues) > 0 {
		return StatusDegraded
	}
	return StatusParsed
}

// HasReason reports whether any issue carries the given reason
func HasReason(issues []Issue, reason Reason) bool {
	for _, i := range issues {
		if i.Reason == reason {
			return true
		}
	}
	return false
}
