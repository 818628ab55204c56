package mapper

// Span describes a location in the source YAML file.
type Span struct {
	StartLine int // 1-based
	StartCol  int // 1-based
	EndLine   int
	EndCol    int
	Reason    string // why this span was chosen
}

// Kind classifies a schema violation for span selection
type Kind string

const (
	// KindValue points at the offending value (type, enum, range, pattern failures)
	KindValue Kind = "value"
	// KindAdditionalProperty points at an unknown key
	KindAdditionalProperty Kind = "additionalProperties"
	// KindRequired points at where a missing key would be inserted
	KindRequired Kind = "required"
)

// ErrorMeta contains validator-provided metadata about the error.
type ErrorMeta struct {
	Kind     Kind
	Property string // offending or missing key, for KindAdditionalProperty and KindRequired
}
