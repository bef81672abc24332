package metadata

// Rule types.
const (
	RuleField      = "field"
	RuleExpression = "expression"
)

// RuleDefinition holds the parameters of a validation rule.
type RuleDefinition struct {
	// Field rules
	Field    string `json:"field,omitempty"`
	Operator string `json:"operator,omitempty"` // min_length, max_length, pattern
	Value    any    `json:"value,omitempty"`

	// Expression rules; the rule is violated when the expression is true.
	Expression string `json:"expression,omitempty"`

	Message    string `json:"message,omitempty"`
	StopOnFail bool   `json:"stop_on_fail,omitempty"`
}

// Rule is a write-time validation rule attached to a content type.
type Rule struct {
	Type       string         `json:"type"`
	Definition RuleDefinition `json:"definition"`

	// Compiled holds the compiled expression program (set lazily, not serialized).
	Compiled any `json:"-"`
}
