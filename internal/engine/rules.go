package engine

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rambosorn/khadimy/internal/metadata"
)

// EvaluateRules runs the content type's field and expression rules against
// the record and returns the violations.
func EvaluateRules(ct *metadata.ContentType, fields map[string]any, old map[string]any, isCreate bool) []ErrorDetail {
	if len(ct.Rules) == 0 {
		return nil
	}

	action := metadata.ActionUpdate
	if isCreate {
		action = metadata.ActionCreate
	}

	env := map[string]any{
		"record": fields,
		"old":    old,
		"action": action,
	}

	var errs []ErrorDetail

	for _, r := range ct.Rules {
		if r.Type != metadata.RuleField {
			continue
		}
		if detail := EvaluateFieldRule(r, fields); detail != nil {
			errs = append(errs, *detail)
			if r.Definition.StopOnFail {
				return errs
			}
		}
	}

	for _, r := range ct.Rules {
		if r.Type != metadata.RuleExpression {
			continue
		}
		if detail := EvaluateExpressionRule(r, env); detail != nil {
			errs = append(errs, *detail)
			if r.Definition.StopOnFail {
				return errs
			}
		}
	}

	return errs
}

// EvaluateFieldRule evaluates a single field rule against a record.
// Returns nil if the rule passes, or an ErrorDetail if it fails.
func EvaluateFieldRule(rule *metadata.Rule, record map[string]any) *ErrorDetail {
	fieldName := rule.Definition.Field
	val, exists := record[fieldName]
	if !exists || val == nil {
		return nil // absent fields are not checked by field rules (use "required" for that)
	}

	op := rule.Definition.Operator
	msg := rule.Definition.Message
	if msg == "" {
		msg = fmt.Sprintf("%s failed %s validation", fieldName, op)
	}
	fail := &ErrorDetail{Path: []string{fieldName}, Message: msg, Name: "ValidationError"}

	switch op {
	case "min", "max":
		num, ok := toFloat64(val)
		if !ok {
			return nil
		}
		threshold, ok := toFloat64(rule.Definition.Value)
		if !ok {
			return nil
		}
		if (op == "min" && num < threshold) || (op == "max" && num > threshold) {
			return fail
		}

	case "min_length", "max_length":
		s, ok := val.(string)
		if !ok {
			return nil
		}
		threshold, ok := toFloat64(rule.Definition.Value)
		if !ok {
			return nil
		}
		n := len([]rune(s))
		if (op == "min_length" && n < int(threshold)) || (op == "max_length" && n > int(threshold)) {
			return fail
		}

	case "pattern":
		s, ok := val.(string)
		if !ok {
			return nil
		}
		pattern, ok := rule.Definition.Value.(string)
		if !ok {
			return nil
		}
		matched, err := regexp.MatchString(pattern, s)
		if err != nil || !matched {
			return fail
		}
	}

	return nil
}

// CompileExpression compiles an expression string into an expr-lang program.
func CompileExpression(expression string) (*vm.Program, error) {
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}
	return prog, nil
}

// CompileRules compiles every expression rule of the registered types up front.
func CompileRules(reg *metadata.Registry) error {
	for _, ct := range reg.All() {
		for _, r := range ct.Rules {
			if r.Type != metadata.RuleExpression {
				continue
			}
			prog, err := CompileExpression(r.Definition.Expression)
			if err != nil {
				return fmt.Errorf("%s: %w", ct.Name, err)
			}
			r.Compiled = prog
		}
	}
	return nil
}

// EvaluateExpressionRule evaluates a compiled expression rule against an environment.
// The env should contain: record, old, action.
// Returns nil if the rule passes (expression is false), or an ErrorDetail if violated (expression is true).
func EvaluateExpressionRule(rule *metadata.Rule, env map[string]any) *ErrorDetail {
	prog, ok := rule.Compiled.(*vm.Program)
	if !ok || prog == nil {
		compiled, err := CompileExpression(rule.Definition.Expression)
		if err != nil {
			return &ErrorDetail{Message: fmt.Sprintf("compile error: %v", err), Name: "ValidationError"}
		}
		rule.Compiled = compiled
		prog = compiled
	}

	result, err := expr.Run(prog, env)
	if err != nil {
		return &ErrorDetail{Message: fmt.Sprintf("rule evaluation error: %v", err), Name: "ValidationError"}
	}

	violated, ok := result.(bool)
	if !ok || !violated {
		return nil
	}

	msg := rule.Definition.Message
	if msg == "" {
		msg = "Expression rule violated"
	}
	detail := &ErrorDetail{Message: msg, Name: "ValidationError"}
	if rule.Definition.Field != "" {
		detail.Path = []string{rule.Definition.Field}
	}
	return detail
}

// toFloat64 converts numeric types to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
