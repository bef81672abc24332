package engine

import (
	"strings"
	"testing"

	"github.com/rambosorn/khadimy/internal/metadata"
)

func TestEvaluateFieldRule_Min(t *testing.T) {
	rule := &metadata.Rule{
		Type: metadata.RuleField,
		Definition: metadata.RuleDefinition{
			Field: "seats", Operator: "min", Value: float64(0),
			Message: "Seats must be non-negative",
		},
	}

	detail := EvaluateFieldRule(rule, map[string]any{"seats": float64(-5)})
	if detail == nil {
		t.Fatal("expected error for seats=-5")
	}
	if len(detail.Path) != 1 || detail.Path[0] != "seats" {
		t.Fatalf("expected path=[seats], got %v", detail.Path)
	}
	if detail.Name != "ValidationError" {
		t.Fatalf("expected name=ValidationError, got %s", detail.Name)
	}

	if detail := EvaluateFieldRule(rule, map[string]any{"seats": float64(0)}); detail != nil {
		t.Fatalf("expected pass for seats=0, got %v", detail)
	}

	// absent fields are left to the required check
	if detail := EvaluateFieldRule(rule, map[string]any{}); detail != nil {
		t.Fatalf("expected pass for absent field, got %v", detail)
	}
}

func TestEvaluateFieldRule_IntegerValues(t *testing.T) {
	rule := &metadata.Rule{
		Type: metadata.RuleField,
		Definition: metadata.RuleDefinition{
			Field: "seats", Operator: "max", Value: 30,
		},
	}

	detail := EvaluateFieldRule(rule, map[string]any{"seats": int64(31)})
	if detail == nil {
		t.Fatal("expected error for seats=31")
	}
	if detail.Message != "seats failed max validation" {
		t.Fatalf("unexpected default message: %s", detail.Message)
	}

	if detail := EvaluateFieldRule(rule, map[string]any{"seats": 30}); detail != nil {
		t.Fatalf("expected pass for seats=30, got %v", detail)
	}
}

func TestEvaluateFieldRule_MaxLengthCountsRunes(t *testing.T) {
	rule := &metadata.Rule{
		Type: metadata.RuleField,
		Definition: metadata.RuleDefinition{
			Field: "name", Operator: "max_length", Value: 5,
			Message: "name too long",
		},
	}

	// five runes, ten bytes
	if detail := EvaluateFieldRule(rule, map[string]any{"name": "خديمي"}); detail != nil {
		t.Fatalf("expected pass for five runes, got %v", detail)
	}
	if detail := EvaluateFieldRule(rule, map[string]any{"name": "Khadimy"}); detail == nil {
		t.Fatal("expected error for seven characters")
	}
}

func TestEvaluateFieldRule_MinLength(t *testing.T) {
	rule := &metadata.Rule{
		Type: metadata.RuleField,
		Definition: metadata.RuleDefinition{
			Field: "name", Operator: "min_length", Value: float64(2),
		},
	}

	if detail := EvaluateFieldRule(rule, map[string]any{"name": "A"}); detail == nil {
		t.Fatal("expected error for name=A")
	}
	if detail := EvaluateFieldRule(rule, map[string]any{"name": "Ali"}); detail != nil {
		t.Fatalf("expected pass for name=Ali, got %v", detail)
	}
}

func TestEvaluateFieldRule_Pattern(t *testing.T) {
	rule := &metadata.Rule{
		Type: metadata.RuleField,
		Definition: metadata.RuleDefinition{
			Field: "phone", Operator: "pattern", Value: `^\+?[0-9 ]+$`,
			Message: "Invalid phone number",
		},
	}

	if detail := EvaluateFieldRule(rule, map[string]any{"phone": "call me"}); detail == nil {
		t.Fatal("expected error for non-numeric phone")
	}
	if detail := EvaluateFieldRule(rule, map[string]any{"phone": "+213 555 12 34"}); detail != nil {
		t.Fatalf("expected pass for valid phone, got %v", detail)
	}
}

func TestEvaluateExpressionRule_Violated(t *testing.T) {
	rule := &metadata.Rule{
		Type: metadata.RuleExpression,
		Definition: metadata.RuleDefinition{
			Field:      "phone",
			Expression: `record.phone != nil && len(record.phone) > 32`,
			Message:    "phone must be at most 32 characters",
		},
	}

	env := map[string]any{
		"record": map[string]any{"phone": strings.Repeat("9", 33)},
		"old":    nil,
		"action": metadata.ActionCreate,
	}
	detail := EvaluateExpressionRule(rule, env)
	if detail == nil {
		t.Fatal("expected violation for a 33 character phone")
	}
	if len(detail.Path) != 1 || detail.Path[0] != "phone" {
		t.Fatalf("expected path=[phone], got %v", detail.Path)
	}
	if rule.Compiled == nil {
		t.Fatal("expected the program to be cached on the rule")
	}

	env["record"] = map[string]any{"phone": nil}
	if detail := EvaluateExpressionRule(rule, env); detail != nil {
		t.Fatalf("expected pass for nil phone, got %v", detail)
	}
}

func TestEvaluateExpressionRule_WithOldRecord(t *testing.T) {
	rule := &metadata.Rule{
		Type: metadata.RuleExpression,
		Definition: metadata.RuleDefinition{
			Expression: `action == 'update' && old.slug != record.slug`,
			Message:    "slug cannot change",
		},
	}
	prog, err := CompileExpression(rule.Definition.Expression)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	rule.Compiled = prog

	env := map[string]any{
		"record": map[string]any{"slug": "new"},
		"old":    map[string]any{"slug": "old"},
		"action": metadata.ActionUpdate,
	}
	if detail := EvaluateExpressionRule(rule, env); detail == nil {
		t.Fatal("expected violation when the slug changes on update")
	}

	env["action"] = metadata.ActionCreate
	if detail := EvaluateExpressionRule(rule, env); detail != nil {
		t.Fatalf("expected pass on create, got %v", detail)
	}
}

func TestCompileRules_RejectsBadExpression(t *testing.T) {
	reg := metadata.NewRegistry()
	reg.Register(&metadata.ContentType{
		Name: "broken", PluralName: "brokens", Kind: metadata.CollectionType, Table: "brokens",
		Rules: []*metadata.Rule{{
			Type:       metadata.RuleExpression,
			Definition: metadata.RuleDefinition{Expression: "record.("},
		}},
	})
	if err := CompileRules(reg); err == nil {
		t.Fatal("expected compile error")
	}

	if err := CompileRules(metadata.NewDefaultRegistry()); err != nil {
		t.Fatalf("default rules should compile: %v", err)
	}
}

func TestEvaluateRules_Registration(t *testing.T) {
	ct := metadata.NewDefaultRegistry().Get(metadata.Registration)

	errs := EvaluateRules(ct, map[string]any{
		"name":  strings.Repeat("a", 201),
		"phone": strings.Repeat("1", 40),
	}, nil, true)
	if len(errs) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(errs), errs)
	}
	if errs[0].Path[0] != "name" || errs[1].Path[0] != "phone" {
		t.Fatalf("expected field rules before expression rules, got %v", errs)
	}

	if errs := EvaluateRules(ct, map[string]any{"name": "Amina", "phone": "0555"}, nil, true); len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}
}
