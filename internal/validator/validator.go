// Package validator applies the schema registry's rules to raw records.
// Detection lives here and transformation lives in the cleaner: every
// condition that should cause a rejection is caught before cleaning runs,
// so the rejection-reason vocabulary is owned entirely by this package.
package validator

import (
	"fmt"
	"strings"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/schema"
)

// Violation is one failed check on one field.
type Violation struct {
	Field   string
	Message string
}

// Result is the verdict for a single record. All violations are collected
// before the verdict so the rejection reason is complete, and they appear in
// field-declaration order so the reason string is deterministic.
type Result struct {
	Valid      bool
	Violations []Violation
}

// Reason renders the violations as the canonical rejection reason string.
func (r Result) Reason() string {
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return strings.Join(parts, "; ")
}

// Validator checks raw records against registry rules.
type Validator struct {
	registry *schema.Registry
}

func New(registry *schema.Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate checks every registered field of table against the record.
// Fields present in the record but absent from the registry are ignored, so
// unknown columns never cause rejection. Coercion here is for checking only;
// the record itself is not mutated.
func (v *Validator) Validate(record models.RawRecord, table string) (Result, error) {
	rules, err := v.registry.RulesFor(table)
	if err != nil {
		return Result{}, err
	}

	var violations []Violation
	for _, rule := range rules {
		raw, present := record.Fields[rule.Name]
		if !present || schema.IsNull(raw) {
			if !rule.Nullable {
				violations = append(violations, Violation{rule.Name, "missing required field"})
			}
			continue
		}

		value, err := rule.Coerce(raw)
		if err != nil {
			violations = append(violations, Violation{rule.Name, fmt.Sprintf("invalid type, expected %s", rule.Type)})
			continue
		}

		if rule.Min != nil || rule.Max != nil {
			if n, ok := schema.Numeric(value); ok {
				if (rule.Min != nil && n < *rule.Min) || (rule.Max != nil && n > *rule.Max) {
					violations = append(violations, Violation{rule.Name, rangeMessage(rule)})
					continue
				}
			}
		}

		if len(rule.Enum) > 0 {
			if s, ok := value.(string); !ok || !contains(rule.Enum, s) {
				violations = append(violations, Violation{rule.Name, "not in allowed set"})
			}
		}
	}

	return Result{Valid: len(violations) == 0, Violations: violations}, nil
}

func rangeMessage(rule schema.Rule) string {
	min, max := "-inf", "+inf"
	if rule.Min != nil {
		min = schema.FormatBound(*rule.Min)
	}
	if rule.Max != nil {
		max = schema.FormatBound(*rule.Max)
	}
	return fmt.Sprintf("out of range [%s,%s]", min, max)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
