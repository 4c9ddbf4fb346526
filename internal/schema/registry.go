// Package schema loads the declarative validation rule set and exposes it as
// an immutable, queryable contract. Rules live in data, not code: adding a
// field or a table is a rules-file edit, never a validator or cleaner change.
package schema

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownTable = errors.New("no rules registered for table")
)

// FieldType is the expected type of a field's values.
type FieldType string

const (
	TypeInteger   FieldType = "integer"
	TypeFloat     FieldType = "float"
	TypeString    FieldType = "string"
	TypeBoolean   FieldType = "boolean"
	TypeTimestamp FieldType = "timestamp"
)

func (t FieldType) valid() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeString, TypeBoolean, TypeTimestamp:
		return true
	}
	return false
}

// Rule describes one field's contract. Min/Max apply to numeric types only;
// Enum restricts string values to an allowed set.
type Rule struct {
	Name     string    `yaml:"name"`
	Type     FieldType `yaml:"type"`
	Nullable bool      `yaml:"nullable"`
	Min      *float64  `yaml:"min,omitempty"`
	Max      *float64  `yaml:"max,omitempty"`
	Enum     []string  `yaml:"enum,omitempty"`
}

type tableRules struct {
	Fields []Rule `yaml:"fields"`
}

type rulesFile struct {
	Tables map[string]tableRules `yaml:"tables"`
}

// Entity fields land on the person dimension and are consumed as concrete
// types downstream; a rules file may not redeclare them with another type.
var entityFieldTypes = map[string]FieldType{
	"person":        TypeString,
	"timestamp":     TypeTimestamp,
	"location_name": TypeString,
	"latitude":      TypeFloat,
	"longitude":     TypeFloat,
}

// Registry holds the per-table rule sets. Immutable after load; safe for
// concurrent readers.
type Registry struct {
	tables map[string][]Rule
}

// Load reads and parses the rules file at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a Registry from YAML rule data. Field declaration order is
// preserved: rules are a YAML sequence, and violation ordering downstream
// depends on it.
func Parse(data []byte) (*Registry, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(file.Tables) == 0 {
		return nil, errors.New("rules file defines no tables")
	}

	tables := make(map[string][]Rule, len(file.Tables))
	for name, tbl := range file.Tables {
		if len(tbl.Fields) == 0 {
			return nil, fmt.Errorf("table %s defines no fields", name)
		}
		seen := make(map[string]bool, len(tbl.Fields))
		for _, rule := range tbl.Fields {
			if rule.Name == "" {
				return nil, fmt.Errorf("table %s has a rule with no field name", name)
			}
			if !rule.Type.valid() {
				return nil, fmt.Errorf("table %s field %s: unknown type %q", name, rule.Name, rule.Type)
			}
			if seen[rule.Name] {
				return nil, fmt.Errorf("table %s field %s declared twice", name, rule.Name)
			}
			if want, ok := entityFieldTypes[rule.Name]; ok && rule.Type != want {
				return nil, fmt.Errorf("table %s field %s must have type %s, not %s", name, rule.Name, want, rule.Type)
			}
			if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
				return nil, fmt.Errorf("table %s field %s: min %v exceeds max %v", name, rule.Name, *rule.Min, *rule.Max)
			}
			seen[rule.Name] = true
		}
		tables[name] = tbl.Fields
	}

	return &Registry{tables: tables}, nil
}

// RulesFor returns the ordered rule list for a logical table.
func (r *Registry) RulesFor(table string) ([]Rule, error) {
	rules, ok := r.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return rules, nil
}

// HasTable reports whether rules are registered for table.
func (r *Registry) HasTable(table string) bool {
	_, ok := r.tables[table]
	return ok
}

// Tables returns the registered table names in unspecified order.
func (r *Registry) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}
