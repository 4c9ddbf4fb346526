package schema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/schema"
)

const sampleRules = `
tables:
  vitals:
    fields:
      - name: person
        type: string
        nullable: false
      - name: timestamp
        type: timestamp
        nullable: false
      - name: heart_rate
        type: integer
        nullable: true
        min: 20
        max: 250
      - name: mood
        type: string
        nullable: true
        enum: [low, ok, high]
`

func TestParse(t *testing.T) {
	reg, err := schema.Parse([]byte(sampleRules))
	require.NoError(t, err)

	assert.True(t, reg.HasTable("vitals"))
	assert.False(t, reg.HasTable("unknown"))
	assert.ElementsMatch(t, []string{"vitals"}, reg.Tables())
}

func TestParse_PreservesDeclarationOrder(t *testing.T) {
	reg, err := schema.Parse([]byte(sampleRules))
	require.NoError(t, err)

	rules, err := reg.RulesFor("vitals")
	require.NoError(t, err)
	require.Len(t, rules, 4)

	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"person", "timestamp", "heart_rate", "mood"}, names)
}

func TestParse_RuleAttributes(t *testing.T) {
	reg, err := schema.Parse([]byte(sampleRules))
	require.NoError(t, err)

	rules, err := reg.RulesFor("vitals")
	require.NoError(t, err)

	hr := rules[2]
	assert.Equal(t, schema.TypeInteger, hr.Type)
	assert.True(t, hr.Nullable)
	require.NotNil(t, hr.Min)
	require.NotNil(t, hr.Max)
	assert.Equal(t, 20.0, *hr.Min)
	assert.Equal(t, 250.0, *hr.Max)

	mood := rules[3]
	assert.Equal(t, []string{"low", "ok", "high"}, mood.Enum)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no tables", "tables: {}"},
		{"table with no fields", "tables:\n  empty:\n    fields: []"},
		{"missing field name", "tables:\n  t:\n    fields:\n      - type: string"},
		{"unknown type", "tables:\n  t:\n    fields:\n      - name: x\n        type: decimal"},
		{"duplicate field", "tables:\n  t:\n    fields:\n      - name: x\n        type: string\n      - name: x\n        type: string"},
		{"min above max", "tables:\n  t:\n    fields:\n      - name: x\n        type: float\n        min: 10\n        max: 1"},
		{"person not string", "tables:\n  t:\n    fields:\n      - name: person\n        type: integer"},
		{"timestamp not timestamp", "tables:\n  t:\n    fields:\n      - name: timestamp\n        type: string"},
		{"latitude not float", "tables:\n  t:\n    fields:\n      - name: latitude\n        type: string"},
		{"not yaml", "tables: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRulesFor_UnknownTable(t *testing.T) {
	reg, err := schema.Parse([]byte(sampleRules))
	require.NoError(t, err)

	_, err = reg.RulesFor("nope")
	assert.ErrorIs(t, err, schema.ErrUnknownTable)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o644))

	reg, err := schema.Load(path)
	require.NoError(t, err)
	assert.True(t, reg.HasTable("vitals"))

	_, err = schema.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
