// Package cleaner normalizes records the validator accepted: real type
// coercion, null handling, and key standardization. It is a pure transform
// over already-accepted input and never produces a validation failure.
package cleaner

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/schema"
)

// Entity fields carried on the person dimension rather than the measurement
// row. Everything else in a table's rule set is a metric column.
const (
	fieldPerson       = "person"
	fieldTimestamp    = "timestamp"
	fieldLocationName = "location_name"
	fieldLatitude     = "latitude"
	fieldLongitude    = "longitude"
)

var titleCaser = cases.Title(language.English)

// Cleaner turns validated raw records into typed CleanRecords.
type Cleaner struct {
	registry *schema.Registry
}

func New(registry *schema.Registry) *Cleaner {
	return &Cleaner{registry: registry}
}

// Clean coerces every registry-known field of the record to its target type.
// Null metrics stay null rather than defaulting to zero, so downstream
// analytics are not biased by invented values. Fields absent from the
// registry do not survive into the result.
//
// An error here means a record reached the cleaner without passing
// validation; callers route it to the rejection sink rather than aborting.
func (c *Cleaner) Clean(record models.RawRecord, table string) (models.CleanRecord, error) {
	rules, err := c.registry.RulesFor(table)
	if err != nil {
		return models.CleanRecord{}, err
	}

	clean := models.CleanRecord{
		Source:  record.Source,
		Table:   table,
		Metrics: make(map[string]any),
	}

	for _, rule := range rules {
		raw, present := record.Fields[rule.Name]
		if !present || schema.IsNull(raw) {
			if !isEntityField(rule.Name) {
				clean.Columns = append(clean.Columns, rule.Name)
				clean.Metrics[rule.Name] = nil
			}
			continue
		}

		value, err := rule.Coerce(raw)
		if err != nil {
			return models.CleanRecord{}, fmt.Errorf("field %s: %w", rule.Name, err)
		}

		// Entity field types are pinned at rules load, so these
		// assertions cannot fail on a loaded registry.
		switch rule.Name {
		case fieldPerson:
			clean.PersonName = CanonicalName(value.(string))
		case fieldTimestamp:
			clean.Timestamp = value.(time.Time)
		case fieldLocationName:
			s := value.(string)
			clean.LocationName = &s
		case fieldLatitude:
			f := value.(float64)
			clean.Latitude = &f
		case fieldLongitude:
			f := value.(float64)
			clean.Longitude = &f
		default:
			clean.Columns = append(clean.Columns, rule.Name)
			clean.Metrics[rule.Name] = value
		}
	}

	return clean, nil
}

// CanonicalName collapses internal whitespace and title-cases a person name
// so the same logical person is never split into two rows by incidental
// formatting differences ("  alice  CARROLL " -> "Alice Carroll").
func CanonicalName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	return titleCaser.String(strings.ToLower(collapsed))
}

func isEntityField(name string) bool {
	switch name {
	case fieldPerson, fieldTimestamp, fieldLocationName, fieldLatitude, fieldLongitude:
		return true
	}
	return false
}
