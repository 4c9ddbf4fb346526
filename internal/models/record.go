package models

import "time"

// RawRecord is one untyped input row as produced by a reader. Field values
// are whatever the reader yielded: string, float64, bool, or nil for an
// empty cell. Consumed exactly once by the validator.
type RawRecord struct {
	Source string
	Fields map[string]any
}

// CleanRecord is a typed, normalized record ready for loading. Metrics holds
// only registry-known measurement columns; a nil entry is an explicit SQL
// NULL. Columns preserves the schema's field-declaration order for the
// record's table so generated SQL is deterministic.
type CleanRecord struct {
	Source       string
	Table        string
	PersonName   string
	LocationName *string
	Latitude     *float64
	Longitude    *float64
	Timestamp    time.Time
	Columns      []string
	Metrics      map[string]any
}
