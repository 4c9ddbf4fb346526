package models

import "time"

// Person is the dimension row keyed by natural name. Location attributes are
// first-write-wins: later sightings of the same name never overwrite them.
type Person struct {
	PersonID     int64
	Name         string
	LocationName *string
	Latitude     *float64
	Longitude    *float64
}

// Measurement is the fact row. The natural key is (PersonID, Timestamp);
// metric columns are individually nullable and carried as a map so that
// adding a field to the rules file never requires a code change here.
type Measurement struct {
	MeasurementID int64
	PersonID      int64
	Timestamp     time.Time
	Metrics       map[string]any
}

// LoadOutcome reports whether an upsert inserted a new fact row or updated
// an existing one.
type LoadOutcome int

const (
	OutcomeInserted LoadOutcome = iota
	OutcomeUpdated
)

func (o LoadOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unknown"
	}
}
