// Package repository provides persistence for persons, measurements, and the
// rejection audit trail. PostgresRepository is the production store;
// InMemoryRepository backs unit tests.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
)

var (
	ErrPersonNotFound  = errors.New("person not found")
	ErrNoMetricColumns = errors.New("no metric columns to upsert")
)

type Repository interface {
	// EnsurePerson resolves a person by natural key, creating the row on
	// first sighting. Location attributes are first-write-wins: an existing
	// person is never updated. Returns the surrogate person_id.
	EnsurePerson(ctx context.Context, person models.Person) (int64, error)

	GetPersonByName(ctx context.Context, name string) (*models.Person, error)

	// UpsertMeasurement inserts the fact row keyed by (personID, ts), or on
	// conflict updates exactly the given columns (last-write-wins for the
	// record's own metrics, leaving other sources' columns untouched).
	UpsertMeasurement(ctx context.Context, personID int64, ts time.Time, columns []string, metrics map[string]any) (models.LoadOutcome, error)

	// InsertRejection appends to the audit trail. Rows are never updated or
	// deleted by the pipeline.
	InsertRejection(ctx context.Context, rej *models.RejectedRecord) error

	// TableCounts returns the current row count per pipeline table.
	TableCounts(ctx context.Context) (map[string]int64, error)

	Close()
}
