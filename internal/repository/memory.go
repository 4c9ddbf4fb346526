package repository

import (
	"context"
	"sync"
	"time"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
)

// InMemoryRepository mirrors PostgresRepository semantics for tests:
// first-write-wins persons, last-write-wins measurement upserts, append-only
// rejections.
type InMemoryRepository struct {
	mu            sync.RWMutex
	nextPersonID  int64
	nextFactID    int64
	nextRejectID  int64
	personsByName map[string]*models.Person
	measurements  map[factKey]*models.Measurement
	rejections    []*models.RejectedRecord
}

type factKey struct {
	personID int64
	ts       time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		personsByName: make(map[string]*models.Person),
		measurements:  make(map[factKey]*models.Measurement),
	}
}

func (r *InMemoryRepository) EnsurePerson(_ context.Context, person models.Person) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.personsByName[person.Name]; ok {
		return existing.PersonID, nil
	}

	r.nextPersonID++
	p := person
	p.PersonID = r.nextPersonID
	r.personsByName[p.Name] = &p
	return p.PersonID, nil
}

func (r *InMemoryRepository) GetPersonByName(_ context.Context, name string) (*models.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.personsByName[name]
	if !ok {
		return nil, ErrPersonNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *InMemoryRepository) UpsertMeasurement(_ context.Context, personID int64, ts time.Time, columns []string, metrics map[string]any) (models.LoadOutcome, error) {
	if len(columns) == 0 {
		return 0, ErrNoMetricColumns
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := factKey{personID: personID, ts: ts.UTC()}
	if existing, ok := r.measurements[key]; ok {
		for _, col := range columns {
			existing.Metrics[col] = metrics[col]
		}
		return models.OutcomeUpdated, nil
	}

	r.nextFactID++
	m := &models.Measurement{
		MeasurementID: r.nextFactID,
		PersonID:      personID,
		Timestamp:     ts,
		Metrics:       make(map[string]any, len(columns)),
	}
	for _, col := range columns {
		m.Metrics[col] = metrics[col]
	}
	r.measurements[key] = m
	return models.OutcomeInserted, nil
}

func (r *InMemoryRepository) InsertRejection(_ context.Context, rej *models.RejectedRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextRejectID++
	clone := *rej
	clone.RejectID = r.nextRejectID
	if clone.RejectedAt.IsZero() {
		clone.RejectedAt = time.Now()
	}
	r.rejections = append(r.rejections, &clone)
	return nil
}

func (r *InMemoryRepository) TableCounts(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int64{
		"persons":          int64(len(r.personsByName)),
		"measurements":     int64(len(r.measurements)),
		"rejected_records": int64(len(r.rejections)),
	}, nil
}

func (r *InMemoryRepository) Close() {}

// Measurements returns a snapshot of all fact rows, for test assertions.
func (r *InMemoryRepository) Measurements() []*models.Measurement {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Measurement, 0, len(r.measurements))
	for _, m := range r.measurements {
		clone := *m
		out = append(out, &clone)
	}
	return out
}

// Rejections returns a snapshot of the audit trail, for test assertions.
func (r *InMemoryRepository) Rejections() []*models.RejectedRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.RejectedRecord, 0, len(r.rejections))
	for _, rej := range r.rejections {
		clone := *rej
		out = append(out, &clone)
	}
	return out
}
