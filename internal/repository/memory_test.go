package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/repository"
)

func strPtr(s string) *string { return &s }

func TestInMemory_EnsurePerson(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()

	id1, err := repo.EnsurePerson(ctx, models.Person{Name: "Alice Carroll", LocationName: strPtr("Portland")})
	require.NoError(t, err)
	assert.NotZero(t, id1)

	// Second sighting resolves to the same id and keeps the first attributes.
	id2, err := repo.EnsurePerson(ctx, models.Person{Name: "Alice Carroll", LocationName: strPtr("Seattle")})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	p, err := repo.GetPersonByName(ctx, "Alice Carroll")
	require.NoError(t, err)
	require.NotNil(t, p.LocationName)
	assert.Equal(t, "Portland", *p.LocationName)
}

func TestInMemory_GetPersonByName_NotFound(t *testing.T) {
	repo := repository.NewInMemoryRepository()

	_, err := repo.GetPersonByName(context.Background(), "Nobody")
	assert.ErrorIs(t, err, repository.ErrPersonNotFound)
}

func TestInMemory_UpsertMeasurement(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()
	ts := time.Date(2026, 8, 21, 8, 0, 0, 0, time.UTC)

	id, err := repo.EnsurePerson(ctx, models.Person{Name: "Bob"})
	require.NoError(t, err)

	outcome, err := repo.UpsertMeasurement(ctx, id, ts, []string{"sleep_hours"}, map[string]any{"sleep_hours": 7.5})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeInserted, outcome)

	// Same key with a different column set merges rather than replacing.
	outcome, err = repo.UpsertMeasurement(ctx, id, ts, []string{"steps"}, map[string]any{"steps": int64(100)})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)

	// Last write wins per column.
	outcome, err = repo.UpsertMeasurement(ctx, id, ts, []string{"sleep_hours"}, map[string]any{"sleep_hours": 8.0})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)

	measurements := repo.Measurements()
	require.Len(t, measurements, 1)
	assert.Equal(t, 8.0, measurements[0].Metrics["sleep_hours"])
	assert.Equal(t, int64(100), measurements[0].Metrics["steps"])
}

func TestInMemory_UpsertMeasurement_TimezoneInsensitiveKey(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()

	id, err := repo.EnsurePerson(ctx, models.Person{Name: "Bob"})
	require.NoError(t, err)

	est := time.FixedZone("EST", -5*3600)
	utc := time.Date(2026, 8, 21, 13, 0, 0, 0, time.UTC)
	sameInstant := time.Date(2026, 8, 21, 8, 0, 0, 0, est)

	_, err = repo.UpsertMeasurement(ctx, id, utc, []string{"pm25"}, map[string]any{"pm25": 10.0})
	require.NoError(t, err)
	outcome, err := repo.UpsertMeasurement(ctx, id, sameInstant, []string{"pm25"}, map[string]any{"pm25": 12.0})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeUpdated, outcome)
	assert.Len(t, repo.Measurements(), 1)
}

func TestInMemory_UpsertMeasurement_NoColumns(t *testing.T) {
	repo := repository.NewInMemoryRepository()

	_, err := repo.UpsertMeasurement(context.Background(), 1, time.Now(), nil, nil)
	assert.ErrorIs(t, err, repository.ErrNoMetricColumns)
}

func TestInMemory_InsertRejection(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()

	err := repo.InsertRejection(ctx, &models.RejectedRecord{
		SourceName: "behavioral",
		RawPayload: []byte(`{"person":"bob"}`),
		Reason:     "sleep_hours: out of range [0,24]",
	})
	require.NoError(t, err)

	rejections := repo.Rejections()
	require.Len(t, rejections, 1)
	assert.NotZero(t, rejections[0].RejectID)
	assert.False(t, rejections[0].RejectedAt.IsZero())
}

func TestInMemory_TableCounts(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	ctx := context.Background()

	id, err := repo.EnsurePerson(ctx, models.Person{Name: "Bob"})
	require.NoError(t, err)
	_, err = repo.UpsertMeasurement(ctx, id, time.Now(), []string{"pm25"}, map[string]any{"pm25": 1.0})
	require.NoError(t, err)
	require.NoError(t, repo.InsertRejection(ctx, &models.RejectedRecord{SourceName: "x", RawPayload: []byte("{}"), Reason: "r"}))

	counts, err := repo.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["persons"])
	assert.Equal(t, int64(1), counts["measurements"])
	assert.Equal(t, int64(1), counts["rejected_records"])
}
