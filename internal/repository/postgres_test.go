package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
)

// setupTestDatabase starts a PostgreSQL testcontainer and applies the
// schema migration.
func setupTestDatabase(t *testing.T) *PostgresRepository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("neurotrace_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := applyMigration(connStr); err != nil {
		t.Fatalf("Failed to run migration: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr, 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(repo.Close)

	return repo
}

func applyMigration(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationPath := filepath.Join("..", "..", "migrations", "000001_init.up.sql")
	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

func TestPostgres_EnsurePerson(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()

	loc := "Portland"
	id1, err := repo.EnsurePerson(ctx, models.Person{Name: "Alice Carroll", LocationName: &loc})
	require.NoError(t, err)
	assert.NotZero(t, id1)

	other := "Seattle"
	id2, err := repo.EnsurePerson(ctx, models.Person{Name: "Alice Carroll", LocationName: &other})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	p, err := repo.GetPersonByName(ctx, "Alice Carroll")
	require.NoError(t, err)
	require.NotNil(t, p.LocationName)
	assert.Equal(t, "Portland", *p.LocationName, "first-seen attributes must survive later sightings")

	_, err = repo.GetPersonByName(ctx, "Nobody")
	assert.ErrorIs(t, err, ErrPersonNotFound)
}

func TestPostgres_UpsertMeasurement(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 21, 8, 0, 0, 0, time.UTC)

	id, err := repo.EnsurePerson(ctx, models.Person{Name: "Bob"})
	require.NoError(t, err)

	outcome, err := repo.UpsertMeasurement(ctx, id, ts,
		[]string{"sleep_hours", "steps"},
		map[string]any{"sleep_hours": 7.5, "steps": int64(9000)})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeInserted, outcome)

	// Same key again: update, not a second row.
	outcome, err = repo.UpsertMeasurement(ctx, id, ts,
		[]string{"sleep_hours"},
		map[string]any{"sleep_hours": 8.0})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)

	// A different column subset merges into the same row.
	outcome, err = repo.UpsertMeasurement(ctx, id, ts,
		[]string{"brain_fog_score"},
		map[string]any{"brain_fog_score": int64(4)})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeUpdated, outcome)

	var sleep float64
	var steps, fog int64
	var count int64
	err = repo.pool.QueryRow(ctx, `
		SELECT COUNT(*) OVER (), sleep_hours, steps, brain_fog_score
		FROM measurements WHERE person_id = $1 AND timestamp = $2
	`, id, ts).Scan(&count, &sleep, &steps, &fog)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 8.0, sleep)
	assert.Equal(t, int64(9000), steps)
	assert.Equal(t, int64(4), fog)
}

func TestPostgres_UpsertMeasurement_NullMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()
	ts := time.Date(2026, 8, 21, 8, 0, 0, 0, time.UTC)

	id, err := repo.EnsurePerson(ctx, models.Person{Name: "Bob"})
	require.NoError(t, err)

	_, err = repo.UpsertMeasurement(ctx, id, ts,
		[]string{"sleep_hours", "steps"},
		map[string]any{"sleep_hours": 7.5, "steps": nil})
	require.NoError(t, err)

	var sleep *float64
	var steps *int64
	err = repo.pool.QueryRow(ctx,
		`SELECT sleep_hours, steps FROM measurements WHERE person_id = $1 AND timestamp = $2`,
		id, ts).Scan(&sleep, &steps)
	require.NoError(t, err)
	require.NotNil(t, sleep)
	assert.Equal(t, 7.5, *sleep)
	assert.Nil(t, steps, "null metrics must stay null, not default to zero")
}

func TestPostgres_UpsertMeasurement_RejectsBadColumn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()

	id, err := repo.EnsurePerson(ctx, models.Person{Name: "Bob"})
	require.NoError(t, err)

	_, err = repo.UpsertMeasurement(ctx, id, time.Now(),
		[]string{"steps; DROP TABLE persons"},
		map[string]any{"steps; DROP TABLE persons": 1})
	assert.Error(t, err)
}

func TestPostgres_InsertRejectionAndCounts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repo := setupTestDatabase(t)
	ctx := context.Background()

	err := repo.InsertRejection(ctx, &models.RejectedRecord{
		SourceName: "behavioral",
		RawPayload: []byte(`{"person":"bob","sleep_hours":"37.5"}`),
		Reason:     "sleep_hours: out of range [0,24]",
	})
	require.NoError(t, err)

	var reason string
	var rejectedAt time.Time
	err = repo.pool.QueryRow(ctx,
		`SELECT reason, rejected_at FROM rejected_records WHERE source_name = 'behavioral'`).
		Scan(&reason, &rejectedAt)
	require.NoError(t, err)
	assert.Equal(t, "sleep_hours: out of range [0,24]", reason)
	assert.WithinDuration(t, time.Now(), rejectedAt, time.Minute)

	counts, err := repo.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts["persons"])
	assert.Equal(t, int64(0), counts["measurements"])
	assert.Equal(t, int64(1), counts["rejected_records"])
}
