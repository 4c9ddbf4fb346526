package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
)

const defaultQueryTimeout = 10 * time.Second

// Metric column names come from the rules file, not from input data, but the
// rules file is still operator-supplied: reject anything that is not a plain
// lowercase identifier before it reaches generated SQL.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type PostgresRepository struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func NewPostgresRepository(ctx context.Context, connString string, queryTimeout time.Duration) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	return &PostgresRepository{pool: pool, queryTimeout: queryTimeout}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) EnsurePerson(ctx context.Context, person models.Person) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	// DO NOTHING keeps first-seen attributes; on conflict no row is
	// returned and we fall through to the lookup.
	query := `
		INSERT INTO persons (name, location_name, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
		RETURNING person_id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		person.Name,
		person.LocationName,
		person.Latitude,
		person.Longitude,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to insert person: %w", err)
	}

	err = r.pool.QueryRow(ctx, `SELECT person_id FROM persons WHERE name = $1`, person.Name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up person: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetPersonByName(ctx context.Context, name string) (*models.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT person_id, name, location_name, latitude, longitude
		FROM persons
		WHERE name = $1
	`

	var p models.Person
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&p.PersonID,
		&p.Name,
		&p.LocationName,
		&p.Latitude,
		&p.Longitude,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) UpsertMeasurement(ctx context.Context, personID int64, ts time.Time, columns []string, metrics map[string]any) (models.LoadOutcome, error) {
	if len(columns) == 0 {
		return 0, ErrNoMetricColumns
	}
	for _, col := range columns {
		if !identPattern.MatchString(col) {
			return 0, fmt.Errorf("invalid metric column name %q", col)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	cols := make([]string, 0, len(columns)+2)
	cols = append(cols, "person_id", "timestamp")
	placeholders := make([]string, 0, len(columns)+2)
	placeholders = append(placeholders, "$1", "$2")
	updates := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+2)
	args = append(args, personID, ts)

	for i, col := range columns {
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		args = append(args, metrics[col])
	}

	// xmax = 0 distinguishes a fresh insert from a conflict update.
	query := fmt.Sprintf(`
		INSERT INTO measurements (%s)
		VALUES (%s)
		ON CONFLICT (person_id, timestamp) DO UPDATE SET %s
		RETURNING (xmax = 0)
	`,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var inserted bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
		return 0, fmt.Errorf("failed to upsert measurement: %w", err)
	}
	if inserted {
		return models.OutcomeInserted, nil
	}
	return models.OutcomeUpdated, nil
}

func (r *PostgresRepository) InsertRejection(ctx context.Context, rej *models.RejectedRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		INSERT INTO rejected_records (source_name, raw_payload, reason)
		VALUES ($1, $2, $3)
	`

	if _, err := r.pool.Exec(ctx, query, rej.SourceName, rej.RawPayload, rej.Reason); err != nil {
		return fmt.Errorf("failed to insert rejection: %w", err)
	}
	return nil
}

func (r *PostgresRepository) TableCounts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `
		SELECT
			(SELECT COUNT(*) FROM persons),
			(SELECT COUNT(*) FROM measurements),
			(SELECT COUNT(*) FROM rejected_records)
	`

	var persons, measurements, rejected int64
	if err := r.pool.QueryRow(ctx, query).Scan(&persons, &measurements, &rejected); err != nil {
		return nil, fmt.Errorf("failed to count tables: %w", err)
	}

	return map[string]int64{
		"persons":          persons,
		"measurements":     measurements,
		"rejected_records": rejected,
	}, nil
}
