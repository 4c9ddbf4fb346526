// Package loader persists clean records: person resolution followed by the
// measurement upsert. Re-running the pipeline on the same input converges to
// the same row set instead of duplicating it.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/cache"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/logging"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/metrics"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/repository"
)

// LoadError wraps a persistence failure that exhausted the retry budget.
// The caller routes the record to the rejection sink with Error() as the
// failure detail.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load failure: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader executes the two-phase load with bounded retries.
type Loader struct {
	repo        repository.Repository
	personCache *cache.PersonCache // nil when the cache is disabled
	log         *logging.Logger
	maxRetries  int
	backoff     time.Duration
}

func New(repo repository.Repository, personCache *cache.PersonCache, log *logging.Logger, maxRetries int, backoff time.Duration) *Loader {
	return &Loader{
		repo:        repo,
		personCache: personCache,
		log:         log,
		maxRetries:  maxRetries,
		backoff:     backoff,
	}
}

// Load resolves the record's person and upserts the measurement row.
// Unexpected store failures are retried with linear backoff up to the
// configured bound; a persistent failure is returned as *LoadError so the
// record can be rejected instead of silently dropped.
func (l *Loader) Load(ctx context.Context, rec models.CleanRecord) (models.LoadOutcome, error) {
	start := time.Now()
	defer func() {
		metrics.LoadDuration.Observe(time.Since(start).Seconds())
	}()

	var outcome models.LoadOutcome
	var lastErr error

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.LoadRetries.Inc()
			select {
			case <-ctx.Done():
				return 0, &LoadError{Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * l.backoff):
			}
			l.log.Debug("retrying load",
				"person", rec.PersonName,
				"timestamp", rec.Timestamp,
				"attempt", attempt,
			)
		}

		outcome, lastErr = l.loadOnce(ctx, rec)
		if lastErr == nil {
			return outcome, nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	return 0, &LoadError{Err: lastErr}
}

func (l *Loader) loadOnce(ctx context.Context, rec models.CleanRecord) (models.LoadOutcome, error) {
	personID, cached := l.personCache.Get(ctx, rec.PersonName)
	if !cached {
		var err error
		personID, err = l.repo.EnsurePerson(ctx, models.Person{
			Name:         rec.PersonName,
			LocationName: rec.LocationName,
			Latitude:     rec.Latitude,
			Longitude:    rec.Longitude,
		})
		if err != nil {
			return 0, fmt.Errorf("resolve person %q: %w", rec.PersonName, err)
		}
		if err := l.personCache.Put(ctx, rec.PersonName, personID); err != nil {
			l.log.Debug("person cache write failed", "person", rec.PersonName, "error", err)
		}
	}

	outcome, err := l.repo.UpsertMeasurement(ctx, personID, rec.Timestamp, rec.Columns, rec.Metrics)
	if err != nil {
		return 0, fmt.Errorf("upsert measurement for %q at %s: %w", rec.PersonName, rec.Timestamp.Format(time.RFC3339), err)
	}
	return outcome, nil
}
