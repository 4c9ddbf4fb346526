// Package reporter accumulates per-source and total record counters for one
// pipeline run. Increments are synchronized so sources may feed the reporter
// concurrently.
package reporter

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
)

type Reporter struct {
	runID   string
	started time.Time

	mu       sync.Mutex
	bySource map[string]*models.Counts
}

func New() *Reporter {
	return &Reporter{
		runID:    uuid.NewString(),
		started:  time.Now(),
		bySource: make(map[string]*models.Counts),
	}
}

// RunID identifies this run in logs and published summaries.
func (r *Reporter) RunID() string {
	return r.runID
}

func (r *Reporter) RecordRead(source string, n int) {
	r.increment(source, func(c *models.Counts) { c.Read += int64(n) })
}

func (r *Reporter) RecordAccepted(source string) {
	r.increment(source, func(c *models.Counts) { c.Accepted++ })
}

func (r *Reporter) RecordRejected(source string) {
	r.increment(source, func(c *models.Counts) { c.RejectedValidation++ })
}

func (r *Reporter) RecordLoaded(source string) {
	r.increment(source, func(c *models.Counts) { c.Loaded++ })
}

func (r *Reporter) RecordLoadFailed(source string) {
	r.increment(source, func(c *models.Counts) { c.RejectedLoad++ })
}

func (r *Reporter) increment(source string, apply func(*models.Counts)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.bySource[source]
	if !ok {
		c = &models.Counts{}
		r.bySource[source] = c
	}
	apply(c)
}

// Summarize produces the end-of-run report. Sources are sorted by name so
// the summary is deterministic. tableCounts may be nil when the final count
// query failed; the counters themselves are still complete.
func (r *Reporter) Summarize(tableCounts map[string]int64) models.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := models.RunSummary{
		RunID:       r.runID,
		StartedAt:   r.started,
		Duration:    time.Since(r.started),
		TableCounts: tableCounts,
	}

	names := make([]string, 0, len(r.bySource))
	for name := range r.bySource {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := *r.bySource[name]
		summary.BySource = append(summary.BySource, models.SourceCounts{Source: name, Counts: c})
		summary.Totals.Read += c.Read
		summary.Totals.Accepted += c.Accepted
		summary.Totals.Loaded += c.Loaded
		summary.Totals.RejectedValidation += c.RejectedValidation
		summary.Totals.RejectedLoad += c.RejectedLoad
	}

	return summary
}
