package models

import "time"

// Counts tracks record outcomes for one source (or the run total).
// Accepted splits into Loaded and RejectedLoad; Read = Accepted + RejectedValidation.
type Counts struct {
	Read               int64 `json:"read"`
	Accepted           int64 `json:"accepted"`
	Loaded             int64 `json:"loaded"`
	RejectedValidation int64 `json:"rejected_validation"`
	RejectedLoad       int64 `json:"rejected_load"`
}

// Rejected returns the combined rejection count.
func (c Counts) Rejected() int64 {
	return c.RejectedValidation + c.RejectedLoad
}

// SourceCounts pairs a source name with its counters.
type SourceCounts struct {
	Source string `json:"source"`
	Counts Counts `json:"counts"`
}

// RunSummary is the end-of-run report. Recomputed fresh each run and not
// persisted beyond the log.
type RunSummary struct {
	RunID       string           `json:"run_id"`
	StartedAt   time.Time        `json:"started_at"`
	Duration    time.Duration    `json:"duration"`
	Totals      Counts           `json:"totals"`
	BySource    []SourceCounts   `json:"by_source"`
	TableCounts map[string]int64 `json:"table_counts,omitempty"`
}
