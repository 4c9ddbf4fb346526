// Package messaging provides optional audit fan-out over NATS. Publishing is
// best-effort: a failed publish is logged by the caller and never affects
// record processing.
package messaging

// Subject constants for the pipeline message bus.
// Follow the pattern: {domain}.{action}.{resource}
const (
	// SubjectRecordsRejected carries one notice per rejected record.
	SubjectRecordsRejected = "pipeline.records.rejected"

	// SubjectRunsCompleted carries the end-of-run summary.
	SubjectRunsCompleted = "pipeline.runs.completed"
)
