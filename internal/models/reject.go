package models

import "time"

// RejectedRecord is an append-only audit row. RawPayload is the original
// record serialized as JSON, preserved verbatim for reprocessing.
type RejectedRecord struct {
	RejectID   int64
	SourceName string
	RawPayload []byte
	Reason     string
	RejectedAt time.Time
}
