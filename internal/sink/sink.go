// Package sink records rejected raw payloads for audit. Writes are
// append-only and best-effort relative to the primary load path: a sink
// failure is logged and counted but never aborts in-flight processing.
package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/logging"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/messaging"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/metrics"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/repository"
)

// Sink routes rejections to the audit table and, when configured, fans them
// out on the message bus.
type Sink struct {
	repo      repository.Repository
	publisher *messaging.Publisher // nil when NATS is disabled
	log       *logging.Logger
}

func New(repo repository.Repository, publisher *messaging.Publisher, log *logging.Logger) *Sink {
	return &Sink{repo: repo, publisher: publisher, log: log}
}

// Reject durably records the raw payload with its reason. The payload is
// preserved verbatim as JSON so rejected rows can be reprocessed later.
func (s *Sink) Reject(ctx context.Context, raw models.RawRecord, reason string) {
	payload, err := json.Marshal(raw.Fields)
	if err != nil {
		// Reader output is always JSON-representable; this guards refactors.
		s.log.Error("failed to marshal rejected payload", "source", raw.Source, "error", err)
		metrics.SinkWriteErrors.Inc()
		return
	}

	rejectedAt := time.Now()
	rej := &models.RejectedRecord{
		SourceName: raw.Source,
		RawPayload: payload,
		Reason:     reason,
		RejectedAt: rejectedAt,
	}

	if err := s.repo.InsertRejection(ctx, rej); err != nil {
		s.log.Error("failed to write rejection",
			"source", raw.Source,
			"reason", reason,
			"error", err,
		)
		metrics.SinkWriteErrors.Inc()
	}

	if err := s.publisher.PublishRejection(messaging.RejectionNotice{
		SourceName: raw.Source,
		Reason:     reason,
		RawPayload: payload,
		RejectedAt: rejectedAt,
	}); err != nil {
		s.log.Warn("failed to publish rejection notice", "source", raw.Source, "error", err)
	}
}
