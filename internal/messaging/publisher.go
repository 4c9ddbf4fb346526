package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
)

// RejectionNotice is the wire form of a rejection event.
type RejectionNotice struct {
	SourceName string          `json:"source_name"`
	Reason     string          `json:"reason"`
	RawPayload json.RawMessage `json:"raw_payload"`
	RejectedAt time.Time       `json:"rejected_at"`
}

// Publisher emits pipeline events on NATS. A nil *Publisher is a valid
// no-op, so call sites need no enabled checks.
type Publisher struct {
	conn *nats.Conn
}

// Connect establishes a NATS connection with bounded reconnects.
func Connect(url, name string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// PublishRejection emits a rejection notice.
func (p *Publisher) PublishRejection(notice RejectionNotice) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal rejection notice: %w", err)
	}
	if err := p.conn.Publish(SubjectRecordsRejected, data); err != nil {
		return fmt.Errorf("failed to publish rejection notice: %w", err)
	}
	return nil
}

// PublishRunSummary emits the end-of-run summary.
func (p *Publisher) PublishRunSummary(summary models.RunSummary) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := p.conn.Publish(SubjectRunsCompleted, data); err != nil {
		return fmt.Errorf("failed to publish run summary: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
