package sink_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/logging"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/repository"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/sink"
)

// failingRepo rejects every audit write.
type failingRepo struct {
	*repository.InMemoryRepository
}

func (r *failingRepo) InsertRejection(ctx context.Context, rej *models.RejectedRecord) error {
	return errors.New("disk full")
}

func TestReject_WritesAuditRow(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	s := sink.New(repo, nil, logging.Default())

	raw := models.RawRecord{
		Source: "cognitive",
		Fields: map[string]any{"person": "Bob", "brain_fog_score": "twelve"},
	}
	s.Reject(context.Background(), raw, "brain_fog_score: invalid type, expected integer")

	rejections := repo.Rejections()
	require.Len(t, rejections, 1)
	assert.Equal(t, "cognitive", rejections[0].SourceName)
	assert.Equal(t, "brain_fog_score: invalid type, expected integer", rejections[0].Reason)
	assert.False(t, rejections[0].RejectedAt.IsZero())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rejections[0].RawPayload, &payload))
	assert.Equal(t, "Bob", payload["person"])
	assert.Equal(t, "twelve", payload["brain_fog_score"])
}

func TestReject_PreservesNilFields(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	s := sink.New(repo, nil, logging.Default())

	raw := models.RawRecord{
		Source: "cognitive",
		Fields: map[string]any{"person": "Bob", "brain_fog_score": nil},
	}
	s.Reject(context.Background(), raw, "brain_fog_score: missing required field")

	rejections := repo.Rejections()
	require.Len(t, rejections, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rejections[0].RawPayload, &payload))
	assert.Contains(t, payload, "brain_fog_score")
	assert.Nil(t, payload["brain_fog_score"])
}

func TestReject_StoreFailureDoesNotPanic(t *testing.T) {
	repo := &failingRepo{InMemoryRepository: repository.NewInMemoryRepository()}
	s := sink.New(repo, nil, logging.Default())

	assert.NotPanics(t, func() {
		s.Reject(context.Background(), models.RawRecord{
			Source: "behavioral",
			Fields: map[string]any{"person": "Bob"},
		}, "some reason")
	})
}
