// Package pipeline orchestrates one ingestion run: raw records stream from
// the reader through validate -> clean -> load, with every failure routed to
// the rejection sink and every outcome counted by the reporter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/cleaner"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/config"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/loader"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/logging"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/messaging"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/metrics"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/reader"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/reporter"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/repository"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/schema"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/sink"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/validator"
)

type Pipeline struct {
	registry  *schema.Registry
	validator *validator.Validator
	cleaner   *cleaner.Cleaner
	loader    *loader.Loader
	sink      *sink.Sink
	reader    reader.Reader
	repo      repository.Repository
	publisher *messaging.Publisher // nil when NATS is disabled
	log       *logging.Logger

	concurrent bool
}

type Options struct {
	Registry   *schema.Registry
	Reader     reader.Reader
	Repository repository.Repository
	Loader     *loader.Loader
	Sink       *sink.Sink
	Publisher  *messaging.Publisher
	Logger     *logging.Logger
	Concurrent bool
}

func New(opts Options) *Pipeline {
	return &Pipeline{
		registry:   opts.Registry,
		validator:  validator.New(opts.Registry),
		cleaner:    cleaner.New(opts.Registry),
		loader:     opts.Loader,
		sink:       opts.Sink,
		reader:     opts.Reader,
		repo:       opts.Repository,
		publisher:  opts.Publisher,
		log:        opts.Logger,
		concurrent: opts.Concurrent,
	}
}

// Run processes every configured source and returns the run summary.
// Per-record failures never abort the run; they become rejections. The only
// fatal conditions are a source referencing an unregistered table (checked
// up front, before any store I/O) and context cancellation.
func (p *Pipeline) Run(ctx context.Context, sources []config.SourceConfig) (models.RunSummary, error) {
	for _, src := range sources {
		if !p.registry.HasTable(src.Table) {
			return models.RunSummary{}, fmt.Errorf("source %s: %w: %s", src.Name, schema.ErrUnknownTable, src.Table)
		}
	}

	rep := reporter.New()
	start := time.Now()
	p.log.Info("pipeline run starting", "run_id", rep.RunID(), "sources", len(sources))

	g, gctx := errgroup.WithContext(ctx)
	if !p.concurrent {
		g.SetLimit(1)
	}
	for _, src := range sources {
		g.Go(func() error {
			return p.processSource(gctx, src, rep)
		})
	}
	if err := g.Wait(); err != nil {
		return models.RunSummary{}, err
	}

	tableCounts, err := p.repo.TableCounts(ctx)
	if err != nil {
		p.log.Warn("failed to fetch final table counts", "error", err)
		tableCounts = nil
	}

	summary := rep.Summarize(tableCounts)
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	if err := p.publisher.PublishRunSummary(summary); err != nil {
		p.log.Warn("failed to publish run summary", "error", err)
	}

	p.log.Info("pipeline run complete",
		"run_id", summary.RunID,
		"duration", summary.Duration,
		"read", summary.Totals.Read,
		"loaded", summary.Totals.Loaded,
		"rejected", summary.Totals.Rejected(),
	)
	return summary, nil
}

// processSource runs one source end to end. A reader failure skips the
// source (logged, zero records counted) rather than failing the run.
func (p *Pipeline) processSource(ctx context.Context, src config.SourceConfig, rep *reporter.Reporter) error {
	records, err := p.reader.Read(ctx, src)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		p.log.Error("failed to read source", "source", src.Name, "error", err)
		return nil
	}

	rep.RecordRead(src.Name, len(records))
	metrics.RecordsRead.WithLabelValues(src.Name).Add(float64(len(records)))
	p.log.Info("read source", "source", src.Name, "records", len(records))

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.processRecord(ctx, record, src, rep)
	}
	return nil
}

func (p *Pipeline) processRecord(ctx context.Context, record models.RawRecord, src config.SourceConfig, rep *reporter.Reporter) {
	result, err := p.validator.Validate(record, src.Table)
	if err != nil {
		// Tables are checked before the run starts; even if this fires on
		// a registry bug, the record still lands in the audit trail.
		p.log.Error("validation lookup failed", "source", src.Name, "error", err)
		p.sink.Reject(ctx, record, fmt.Sprintf("validation error: %v", err))
		rep.RecordRejected(src.Name)
		metrics.RecordsRejected.WithLabelValues(src.Name, "validation").Inc()
		return
	}

	if !result.Valid {
		p.sink.Reject(ctx, record, result.Reason())
		rep.RecordRejected(src.Name)
		metrics.RecordsRejected.WithLabelValues(src.Name, "validation").Inc()
		return
	}
	rep.RecordAccepted(src.Name)

	clean, err := p.cleaner.Clean(record, src.Table)
	if err != nil {
		p.sink.Reject(ctx, record, fmt.Sprintf("cleaning error: %v", err))
		rep.RecordLoadFailed(src.Name)
		metrics.RecordsRejected.WithLabelValues(src.Name, "load").Inc()
		return
	}

	outcome, err := p.loader.Load(ctx, clean)
	if err != nil {
		p.sink.Reject(ctx, record, err.Error())
		rep.RecordLoadFailed(src.Name)
		metrics.RecordsRejected.WithLabelValues(src.Name, "load").Inc()
		return
	}

	rep.RecordLoaded(src.Name)
	metrics.RecordsLoaded.WithLabelValues(src.Name, outcome.String()).Inc()
}
