package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/cache"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/config"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/loader"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/logging"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/messaging"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/pipeline"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/reader"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/repository"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/schema"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/sink"
)

var runSources []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ingestion pipeline",
	Long: `Read all configured sources (or the subset given with --source),
validate and clean each record, load accepted records into PostgreSQL, and
print the run summary.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringSliceVar(&runSources, "source", nil, "process only the named sources (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)

	registry, err := schema.Load(cfg.Schema.RulesPath)
	if err != nil {
		return err
	}

	sources, err := selectSources(cfg.Sources, runSources)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewPostgresRepository(ctx, cfg.Database.ConnString(), cfg.Pipeline.QueryTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer repo.Close()

	var personCache *cache.PersonCache
	if cfg.Redis.Enabled {
		personCache, err = cache.NewFromURL(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			// The cache is advisory; run without it rather than aborting.
			log.Warn("person cache unavailable", "error", err)
		} else {
			defer personCache.Close()
		}
	}

	var publisher *messaging.Publisher
	if cfg.NATS.Enabled {
		publisher, err = messaging.Connect(cfg.NATS.URL, cfg.NATS.Name)
		if err != nil {
			log.Warn("audit fan-out unavailable", "error", err)
		} else {
			defer publisher.Close()
		}
	}

	p := pipeline.New(pipeline.Options{
		Registry:   registry,
		Reader:     reader.NewCSVReader(),
		Repository: repo,
		Loader:     loader.New(repo, personCache, log, cfg.Pipeline.MaxRetries, cfg.Pipeline.RetryBackoff),
		Sink:       sink.New(repo, publisher, log),
		Publisher:  publisher,
		Logger:     log,
		Concurrent: cfg.Pipeline.Concurrent,
	})

	summary, err := p.Run(ctx, sources)
	if err != nil {
		return err
	}

	renderSummary(os.Stdout, summary)
	return nil
}

func selectSources(configured []config.SourceConfig, names []string) ([]config.SourceConfig, error) {
	if len(names) == 0 {
		return configured, nil
	}

	byName := make(map[string]config.SourceConfig, len(configured))
	for _, src := range configured {
		byName[src.Name] = src
	}

	selected := make([]config.SourceConfig, 0, len(names))
	for _, name := range names {
		src, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		selected = append(selected, src)
	}
	return selected, nil
}

func renderSummary(w io.Writer, s models.RunSummary) {
	fmt.Fprintf(w, "Run %s finished in %s\n\n", s.RunID, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Totals:\n")
	fmt.Fprintf(w, "  Read:      %d\n", s.Totals.Read)
	fmt.Fprintf(w, "  Validated: %d\n", s.Totals.Accepted)
	fmt.Fprintf(w, "  Loaded:    %d\n", s.Totals.Loaded)
	fmt.Fprintf(w, "  Rejected:  %d\n", s.Totals.Rejected())

	if len(s.BySource) > 0 {
		fmt.Fprintf(w, "\nBy source:\n")
		for _, sc := range s.BySource {
			fmt.Fprintf(w, "  %s: read=%d validated=%d loaded=%d rejected=%d\n",
				sc.Source, sc.Counts.Read, sc.Counts.Accepted, sc.Counts.Loaded, sc.Counts.Rejected())
		}
	}

	if len(s.TableCounts) > 0 {
		fmt.Fprintf(w, "\nTable counts:\n")
		for _, table := range []string{"persons", "measurements", "rejected_records"} {
			if count, ok := s.TableCounts[table]; ok {
				fmt.Fprintf(w, "  %s: %d\n", table, count)
			}
		}
	}
}
