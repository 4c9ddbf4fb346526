package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/config"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/schema"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and their target tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		registry, err := schema.Load(cfg.Schema.RulesPath)
		if err != nil {
			return fmt.Errorf("loading rules: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tTABLE\tPATH\tFIELDS")
		for _, src := range cfg.Sources {
			fields := "?"
			if rules, err := registry.RulesFor(src.Table); err == nil {
				fields = fmt.Sprintf("%d", len(rules))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", src.Name, src.Table, src.Path, fields)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
