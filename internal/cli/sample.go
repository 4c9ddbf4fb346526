package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/sample"
)

var (
	sampleOutDir      string
	sampleRows        int
	samplePersons     int
	sampleInvalidRate float64
	sampleSeed        int64
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate sample input CSVs",
	Long: `Write behavioral.csv, cognitive.csv, and external.csv with realistic
fake data. A fraction of rows is deliberately invalid so a sample run also
exercises the rejection path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := sampleSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		err := sample.Generate(sample.Options{
			OutDir:      sampleOutDir,
			Rows:        sampleRows,
			Persons:     samplePersons,
			InvalidRate: sampleInvalidRate,
			Seed:        seed,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Wrote sample CSVs to %s (%d days x %d persons, invalid rate %.0f%%)\n",
			sampleOutDir, sampleRows, samplePersons, sampleInvalidRate*100)
		return nil
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleOutDir, "out", "testdata/sample", "output directory")
	sampleCmd.Flags().IntVar(&sampleRows, "rows", 30, "days of data per person")
	sampleCmd.Flags().IntVar(&samplePersons, "persons", 3, "number of persons")
	sampleCmd.Flags().Float64Var(&sampleInvalidRate, "invalid-rate", 0.05, "fraction of rows made invalid")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", 0, "random seed (0 picks one from the clock)")
	rootCmd.AddCommand(sampleCmd)
}
