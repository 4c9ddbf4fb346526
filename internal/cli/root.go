// Package cli implements the ntrace command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ntrace",
	Short: "NeuroTrace measurement ingestion pipeline",
	Long: `ntrace ingests multi-source CSV measurement data, validates and cleans
each record against the declarative rules file, and loads accepted records
into PostgreSQL while routing rejected records to the audit trail.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/ntrace/config.yaml)")
}
