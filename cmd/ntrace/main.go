package main

import (
	"os"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
