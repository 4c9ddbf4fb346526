// Package reader supplies raw records to the pipeline. The pipeline depends
// only on the Reader interface; whether records come from a CSV file, a
// stream, or an API is this package's concern.
package reader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/neurotrace-systems/neurotrace-pipeline/internal/config"
	"github.com/neurotrace-systems/neurotrace-pipeline/internal/models"
)

type Reader interface {
	Read(ctx context.Context, source config.SourceConfig) ([]models.RawRecord, error)
}

// CSVReader reads one CSV file per source. The header row names the fields;
// empty cells become nil so the validator's nullability checks see them as
// missing values, not empty strings.
type CSVReader struct{}

func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

func (r *CSVReader) Read(ctx context.Context, source config.SourceConfig) ([]models.RawRecord, error) {
	f, err := os.Open(source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source.Path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", source.Path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []models.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", source.Path, err)
		}

		fields := make(map[string]any, len(header))
		for i, name := range header {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				fields[name] = nil
				continue
			}
			fields[name] = row[i]
		}
		records = append(records, models.RawRecord{Source: source.Name, Fields: fields})
	}

	return records, nil
}
