// Package sample generates realistic CSV input files for development and
// demos: one file per source, with a configurable fraction of deliberately
// invalid rows to exercise the rejection path.
package sample

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Options controls sample generation. Seed makes output reproducible.
type Options struct {
	OutDir      string
	Rows        int
	Persons     int
	InvalidRate float64
	Start       time.Time
	Seed        int64
}

type person struct {
	name     string
	location string
	lat      float64
	lon      float64
}

// Generate writes behavioral.csv, cognitive.csv, and external.csv into
// OutDir. Each person reports one row per source per day starting at
// Options.Start so the three files share (person, timestamp) keys and merge
// into single measurement rows when loaded.
func Generate(opts Options) error {
	if opts.Rows <= 0 {
		opts.Rows = 30
	}
	if opts.Persons <= 0 {
		opts.Persons = 3
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().AddDate(0, 0, -opts.Rows).Truncate(24 * time.Hour)
	}

	faker := gofakeit.New(opts.Seed)
	rng := rand.New(rand.NewSource(opts.Seed))

	persons := make([]person, opts.Persons)
	for i := range persons {
		persons[i] = person{
			name:     faker.Name(),
			location: faker.City(),
			lat:      faker.Latitude(),
			lon:      faker.Longitude(),
		}
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name   string
		header []string
		row    func(p person, ts time.Time, invalid bool) []string
	}{
		{
			name: "behavioral.csv",
			header: []string{"person", "timestamp", "sleep_hours", "breakfast_skipped", "lunch_skipped",
				"phone_usage_min", "caffeine_count", "steps", "water_glasses", "exercise", "exercise_intensity"},
			row: func(p person, ts time.Time, invalid bool) []string {
				sleep := strconv.FormatFloat(6+rng.Float64()*3.5, 'f', 1, 64)
				intensity := faker.RandomString([]string{"none", "light", "moderate", "intense"})
				if invalid {
					sleep = "37.5" // outside [0,24]
					intensity = "extreme"
				}
				return []string{
					p.name, ts.Format("2006-01-02T15:04"),
					sleep,
					yesNo(faker.Bool()), yesNo(faker.Bool()),
					strconv.Itoa(faker.Number(30, 400)),
					strconv.Itoa(faker.Number(0, 6)),
					strconv.Itoa(faker.Number(1500, 18000)),
					strconv.Itoa(faker.Number(2, 12)),
					yesNo(faker.Bool()),
					intensity,
				}
			},
		},
		{
			name:   "cognitive.csv",
			header: []string{"person", "timestamp", "brain_fog_score", "reaction_time_ms", "verbal_memory_words"},
			row: func(p person, ts time.Time, invalid bool) []string {
				fog := strconv.Itoa(faker.Number(1, 10))
				if invalid {
					fog = "" // required field left empty
				}
				return []string{
					p.name, ts.Format("2006-01-02T15:04"),
					fog,
					strconv.FormatFloat(180+rng.Float64()*300, 'f', 1, 64),
					strconv.Itoa(faker.Number(4, 30)),
				}
			},
		},
		{
			name: "external.csv",
			header: []string{"person", "timestamp", "location_name", "latitude", "longitude",
				"pressure_hpa", "pressure_change_24h", "temperature", "humidity", "pm25", "aqi"},
			row: func(p person, ts time.Time, invalid bool) []string {
				pressure := strconv.FormatFloat(985+rng.Float64()*50, 'f', 1, 64)
				if invalid {
					pressure = "2000" // outside [870,1084]
				}
				return []string{
					p.name, ts.Format("2006-01-02T15:04"),
					p.location,
					strconv.FormatFloat(p.lat, 'f', 4, 64),
					strconv.FormatFloat(p.lon, 'f', 4, 64),
					pressure,
					strconv.FormatFloat(rng.Float64()*20-10, 'f', 1, 64),
					strconv.FormatFloat(rng.Float64()*35-5, 'f', 1, 64),
					strconv.FormatFloat(30+rng.Float64()*60, 'f', 1, 64),
					strconv.FormatFloat(rng.Float64()*80, 'f', 1, 64),
					strconv.Itoa(faker.Number(5, 180)),
				}
			},
		},
	}

	for _, file := range files {
		path := filepath.Join(opts.OutDir, file.name)
		if err := writeCSV(path, file.header, opts, persons, rng, file.row); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, header []string, opts Options, persons []person, rng *rand.Rand, row func(person, time.Time, bool) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}

	for day := 0; day < opts.Rows; day++ {
		ts := opts.Start.AddDate(0, 0, day).Add(8 * time.Hour)
		for _, p := range persons {
			invalid := rng.Float64() < opts.InvalidRate
			if err := w.Write(row(p, ts, invalid)); err != nil {
				return fmt.Errorf("failed to write row of %s: %w", path, err)
			}
		}
	}

	w.Flush()
	return w.Error()
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
