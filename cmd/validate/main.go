// Command validate performs end-to-end data integrity checks across a local
// raw store and its processed counterpart. It verifies layout conventions,
// partition coverage, transformation correctness, and partition purity, and
// is meant to run against fixtures produced by genmock or against a synced
// copy of the lake.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw data/mock/raw \
//	  -processed data/mock/processed \
//	  -days 7
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
	"github.com/couchcryptid/weather-lake-etl/internal/etl"
	"github.com/couchcryptid/weather-lake-etl/internal/observability"
	"github.com/couchcryptid/weather-lake-etl/internal/storage"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawDir := flag.String("raw", "", "raw store root directory")
	processedDir := flag.String("processed", "", "processed store root directory")
	days := flag.Int("days", 7, "lookback window in days, ending today")
	endDateStr := flag.String("end-date", "", "last date of the window (YYYY-MM-DD, default today)")
	flag.Parse()

	if *rawDir == "" || *processedDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	if *endDateStr != "" {
		var err error
		endDate, err = time.Parse(domain.DateLayout, *endDateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: invalid -end-date: %v\n", err)
			os.Exit(1)
		}
	}

	if code := run(*rawDir, *processedDir, endDate, *days); code != 0 {
		os.Exit(code)
	}
}

func run(rawDir, processedDir string, endDate time.Time, days int) int {
	ctx := context.Background()
	from := endDate.AddDate(0, 0, -(days - 1))

	fmt.Println("=== Weather Lake Integrity Validation ===")
	fmt.Printf("Window: %s .. %s\n\n", from.Format(domain.DateLayout), endDate.Format(domain.DateLayout))

	rawStore := storage.NewFSStore(rawDir)
	processedStore := storage.NewFSStore(processedDir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	reader := etl.NewRawReader(rawStore, nil, logger, metrics)

	candidates, err := reader.ListCandidates(ctx, from, endDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list raw candidates: %v\n", err)
		return 1
	}

	index, err := etl.NewIndexer(processedStore).Build(ctx, from, endDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build processed index: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRawLayout(ctx, rawStore, from, endDate),
		validateCoverage(ctx, reader, candidates, index),
		validateTransformation(ctx, reader, processedStore, candidates, index),
		validatePartitionPurity(ctx, processedStore, from, endDate),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Partitions: %d raw candidates, %d processed\n", len(candidates), index.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateRawLayout checks that every object under the window's dt= prefixes
// follows the raw naming convention and round-trips through key parsing.
func validateRawLayout(ctx context.Context, store storage.ObjectStore, from, to time.Time) *phase {
	p := &phase{name: "Raw layout conventions"}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		prefix := "dt=" + day.Format(domain.DateLayout) + "/"
		objects, err := store.List(ctx, prefix)
		if err != nil {
			p.errorf("list %s: %v", prefix, err)
			continue
		}
		for _, obj := range objects {
			key, err := domain.ParseRawObjectKey(obj)
			if err != nil {
				p.errorf("unrecognized raw object %s: %v", obj, err)
				continue
			}
			if key.SourceDate != day.Format(domain.DateLayout) {
				p.errorf("raw object %s filed under wrong dt= prefix", obj)
			}
		}
	}
	return p
}

// validateCoverage checks that every raw partition with at least one valid
// observation has processed output, and that no processed partition lacks a
// raw source.
func validateCoverage(ctx context.Context, reader *etl.RawReader, candidates []etl.Candidate, index *etl.Index) *phase {
	p := &phase{name: "Partition coverage"}

	seen := make(map[domain.PartitionKey]bool, len(candidates))
	for _, cand := range candidates {
		seen[cand.Key] = true
		unit, err := reader.Read(ctx, cand)
		if err != nil {
			p.errorf("read raw unit %s: %v", cand.Key, err)
			continue
		}
		if len(unit.Observations) > 0 && !index.Exists(cand.Key) {
			p.errorf("partition %s has %d valid observations but no processed output", cand.Key, len(unit.Observations))
		}
	}
	for _, key := range index.Keys() {
		if !seen[key] {
			p.errorf("processed partition %s has no raw source in window", key)
		}
	}
	return p
}

// validateTransformation reads processed rows back and re-derives fields that
// must be consistent: the Fahrenheit conversion and the partition hour.
func validateTransformation(ctx context.Context, reader *etl.RawReader, store storage.ObjectStore, candidates []etl.Candidate, index *etl.Index) *phase {
	p := &phase{name: "Transformation correctness"}

	for _, cand := range candidates {
		key := cand.Key
		if !index.Exists(key) {
			continue
		}
		records, err := etl.ReadPartition(ctx, store, key)
		if err != nil {
			p.errorf("read processed partition %s: %v", key, err)
			continue
		}
		if len(records) == 0 {
			p.errorf("processed partition %s is empty", key)
			continue
		}
		for i := range records {
			rec := &records[i]
			wantF := domain.FahrenheitFromCelsius(rec.TemperatureC)
			if math.Abs(rec.TemperatureF-wantF) > 1e-9 {
				p.errorf("%s row %d: temperature_f %.10f, expected %.10f", key, i, rec.TemperatureF, wantF)
			}
			derived, err := domain.KeyFromObservation(domain.RawObservation{
				CityName:        rec.CityName,
				ForecastDate:    rec.ForecastDate,
				ObservationTime: rec.ObservationTime,
			})
			if err != nil {
				p.errorf("%s row %d: cannot re-derive key: %v", key, i, err)
				continue
			}
			if derived != key {
				p.errorf("%s row %d: content belongs to partition %s", key, i, derived)
			}
			if rec.ProcessingTime <= 0 {
				p.errorf("%s row %d: missing processing_time", key, i)
			}
		}
	}
	return p
}

// validatePartitionPurity checks the one-object-per-partition invariant and
// processed naming conventions.
func validatePartitionPurity(ctx context.Context, store storage.ObjectStore, from, to time.Time) *phase {
	p := &phase{name: "Partition purity"}

	counts := make(map[domain.PartitionKey]int)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		prefix := "source_date=" + day.Format(domain.DateLayout) + "/"
		objects, err := store.List(ctx, prefix)
		if err != nil {
			p.errorf("list %s: %v", prefix, err)
			continue
		}
		for _, obj := range objects {
			key, err := domain.ParseProcessedKey(obj)
			if err != nil {
				p.errorf("unrecognized processed object %s: %v", obj, err)
				continue
			}
			counts[key]++
		}
	}
	for key, n := range counts {
		if n > 1 {
			p.errorf("partition %s has %d objects, expected exactly one", key, n)
		}
	}
	return p
}
