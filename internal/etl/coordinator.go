package etl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
	"github.com/couchcryptid/weather-lake-etl/internal/observability"
)

// CandidateLister enumerates partitions with raw data in a date window.
type CandidateLister interface {
	ListCandidates(ctx context.Context, from, to time.Time) ([]Candidate, error)
}

// UnitReader fetches and decodes one candidate's raw unit.
type UnitReader interface {
	Read(ctx context.Context, cand Candidate) (RawUnit, error)
}

// RawSource is the reader-facing dependency of the coordinator.
type RawSource interface {
	CandidateLister
	UnitReader
}

// IndexBuilder builds the processed-partition index for a date window.
type IndexBuilder interface {
	Build(ctx context.Context, from, to time.Time) (*Index, error)
}

// PartitionWriter publishes one partition's transformed records.
type PartitionWriter interface {
	Write(ctx context.Context, key domain.PartitionKey, records []domain.ProcessedRecord) (WriteResult, error)
}

// PartitionFailure names a failed partition and why, for the run summary.
type PartitionFailure struct {
	Key    domain.PartitionKey `json:"partition"`
	Reason string              `json:"reason"`
}

// RunSummary is the terminal report of one run. Every candidate partition is
// accounted for in exactly one of Processed, Skipped, or Failed; a partition
// counted in none of them would be silent data loss.
type RunSummary struct {
	Candidates int                `json:"candidates"`
	Processed  int                `json:"processed"`
	Skipped    int                `json:"skipped"`
	Failed     int                `json:"failed"`
	Records    int                `json:"records"`
	Failures   []PartitionFailure `json:"failures,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// Options bound a run. All values come from configuration; the coordinator
// computes nothing from ambient state.
type Options struct {
	LookbackDays int
	Parallelism  int
	StoreTimeout time.Duration
}

// Coordinator orchestrates one incremental run: enumerate candidates in the
// lookback window, skip partitions already indexed, and transform and write
// the rest with a bounded worker pool. Partitions are independent, so failure
// of one never blocks another; only an unreachable source or index aborts
// the run.
type Coordinator struct {
	source  RawSource
	indexer IndexBuilder
	writer  PartitionWriter
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
	clk     clockwork.Clock
	ready   atomic.Bool
	summary atomic.Pointer[RunSummary]
}

// NewCoordinator wires a coordinator. The clock is injectable for tests; pass
// nil for the real clock.
func NewCoordinator(source RawSource, indexer IndexBuilder, writer PartitionWriter, logger *slog.Logger, metrics *observability.Metrics, opts Options, clk clockwork.Clock) *Coordinator {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = time.Minute
	}
	return &Coordinator{
		source:  source,
		indexer: indexer,
		writer:  writer,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
		clk:     clk,
	}
}

// CheckReadiness reports nil once enumeration has succeeded, for the /readyz
// endpoint while a run is in flight.
func (c *Coordinator) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return fmt.Errorf("run has not finished enumerating partitions yet")
	}
	return nil
}

// Summary returns the last completed run's summary, or nil before the first
// run finishes.
func (c *Coordinator) Summary() *RunSummary {
	return c.summary.Load()
}

// Run executes one incremental pass and returns its summary. The returned
// error is non-nil only for fatal conditions (ErrSourceUnreachable,
// ErrIndexUnavailable); per-partition failures are reported in the summary.
//
// Cancellation is cooperative between partitions: in-flight partitions finish
// (their store calls still bounded by StoreTimeout) and queued ones are
// recorded FAILED with the cancellation reason, so the summary still accounts
// for every candidate.
func (c *Coordinator) Run(ctx context.Context) (RunSummary, error) {
	c.metrics.RunRunning.Set(1)
	defer c.metrics.RunRunning.Set(0)

	summary := RunSummary{StartedAt: c.clk.Now().UTC()}

	to := summary.StartedAt.Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -(c.opts.LookbackDays - 1))
	c.logger.Info("run starting",
		"window_from", from.Format(domain.DateLayout),
		"window_to", to.Format(domain.DateLayout),
		"parallelism", c.opts.Parallelism,
	)

	// Enumeration and index listing carry the same per-store deadline as
	// partition work; a stalled store surfaces as the fatal error instead of
	// hanging the run.
	candidates, err := c.listCandidates(ctx, from, to)
	if err != nil {
		return summary, err
	}

	index, err := c.buildIndex(ctx, from, to)
	if err != nil {
		return summary, err
	}
	c.ready.Store(true)

	summary.Candidates = len(candidates)

	// Skip check happens before any raw read: already-processed partitions
	// cost one index lookup and nothing else.
	pending := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if index.Exists(cand.Key) {
			summary.Skipped++
			c.metrics.PartitionsSkipped.Inc()
			continue
		}
		pending = append(pending, cand)
	}
	c.logger.Info("partitions enumerated",
		"candidates", len(candidates), "skipped", summary.Skipped, "pending", len(pending))

	results := c.processAll(ctx, pending)

	for _, res := range results {
		if res.err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, PartitionFailure{Key: res.key, Reason: res.err.Error()})
			c.metrics.PartitionsFailed.Inc()
			continue
		}
		summary.Processed++
		summary.Records += res.records
		c.metrics.PartitionsProcessed.Inc()
	}

	summary.FinishedAt = c.clk.Now().UTC()
	c.summary.Store(&summary)
	c.logger.Info("run finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"records", summary.Records,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	for _, f := range summary.Failures {
		c.logger.Error("partition failed", "partition", f.Key.String(), "reason", f.Reason)
	}
	return summary, nil
}

func (c *Coordinator) listCandidates(ctx context.Context, from, to time.Time) ([]Candidate, error) {
	lctx, cancel := context.WithTimeout(ctx, c.opts.StoreTimeout)
	defer cancel()
	return c.source.ListCandidates(lctx, from, to)
}

func (c *Coordinator) buildIndex(ctx context.Context, from, to time.Time) (*Index, error) {
	ictx, cancel := context.WithTimeout(ctx, c.opts.StoreTimeout)
	defer cancel()
	return c.indexer.Build(ictx, from, to)
}

// partitionResult is one worker's outcome for one partition.
type partitionResult struct {
	key     domain.PartitionKey
	records int
	err     error
}

// processAll fans the pending partitions out over the worker pool. Results
// come back in completion order; the caller only aggregates counts.
func (c *Coordinator) processAll(ctx context.Context, pending []Candidate) []partitionResult {
	if len(pending) == 0 {
		return nil
	}

	jobs := make(chan Candidate)
	out := make(chan partitionResult)

	workers := min(c.opts.Parallelism, len(pending))
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for cand := range jobs {
				out <- c.processOne(ctx, cand)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, cand := range pending {
			jobs <- cand
		}
	}()
	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]partitionResult, 0, len(pending))
	for res := range out {
		results = append(results, res)
	}
	return results
}

// processOne runs read → transform → write for a single partition. A run
// cancellation observed before the partition starts fails it fast; once
// started, the partition runs to completion under its own timeout so the
// atomic-write invariant is never interrupted mid-partition.
func (c *Coordinator) processOne(ctx context.Context, cand Candidate) partitionResult {
	key := cand.Key
	if err := ctx.Err(); err != nil {
		return partitionResult{key: key, err: fmt.Errorf("run cancelled before partition started: %w", err)}
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.StoreTimeout)
	defer cancel()

	start := time.Now()
	unit, err := c.source.Read(pctx, cand)
	if err != nil {
		return partitionResult{key: key, err: err}
	}

	records := transformUnit(unit)
	if len(records) == 0 {
		// Counting this partition processed would hide that its data never
		// made it out; fail it so the next run retries after upstream fixes.
		return partitionResult{key: key, err: fmt.Errorf("raw unit %s held no valid records (%d malformed)", unit.ObjectKey, unit.Malformed)}
	}

	res, err := c.writer.Write(pctx, key, records)
	if err != nil {
		return partitionResult{key: key, err: err}
	}

	c.metrics.PartitionDuration.Observe(time.Since(start).Seconds())
	c.logger.Info("partition written",
		"partition", key.String(),
		"records", res.Records,
		"bytes", res.Bytes,
		"malformed", unit.Malformed,
	)
	return partitionResult{key: key, records: res.Records}
}

// transformUnit deduplicates a unit's observations and maps them through the
// record transformer. Ingestion retries store duplicate observations for the
// same wall-clock time; the last occurrence wins because later fetches
// supersede earlier ones.
func transformUnit(unit RawUnit) []domain.ProcessedRecord {
	lastByTime := make(map[string]int, len(unit.Observations))
	order := make([]string, 0, len(unit.Observations))
	for i, obs := range unit.Observations {
		if _, seen := lastByTime[obs.ObservationTime]; !seen {
			order = append(order, obs.ObservationTime)
		}
		lastByTime[obs.ObservationTime] = i
	}

	records := make([]domain.ProcessedRecord, 0, len(order))
	for _, ts := range order {
		records = append(records, domain.Transform(unit.Observations[lastByTime[ts]]))
	}
	return records
}
