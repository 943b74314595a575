package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
	"github.com/couchcryptid/weather-lake-etl/internal/observability"
	"github.com/couchcryptid/weather-lake-etl/internal/storage"
)

// Candidate pairs a partition key with the raw object backing it. Reads fetch
// the listed object name rather than re-rendering it from the key, so legacy
// unpadded hour names stay reachable.
type Candidate struct {
	Key       domain.PartitionKey
	ObjectKey string
}

// RawUnit is one raw object's worth of observations for a single partition.
// Retried ingestions may leave duplicate observations inside a unit; the
// reader surfaces them as-is and the coordinator deduplicates before writing.
type RawUnit struct {
	Key          domain.PartitionKey
	ObjectKey    string
	Observations []domain.RawObservation
	Malformed    int // elements rejected by schema validation
}

// RawReader enumerates candidate raw objects within a date window and decodes
// them with strict per-element validation. One malformed element is skipped
// and counted; it never fails the unit or the run.
type RawReader struct {
	store   storage.ObjectStore
	cities  map[string]bool // normalized city IDs; empty means all cities
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRawReader creates a reader over the raw store restricted to the given
// city identifiers (already normalized; pass nil to accept every city).
func NewRawReader(store storage.ObjectStore, cities []string, logger *slog.Logger, metrics *observability.Metrics) *RawReader {
	set := make(map[string]bool, len(cities))
	for _, c := range cities {
		set[c] = true
	}
	return &RawReader{store: store, cities: set, logger: logger, metrics: metrics}
}

// ListCandidates returns the partitions that have raw data within the
// inclusive date window [from, to], sorted for deterministic runs. A listing
// failure is fatal and wraps ErrSourceUnreachable.
func (r *RawReader) ListCandidates(ctx context.Context, from, to time.Time) ([]Candidate, error) {
	var candidates []Candidate

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		prefix := "dt=" + day.Format(domain.DateLayout) + "/"
		objects, err := r.store.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", ErrSourceUnreachable, prefix, err)
		}

		for _, obj := range objects {
			key, err := domain.ParseRawObjectKey(obj)
			if err != nil {
				r.logger.Warn("skipping unrecognized raw object", "object", obj, "error", err)
				continue
			}
			if len(r.cities) > 0 && !r.cities[key.CityID] {
				continue
			}
			candidates = append(candidates, Candidate{Key: key, ObjectKey: obj})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].Key, candidates[j].Key
		if a.SourceDate != b.SourceDate {
			return a.SourceDate < b.SourceDate
		}
		if a.CityID != b.CityID {
			return a.CityID < b.CityID
		}
		return a.Hour < b.Hour
	})
	return candidates, nil
}

// Read fetches and decodes the raw unit for one partition. A missing object
// or undecodable top-level JSON fails the unit (the caller records the
// partition FAILED); individual bad elements are skipped and counted.
func (r *RawReader) Read(ctx context.Context, cand Candidate) (RawUnit, error) {
	objectKey := cand.ObjectKey

	data, err := r.store.Get(ctx, objectKey)
	if err != nil {
		return RawUnit{}, fmt.Errorf("read raw unit %s: %w", objectKey, err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return RawUnit{}, fmt.Errorf("raw unit %s is not a JSON array: %w", objectKey, err)
	}

	unit := RawUnit{Key: cand.Key, ObjectKey: objectKey}
	for i, elem := range elements {
		obs, err := decodeObservation(elem)
		if err != nil {
			merr := &MalformedRecordError{ObjectKey: objectKey, Index: i, Reason: err}
			r.logger.Warn("skipping malformed record", "error", merr)
			r.metrics.RecordsMalformed.Inc()
			unit.Malformed++
			continue
		}
		unit.Observations = append(unit.Observations, obs)
	}

	r.metrics.RecordsRead.Add(float64(len(unit.Observations)))
	return unit, nil
}

// decodeObservation decodes and schema-validates a single array element.
func decodeObservation(data json.RawMessage) (domain.RawObservation, error) {
	var obs domain.RawObservation
	if err := json.Unmarshal(data, &obs); err != nil {
		return domain.RawObservation{}, fmt.Errorf("decode: %w", err)
	}
	if err := domain.ValidateObservation(obs); err != nil {
		return domain.RawObservation{}, err
	}
	return obs, nil
}
