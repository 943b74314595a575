package etl

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
)

var (
	// ErrSourceUnreachable means the raw store listing itself failed. This is
	// the only condition, together with ErrIndexUnavailable, that aborts a run.
	ErrSourceUnreachable = errors.New("raw source unreachable")

	// ErrIndexUnavailable means the processed-partition index could not be
	// built. Running without it risks duplicate full reprocessing or silently
	// skipping new data, so the run fails instead.
	ErrIndexUnavailable = errors.New("processed partition index unavailable")
)

// MalformedRecordError reports one rejected element inside a raw unit's JSON
// array. It never aborts the unit: the remaining elements are still processed.
type MalformedRecordError struct {
	ObjectKey string
	Index     int
	Reason    error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s[%d]: %v", e.ObjectKey, e.Index, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return e.Reason }

// PartitionWriteError wraps a failure to publish one partition's output.
type PartitionWriteError struct {
	Key domain.PartitionKey
	Err error
}

func (e *PartitionWriteError) Error() string {
	return fmt.Sprintf("write partition %s: %v", e.Key, e.Err)
}

func (e *PartitionWriteError) Unwrap() error { return e.Err }
