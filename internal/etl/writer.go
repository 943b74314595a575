package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
	"github.com/couchcryptid/weather-lake-etl/internal/observability"
	"github.com/couchcryptid/weather-lake-etl/internal/storage"
)

// PartObjectName is the single data object inside every partition prefix. The
// deterministic name makes reprocessing a full replace: the Put overwrites the
// previous object instead of adding a sibling.
const PartObjectName = "part-00000.parquet"

const parquetContentType = "application/octet-stream"

// WriteResult reports what one partition write published.
type WriteResult struct {
	Key       domain.PartitionKey
	ObjectKey string
	Records   int
	Bytes     int
}

// PartitionedWriter publishes one snappy-compressed parquet object per
// partition. Because the object store's Put is atomic per key and each
// partition holds exactly one object, a partition is either fully visible or
// absent; a failed run never leaves a partial file set behind.
type PartitionedWriter struct {
	store   storage.ObjectStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewPartitionedWriter(store storage.ObjectStore, logger *slog.Logger, metrics *observability.Metrics) *PartitionedWriter {
	return &PartitionedWriter{store: store, logger: logger, metrics: metrics}
}

// Write encodes the partition's records and publishes them under the
// partition prefix, replacing any prior content. Stale sibling objects left
// by older layouts are deleted after the new object is visible.
func (w *PartitionedWriter) Write(ctx context.Context, key domain.PartitionKey, records []domain.ProcessedRecord) (WriteResult, error) {
	if len(records) == 0 {
		return WriteResult{}, &PartitionWriteError{Key: key, Err: fmt.Errorf("no records to write")}
	}

	data, err := encodeParquet(records)
	if err != nil {
		return WriteResult{}, &PartitionWriteError{Key: key, Err: err}
	}

	objectKey := key.ProcessedPrefix() + PartObjectName
	start := time.Now()
	if err := w.store.Put(ctx, objectKey, data, parquetContentType); err != nil {
		return WriteResult{}, &PartitionWriteError{Key: key, Err: err}
	}
	w.metrics.WriteDuration.Observe(time.Since(start).Seconds())

	if err := w.removeStaleSiblings(ctx, key, objectKey); err != nil {
		// The partition data is already fully published; stale leftovers only
		// matter if a future layout change reintroduces them.
		w.logger.Warn("could not remove stale partition objects", "partition", key.String(), "error", err)
	}

	w.metrics.RecordsWritten.Add(float64(len(records)))
	return WriteResult{
		Key:       key,
		ObjectKey: objectKey,
		Records:   len(records),
		Bytes:     len(data),
	}, nil
}

// removeStaleSiblings deletes any object under the partition prefix other
// than the one just written.
func (w *PartitionedWriter) removeStaleSiblings(ctx context.Context, key domain.PartitionKey, keep string) error {
	existing, err := w.store.List(ctx, key.ProcessedPrefix())
	if err != nil {
		return err
	}

	var errs *multierror.Error
	for _, obj := range existing {
		if obj == keep {
			continue
		}
		if err := w.store.Delete(ctx, obj); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// ReadPartition fetches and decodes a partition's parquet object, used by the
// validate command and tests.
func ReadPartition(ctx context.Context, store storage.ObjectStore, key domain.PartitionKey) ([]domain.ProcessedRecord, error) {
	data, err := store.Get(ctx, key.ProcessedPrefix()+PartObjectName)
	if err != nil {
		return nil, err
	}
	return decodeParquet(data)
}

func encodeParquet(records []domain.ProcessedRecord) ([]byte, error) {
	fw := buffer.NewBufferFile()

	pw, err := writer.NewParquetWriter(fw, new(domain.ProcessedRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range records {
		if err := pw.Write(records[i]); err != nil {
			return nil, fmt.Errorf("parquet write row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("parquet finalize: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("parquet close: %w", err)
	}
	return fw.Bytes(), nil
}

func decodeParquet(data []byte) ([]domain.ProcessedRecord, error) {
	fr := buffer.NewBufferFileFromBytes(data)

	pr, err := reader.NewParquetReader(fr, new(domain.ProcessedRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("parquet reader: %w", err)
	}
	defer fr.Close()

	rows := make([]domain.ProcessedRecord, pr.GetNumRows())
	if len(rows) > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, fmt.Errorf("parquet read: %w", err)
		}
	}
	pr.ReadStop()
	return rows, nil
}
