package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/weather-lake-etl/internal/domain"
	"github.com/couchcryptid/weather-lake-etl/internal/storage"
)

// Index is the set of partitions that already have processed output. It is
// derived by listing the processed store, never persisted separately, so it
// is only as fresh as the listing that built it. A coordinator builds it once
// per run before any writes; the built set is read-only and safe to share
// across workers.
type Index struct {
	keys map[domain.PartitionKey]struct{}
}

// Exists reports whether the partition had output when the index was built.
func (ix *Index) Exists(key domain.PartitionKey) bool {
	_, ok := ix.keys[key]
	return ok
}

// Len returns the number of indexed partitions.
func (ix *Index) Len() int { return len(ix.keys) }

// Keys returns the indexed partitions in unspecified order.
func (ix *Index) Keys() []domain.PartitionKey {
	out := make([]domain.PartitionKey, 0, len(ix.keys))
	for k := range ix.keys {
		out = append(out, k)
	}
	return out
}

// Indexer builds partition indexes from the processed store's layout.
type Indexer struct {
	store storage.ObjectStore
}

func NewIndexer(store storage.ObjectStore) *Indexer {
	return &Indexer{store: store}
}

// Build lists processed partition prefixes for every date in the inclusive
// window [from, to]. A listing failure wraps ErrIndexUnavailable and is fatal
// to the run: guessing at the processed set risks duplicate reprocessing or
// silent skips.
func (x *Indexer) Build(ctx context.Context, from, to time.Time) (*Index, error) {
	keys := make(map[domain.PartitionKey]struct{})

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		prefix := "source_date=" + day.Format(domain.DateLayout) + "/"
		objects, err := x.store.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", ErrIndexUnavailable, prefix, err)
		}
		for _, obj := range objects {
			key, err := domain.ParseProcessedKey(obj)
			if err != nil {
				// Foreign objects under the processed root are not partitions.
				continue
			}
			keys[key] = struct{}{}
		}
	}

	return &Index{keys: keys}, nil
}
