// Package storage provides the flat object-store abstraction backing the raw
// and processed data roots, with filesystem and S3 implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotExist is returned by Get for a key with no object behind it.
var ErrNotExist = errors.New("object does not exist")

// ObjectStore is a minimal flat key/object interface. Keys use forward
// slashes regardless of backend.
//
// Put must be atomic per key: a concurrent reader observes either the
// previous object or the complete new one, never a partial write. The
// partitioned writer's one-object-per-partition layout leans on this to make
// partition publication all-or-nothing.
type ObjectStore interface {
	// List returns all object keys under prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes the object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Open resolves a configured data root into a store. Roots of the form
// "s3://bucket[/prefix]" bind the S3 backend using the ambient AWS config;
// anything else is treated as a local directory.
func Open(ctx context.Context, root string) (ObjectStore, error) {
	if !strings.HasPrefix(root, "s3://") {
		return NewFSStore(root), nil
	}

	trimmed := strings.TrimPrefix(root, "s3://")
	bucket, prefix, _ := strings.Cut(trimmed, "/")
	if bucket == "" {
		return nil, fmt.Errorf("invalid s3 root %q: missing bucket", root)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3Store(s3.NewFromConfig(cfg), bucket, prefix), nil
}
