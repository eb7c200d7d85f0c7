package storage

import "context"

// Store is the blob storage backend holding raw recording audio. Names are
// disambiguated by the caller before Put; the store does no dedup. Put must
// be idempotent under retry with the same name.
type Store interface {
	// Put writes the object and returns its location (local path or
	// object-store URI). The location is what gets persisted on the record.
	Put(ctx context.Context, name, contentType string, data []byte) (location string, err error)

	// Get resolves a location produced by Put back into bytes.
	Get(ctx context.Context, location string) ([]byte, error)

	// Exists reports whether an object with the given name is already stored.
	Exists(ctx context.Context, name string) (bool, error)
}
