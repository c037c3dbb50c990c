// Package memstore provides the in-memory storage backend. It reuses the
// jsonstore cache without a backing file, so nothing survives a restart.
// It is the default backend when neither a file path nor a database DSN is
// configured, and the workhorse of the test suite.
package memstore

import (
	"context"

	"github.com/venkatnanaji21/Life-line-blood/internal/db/jsonstore"
	"github.com/venkatnanaji21/Life-line-blood/internal/models"
)

// MemStore is a JSONStore without a file.
type MemStore struct {
	*jsonstore.JSONStore
}

// New returns an empty in-memory store.
func New() (*MemStore, error) {
	return &MemStore{
		JSONStore: &jsonstore.JSONStore{
			Cache: jsonstore.CacheStruct{
				Users:    []models.User{},
				Requests: []models.Request{},
			},
		},
	}, nil
}

// Close is a no-op: there is nothing to flush.
func (store *MemStore) Close() error {
	return nil
}

// Ping always succeeds for the in-memory store.
func (store *MemStore) Ping(ctx context.Context) error {
	return nil
}
