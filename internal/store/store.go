// Package store provides the JSON document store shared by the updater and
// the read API. Keys are flat, slash-separated paths; values are opaque
// byte blobs the callers treat as JSON.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("not found")

// Well-known keys. The updater owns all writes under these.
const (
	KeyCurrent          = "current.json"
	KeyIndex            = "index.json"
	PrefixProclamations = "proclamations/"
)

// ProclamationKey builds the archive key for a proclamation record.
func ProclamationKey(year int, id string) string {
	return fmt.Sprintf("%s%d/%s.json", PrefixProclamations, year, id)
}

// Store is a key-value blob store. Put overwrites unconditionally; the
// store gives no ordering guarantee between concurrent writers.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
	fmt.Stringer
}
