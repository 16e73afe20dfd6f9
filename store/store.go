// Package store persists the trade ledger.
//
// Two drivers are available: a JSONL file, one trade per line, and a SQLite
// database. Both implement tracker.Ledger and wrap every failure in a
// *tracker.StorageError.
package store

import (
	"context"
	"fmt"

	"github.com/etnz/tracker"
)

const (
	DriverJSONL  = "jsonl"
	DriverSQLite = "sqlite"
)

// Store is a ledger backed by durable storage.
type Store interface {
	tracker.Ledger
	// Watch calls changed every time the underlying file is modified, until
	// ctx is done.
	Watch(ctx context.Context, changed func()) error
	Close() error
}

// Open opens the ledger at path with the named driver. An empty driver
// means DriverJSONL.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverJSONL:
		return NewJSONL(path), nil
	case DriverSQLite:
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}
}
