package store

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/etnz/tracker"
)

// JSONL is a ledger stored as a JSON Lines file.
//
// A missing file is an empty ledger: the file is created by the first Append.
// Any other read failure is an error.
type JSONL struct {
	path string
	mu   sync.Mutex // serializes appends with loads of this process
}

// NewJSONL returns the JSONL ledger at path. The file is not opened until
// used.
func NewJSONL(path string) *JSONL { return &JSONL{path: path} }

// Path returns the ledger file path.
func (s *JSONL) Path() string { return s.path }

// Load decodes the whole ledger in file order.
func (s *JSONL) Load(ctx context.Context) ([]tracker.TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &tracker.StorageError{Op: "load", Path: s.path, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &tracker.StorageError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	trades, err := tracker.DecodeTrades(f)
	if err != nil {
		return nil, &tracker.StorageError{Op: "load", Path: s.path, Err: err}
	}
	return trades, nil
}

// Append validates rec and writes it as one line. The line is written with
// a single write on a file opened in append mode, so that readers in other
// processes see either the whole record or nothing.
func (s *JSONL) Append(ctx context.Context, rec tracker.TradeRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}

	var line bytes.Buffer
	if err := tracker.EncodeTrade(&line, rec); err != nil {
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}
	if _, err := f.Write(line.Bytes()); err != nil {
		f.Close()
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}
	return nil
}

// Watch calls changed whenever the ledger file is written, created or
// replaced.
func (s *JSONL) Watch(ctx context.Context, changed func()) error {
	return watchFile(ctx, s.path, changed)
}

// Close is a no-op: the file is only open during Load and Append.
func (s *JSONL) Close() error { return nil }
