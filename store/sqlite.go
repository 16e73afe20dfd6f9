package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/etnz/tracker"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// schema stores decimals as text to keep them exact. seq is the ledger order.
const schema = `
CREATE TABLE IF NOT EXISTS trades (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	date TEXT NOT NULL,
	side TEXT NOT NULL,
	symbol TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT '',
	account TEXT NOT NULL DEFAULT '',
	memo TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`

// SQLite is a ledger stored in a SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens, and creates if needed, the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &tracker.StorageError{Op: "open", Path: path, Err: err}
	}
	// a single connection avoids "database is locked" between our own writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &tracker.StorageError{Op: "open", Path: path, Err: err}
	}
	return &SQLite{db: db, path: path}, nil
}

// Load returns every trade in insertion order.
func (s *SQLite) Load(ctx context.Context) ([]tracker.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, side, symbol, quantity, price, currency, account, memo
		FROM trades ORDER BY seq`)
	if err != nil {
		return nil, &tracker.StorageError{Op: "load", Path: s.path, Err: err}
	}
	defer rows.Close()

	var trades []tracker.TradeRecord
	for rows.Next() {
		var day, side, symbol, quantity, price, currency, account, memo string
		if err := rows.Scan(&day, &side, &symbol, &quantity, &price, &currency, &account, &memo); err != nil {
			return nil, &tracker.StorageError{Op: "load", Path: s.path, Err: err}
		}
		rec, err := parseRow(day, side, symbol, quantity, price, currency, account, memo)
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			var ire *tracker.InvalidRecordError
			if errors.As(err, &ire) {
				ire.Index = len(trades)
			} else {
				err = fmt.Errorf("row %d: %w", len(trades)+1, err)
			}
			return nil, &tracker.StorageError{Op: "load", Path: s.path, Err: err}
		}
		trades = append(trades, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &tracker.StorageError{Op: "load", Path: s.path, Err: err}
	}
	return trades, nil
}

func parseRow(day, side, symbol, quantity, price, currency, account, memo string) (tracker.TradeRecord, error) {
	date, err := tracker.ParseISODate(day)
	if err != nil {
		return tracker.TradeRecord{}, err
	}
	sd, err := tracker.ParseSide(side)
	if err != nil {
		return tracker.TradeRecord{}, err
	}
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return tracker.TradeRecord{}, fmt.Errorf("invalid quantity %q: %w", quantity, err)
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return tracker.TradeRecord{}, fmt.Errorf("invalid price %q: %w", price, err)
	}
	rec := tracker.NewTrade(date, sd, symbol, tracker.Q(q), tracker.M(p, currency), account)
	rec.Memo = memo
	return rec, nil
}

// Append validates rec and inserts it in its own transaction.
func (s *SQLite) Append(ctx context.Context, rec tracker.TradeRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	id, err := newID()
	if err != nil {
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades
		(id, date, side, symbol, quantity, price, currency, account, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Date.String(), rec.Side.String(), rec.Symbol,
		rec.Quantity.Decimal().String(), rec.Price.Decimal().String(), rec.Price.Currency(),
		rec.Account, rec.Memo,
	)
	if err != nil {
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &tracker.StorageError{Op: "append", Path: s.path, Err: err}
	}
	return nil
}

// Watch calls changed whenever the database file is written.
func (s *SQLite) Watch(ctx context.Context, changed func()) error {
	return watchFile(ctx, s.path, changed)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
