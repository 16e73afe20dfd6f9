package tracker

import (
	"context"
	"errors"
	"fmt"
)

// Evaluator turns a ledger and live quotes into a Snapshot. It holds no state
// between evaluations and is safe to call at any rate.
type Evaluator struct {
	Ledger  LedgerSource
	Quotes  QuoteProvider
	Options Options
}

// Evaluate loads the ledger and evaluates it. A ledger that cannot be read
// yields no snapshot and an error matching ErrStorage; an empty ledger yields
// an empty snapshot.
func (e *Evaluator) Evaluate(ctx context.Context) (Snapshot, error) {
	if e.Ledger == nil {
		return Snapshot{}, &StorageError{Op: "load", Err: errors.New("no ledger configured")}
	}
	trades, err := e.Ledger.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrStorage) {
			err = &StorageError{Op: "load", Err: err}
		}
		return Snapshot{}, err
	}
	return Evaluate(ctx, trades, e.Quotes, e.Options)
}

// Evaluate runs one pass over trades: aggregation, realization, valuation and
// summary. It fails only on invalid records; quote failures degrade the
// snapshot and orphan sells are reported in Snapshot.Orphans.
func Evaluate(ctx context.Context, trades []TradeRecord, quotes QuoteProvider, opts Options) (Snapshot, error) {
	opts.Currency = ledgerCurrency(trades, opts.Currency)
	positions, err := Aggregate(trades, opts)
	if err != nil {
		return Snapshot{}, fmt.Errorf("cannot aggregate ledger: %w", err)
	}
	realization := Realize(trades, positions, opts)
	valuations := Valuate(ctx, positions, quotes, opts)

	s := Summarize(valuations, realization)
	s.Currency = opts.Currency
	s.Trades = len(trades)
	return s, nil
}
