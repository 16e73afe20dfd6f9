package tracker

import (
	"errors"
	"iter"
	"maps"
	"slices"
	"time"
)

// Averaging selects which buys make up the average cost used to realize a sell.
type Averaging int

const (
	// FullHistory averages every buy of the key present in the ledger,
	// including buys dated after the sell.
	FullHistory Averaging = iota
	// AsOfSale averages only the buys dated on or before the sell.
	AsOfSale
)

func (a Averaging) String() string {
	switch a {
	case FullHistory:
		return "full"
	case AsOfSale:
		return "as-of-sale"
	default:
		return "unknown"
	}
}

// ParseAveraging parses "full" or "as-of-sale".
func ParseAveraging(s string) (Averaging, error) {
	switch s {
	case "", "full":
		return FullHistory, nil
	case "as-of-sale":
		return AsOfSale, nil
	default:
		return 0, errors.New("unknown averaging policy: " + s)
	}
}

// Options drive an evaluation pass.
type Options struct {
	Currency     string // if empty, the first price currency of the ledger
	Grouping     Grouping
	Averaging    Averaging
	QuoteTimeout time.Duration // per quote, DefaultQuoteTimeout if zero
}

func (o Options) quoteTimeout() time.Duration {
	if o.QuoteTimeout <= 0 {
		return DefaultQuoteTimeout
	}
	return o.QuoteTimeout
}

// Position is the aggregate of all trades sharing a key.
type Position struct {
	Key         Key
	Bought      Quantity // sum of buy quantities
	Sold        Quantity // sum of sell quantities
	NetQuantity Quantity // Bought - Sold
	BuyCost     Money    // sum of quantity × price over buys
	AverageCost Money    // BuyCost / Bought, meaningful only if HasCost
	HasCost     bool     // false when nothing was ever bought
}

// IsOpen reports whether units are still held.
func (p Position) IsOpen() bool { return p.HasCost && p.NetQuantity.IsPositive() }

// CostBasis returns NetQuantity × AverageCost.
func (p Position) CostBasis() Money { return p.AverageCost.Mul(p.NetQuantity) }

// Positions indexes positions by key.
type Positions map[Key]Position

// Keys returns the keys sorted by symbol then account.
func (ps Positions) Keys() []Key {
	keys := slices.Collect(maps.Keys(ps))
	sortByKey(keys, func(k Key) Key { return k })
	return keys
}

// Open iterates over open positions in key order.
func (ps Positions) Open() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for _, k := range ps.Keys() {
			if p := ps[k]; p.IsOpen() {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Aggregate groups trades by key and computes net quantity and weighted
// average cost. The whole batch is rejected if any record is invalid: the
// returned error joins one *InvalidRecordError per offending record.
//
// Keys without any buy are kept with HasCost false so that callers can
// report their sells as orphans; they are never open.
func Aggregate(trades []TradeRecord, opts Options) (Positions, error) {
	opts.Currency = ledgerCurrency(trades, opts.Currency)
	if err := validateBatch(trades, opts.Currency); err != nil {
		return nil, err
	}

	positions := make(Positions)
	for _, tr := range trades {
		k := tr.Key(opts.Grouping)
		p, ok := positions[k]
		if !ok {
			p = Position{Key: k, BuyCost: M(0, opts.Currency), AverageCost: M(0, opts.Currency)}
		}
		switch tr.Side {
		case Buy:
			p.Bought = p.Bought.Add(tr.Quantity)
			p.BuyCost = p.BuyCost.Add(tr.Cost())
		case Sell:
			p.Sold = p.Sold.Add(tr.Quantity)
		}
		positions[k] = p
	}

	for k, p := range positions {
		p.NetQuantity = p.Bought.Sub(p.Sold)
		if p.Bought.IsPositive() {
			p.HasCost = true
			p.AverageCost = p.BuyCost.Div(p.Bought)
		}
		positions[k] = p
	}
	return positions, nil
}

// ledgerCurrency returns currency, or if empty the first price currency in
// trades. A ledger is valued in a single currency.
func ledgerCurrency(trades []TradeRecord, currency string) string {
	if currency != "" {
		return currency
	}
	for _, tr := range trades {
		if c := tr.Price.Currency(); c != "" {
			return c
		}
	}
	return ""
}

// validateBatch validates every record and joins the failures, indexed by
// their position in trades. Prices must be in currency, or carry none.
func validateBatch(trades []TradeRecord, currency string) error {
	var errs []error
	for i, tr := range trades {
		err := tr.Validate()
		if err == nil && currency != "" && tr.Price.Currency() != "" && tr.Price.Currency() != currency {
			err = &InvalidRecordError{Record: tr, Reason: "price currency " + tr.Price.Currency() + " is not " + currency}
		}
		if err != nil {
			var ire *InvalidRecordError
			if errors.As(err, &ire) {
				ire.Index = i
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
