package tracker

import (
	"context"

	"github.com/shopspring/decimal"
)

// LedgerSource reads the full, ordered list of trade records. An empty
// ledger is a nil slice and a nil error; any read failure must be returned as
// an error so that it is never mistaken for an empty ledger.
type LedgerSource interface {
	Load(ctx context.Context) ([]TradeRecord, error)
}

// LedgerAppender appends one record. A concurrent Load never observes a
// partially written record.
type LedgerAppender interface {
	Append(ctx context.Context, rec TradeRecord) error
}

// Ledger is a readable and appendable trade store.
type Ledger interface {
	LedgerSource
	LedgerAppender
}

// QuoteProvider returns the current price per unit of a symbol, in the
// portfolio currency. Failures should be *QuoteError, other errors are
// classified with AsQuoteError.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// QuoteFunc adapts a function into a QuoteProvider.
type QuoteFunc func(ctx context.Context, symbol string) (decimal.Decimal, error)

func (f QuoteFunc) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return f(ctx, symbol)
}

// SymbolMatch is a search result.
type SymbolMatch struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"displayName"`
}

// SymbolSearcher looks up instruments by free text. It is best effort and
// returns an empty result on any failure.
type SymbolSearcher interface {
	Search(ctx context.Context, term string) []SymbolMatch
}
