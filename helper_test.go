package tracker

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

var usd = Options{Currency: "USD"}

func buy(day, symbol string, q, p float64) TradeRecord {
	return NewTrade(MustParse(day), Buy, symbol, Q(q), USD(p), "")
}

func sell(day, symbol string, q, p float64) TradeRecord {
	return NewTrade(MustParse(day), Sell, symbol, Q(q), USD(p), "")
}

func onAccount(tr TradeRecord, account string) TradeRecord {
	tr.Account = account
	return tr
}

// fixedQuotes serves prices from a map, unknown symbols are NotFound.
type fixedQuotes struct {
	prices map[string]float64
	calls  atomic.Int32
}

func quotes(prices map[string]float64) *fixedQuotes { return &fixedQuotes{prices: prices} }

func (f *fixedQuotes) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	f.calls.Add(1)
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, &QuoteError{Symbol: symbol, Kind: QuoteNotFound}
	}
	return decimal.NewFromFloat(p), nil
}

// memLedger is an in-memory LedgerSource.
type memLedger struct {
	trades []TradeRecord
	err    error
}

func (m memLedger) Load(context.Context) ([]TradeRecord, error) { return m.trades, m.err }

var errDisk = errors.New("disk on fire")
