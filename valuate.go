package tracker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultQuoteTimeout bounds a single quote request when Options.QuoteTimeout is zero.
const DefaultQuoteTimeout = 10 * time.Second

// PriceSource tells where a valuation price comes from.
type PriceSource int

const (
	// Live is a price returned by the quote provider.
	Live PriceSource = iota
	// AtCost is the position's average cost, used when no quote is available.
	AtCost
)

func (s PriceSource) String() string {
	if s == AtCost {
		return "cost"
	}
	return "live"
}

// Valuation is an open position priced at its effective price.
type Valuation struct {
	Position
	Price         Money // effective price per unit
	Source        PriceSource
	QuoteErr      *QuoteError // why Source is AtCost, nil otherwise
	MarketValue   Money       // NetQuantity × Price
	UnrealizedPnL Money       // MarketValue - NetQuantity × AverageCost
}

// Stale reports whether the valuation fell back to cost because the quote
// failed. A stale valuation always has a zero UnrealizedPnL.
func (v Valuation) Stale() bool { return v.Source == AtCost }

// Valuations indexes valuations by key.
type Valuations map[Key]Valuation

// Sorted returns the valuations ordered by key.
func (vs Valuations) Sorted() []Valuation {
	list := make([]Valuation, 0, len(vs))
	for _, v := range vs {
		list = append(list, v)
	}
	sortByKey(list, func(v Valuation) Key { return v.Key })
	return list
}

// Valuate prices every open position. Quotes are requested concurrently, one
// per distinct symbol, each bounded by opts.QuoteTimeout. A failed quote is
// never returned as an error: the position is valued at its average cost and
// marked stale.
func Valuate(ctx context.Context, positions Positions, quotes QuoteProvider, opts Options) Valuations {
	symbols := make(map[string]struct{})
	for p := range positions.Open() {
		symbols[p.Key.Symbol] = struct{}{}
	}
	prices := fetchQuotes(ctx, quotes, symbols, opts.quoteTimeout())

	valuations := make(Valuations)
	for p := range positions.Open() {
		v := Valuation{Position: p}
		q := prices[p.Key.Symbol]
		if q.err != nil {
			v.Price = p.AverageCost
			v.Source = AtCost
			v.QuoteErr = q.err
			log.Printf("%s: no live quote (%v), valued at average cost %s", p.Key, q.err.Kind, p.AverageCost)
		} else {
			v.Price = M(q.price, opts.Currency)
			v.Source = Live
		}
		v.MarketValue = v.Price.Mul(p.NetQuantity)
		v.UnrealizedPnL = v.MarketValue.Sub(p.CostBasis())
		valuations[p.Key] = v
	}
	return valuations
}

type quoteResult struct {
	price decimal.Decimal
	err   *QuoteError
}

// fetchQuotes fans out one request per symbol and waits for all of them. Each
// request yields a result within timeout even if the provider ignores its
// context.
func fetchQuotes(ctx context.Context, quotes QuoteProvider, symbols map[string]struct{}, timeout time.Duration) map[string]quoteResult {
	results := make(map[string]quoteResult, len(symbols))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for symbol := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := quoteOne(ctx, quotes, symbol, timeout)
			mu.Lock()
			results[symbol] = r
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func quoteOne(ctx context.Context, quotes QuoteProvider, symbol string, timeout time.Duration) quoteResult {
	if quotes == nil {
		return quoteResult{err: &QuoteError{Symbol: symbol, Kind: QuoteUnknown, Err: errors.New("no quote provider")}}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan quoteResult, 1) // buffered: a late provider must not block forever
	go func() {
		price, err := quotes.Quote(ctx, symbol)
		switch {
		case err != nil:
			done <- quoteResult{err: AsQuoteError(symbol, err)}
		case price.IsNegative():
			done <- quoteResult{err: &QuoteError{Symbol: symbol, Kind: QuoteUnknown, Err: errors.New("negative price " + price.String())}}
		default:
			done <- quoteResult{price: price}
		}
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return quoteResult{err: &QuoteError{Symbol: symbol, Kind: QuoteTimeout, Err: ctx.Err()}}
	}
}
