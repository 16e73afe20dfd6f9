package quote

import (
	"context"
	"slices"
	"strings"

	"github.com/etnz/tracker"
	"github.com/shopspring/decimal"
)

// Static serves fixed prices, keyed by normalized symbol.
type Static map[string]decimal.Decimal

// NewStatic builds a Static provider, normalizing symbols.
func NewStatic(prices map[string]float64) Static {
	s := make(Static, len(prices))
	for symbol, p := range prices {
		s[tracker.NormalizeSymbol(symbol)] = decimal.NewFromFloat(p)
	}
	return s
}

func (s Static) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := s[tracker.NormalizeSymbol(symbol)]
	if !ok {
		return decimal.Zero, &tracker.QuoteError{Symbol: symbol, Kind: tracker.QuoteNotFound}
	}
	return p, nil
}

// Search returns the known symbols containing term, sorted.
func (s Static) Search(_ context.Context, term string) []tracker.SymbolMatch {
	term = tracker.NormalizeSymbol(term)
	var matches []tracker.SymbolMatch
	for symbol := range s {
		if strings.Contains(symbol, term) {
			matches = append(matches, tracker.SymbolMatch{Symbol: symbol, DisplayName: symbol})
		}
	}
	slices.SortFunc(matches, func(a, b tracker.SymbolMatch) int { return strings.Compare(a.Symbol, b.Symbol) })
	return matches
}
