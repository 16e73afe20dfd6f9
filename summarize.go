package tracker

import (
	"errors"
)

// Snapshot is the outcome of one evaluation pass. It is rebuilt from scratch
// on every evaluation.
type Snapshot struct {
	Currency string
	Trades   int // number of records evaluated, zero means no trades recorded

	Positions                []Valuation     // open positions by key
	RealizedEvents           []RealizedEvent // by date, then ledger order
	CumulativeRealizedProfit []Money         // running sum over RealizedEvents
	Orphans                  []*OrphanSellError

	TotalMarketValue   Money
	TotalUnrealizedPnL Money
	TotalRealizedPnL   Money
}

// Summarize folds valuations and realized events into portfolio totals.
func Summarize(valuations Valuations, r Realization) Snapshot {
	currency := r.Total.Currency()
	s := Snapshot{
		Currency:                 currency,
		Positions:                valuations.Sorted(),
		RealizedEvents:           r.Events,
		CumulativeRealizedProfit: r.Cumulative,
		Orphans:                  r.Orphans,
		TotalMarketValue:         M(0, currency),
		TotalUnrealizedPnL:       M(0, currency),
		TotalRealizedPnL:         M(0, currency),
	}
	for _, v := range s.Positions {
		s.TotalMarketValue = s.TotalMarketValue.Add(v.MarketValue)
		s.TotalUnrealizedPnL = s.TotalUnrealizedPnL.Add(v.UnrealizedPnL)
	}
	for _, e := range s.RealizedEvents {
		s.TotalRealizedPnL = s.TotalRealizedPnL.Add(e.Profit)
	}
	return s
}

// IsEmpty reports the valid "no trades recorded" state.
func (s Snapshot) IsEmpty() bool { return s.Trades == 0 }

// Stale returns the positions valued at cost because their quote failed.
func (s Snapshot) Stale() []Valuation {
	var stale []Valuation
	for _, v := range s.Positions {
		if v.Stale() {
			stale = append(stale, v)
		}
	}
	return stale
}

// Degraded reports whether some positions could not be priced live.
func (s Snapshot) Degraded() bool { return len(s.Stale()) > 0 }

// Issues joins the data integrity warnings of this snapshot, nil if there are none.
func (s Snapshot) Issues() error {
	errs := make([]error, len(s.Orphans))
	for i, o := range s.Orphans {
		errs[i] = o
	}
	return errors.Join(errs...)
}

// MarshalJSON implements json.Marshaler with a stable field order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	positions := make([]jsonValuation, len(s.Positions))
	for i, v := range s.Positions {
		positions[i] = jsonValuation(v)
	}
	events := make([]jsonEvent, len(s.RealizedEvents))
	for i, e := range s.RealizedEvents {
		events[i] = jsonEvent{RealizedEvent: e, cumulative: s.CumulativeRealizedProfit[i]}
	}
	var orphans []string
	for _, o := range s.Orphans {
		orphans = append(orphans, o.Error())
	}

	var w jsonObject
	w.field("currency", s.Currency)
	w.field("trades", s.Trades)
	w.field("positions", positions)
	w.field("realized", events)
	w.optional("orphans", orphans)
	w.field("totalMarketValue", s.TotalMarketValue.Decimal())
	w.field("totalUnrealizedPnL", s.TotalUnrealizedPnL.Decimal())
	w.field("totalRealizedPnL", s.TotalRealizedPnL.Decimal())
	return w.MarshalJSON()
}

type jsonValuation Valuation

func (v jsonValuation) MarshalJSON() ([]byte, error) {
	var w jsonObject
	w.field("symbol", v.Key.Symbol)
	w.optional("account", v.Key.Account)
	w.field("quantity", v.NetQuantity)
	w.field("averageCost", v.AverageCost.Decimal())
	w.field("price", v.Price.Decimal())
	w.field("source", v.Source.String())
	if v.QuoteErr != nil {
		w.field("quoteError", v.QuoteErr.Kind.String())
	}
	w.field("marketValue", v.MarketValue.Decimal())
	w.field("unrealizedPnL", v.UnrealizedPnL.Decimal())
	return w.MarshalJSON()
}

type jsonEvent struct {
	RealizedEvent
	cumulative Money
}

func (e jsonEvent) MarshalJSON() ([]byte, error) {
	var w jsonObject
	w.field("date", e.Date)
	w.field("symbol", e.Key.Symbol)
	w.optional("account", e.Key.Account)
	w.field("quantity", e.Quantity)
	w.field("price", e.Price.Decimal())
	w.field("averageCost", e.AverageCost.Decimal())
	w.field("profit", e.Profit.Decimal())
	w.field("cumulative", e.cumulative.Decimal())
	return w.MarshalJSON()
}
