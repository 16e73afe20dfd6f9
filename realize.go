package tracker

import (
	"slices"
	"sort"
)

// RealizedEvent is the profit or loss locked in by one sell.
type RealizedEvent struct {
	Index       int // position of the sell in the ledger
	Date        Date
	Key         Key
	Quantity    Quantity
	Price       Money // sell price per unit
	AverageCost Money // cost per unit the sell is realized against
	Profit      Money // (Price - AverageCost) × Quantity
}

// Realization is the ordered realized P/L of a ledger.
type Realization struct {
	Events     []RealizedEvent    // by date, then ledger order
	Cumulative []Money            // Cumulative[i] is the sum of Events[0..i].Profit
	Orphans    []*OrphanSellError // sells that could not be realized, in ledger order
	Total      Money
}

// Realize derives one RealizedEvent per sell of a key with a known average
// cost. Sells against keys without buy history are reported in Orphans and
// contribute nothing.
//
// trades must be the batch positions were aggregated from.
func Realize(trades []TradeRecord, positions Positions, opts Options) Realization {
	r := Realization{Total: M(0, opts.Currency)}

	var asOf map[Key]*buyHistory
	if opts.Averaging == AsOfSale {
		asOf = newBuyHistories(trades, opts)
	}

	for i, tr := range trades {
		if tr.Side != Sell {
			continue
		}
		k := tr.Key(opts.Grouping)
		p, ok := positions[k]
		avg, known := p.AverageCost, ok && p.HasCost
		if known && asOf != nil {
			avg, known = asOf[k].averageAt(tr.Date)
		}
		if !known {
			r.Orphans = append(r.Orphans, &OrphanSellError{Key: k, Date: tr.Date, Quantity: tr.Quantity})
			continue
		}
		r.Events = append(r.Events, RealizedEvent{
			Index:       i,
			Date:        tr.Date,
			Key:         k,
			Quantity:    tr.Quantity,
			Price:       tr.Price,
			AverageCost: avg,
			Profit:      tr.Price.Sub(avg).Mul(tr.Quantity),
		})
	}

	// Events were appended in ledger order, a stable sort keeps it for equal dates.
	slices.SortStableFunc(r.Events, func(a, b RealizedEvent) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return 0
	})

	r.Cumulative = make([]Money, len(r.Events))
	for i, e := range r.Events {
		r.Total = r.Total.Add(e.Profit)
		r.Cumulative[i] = r.Total
	}
	return r
}

// buyHistory holds the buys of one key by date with running totals.
type buyHistory struct {
	dates    []Date
	quantity []Quantity // running sum of quantities
	cost     []Money    // running sum of quantity × price
}

func newBuyHistories(trades []TradeRecord, opts Options) map[Key]*buyHistory {
	buys := make(map[Key][]TradeRecord)
	for _, tr := range trades {
		if tr.Side == Buy {
			k := tr.Key(opts.Grouping)
			buys[k] = append(buys[k], tr)
		}
	}

	histories := make(map[Key]*buyHistory, len(buys))
	for k, list := range buys {
		slices.SortStableFunc(list, func(a, b TradeRecord) int {
			switch {
			case a.Date.Before(b.Date):
				return -1
			case a.Date.After(b.Date):
				return 1
			}
			return 0
		})
		h := &buyHistory{}
		q, c := Q(0), M(0, opts.Currency)
		for _, tr := range list {
			q, c = q.Add(tr.Quantity), c.Add(tr.Cost())
			h.dates = append(h.dates, tr.Date)
			h.quantity = append(h.quantity, q)
			h.cost = append(h.cost, c)
		}
		histories[k] = h
	}
	return histories
}

// averageAt returns the average cost of the buys dated on or before day.
func (h *buyHistory) averageAt(day Date) (Money, bool) {
	if h == nil {
		return Money{}, false
	}
	// n is the number of buys dated on or before day.
	n := sort.Search(len(h.dates), func(i int) bool { return h.dates[i].After(day) })
	if n == 0 || !h.quantity[n-1].IsPositive() {
		return Money{}, false
	}
	return h.cost[n-1].Div(h.quantity[n-1]), true
}
