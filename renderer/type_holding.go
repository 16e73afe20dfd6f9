package renderer

import (
	"fmt"

	"github.com/etnz/tracker"
)

// Holding is the view of a snapshot's open positions.
// Numbers keep their exact types (Money, Quantity) so that templates can use
// their renderers (String, SignedString).
type Holding struct {
	Currency string `json:"currency"`
	// Empty is true when the ledger has no trades at all.
	Empty bool `json:"empty,omitempty"`
	// Degraded is true when some positions are valued at cost.
	Degraded bool `json:"degraded,omitempty"`

	Positions []HoldingPosition `json:"positions"`

	TotalMarketValue   tracker.Money `json:"totalMarketValue"`
	TotalUnrealizedPnL tracker.Money `json:"totalUnrealizedPnL"`
	TotalRealizedPnL   tracker.Money `json:"totalRealizedPnL"`

	// Notes are data warnings: stale quotes and orphan sells.
	Notes []string `json:"notes,omitempty"`
}

// HoldingPosition is one open position.
type HoldingPosition struct {
	Symbol        string           `json:"symbol"`
	Account       string           `json:"account,omitempty"`
	Quantity      tracker.Quantity `json:"quantity"`
	AverageCost   tracker.Money    `json:"averageCost"`
	Price         tracker.Money    `json:"price"`
	Stale         bool             `json:"stale,omitempty"`
	MarketValue   tracker.Money    `json:"marketValue"`
	UnrealizedPnL tracker.Money    `json:"unrealizedPnL"`
}

// Label is the symbol, qualified by the account if any.
func (p HoldingPosition) Label() string {
	if p.Account == "" {
		return p.Symbol
	}
	return fmt.Sprintf("%s (%s)", p.Symbol, p.Account)
}

// NewHolding creates the Holding view of a snapshot.
func NewHolding(s tracker.Snapshot) *Holding {
	h := &Holding{
		Currency:           s.Currency,
		Empty:              s.IsEmpty(),
		Degraded:           s.Degraded(),
		Positions:          make([]HoldingPosition, 0, len(s.Positions)),
		TotalMarketValue:   s.TotalMarketValue,
		TotalUnrealizedPnL: s.TotalUnrealizedPnL,
		TotalRealizedPnL:   s.TotalRealizedPnL,
	}
	for _, v := range s.Positions {
		h.Positions = append(h.Positions, HoldingPosition{
			Symbol:        v.Key.Symbol,
			Account:       v.Key.Account,
			Quantity:      v.NetQuantity,
			AverageCost:   v.AverageCost,
			Price:         v.Price,
			Stale:         v.Stale(),
			MarketValue:   v.MarketValue,
			UnrealizedPnL: v.UnrealizedPnL,
		})
		if v.Stale() {
			h.Notes = append(h.Notes, fmt.Sprintf("%s: no live quote (%s), valued at average cost", v.Key, v.QuoteErr.Kind))
		}
	}
	for _, o := range s.Orphans {
		h.Notes = append(h.Notes, o.Error())
	}
	return h
}
