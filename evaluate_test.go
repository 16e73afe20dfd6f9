package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	e := Evaluator{
		Ledger: memLedger{trades: []TradeRecord{
			buy("2025-01-01", "AAA", 10, 100),
			buy("2025-01-02", "AAA", 10, 120),
			sell("2025-01-03", "AAA", 5, 150),
		}},
		Quotes:  quotes(map[string]float64{"AAA": 130}),
		Options: usd,
	}
	s, err := e.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}

	if len(s.Positions) != 1 {
		t.Fatalf("Positions = %d, want 1", len(s.Positions))
	}
	p := s.Positions[0]
	if !p.AverageCost.Equal(USD(110)) || !p.NetQuantity.Equal(Q(15)) {
		t.Errorf("position = %v @ %v, want 15 @ 110", p.NetQuantity, p.AverageCost.Decimal())
	}
	if !s.TotalMarketValue.Equal(USD(1950)) {
		t.Errorf("TotalMarketValue = %v, want 1950", s.TotalMarketValue.Decimal())
	}
	if !s.TotalUnrealizedPnL.Equal(USD(300)) {
		t.Errorf("TotalUnrealizedPnL = %v, want 300", s.TotalUnrealizedPnL.Decimal())
	}
	if !s.TotalRealizedPnL.Equal(USD(200)) {
		t.Errorf("TotalRealizedPnL = %v, want 200", s.TotalRealizedPnL.Decimal())
	}
	if len(s.CumulativeRealizedProfit) != 1 || !s.CumulativeRealizedProfit[0].Equal(USD(200)) {
		t.Errorf("CumulativeRealizedProfit = %v, want [200]", s.CumulativeRealizedProfit)
	}
	if s.IsEmpty() || s.Degraded() || s.Issues() != nil {
		t.Errorf("snapshot is empty=%v degraded=%v issues=%v, want a clean snapshot", s.IsEmpty(), s.Degraded(), s.Issues())
	}
}

func TestEvaluate_EmptyLedger(t *testing.T) {
	s, err := Evaluate(context.Background(), nil, quotes(nil), usd)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if !s.IsEmpty() {
		t.Error("IsEmpty() = false for an empty ledger")
	}
	if len(s.Positions) != 0 || len(s.RealizedEvents) != 0 {
		t.Errorf("snapshot has %d positions and %d events, want none", len(s.Positions), len(s.RealizedEvents))
	}
	for name, total := range map[string]Money{
		"TotalMarketValue":   s.TotalMarketValue,
		"TotalUnrealizedPnL": s.TotalUnrealizedPnL,
		"TotalRealizedPnL":   s.TotalRealizedPnL,
	} {
		if !total.Equal(USD(0)) {
			t.Errorf("%s = %v, want 0 USD", name, total)
		}
	}
}

func TestEvaluate_OrphanOnly(t *testing.T) {
	s, err := Evaluate(context.Background(), []TradeRecord{sell("2025-01-01", "AAA", 5, 100)}, quotes(nil), usd)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if s.IsEmpty() {
		t.Error("IsEmpty() = true, the ledger has a trade")
	}
	if len(s.Positions) != 0 || len(s.RealizedEvents) != 0 {
		t.Errorf("AAA was not excluded: %+v", s)
	}
	if !s.TotalRealizedPnL.IsZero() || !s.TotalMarketValue.IsZero() {
		t.Errorf("totals = %v / %v, want 0", s.TotalRealizedPnL, s.TotalMarketValue)
	}
	if !errors.Is(s.Issues(), ErrOrphanSell) {
		t.Errorf("Issues() = %v, want an orphan sell", s.Issues())
	}
	var orphan *OrphanSellError
	if !errors.As(s.Issues(), &orphan) || orphan.Key.Symbol != "AAA" {
		t.Errorf("Issues() = %v, want the AAA orphan", s.Issues())
	}
}

func TestEvaluate_Degraded(t *testing.T) {
	trades := []TradeRecord{
		buy("2025-01-01", "AAA", 10, 100),
		buy("2025-01-01", "BBB", 10, 10),
	}
	s, err := Evaluate(context.Background(), trades, quotes(map[string]float64{"AAA": 90}), usd)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if !s.Degraded() {
		t.Fatal("Degraded() = false with a missing quote")
	}
	if stale := s.Stale(); len(stale) != 1 || stale[0].Key.Symbol != "BBB" {
		t.Errorf("Stale() = %v, want only BBB", stale)
	}
	if !s.TotalMarketValue.Equal(USD(1000)) {
		t.Errorf("TotalMarketValue = %v, want 900 + 100", s.TotalMarketValue.Decimal())
	}
	if !s.TotalUnrealizedPnL.Equal(USD(-100)) {
		t.Errorf("TotalUnrealizedPnL = %v, want -100", s.TotalUnrealizedPnL.Decimal())
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := Evaluator{
		Ledger: memLedger{trades: []TradeRecord{
			onAccount(buy("2025-01-01", "AAA", 10, 100), "a"),
			onAccount(buy("2025-02-01", "BBB", 3, 50), "b"),
			onAccount(sell("2025-03-01", "AAA", 4, 120), "a"),
			onAccount(sell("2025-01-15", "BBB", 1, 40), "b"),
			sell("2025-01-20", "CCC", 1, 1),
		}},
		Quotes:  quotes(map[string]float64{"AAA": 111}),
		Options: Options{Currency: "USD", Grouping: BySymbolAndAccount},
	}

	var outputs []string
	for range 2 {
		s, err := e.Evaluate(context.Background())
		if err != nil {
			t.Fatalf("Evaluate() unexpected error: %v", err)
		}
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("json.Marshal() unexpected error: %v", err)
		}
		outputs = append(outputs, string(data))
	}
	if outputs[0] != outputs[1] {
		t.Errorf("two evaluations differ:\n%s\n%s", outputs[0], outputs[1])
	}
}

func TestEvaluate_StorageError(t *testing.T) {
	testCases := []struct {
		name   string
		ledger LedgerSource
	}{
		{"no ledger", nil},
		{"load failure", memLedger{err: errDisk}},
		{"storage failure", memLedger{err: &StorageError{Op: "load", Path: "x.jsonl", Err: errDisk}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := Evaluator{Ledger: tc.ledger, Options: usd}
			s, err := e.Evaluate(context.Background())
			if !errors.Is(err, ErrStorage) {
				t.Fatalf("Evaluate() error = %v, want ErrStorage", err)
			}
			if s.Positions != nil || s.Trades != 0 {
				t.Errorf("Evaluate() returned a snapshot with a storage error: %+v", s)
			}
			if tc.ledger != nil && !errors.Is(err, errDisk) {
				t.Errorf("Evaluate() error = %v, want it to wrap the load error", err)
			}
		})
	}
}

func TestEvaluate_InvalidRecord(t *testing.T) {
	e := Evaluator{
		Ledger:  memLedger{trades: []TradeRecord{buy("2025-01-01", "AAA", 10, -1)}},
		Options: usd,
	}
	_, err := e.Evaluate(context.Background())
	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Evaluate() error = %v, want ErrInvalidRecord", err)
	}
	if errors.Is(err, ErrStorage) {
		t.Errorf("Evaluate() error = %v is a storage error", err)
	}
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	s, err := Evaluate(context.Background(), []TradeRecord{
		buy("2025-01-01", "AAA", 10, 100),
		sell("2025-01-03", "AAA", 5, 150),
	}, quotes(nil), usd)
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal() unexpected error: %v", err)
	}
	want := `{"currency":"USD","trades":2,` +
		`"positions":[{"symbol":"AAA","quantity":5,"averageCost":100,"price":100,"source":"cost","quoteError":"not_found","marketValue":500,"unrealizedPnL":0}],` +
		`"realized":[{"date":"2025-01-03","symbol":"AAA","quantity":5,"price":150,"averageCost":100,"profit":250,"cumulative":250}],` +
		`"totalMarketValue":500,"totalUnrealizedPnL":0,"totalRealizedPnL":250}`
	if string(data) != want {
		t.Errorf("json.Marshal() =\n%s\nwant\n%s", data, want)
	}
}

func TestEvaluate_MixedCurrencies(t *testing.T) {
	trades := []TradeRecord{
		NewTrade(MustParse("2025-01-10"), Buy, "AAA", Q(10), M(100, "EUR"), ""),
		NewTrade(MustParse("2025-01-11"), Sell, "AAA", Q(5), M(120, "EUR"), ""),
		NewTrade(MustParse("2025-01-12"), Buy, "BBB", Q(10), M(100, "USD"), ""),
		NewTrade(MustParse("2025-01-13"), Sell, "BBB", Q(5), M(120, "USD"), ""),
	}

	_, err := Evaluate(context.Background(), trades, nil, Options{})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("Evaluate() error = %v, want ErrInvalidRecord", err)
	}

	s, err := Evaluate(context.Background(), trades[:2], nil, Options{})
	if err != nil {
		t.Fatalf("Evaluate() on a single currency: %v", err)
	}
	if s.Currency != "EUR" {
		t.Errorf("Snapshot.Currency = %q, want EUR", s.Currency)
	}
}
