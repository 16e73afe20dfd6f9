package renderer

import (
	"context"
	"strings"
	"testing"

	"github.com/etnz/tracker"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

func usd(v float64) tracker.Money { return tracker.M(v, "USD") }

func trade(day string, side tracker.Side, symbol string, q, p float64) tracker.TradeRecord {
	return tracker.NewTrade(tracker.MustParse(day), side, symbol, tracker.Q(q), usd(p), "")
}

func evaluate(t *testing.T, trades []tracker.TradeRecord, prices map[string]float64) tracker.Snapshot {
	t.Helper()
	quotes := tracker.QuoteFunc(func(_ context.Context, symbol string) (decimal.Decimal, error) {
		p, ok := prices[symbol]
		if !ok {
			return decimal.Zero, &tracker.QuoteError{Symbol: symbol, Kind: tracker.QuoteNotFound}
		}
		return decimal.NewFromFloat(p), nil
	})
	s, err := tracker.Evaluate(context.Background(), trades, quotes, tracker.Options{Currency: "USD"})
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	return s
}

// table is a parsed markdown table: header cells then rows of cells.
type table struct {
	header []string
	rows   [][]string
}

// parseTables returns the tables of a markdown document.
func parseTables(t *testing.T, markdown string) []table {
	t.Helper()
	src := []byte(markdown)
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	var tables []table
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != east.KindTable {
			return ast.WalkContinue, nil
		}
		var tb table
		for row := n.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, nodeText(cell, src))
			}
			if row.Kind() == east.KindTableHeader {
				tb.header = cells
			} else {
				tb.rows = append(tb.rows, cells)
			}
		}
		tables = append(tables, tb)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		t.Fatalf("walking markdown: %v", err)
	}
	return tables
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() {
					b.WriteByte(' ')
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func TestRenderHolding(t *testing.T) {
	s := evaluate(t, []tracker.TradeRecord{
		trade("2025-01-01", tracker.Buy, "AAA", 10, 100),
		trade("2025-01-02", tracker.Buy, "AAA", 10, 120),
		trade("2025-01-03", tracker.Sell, "AAA", 5, 150),
		trade("2025-01-03", tracker.Buy, "BBB", 2, 50),
	}, map[string]float64{"AAA": 130})

	out := RenderHolding(NewHolding(s))
	if !strings.HasPrefix(out, "# Holdings (USD)\n") {
		t.Errorf("RenderHolding() does not start with the title:\n%s", out)
	}

	tables := parseTables(t, out)
	if len(tables) != 2 {
		t.Fatalf("RenderHolding() has %d tables, want positions and totals:\n%s", len(tables), out)
	}

	positions := tables[0]
	if got, want := len(positions.header), 6; got != want {
		t.Errorf("positions table has %d columns, want %d", got, want)
	}
	if len(positions.rows) != 2 {
		t.Fatalf("positions table has %d rows, want 2:\n%s", len(positions.rows), out)
	}
	aaa := positions.rows[0]
	want := []string{"AAA", "15", usd(110).String(), usd(130).String(), usd(1950).String(), usd(300).SignedString()}
	for i := range want {
		if aaa[i] != want[i] {
			t.Errorf("AAA row cell %d = %q, want %q", i, aaa[i], want[i])
		}
	}
	if bbb := positions.rows[1]; bbb[3] != usd(50).String()+" (cost)" {
		t.Errorf("BBB price = %q, want it marked at cost", bbb[3])
	}

	totals := tables[1]
	if totals.header[1] != usd(2050).String() {
		t.Errorf("total market value = %q, want %q", totals.header[1], usd(2050).String())
	}
	if totals.rows[1][1] != usd(200).SignedString() {
		t.Errorf("realized P/L = %q, want %q", totals.rows[1][1], usd(200).SignedString())
	}

	if !strings.Contains(out, "## Notes") || !strings.Contains(out, "BBB: no live quote (not_found)") {
		t.Errorf("RenderHolding() does not report the stale quote:\n%s", out)
	}
}

func TestRenderHolding_Empty(t *testing.T) {
	out := RenderHolding(NewHolding(evaluate(t, nil, nil)))
	if !strings.Contains(out, "No trades recorded") {
		t.Errorf("RenderHolding() of an empty ledger =\n%s", out)
	}
	if tables := parseTables(t, out); len(tables) != 0 {
		t.Errorf("RenderHolding() of an empty ledger has %d tables", len(tables))
	}
}

func TestRenderHolding_NoOpenPosition(t *testing.T) {
	s := evaluate(t, []tracker.TradeRecord{
		trade("2025-01-01", tracker.Buy, "AAA", 10, 100),
		trade("2025-01-03", tracker.Sell, "AAA", 10, 150),
		trade("2025-01-04", tracker.Sell, "ZZZ", 1, 1),
	}, nil)
	out := RenderHolding(NewHolding(s))
	if !strings.Contains(out, "No open positions.") {
		t.Errorf("RenderHolding() =\n%s", out)
	}
	if !strings.Contains(out, "sell of 1 ZZZ has no buy history") {
		t.Errorf("RenderHolding() does not report the orphan sell:\n%s", out)
	}
	if tables := parseTables(t, out); len(tables) != 1 {
		t.Errorf("RenderHolding() has %d tables, want only the totals", len(tables))
	}
}

func TestGainsMarkdown(t *testing.T) {
	s := evaluate(t, []tracker.TradeRecord{
		trade("2025-01-01", tracker.Buy, "AAA", 100, 10),
		trade("2025-03-01", tracker.Sell, "AAA", 1, 15),
		trade("2025-02-01", tracker.Sell, "AAA", 1, 8),
	}, nil)
	out := GainsMarkdown(s)

	tables := parseTables(t, out)
	if len(tables) != 1 {
		t.Fatalf("GainsMarkdown() has %d tables, want 1:\n%s", len(tables), out)
	}
	rows := tables[0].rows
	if len(rows) != 3 {
		t.Fatalf("GainsMarkdown() has %d rows, want 2 events and the total:\n%s", len(rows), out)
	}
	if rows[0][0] != "2025-02-01" || rows[1][0] != "2025-03-01" {
		t.Errorf("events are not in date order: %v, %v", rows[0][0], rows[1][0])
	}
	if rows[0][6] != usd(-2).SignedString() || rows[1][6] != usd(3).SignedString() {
		t.Errorf("cumulative column = %q, %q, want -2 then +3", rows[0][6], rows[1][6])
	}
	if rows[2][0] != "Total" || rows[2][5] != usd(3).SignedString() {
		t.Errorf("total row = %v", rows[2])
	}
}

func TestGainsMarkdown_None(t *testing.T) {
	out := GainsMarkdown(evaluate(t, []tracker.TradeRecord{trade("2025-01-01", tracker.Buy, "AAA", 1, 1)}, nil))
	if !strings.Contains(out, "No realized gains yet.") {
		t.Errorf("GainsMarkdown() =\n%s", out)
	}
}

func TestSnapshotMarkdown(t *testing.T) {
	empty := SnapshotMarkdown(evaluate(t, nil, nil))
	if strings.Contains(empty, "Realized Gains") {
		t.Errorf("SnapshotMarkdown() of an empty ledger shows gains:\n%s", empty)
	}

	full := SnapshotMarkdown(evaluate(t, []tracker.TradeRecord{
		trade("2025-01-01", tracker.Buy, "AAA", 2, 10),
		trade("2025-01-02", tracker.Sell, "AAA", 1, 12),
	}, map[string]float64{"AAA": 11}))
	if n := len(parseTables(t, full)); n != 3 {
		t.Errorf("SnapshotMarkdown() has %d tables, want positions, totals and gains:\n%s", n, full)
	}
}
