package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tracker"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// tradeFlags are the flags shared by buy and sell.
type tradeFlags struct {
	date     string
	symbol   string
	quantity string
	price    string
	account  string
	memo     string
}

func (c *tradeFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", tracker.Today().String(), "Trade date. See the user manual for supported date formats.")
	f.StringVar(&c.symbol, "s", "", "Instrument symbol (required)")
	f.StringVar(&c.quantity, "q", "", "Number of units (required)")
	f.StringVar(&c.price, "p", "", "Price per unit, in the portfolio currency (required)")
	f.StringVar(&c.account, "a", "", "Optional account holding the position")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the trade")
}

// record parses the flags into a valid trade record.
func (c *tradeFlags) record(side tracker.Side, currency string) (tracker.TradeRecord, error) {
	if c.symbol == "" || c.quantity == "" || c.price == "" {
		return tracker.TradeRecord{}, fmt.Errorf("-s, -q and -p are required")
	}
	day, err := tracker.ParseDate(c.date)
	if err != nil {
		return tracker.TradeRecord{}, fmt.Errorf("invalid date: %w", err)
	}
	q, err := decimal.NewFromString(c.quantity)
	if err != nil {
		return tracker.TradeRecord{}, fmt.Errorf("invalid quantity %q: %w", c.quantity, err)
	}
	p, err := decimal.NewFromString(c.price)
	if err != nil {
		return tracker.TradeRecord{}, fmt.Errorf("invalid price %q: %w", c.price, err)
	}
	rec := tracker.NewTrade(day, side, c.symbol, tracker.Q(q), tracker.M(p, currency), c.account)
	rec.Memo = c.memo
	if err := rec.Validate(); err != nil {
		return tracker.TradeRecord{}, err
	}
	return rec, nil
}

// appendTrade appends a trade to the configured ledger.
func appendTrade(ctx context.Context, c *tradeFlags, side tracker.Side) subcommands.ExitStatus {
	cfg, ledger, status := openLedger()
	if status != subcommands.ExitSuccess {
		return status
	}
	defer ledger.Close()

	rec, err := c.record(side, cfg.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := ledger.Append(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing to ledger %q: %v\n", cfg.Ledger.Path, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Successfully appended %s to %s\n", rec, cfg.Ledger.Path)
	return subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase to open or add to a position" }
func (*buyCmd) Usage() string {
	return `pnl buy [-d <date>] -s <symbol> -q <quantity> -p <price> [-a <account>] [-m <memo>]

  Appends a buy trade to the ledger.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return appendTrade(ctx, &c.tradeFlags, tracker.Buy)
}

// --- Sell Command ---

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale to trim or close a position" }
func (*sellCmd) Usage() string {
	return `pnl sell [-d <date>] -s <symbol> -q <quantity> -p <price> [-a <account>] [-m <memo>]

  Appends a sell trade to the ledger. The realized profit is computed against
  the average cost of the position.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return appendTrade(ctx, &c.tradeFlags, tracker.Sell)
}
