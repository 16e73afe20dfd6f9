package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tracker/renderer"
	"github.com/google/subcommands"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	json bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display open positions valued at live prices" }
func (*holdingCmd) Usage() string {
	return `pnl holding [-json]

  Displays the open positions with their average cost, live price, market
  value and unrealized P/L, followed by the portfolio totals.
  Positions without a live quote are valued at their average cost.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the full snapshot as JSON")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, status := evaluate(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}

	if c.json {
		return printJSON(s)
	}
	if s.IsEmpty() {
		fmt.Fprintln(os.Stderr, "no trades recorded")
	}
	printMarkdown(renderer.RenderHolding(renderer.NewHolding(s)))
	return subcommands.ExitSuccess
}
