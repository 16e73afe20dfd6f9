package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tracker"
	"github.com/etnz/tracker/renderer"
	"github.com/google/subcommands"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct {
	json bool
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized gains with their cumulative series" }
func (*gainsCmd) Usage() string {
	return `pnl gains [-json]

  Lists every sale in date order with its realized profit against the average
  cost, and the cumulative realized profit.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the full snapshot as JSON")
}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	printMarkdown(renderer.GainsMarkdown(s))
	return subcommands.ExitSuccess
}

// printJSON prints the snapshot as indented JSON.
func printJSON(s tracker.Snapshot) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
