package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/tracker/quote"
	"github.com/google/subcommands"
)

type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search for instrument symbols" }
func (*searchCmd) Usage() string {
	return `pnl search <search term>

  Searches instruments by name, ticker or ISIN and prints ready-to-use
  'buy' commands for the results.
  Requires an EODHD API key (quotes.api_key or the ` + quote.EODHDKeyEnv + ` environment
  variable), or the static quote provider.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	term := strings.Join(f.Args(), " ")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	searcher := cfg.SymbolSearcher()
	if searcher == nil {
		fmt.Fprintf(os.Stderr, "Error: search requires an EODHD API key, set $%s.\n", quote.EODHDKeyEnv)
		return subcommands.ExitUsageError
	}

	// Search is best effort, failures are reported as no result.
	results := searcher.Search(ctx, term)
	if len(results) == 0 {
		fmt.Printf("No results found for '%s'.\n", term)
		return subcommands.ExitSuccess
	}

	fmt.Printf("Found %d results for '%s':\n\n", len(results), term)
	for _, m := range results {
		fmt.Printf("➡️   %s\n", m.DisplayName)
		fmt.Printf("    $ pnl buy -s '%s' -q <quantity> -p <price>\n\n", m.Symbol)
	}
	return subcommands.ExitSuccess
}
