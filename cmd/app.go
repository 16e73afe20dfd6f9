// Package cmd implements the pnl command line application.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/tracker"
	"github.com/etnz/tracker/config"
	"github.com/etnz/tracker/store"
	"github.com/google/subcommands"
	"github.com/mattn/go-isatty"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "tracker.yaml", "Path to the configuration file (YAML)")
var ledgerPath = flag.String("ledger", "", "Path to the ledger, overrides the configuration")
var reportCurrency = flag.String("currency", "", "Portfolio currency, overrides the configuration")

// Commands lists the pnl subcommands, by group.
var Commands = map[string][]subcommands.Command{
	"ledger":  {&buyCmd{}, &sellCmd{}},
	"reports": {&holdingCmd{}, &gainsCmd{}, &watchCmd{}},
	"quotes":  {&searchCmd{}},
	"help":    {&topicCmd{}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for group, cmds := range Commands {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
}

// loadConfig reads the configuration file and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *ledgerPath != "" {
		cfg.Ledger.Path = *ledgerPath
	}
	if *reportCurrency != "" {
		cfg.Currency = *reportCurrency
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openLedger loads the configuration and opens its ledger.
func openLedger() (*config.Config, store.Store, subcommands.ExitStatus) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, nil, subcommands.ExitUsageError
	}
	ledger, err := cfg.OpenLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not read ledger: %v\n", err)
		return nil, nil, subcommands.ExitFailure
	}
	return cfg, ledger, subcommands.ExitSuccess
}

// evaluate computes the snapshot of the configured ledger. It prints the
// error and returns a non success status when the ledger cannot be read or
// is invalid.
func evaluate(ctx context.Context) (tracker.Snapshot, subcommands.ExitStatus) {
	cfg, ledger, status := openLedger()
	if status != subcommands.ExitSuccess {
		return tracker.Snapshot{}, status
	}
	defer ledger.Close()

	e := &tracker.Evaluator{
		Ledger:  ledger,
		Quotes:  cfg.QuoteProvider(),
		Options: cfg.Options(),
	}
	s, err := e.Evaluate(ctx)
	switch {
	case errors.Is(err, tracker.ErrStorage):
		fmt.Fprintf(os.Stderr, "Error: could not read ledger: %v\n", err)
		return s, subcommands.ExitFailure
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: invalid ledger: %v\n", err)
		return s, subcommands.ExitFailure
	}
	return s, subcommands.ExitSuccess
}

// printMarkdown prints markdown, rendered for the terminal when stdout is one.
func printMarkdown(md string) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
