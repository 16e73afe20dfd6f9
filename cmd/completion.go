package cmd

import (
	"flag"

	"github.com/etnz/tracker/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion tree of the application, built
// from the global flags and the registered subcommands.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	for _, cmds := range Commands {
		for _, c := range cmds {
			f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(f)
			root.Sub[c.Name()] = &complete.Command{
				Flags: flagPredictors(f),
				Args:  argsPredictor(c),
			}
		}
	}
	return root
}

// boolFlag is implemented by the flag.Value of boolean flags.
type boolFlag interface {
	IsBoolFlag() bool
}

func flagPredictors(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		switch b, ok := fl.Value.(boolFlag); {
		case ok && b.IsBoolFlag():
			flags[fl.Name] = predict.Nothing
		case fl.Name == "config":
			flags[fl.Name] = predict.Files("*.yaml")
		case fl.Name == "ledger":
			flags[fl.Name] = predict.Files("*")
		default:
			flags[fl.Name] = predict.Something
		}
	})
	return flags
}

func argsPredictor(c subcommands.Command) complete.Predictor {
	if c.Name() != "topic" {
		return predict.Nothing
	}
	topics, err := docs.GetAllTopics()
	if err != nil {
		return predict.Nothing
	}
	return predict.Set(append(topics, "readme"))
}

// IsRegistered reports whether name is a subcommand of the application.
func IsRegistered(name string) bool {
	for _, cmds := range Commands {
		for _, c := range cmds {
			if c.Name() == name {
				return true
			}
		}
	}
	return false
}
