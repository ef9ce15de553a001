package cli

import (
	"flag"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// argPredictors completes positional arguments of the commands that take files
var argPredictors = map[string]complete.Predictor{
	"import":  predict.Files("*.csv"),
	"restore": predict.Files("*.json"),
}

// flagPredictors refine flags whose values are files
var flagPredictors = map[string]map[string]complete.Predictor{
	"export": {"o": predict.Files("*.xlsx")},
	"backup": {"o": predict.Files("*.json")},
}

// Completion describes the command line for shell completion. Flags are read
// from each command so the two never drift apart.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{"help": {}, "flags": {}},
		Flags: map[string]complete.Predictor{"data": predict.Dirs("*")},
	}
	for _, g := range groups() {
		for _, c := range g.commands {
			fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(fs)

			sub := &complete.Command{
				Flags: map[string]complete.Predictor{},
				Args:  argPredictors[c.Name()],
			}
			fs.VisitAll(func(f *flag.Flag) {
				sub.Flags[f.Name] = flagPredictor(c.Name(), f)
			})
			root.Sub[c.Name()] = sub
		}
	}
	return root
}

func flagPredictor(cmd string, f *flag.Flag) complete.Predictor {
	if p, ok := flagPredictors[cmd][f.Name]; ok {
		return p
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	return predict.Something
}
