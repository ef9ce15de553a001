package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"finanzas/internal/cli"
)

func main() {
	// Answers shell completion requests and exits; a no-op otherwise.
	// COMP_INSTALL=1 finanzas installs it.
	cli.Completion().Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
