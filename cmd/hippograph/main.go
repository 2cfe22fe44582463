// Command hippograph is the interactive CLI: add, search, history,
// restore, stats, graph, and sleep, each a thin cobra command over the
// application services wired by infrastructure/di.
package main

import (
	"fmt"
	"os"

	"github.com/artemMprokhorov/hippograph-pro/interfaces/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hippograph:", err)
		os.Exit(1)
	}
}
