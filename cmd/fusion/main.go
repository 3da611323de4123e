// Command fusion runs the prime number fusion simulator.
package main

import (
	"fmt"
	"os"

	"github.com/ssesselmann/prime-number-fusion/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
