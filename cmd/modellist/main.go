// Command modellist drives bindable list models from YAML scripts and
// scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/modellist/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
