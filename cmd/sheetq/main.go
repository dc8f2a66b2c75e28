// Command sheetq imports worksheets and runs query documents against them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sheetq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sheetq:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
