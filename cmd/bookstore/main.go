// Command bookstore runs the bookstore record manager.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/bookstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
