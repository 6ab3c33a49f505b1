// Command foco-migrate maintains board store files: copy a board
// between the JSON and SQLite backends, validate its consistency, and
// repair the problems validation reports.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
