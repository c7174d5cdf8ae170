// Package main provides the chdoc CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/chdoc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
