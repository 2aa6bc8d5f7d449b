// Package main provides the CLI for the leapguard data quality engine.
package main

import (
	"os"

	"github.com/leapstack-labs/leapguard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
