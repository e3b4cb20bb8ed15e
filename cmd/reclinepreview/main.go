// Package main is the entry point for the reclinepreview CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/reclinepreview/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
