// Package main is the entry point for the flagwatch CLI.
package main

import (
	"os"

	"github.com/FlagWatch/FlagWatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
