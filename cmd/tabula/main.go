// Package main is the entry point for the tabula CLI.
package main

import (
	"os"

	"github.com/jmylchreest/tabula/cmd/tabula/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
