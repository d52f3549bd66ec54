// Package main is the entry point for the invoflow CLI.
package main

import (
	"os"

	"github.com/invoflow/invoflow/cmd/invoflow/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
