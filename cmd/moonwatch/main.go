package main

import (
	"os"

	"github.com/moonwatch/backend/cmd/moonwatch/commands"
)

// main is the entry point for the moonwatch CLI.
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
