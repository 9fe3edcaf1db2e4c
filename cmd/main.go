package main

// Main entry point of the application
// Executes the Cobra root command and reports failures on stderr

import (
	"fmt"
	"os"

	"gpu-snapshot/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
