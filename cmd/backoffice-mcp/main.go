package main

import (
	"fmt"
	"os"

	"backoffice-mcp/cmd/backoffice-mcp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
