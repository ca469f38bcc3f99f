// Package main provides the entry point for the debugmate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/debugmate-ai/debugmate/cmd/debugmate/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
