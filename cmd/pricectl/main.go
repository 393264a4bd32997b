// Package main is the entry point for the pricectl CLI.
package main

import (
	"os"

	"github.com/Simplici0/tarifario/cmd/pricectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
