// Package main provides the prescreveai command entry point.
package main

import (
	"os"

	"github.com/andremillet/prescreveai/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
