// Package main is the entry point for hostwatch.
package main

import (
	"os"

	"github.com/hostwatch/hostwatch/cmd/hostwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
