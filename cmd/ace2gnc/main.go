// Package main is the entry point for ace2gnc CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/acemoney-gnucash/cmd/ace2gnc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
