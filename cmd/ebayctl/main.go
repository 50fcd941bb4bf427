// Package main is the entry point for the ebayctl CLI.
package main

import (
	"github.com/sburl/ebay-oauth-go/cmd/ebayctl/cmd"
)

func main() {
	cmd.Execute()
}
