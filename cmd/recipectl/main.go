// Package main provides recipectl, the RecipeBox admin command line.
//
// Usage:
//
//	recipectl create-user --email chef@example.com --name Chef --password secret
//	recipectl seed --file fixtures.yaml
//	recipectl reindex
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
