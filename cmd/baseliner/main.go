// Package main provides the entry point for the baseliner CLI.
package main

import (
	"errors"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		var failed *checkFailedError
		if errors.As(err, &failed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
