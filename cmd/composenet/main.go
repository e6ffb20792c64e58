/*
Package main provides the CLI entry point for composenet.
*/
package main

import (
	"os"

	"github.com/oarkflow/composenet/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
