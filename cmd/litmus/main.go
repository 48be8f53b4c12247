package main

import (
	"fmt"
	"os"

	"github.com/tgienger/litmus/internal/cli"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd := cli.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
