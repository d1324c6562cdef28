package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/systmms/stackql-exec/cmd/stackql-exec/commands"
	dserrors "github.com/systmms/stackql-exec/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	rt := commands.NewRuntime()
	rootCmd := commands.NewRootCommand(rt, fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))

	err := rootCmd.Execute()

	if werr := rt.WriteMetrics(); werr != nil {
		rt.Logger().Warn("Failed to write metrics: %v", werr)
	}

	if err != nil {
		if !rt.Failed() {
			fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
			if dserrors.IsConfigError(err) {
				fmt.Fprintln(os.Stderr, "Run 'stackql-exec doctor' to check the configuration")
			}
		}
		return 1
	}
	if rt.Failed() {
		return 1
	}
	return 0
}
