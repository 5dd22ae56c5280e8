// Package main provides the scrutin CLI entrypoint.
//
// Usage:
//
//	scrutin <command> [options]
//
// Commands:
//   - watch: live results dashboard (TUI or headless)
//   - submit: grouped or detailed station results
//   - login/logout: auth token management
//   - version
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/scrutin-io/scrutin/cli/cmd"
	"github.com/scrutin-io/scrutin/types"
)

// commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "scrutin",
		Usage:          "Election results client",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.WatchCommand(),
			cmd.SubmitCommand(),
			cmd.LoginCommand(),
			cmd.LogoutCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() and prints
// everything else to stderr with exit code 1.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
