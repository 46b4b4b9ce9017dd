// Command siteintel gathers open-source reconnaissance about a hostname by
// running a fixed set of external tools and merging their output into one
// report. It runs either as an HTTP service (serve) or one-shot (scan).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/ui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return defaults.ExitUserError
	}

	switch args[0] {
	case "serve", "server":
		return runServe(args[1:], stderr)
	case "scan":
		return runScan(args[1:], stdout, stderr)
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "%s %s\n", defaults.ToolName, defaults.Version)
		return defaults.ExitSuccess
	case "help", "-h", "--help":
		printUsage(stdout)
		return defaults.ExitSuccess
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return defaults.ExitUserError
	}
}

func printUsage(w io.Writer) {
	ui.PrintBanner(w)
	fmt.Fprint(w, `Usage:
  siteintel serve [flags]            run the HTTP front end
  siteintel scan [flags] <target>    scan one target and print the report
  siteintel scan -check              list which tools are installed
  siteintel version                  print the version

Common flags:
  -config <file>      YAML configuration file
  -probe-timeout 60s  per-tool budget
  -scan-deadline 120s global probe batch deadline
  -log-level info     debug, info, warn, error
  -log-format text    text or json

Run "siteintel <command> -h" for every flag.
`)
}
