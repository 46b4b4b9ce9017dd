package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/siteintel/siteintel/pkg/adapters"
	"github.com/siteintel/siteintel/pkg/config"
	"github.com/siteintel/siteintel/pkg/defaults"
	"github.com/siteintel/siteintel/pkg/jsonutil"
	"github.com/siteintel/siteintel/pkg/target"
	"github.com/siteintel/siteintel/pkg/ui"
)

type scanFlags struct {
	json    bool
	pretty  bool
	check   bool
	noColor bool
}

func (f *scanFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&f.json, "json", false, "Print the report as JSON")
	fs.BoolVar(&f.pretty, "pretty", false, "Indent JSON output")
	fs.BoolVar(&f.check, "check", false, "List tool availability and exit")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
}

func runScan(args []string, stdout, stderr io.Writer) int {
	var sf scanFlags
	cfg, rest, err := config.ParseFlags("scan", args, sf.register)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return defaults.ExitSuccess
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitUserError
	}
	if sf.noColor || os.Getenv("NO_COLOR") != "" {
		ui.SetNoColor(true)
	}

	if sf.check {
		fmt.Fprint(stdout, ui.RenderTools(adapters.CheckTools(adapters.WithBinaries(cfg.Tools))))
		return defaults.ExitSuccess
	}

	if len(rest) != 1 {
		fmt.Fprintln(stderr, "error: scan needs exactly one target")
		fmt.Fprintln(stderr, "usage: siteintel scan [flags] <target>")
		return defaults.ExitUserError
	}
	t, err := target.Parse(rest[0])
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitUserError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return defaults.ExitInternalError
	}
	defer a.close()
	a.logTools()

	stop := ui.StartSpinner(stderr, "scanning "+t.Host())
	rep := a.coordinator.Scan(ctx, t)
	stop()

	if sf.json || sf.pretty {
		enc := jsonutil.NewStreamEncoder(stdout)
		if sf.pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(stderr, "error: encoding report: %v\n", err)
			return defaults.ExitInternalError
		}
	} else {
		fmt.Fprint(stdout, ui.RenderReport(rep))
	}

	if len(rep.Errors) > 0 {
		return defaults.ExitScanErrors
	}
	return defaults.ExitSuccess
}
