// Package main is the entry point for the typebus scenario runner.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/typebus/internal/scenario"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds parsed command line flags.
type options struct {
	ScenarioPath string
	Watch        bool
	LogLevel     string
	JSON         bool
	Workers      int
	Timeout      time.Duration
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, code, done := parseFlags(args, stdout, stderr)
	if done {
		return code
	}

	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		return 1
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.Watch {
		err := scenario.Watch(ctx, opts.ScenarioPath, scenario.DefaultDebounce, func(s *scenario.Scenario, err error) {
			if err != nil {
				logger.Error().Err(err).Str("path", opts.ScenarioPath).Msg("scenario reload failed")
				return
			}
			_ = runOnce(ctx, s, opts, logger, stdout)
		})
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	s, err := scenario.Load(opts.ScenarioPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := runOnce(ctx, s, opts, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runOnce runs s and prints its report. It returns an error when the run was
// cancelled or an expectation was not met.
func runOnce(ctx context.Context, s *scenario.Scenario, opts options, logger zerolog.Logger, out io.Writer) error {
	if opts.Workers > 0 {
		s.Workers = opts.Workers
		if s.Expect != nil && s.Workers > 1 {
			s.Expect.Order = nil
		}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	report, err := scenario.Run(ctx, s, scenario.WithLogger(logger))
	if report != nil {
		if perr := printReport(out, report, opts.JSON); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%d expectation(s) not met", len(report.Mismatches))
	}
	return nil
}

func printReport(w io.Writer, r *scenario.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "run %s", r.RunID)
	if r.Scenario != "" {
		fmt.Fprintf(&b, " (%s)", r.Scenario)
	}
	fmt.Fprintf(&b, "\n  bus=%s workers=%d posts=%d elapsed=%s\n", r.Bus, r.Workers, r.Posts, r.Elapsed)
	fmt.Fprintf(&b, "  completed=%d interrupted=%d failed=%d\n", r.Completed, r.Interrupted, r.Failed)
	fmt.Fprintf(&b, "  deliveries=%d cache_hits=%d cache_misses=%d avg_handler=%s\n",
		r.Stats.Deliveries, r.Stats.CacheHits, r.Stats.CacheMisses, r.Stats.AvgHandlerTime)

	for _, name := range slices.Sorted(maps.Keys(r.Invocations)) {
		fmt.Fprintf(&b, "  handler %-20s %d\n", name, r.Invocations[name])
	}
	if len(r.Trace) > 0 && len(r.Trace) <= 64 {
		fmt.Fprintf(&b, "  trace: %s\n", strings.Join(r.Trace, " "))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  error: %s\n", strings.ReplaceAll(e, "\n", "; "))
	}
	for _, m := range r.Mismatches {
		fmt.Fprintf(&b, "  FAIL: %s\n", m)
	}
	if r.OK() {
		b.WriteString("  ok\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// parseFlags parses args. done is true when the program should exit with code.
func parseFlags(args []string, stdout, stderr io.Writer) (opts options, code int, done bool) {
	var showVersion bool

	fs := flag.NewFlagSet("typebus", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.ScenarioPath, "scenario", "", "Path to scenario file (.toml, .yaml)")
	fs.StringVar(&opts.ScenarioPath, "s", "", "Path to scenario file (shorthand)")
	fs.BoolVar(&opts.Watch, "watch", false, "Rerun the scenario whenever the file changes")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.JSON, "json", false, "Print the report as JSON")
	fs.IntVar(&opts.Workers, "workers", 0, "Override the scenario's worker count")
	fs.DurationVar(&opts.Timeout, "timeout", 0, "Abort a run after this long (0 = no limit)")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "typebus - type-aware event bus scenario runner\n\n")
		fmt.Fprintf(stderr, "Usage: typebus [options] [scenario-file]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  typebus ordering.toml              Run a scenario once\n")
		fmt.Fprintf(stderr, "  typebus -json -workers 8 load.yaml Run with 8 posters, JSON report\n")
		fmt.Fprintf(stderr, "  typebus -watch ordering.toml       Rerun on every save\n")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return opts, 0, true
		}
		return opts, 1, true
	}

	if showVersion {
		fmt.Fprintf(stdout, "typebus %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, 0, true
	}

	if opts.ScenarioPath == "" && fs.NArg() > 0 {
		opts.ScenarioPath = fs.Arg(0)
	}
	if opts.ScenarioPath == "" {
		fs.Usage()
		return opts, 1, true
	}

	return opts, 0, false
}
