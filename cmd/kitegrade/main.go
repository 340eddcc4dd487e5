// Command kitegrade reconciles one grade sheet offline and prints it as CSV
// or JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterbourgon/ff/v3"

	"github.com/kiteforlife/kitegrade/internal/adapters/export"
	"github.com/kiteforlife/kitegrade/internal/adapters/loader"
	service "github.com/kiteforlife/kitegrade/internal/app"
	"github.com/kiteforlife/kitegrade/internal/domain/header"
	"github.com/kiteforlife/kitegrade/internal/domain/reconcile"
	"github.com/kiteforlife/kitegrade/internal/domain/rubric"
	"github.com/kiteforlife/kitegrade/pkg/logger"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "kitegrade: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("kitegrade", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		in          = fs.String("in", "", "grade sheet to reconcile (csv, xls, xlsx, xlsm)")
		format      = fs.String("format", "csv", "output format: csv or json")
		skip        = fs.Int("skip", loader.DefaultSkipRows, "boilerplate rows above the header row")
		foldAccents = fs.Bool("fold-accents", false, "ignore accents when matching headers")
		prefix      = fs.String("prefix", reconcile.DefaultIdentifierPrefix, "prefix for synthesized student ids")
		fields      = fs.String("fields", "", "comma separated rubric fields (default: built-in rubric)")
		verbose     = fs.Bool("v", false, "log pipeline details to stderr")
	)
	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("KITEGRADE")); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return errUsage
	}
	if *format != "csv" && *format != "json" {
		return fmt.Errorf("unknown format %q", *format)
	}

	r := rubric.Default()
	if *fields != "" {
		var err error
		if r, err = rubric.New(strings.Split(*fields, ",")); err != nil {
			return err
		}
	}

	lg, err := logger.New(logger.WithWriter(stderr))
	if err != nil {
		return err
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	st := header.Strict
	if *foldAccents {
		st = header.AccentInsensitive
	}

	svc := service.New(
		service.WithLogger(lg.Named("kitegrade")),
		service.WithRubric(r),
		service.WithSkipRows(*skip),
		service.WithStrictness(st),
		service.WithIdentifierPrefix(*prefix),
	)

	t, err := svc.Reconcile(ctx, loader.FileSource{Path: *in})
	if err != nil {
		return err
	}
	for _, gap := range t.Mapping.Gaps {
		fmt.Fprintf(stderr, "warning: no column for %s, filled with 0\n", gap)
	}
	if t.AggregateFailures > 0 {
		fmt.Fprintf(stderr, "warning: %d row(s) with non-numeric scores\n", t.AggregateFailures)
	}

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	}
	return export.Table(stdout, t, r)
}
