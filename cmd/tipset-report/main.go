// Command tipset-report computes the report once from local files or a
// standings URL and writes it as JSON, markdown or HTML.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tipset/internal/adapters/render"
	"github.com/okian/tipset/internal/adapters/source/predictions"
	"github.com/okian/tipset/internal/adapters/source/standings"
	app "github.com/okian/tipset/internal/app"
	"github.com/okian/tipset/internal/config"
	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/internal/domain/report"
	"github.com/okian/tipset/pkg/logger"
)

const defaultFetchTimeout = 30 * time.Second

var errUsage = errors.New("usage")

type options struct {
	predictions string
	standings   string
	format      string
	out         string
	title       string
	tiePolicy   string
	seed        int64
	topN        int
	fallback    bool
	verbose     bool
}

func main() {
	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "tipset-report:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("tipset-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.predictions, "predictions", "", "predictions file (.md, .txt, .csv, .yaml)")
	fs.StringVar(&o.standings, "standings", "", "standings feed URL or JSON file; empty for consensus only")
	fs.StringVar(&o.format, "format", "markdown", "output format: json, markdown or html")
	fs.StringVar(&o.out, "out", "", "output file (default stdout)")
	fs.StringVar(&o.title, "title", "", "report title")
	fs.StringVar(&o.tiePolicy, "tie", app.TiePolicyFirst, "tie break policy: first or random")
	fs.Int64Var(&o.seed, "seed", 0, "seed for the random tie policy (0 uses the clock)")
	fs.IntVar(&o.topN, "top", 5, "consensus leaders used by the optimism insights")
	fs.BoolVar(&o.fallback, "fallback", false, "score against the consensus when no standings are available")
	fs.BoolVar(&o.verbose, "verbose", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.predictions == "" {
		fmt.Fprintln(stderr, "-predictions is required")
		fs.Usage()
		return o, errUsage
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	if err := logger.InitWithOptions(logger.Options{Writer: stderr, Level: level}); err != nil {
		return err
	}
	log := logger.Named("report")

	renderer, err := render.ForFormat(o.format, o.title)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithTieBreakPolicy(o.tiePolicy),
		app.WithTieBreakSeed(o.seed),
		app.WithTopN(o.topN),
		app.WithConsensusFallback(o.fallback),
	)
	if err := svc.Validate(); err != nil {
		return err
	}

	in, err := load(ctx, o, log)
	if err != nil {
		return err
	}
	r := svc.Compute(ctx, in)
	for _, issue := range r.Issues {
		log.Warn(ctx, "prediction issue", logger.String("issue", issue.String()))
	}

	if o.out == "" {
		if err := renderer.Render(stdout, r); err != nil {
			return fmt.Errorf("render %s: %w", o.format, err)
		}
		return nil
	}
	return writeOutput(o.out, func(w io.Writer) error {
		if err := renderer.Render(w, r); err != nil {
			return fmt.Errorf("render %s: %w", o.format, err)
		}
		return nil
	})
}

// writeOutput creates path and hands it to write. The close error is
// reported when write succeeds.
func writeOutput(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return write(f)
}

// load reads predictions and standings in parallel. A standings failure
// is logged and leaves the report without a live table.
func load(ctx context.Context, o options, log logger.Logger) (report.Input, error) {
	var in report.Input
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		set, err := predictions.LoadFile(gctx, o.predictions)
		if err != nil {
			return err
		}
		in.Predictions = set
		return nil
	})

	if o.standings != "" {
		g.Go(func() error {
			table, err := fetchStandings(gctx, o.standings)
			if err != nil {
				log.Warn(gctx, "standings unavailable, continuing without reference",
					logger.String("source", o.standings), logger.Error(err))
				return nil
			}
			in.Standings = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report.Input{}, err
	}
	return in, nil
}

func fetchStandings(ctx context.Context, src string) ([]model.Standing, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		ctx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
		defer cancel()
		return standings.NewClient(src, standings.WithRatePerMinute(0)).Fetch(ctx)
	}
	table, err := standings.LoadFile(src)
	if err != nil {
		return nil, err
	}
	return table, nil
}
