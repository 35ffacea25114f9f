// Command mp4parser prints the box structure of MP4/ISOBMFF files.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	console "github.com/phsym/console-slog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tetsuo/mp4parser"
	"github.com/tetsuo/mp4parser/internal/fetch"
	"github.com/tetsuo/mp4parser/render"
)

// Exit codes from sysexits.h.
const (
	exitUsage   = 64
	exitData    = 65
	exitNoInput = 66
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "mp4parser",
		Usage:     "print the box structure of MP4/ISOBMFF files",
		UsageText: "mp4parser [options] <PATH_OR_URL>...",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "output format: text, json or yaml"},
			&cli.BoolFlag{Name: "json", Usage: "shorthand for --format json"},
			&cli.BoolFlag{Name: "strict", Usage: "fail on malformed input instead of stopping early"},
			&cli.IntFlag{Name: "max-depth", Value: mp4parser.DefaultMaxDepth, Usage: "maximum nesting depth to parse"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML parser configuration file"},
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: 4, Usage: "number of inputs parsed concurrently"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug details to stderr"},
		},
		HideHelpCommand: true,
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				cli.ShowAppHelp(c)
				return cli.Exit("", exitUsage)
			}
			return run(c, stdout, stderr)
		},
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level:      level,
		NoColor:    true,
		TimeFormat: "15:04:05.000",
	}))
}

func run(c *cli.Context, stdout, stderr io.Writer) error {
	log := newLogger(stderr, c.Bool("verbose"))

	format, err := render.ParseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if c.Bool("json") {
		format = render.JSON
	}

	opts, err := parserOptions(c, log)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	p, err := mp4parser.NewParser(opts...)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	inputs := c.Args().Slice()
	outputs := make([]bytes.Buffer, len(inputs))
	fetcher := fetch.New(log)

	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(max(c.Int("jobs"), 1))
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			boxes, err := parseInput(ctx, p, fetcher, input)
			if err != nil {
				return err
			}
			log.Debug("parsed", "input", input, "boxes", len(boxes))
			return render.Write(&outputs[i], format, boxes)
		})
	}
	if err := g.Wait(); err != nil {
		return exitError(err)
	}

	for i := range outputs {
		if len(inputs) > 1 {
			fmt.Fprintf(stdout, "== %s\n", inputs[i])
		}
		if _, err := outputs[i].WriteTo(stdout); err != nil {
			return err
		}
	}
	return nil
}

// parserOptions merges the config file with command-line flags; flags win.
func parserOptions(c *cli.Context, log *slog.Logger) ([]mp4parser.Option, error) {
	var opts []mp4parser.Option
	if path := c.String("config"); path != "" {
		cfg, err := mp4parser.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		fileOpts, err := cfg.Options()
		if err != nil {
			return nil, err
		}
		opts = append(opts, fileOpts...)
	}
	if c.IsSet("max-depth") {
		opts = append(opts, mp4parser.WithMaxDepth(c.Int("max-depth")))
	}
	if c.IsSet("strict") {
		opts = append(opts, mp4parser.WithStrict(c.Bool("strict")))
	}
	opts = append(opts, mp4parser.WithLogger(log))
	return opts, nil
}

type inputError struct {
	input string
	err   error
}

func (e *inputError) Error() string { return e.input + ": " + e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }

func parseInput(ctx context.Context, p *mp4parser.Parser, f *fetch.Fetcher, input string) ([]mp4parser.BoxHeader, error) {
	path := input
	if fetch.IsURL(input) {
		tmp, err := f.Fetch(ctx, input)
		if err != nil {
			return nil, &inputError{input, err}
		}
		defer os.Remove(tmp)
		path = tmp
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &inputError{input, err}
	}
	boxes, err := p.ParseFileContext(ctx, path)
	if err != nil {
		return nil, &inputError{input, err}
	}
	return boxes, nil
}

func exitError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cli.Exit("file not found: "+err.Error(), exitNoInput)
	case errors.Is(err, mp4parser.ErrMalformed):
		return cli.Exit(err.Error(), exitData)
	}
	return err
}
