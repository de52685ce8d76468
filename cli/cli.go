// Package cli provides the pdfburn command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/georgepadayatti/pdfburn/burn"
	"github.com/georgepadayatti/pdfburn/config"
)

// Version information
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// runner carries what every command needs once global flags are parsed.
type runner struct {
	storage *Storage
	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

// NewApp builds the pdfburn application. Output goes to stdout and
// diagnostics to stderr unless the caller replaces app.Writer and
// app.ErrWriter.
func NewApp() *cli.App {
	r := &runner{storage: NewStorage()}
	app := &cli.App{
		Name:    "pdfburn",
		Usage:   "fill text, dates, images and marks into PDF pages",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "log-level", Usage: "override logging.level (debug, info, warn, error)"},
			&cli.StringFlag{Name: "log-format", Usage: "override logging.format (json, text)"},
		},
		Before: r.before,
		After:  r.after,
		Commands: []*cli.Command{
			burnCommand(r),
			hashCommand(r),
			verifyCommand(r),
			inspectCommand(r),
			blankCommand(r),
			{
				Name:  "version",
				Usage: "show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "pdfburn version %s\n", Version)
					fmt.Fprintf(c.App.Writer, "Build time: %s\n", BuildTime)
					return nil
				},
			},
		},
		// Exit codes are decided by the caller.
		ExitErrHandler: func(*cli.Context, error) {},
	}
	return app
}

// Run executes the CLI with the given arguments and returns the process
// exit code.
func Run(args []string) int {
	app := NewApp()
	if err := app.Run(args); err != nil {
		fmt.Fprintf(app.ErrWriter, "Error: %v\n", err)
		return ExitCode(err)
	}
	return 0
}

// ExitCode maps an error returned by the app to a process exit code.
func ExitCode(err error) int {
	var exitErr cli.ExitCoder
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	case errors.As(err, new(*burn.DecodeError)), errors.As(err, new(*burn.EncodeError)):
		return 2
	}
	return 1
}

func (r *runner) before(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if format := c.String("log-format"); format != "" {
		cfg.Logging.Format = format
	}
	if err := cfg.Logging.Validate(); err != nil {
		return err
	}

	var out io.Writer
	switch cfg.Logging.Output {
	case "stderr":
		out = c.App.ErrWriter
	case "stdout":
		out = c.App.Writer
	default:
		f, err := os.OpenFile(cfg.Logging.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		r.closers = append(r.closers, f)
		out = f
	}
	logger, err := cfg.Logging.NewLogger(out)
	if err != nil {
		return err
	}
	r.cfg = cfg
	r.logger = logger
	return nil
}

func (r *runner) after(*cli.Context) error {
	var errs []error
	for _, closer := range r.closers {
		errs = append(errs, closer.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// requireArgs fails unless c has exactly n positional arguments.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return cli.Exit(fmt.Sprintf("%s: expected %d argument(s), got %d\nUsage: %s %s",
			c.Command.Name, n, c.NArg(), c.Command.HelpName, c.Command.ArgsUsage), 64)
	}
	return nil
}
