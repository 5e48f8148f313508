package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/0muji4/declnav/internal/app"
	"github.com/0muji4/declnav/internal/cli"
	"github.com/0muji4/declnav/internal/config"
	"github.com/0muji4/declnav/internal/navigation"
	"github.com/0muji4/declnav/internal/workspace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// The notice has already been shown.
		if !errors.Is(err, errNoDeclaration) {
			fmt.Fprintln(os.Stderr, "declnav:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	root    string
	config  string
	offset  int
	noWait  bool
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "declnav",
		Short:         "Go to the declaration of a Go identifier",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.root, "root", ".", "Workspace root")
	rootCmd.PersistentFlags().StringVar(&opts.config, "config", os.Getenv("DECLNAV_CONFIG"), "Config file (default: $DECLNAV_CONFIG)")
	rootCmd.PersistentFlags().IntVar(&opts.offset, "offset", -1, "Byte offset of the caret, instead of FILE:LINE:COLUMN")
	rootCmd.PersistentFlags().BoolVar(&opts.noWait, "no-wait", false, "Do not wait for background analysis before resolving")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Give up after this long")

	gotoCmd := &cobra.Command{
		Use:   "goto FILE[:LINE:COLUMN]",
		Short: "Print the location of the declaration, asking when there are several",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoto(cmd, opts, args[0])
		},
	}
	peekCmd := &cobra.Command{
		Use:   "peek FILE[:LINE:COLUMN]",
		Short: "List the declarations goto would offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeek(cmd, opts, args[0])
		},
	}

	rootCmd.AddCommand(gotoCmd, peekCmd)
	return rootCmd
}

// setup loads the configuration, builds the app and opens the document.
func setup(cmd *cobra.Command, opts *options, arg string) (*app.App, *workspace.File, int, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return nil, nil, 0, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel()}))

	path, line, column, err := parsePosition(arg)
	if err != nil {
		return nil, nil, 0, err
	}
	if line == 0 && opts.offset < 0 {
		return nil, nil, 0, fmt.Errorf("%s: give FILE:LINE:COLUMN or --offset", arg)
	}

	a, err := app.New(cmd.Context(), opts.root, cfg, logger)
	if err != nil {
		return nil, nil, 0, err
	}
	doc, err := a.Reader.Open(path)
	if err != nil {
		_ = a.Close()
		return nil, nil, 0, err
	}

	offset := opts.offset
	if line > 0 {
		offset, err = doc.Offset(line, column)
		if err != nil {
			_ = a.Close()
			return nil, nil, 0, err
		}
	}

	if !opts.noWait {
		if err := a.Wait(cmd.Context()); err != nil {
			_ = a.Close()
			return nil, nil, 0, err
		}
	}
	return a, doc, offset, nil
}

func runGoto(cmd *cobra.Command, opts *options, arg string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	cmd.SetContext(ctx)

	a, doc, offset, err := setup(cmd, opts, arg)
	if err != nil {
		return err
	}
	defer a.Close()

	term := cli.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	session, err := a.NewSession(term.Sinks())
	if err != nil {
		return err
	}

	res, err := session.Run(ctx, doc, offset)
	if err != nil {
		return err
	}
	switch res.State {
	case navigation.StateNavigated:
		return nil
	case navigation.StateIdle:
		if res.Cancelled && ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	return errNoDeclaration
}

var errNoDeclaration = errors.New("no declaration")

func runPeek(cmd *cobra.Command, opts *options, arg string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	cmd.SetContext(ctx)

	a, doc, offset, err := setup(cmd, opts, arg)
	if err != nil {
		return err
	}
	defer a.Close()

	term := cli.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	session, err := a.NewSession(term.Sinks())
	if err != nil {
		return err
	}

	outcome, err := session.Preview(ctx, doc, offset)
	if errors.Is(err, navigation.ErrAnalysisUnavailable) {
		return errors.New(navigation.MessageAnalysisNotReady)
	}
	if err != nil {
		return err
	}

	targets := outcome.Targets()
	if len(targets) == 0 {
		return errors.New(navigation.MessageNothingFound)
	}
	out := cmd.OutOrStdout()
	for _, t := range targets {
		loc := t.Location()
		origin, _ := t.Origin()
		fmt.Fprintf(out, "%s:%d:%d\t%s\t%s\n", loc.Path, loc.Line, loc.Column, t.Presentation(), origin)
	}
	return nil
}

// parsePosition splits FILE[:LINE:COLUMN]. Line and column are 0 when
// absent.
func parsePosition(arg string) (path string, line, column int, err error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 3 {
		return arg, 0, 0, nil
	}
	n := len(parts)
	line, lineErr := strconv.Atoi(parts[n-2])
	column, colErr := strconv.Atoi(parts[n-1])
	if lineErr != nil || colErr != nil {
		return arg, 0, 0, nil
	}
	if line < 1 || column < 1 {
		return "", 0, 0, fmt.Errorf("%s: line and column start at 1", arg)
	}
	return strings.Join(parts[:n-2], ":"), line, column, nil
}
