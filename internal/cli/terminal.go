// Package cli implements the navigation sinks for a terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/0muji4/declnav/internal/app"
	"github.com/0muji4/declnav/internal/navigation"
)

var (
	_ navigation.Navigator = (*Terminal)(nil)
	_ navigation.Notifier  = (*Terminal)(nil)
	_ navigation.Surface   = (*Terminal)(nil)
)

// Terminal prints jumps to out as path:line:column, which editors and
// terminals can follow, and talks to the user on errOut and in.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func NewTerminal(in io.Reader, out, errOut io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, errOut: errOut}
}

// Sinks returns the terminal as session sinks.
func (t *Terminal) Sinks() app.Sinks {
	return app.Sinks{Navigator: t, Notifier: t, Surface: t, Report: t.Report}
}

func (t *Terminal) Navigate(_ context.Context, loc navigation.Location) error {
	_, err := fmt.Fprintf(t.out, "%s:%d:%d\n", loc.Path, loc.Line, loc.Column)
	return err
}

func (t *Terminal) Notify(_ context.Context, n navigation.Notice) {
	fmt.Fprintln(t.errOut, n.Message)
}

// Report is shown when resolution is slow.
func (t *Terminal) Report(title string) {
	fmt.Fprintln(t.errOut, title)
}

// Show lists items on errOut and reads the pick from in on another
// goroutine. An empty line, "q" or end of input dismisses the list.
func (t *Terminal) Show(_ context.Context, title string, items []navigation.Presentation, choose func(int), dismiss func()) error {
	fmt.Fprintf(t.errOut, "%s:\n", title)
	for i, item := range items {
		fmt.Fprintf(t.errOut, "  %d) %s\n", i+1, item)
	}
	fmt.Fprintf(t.errOut, "Pick [1-%d]: ", len(items))

	go func() {
		line, err := t.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" || line == "q" {
			dismiss()
			return
		}
		n, convErr := strconv.Atoi(line)
		if convErr != nil {
			if err == nil {
				fmt.Fprintf(t.errOut, "not a number: %q\n", line)
			}
			dismiss()
			return
		}
		choose(n - 1)
	}()
	return nil
}
