package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	"github.com/PolarWolf314/lockbox/internal/batch"
	"github.com/PolarWolf314/lockbox/internal/outcome"
	"github.com/PolarWolf314/lockbox/internal/ui"
	"github.com/PolarWolf314/lockbox/internal/utils"
)

// newSpinner returns a spinner writing to w, or nil when w is not a terminal
// or verbose output would interleave with it.
func newSpinner(w io.Writer, message string) *spinner.Spinner {
	if verbose || debug {
		Logger.Infof("Running in verbose or debug mode: %s", message)
		return nil
	}
	if !utils.IsTerminalWriter(w) {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}
	return s
}

// startSpinner spins until the returned func is called.
func startSpinner(message string) func() {
	s := newSpinner(output(), message)
	if s == nil {
		return func() {}
	}
	s.Start()
	return s.Stop
}

// progress prints one line per batch item under a spinner counting them.
type progress[T any] struct {
	out    io.Writer
	spin   *spinner.Spinner
	verb   string
	render func(T) string

	total     int
	done      int
	succeeded int
}

func newProgress[T any](out io.Writer, spin *spinner.Spinner, verb string, render func(T) string) *progress[T] {
	return &progress[T]{out: out, spin: spin, verb: verb, render: render}
}

func (p *progress[T]) OnTotal(expected int) {
	p.total = expected
	p.update()
	if p.spin != nil {
		p.spin.Start()
	}
}

func (p *progress[T]) OnItem(source, dest string, result T, err error) {
	p.done++
	if err == nil {
		p.succeeded++
	}
	p.pause(func() {
		if err != nil {
			fmt.Fprintf(p.out, "%s %s %s\n", ui.Error.Sprint("✗"), ui.Path.Sprint(source), ui.Muted.Sprint(err))
			return
		}
		line := fmt.Sprintf("%s %s -> %s", ui.Success.Sprint("✓"), ui.Path.Sprint(source), ui.Path.Sprint(dest))
		if p.render != nil {
			line += " " + p.render(result)
		}
		fmt.Fprintln(p.out, line)
	})
	p.update()
}

func (p *progress[T]) OnComplete(walkSucceeded bool, err error) {
	if p.spin != nil {
		p.spin.Stop()
	}
	if !walkSucceeded {
		fmt.Fprintf(p.out, "%s %s stopped: %v\n", ui.Error.Sprint("✗"), p.verb, err)
		return
	}
	fmt.Fprintf(p.out, "%s %s %d of %d file(s)\n", ui.Success.Sprint("✓"), p.verb, p.succeeded, p.total)
}

func (p *progress[T]) update() {
	if p.spin != nil {
		p.spin.Lock()
		p.spin.Suffix = fmt.Sprintf(" %s %d/%d", p.verb, p.done, p.total)
		p.spin.Unlock()
	}
}

// pause stops the spinner around fn so its line is not overwritten.
func (p *progress[T]) pause(fn func()) {
	if p.spin == nil || !p.spin.Active() {
		fn()
		return
	}
	p.spin.Stop()
	fn()
	p.spin.Start()
}

// renderOutcome describes a decrypt result in one line.
func renderOutcome(o outcome.Outcome) string {
	if !o.OK() {
		return ui.Error.Sprintf("failed (%s): %v", o.Failure, o.Err)
	}
	return ui.Verdict(o.Trusted(), o.String(), o.String())
}

// summarize prints the counts of a finished batch when some items failed.
func summarize(s batch.Summary) {
	if s.Failed > 0 {
		fmt.Fprintf(output(), "%s %d of %d item(s) failed\n", ui.Warning.Sprint("!"), s.Failed, s.Total)
	}
}
