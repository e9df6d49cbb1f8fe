package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...any) string {
	return f.apply(fmt.Sprint(a...))
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (f Formatter) Sprintf(format string, a ...any) string {
	return f.apply(fmt.Sprintf(format, a...))
}

func (f Formatter) apply(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Verdict renders a security check: good in Success when ok, bad in Error otherwise.
func Verdict(ok bool, good, bad string) string {
	if ok {
		return Success.Sprint(good)
	}
	return Error.Sprint(bad)
}

// noColor returns true if color output should be disabled.
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

// Semantic formatters for lockbox output.
var (
	// Command formats runnable commands. Yellow, `backticks` without color.
	Command = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path formats filesystem and container paths. Yellow, undecorated without color.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	// Success formats completed operations and passed checks.
	Success = Formatter{color.New(color.FgGreen), "", ""}

	// Error formats failures and failed checks.
	Error = Formatter{color.New(color.FgRed), "", ""}

	// Warning formats cautions such as unsigned files.
	Warning = Formatter{color.New(color.FgYellow), "", ""}

	// Info formats hints and headings.
	Info = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats user values like signer names and fingerprints.
	// Cyan, 'single quotes' without color.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats secondary details. Gray, (parentheses) without color.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
