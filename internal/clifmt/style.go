package clifmt

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Color enables ANSI styling. It defaults to on when stdout is a terminal.
var Color = term.IsTerminal(int(os.Stdout.Fd()))

func style(code, s string) string {
	if !Color || s == "" {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func Headerf(format string, args ...any) string {
	return style("1", fmt.Sprintf(format, args...))
}

func Key(s string) string     { return style("36", s) }
func Dim(s string) string     { return style("2", s) }
func Success(s string) string { return style("32", s) }
func Warn(s string) string    { return style("33", s) }
