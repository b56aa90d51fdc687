package clifmt

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const (
	defaultTableWidth     = 100
	defaultMinDetailWidth = 36
)

type NameDetailRow struct {
	Name   string
	Detail string
}

type NameDetailTableOptions struct {
	Title        string
	Rows         []NameDetailRow
	EmptyText    string
	NameHeader   string
	DetailHeader string
	// Numbered prefixes each row with its 1-based rank.
	Numbered       bool
	DefaultWidth   int
	MinDetailWidth int
	EmptyDetail    string
}

// PrintNameDetailTable writes a two column table. Widths are counted in
// runes so Arabic nicknames line up with Latin ones; long details wrap under
// their own column.
func PrintNameDetailTable(out io.Writer, opts NameDetailTableOptions) {
	if out == nil {
		out = os.Stdout
	}
	if title := strings.TrimSpace(opts.Title); title != "" {
		fmt.Fprintln(out, Headerf("%s (%d)", title, len(opts.Rows)))
	}
	if len(opts.Rows) == 0 {
		fmt.Fprintln(out, Warn(orDefault(opts.EmptyText, "No entries.")))
		return
	}

	nameHeader := orDefault(opts.NameHeader, "NAME")
	detailHeader := orDefault(opts.DetailHeader, "DETAILS")
	emptyDetail := orDefault(opts.EmptyDetail, "No details provided.")

	names := make([]string, len(opts.Rows))
	nameWidth := utf8.RuneCountInString(nameHeader)
	for i, row := range opts.Rows {
		names[i] = row.Name
		if opts.Numbered {
			names[i] = strconv.Itoa(i+1) + ". " + row.Name
		}
		nameWidth = max(nameWidth, utf8.RuneCountInString(names[i]))
	}
	detailWidth := max(outputWidth(out, opts.DefaultWidth)-nameWidth-2, positiveOr(opts.MinDetailWidth, defaultMinDetailWidth))

	fmt.Fprintf(out, "%s  %s\n", Key(padRightRunes(nameHeader, nameWidth)), Key(detailHeader))
	fmt.Fprintf(out, "%s  %s\n", Dim(strings.Repeat("-", nameWidth)), Dim(strings.Repeat("-", detailWidth)))

	indent := strings.Repeat(" ", nameWidth)
	for i, row := range opts.Rows {
		lines := wrapTextRunes(orDefault(row.Detail, emptyDetail), detailWidth)
		fmt.Fprintf(out, "%s  %s\n", Success(padRightRunes(names[i], nameWidth)), lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(out, "%s  %s\n", indent, line)
		}
	}
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

func positiveOr(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}

// outputWidth is the terminal width when out is a tty, else the fallback.
func outputWidth(out io.Writer, fallback int) int {
	width := positiveOr(fallback, defaultTableWidth)
	file, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return width
	}
	if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
		return w
	}
	return width
}

func padRightRunes(s string, width int) string {
	if missing := width - utf8.RuneCountInString(s); missing > 0 {
		return s + strings.Repeat(" ", missing)
	}
	return s
}

// wrapTextRunes breaks text on spaces into lines of at most width runes.
// Words longer than width are split hard.
func wrapTextRunes(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || width <= 0 {
		return []string{strings.TrimSpace(text)}
	}

	var lines []string
	var cur []rune
	for _, word := range words {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= width:
			cur = append(append(cur, ' '), w...)
		default:
			lines = append(lines, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}
