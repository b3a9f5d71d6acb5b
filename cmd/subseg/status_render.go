package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	ansi  string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const (
	ansiReset  = "\x1b[0m"
	labelWidth = 12
)

// styler renders report lines, adding ANSI color only when writing to a terminal.
type styler struct {
	color bool
}

func newStyler(w io.Writer) styler {
	return styler{color: isTerminal(w)}
}

func (s styler) paint(kind statusKind, text string) string {
	if !s.color {
		return text
	}
	return statusStyles[kind].ansi + text + ansiReset
}

func (s styler) header(title string) string {
	return s.paint(statusInfo, fmt.Sprintf("== %s ==", strings.TrimSpace(title)))
}

func (s styler) status(label string, kind statusKind, message string) string {
	badge := "[" + statusStyles[kind].label + "]"
	if message != "" {
		badge += " " + message
	}
	return s.paint(kind, renderField(label, badge))
}

func renderField(label, value string) string {
	return fmt.Sprintf("  %-*s %s", labelWidth, label+":", value)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
