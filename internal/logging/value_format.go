package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const consoleTimeLayout = "15:04:05.000"

// attrString renders v without quoting, for values lifted into the line prefix.
func attrString(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return fmt.Sprint(v.Any())
}

// formatValue renders v for the key=value tail, quoting anything that would
// break the tail apart when split on spaces.
func formatValue(v slog.Value) string {
	var text string
	switch v.Kind() {
	case slog.KindFloat64:
		text = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		text = v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			text = err.Error()
		} else {
			text = fmt.Sprint(v.Any())
		}
	default:
		text = v.String()
	}
	if text == "" || strings.ContainsFunc(text, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(text)
	}
	return text
}
