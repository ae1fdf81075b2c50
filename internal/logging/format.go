package logging

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// consoleTimeLayout keeps milliseconds so poll attempts a few ms apart stay
// ordered when reading the log.
const consoleTimeLayout = "2006-01-02 15:04:05.000"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}

// attrString renders v without quoting, for header fields such as the
// component and job id.
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return formatValue(v)
}

// formatValue renders v for the console detail lines. Floats keep at most
// three decimals; strings with spaces or quotes are quoted.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(math.Round(v.Float64()*1000)/1000, 'f', -1, 64)
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		return quoteIfNeeded(attrString(v))
	case slog.KindString:
		return quoteIfNeeded(v.String())
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
