package logformat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDate implements date extraction (%d): invoke a small
// strptime-equivalent interpreter over the configured date format, then
// re-emit via a strftime-equivalent formatter using dateNumFormat. It
// covers day, abbreviated/full month name and number, 2/4-digit year, and
// the literal padding spaces syslog-style dates use ("Nov  2") — not a
// general strptime reimplementation.
func ParseDate(token, dateFormat, dateNumFormat string) (dateStr string, numDate uint32, dt time.Time, err error) {
	layout, err := translateStrptime(dateFormat)
	if err != nil {
		return "", 0, time.Time{}, err
	}
	dt, err = time.Parse(layout, token)
	if err != nil {
		return "", 0, time.Time{}, fmt.Errorf("%w: date token %q against format %q: %v", ErrTokenInvalid, token, dateFormat, err)
	}
	numLayout, err := translateStrptime(dateNumFormat)
	if err != nil {
		return "", 0, time.Time{}, err
	}
	// strftime's %d is zero-padded; the space-padded "_2" the parser accepts
	// would put a blank into the numeric date.
	numLayout = strings.ReplaceAll(numLayout, "_2", "02")
	dateStr = dt.Format(numLayout)
	n, convErr := strconv.ParseUint(dateStr, 10, 32)
	if convErr != nil {
		return "", 0, time.Time{}, fmt.Errorf("%w: numeric date %q is not numeric", ErrTokenInvalid, dateStr)
	}
	return dateStr, uint32(n), dt, nil
}

// ParseTime implements time extraction (%t): parse the token against the
// configured time format, then re-emit as a fixed "%H:%M:%S" string (the
// Time field is always HH:MM:SS regardless of the configured TimeFormat,
// ).
func ParseTime(token, timeFormat string, date time.Time) (timeStr string, dt time.Time, err error) {
	layout, err := translateStrptime(timeFormat)
	if err != nil {
		return "", time.Time{}, err
	}
	parsed, perr := time.Parse(layout, token)
	if perr != nil {
		return "", time.Time{}, fmt.Errorf("%w: time token %q against format %q: %v", ErrTokenInvalid, token, timeFormat, perr)
	}
	combined := time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC)
	return combined.Format("15:04:05"), combined, nil
}

// strptimeConv maps the subset of strptime directives this system supports
// to their Go reference-time layout equivalent.
var strptimeConv = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'b': "Jan",
	'B': "January",
	'd': "_2",
	'e': "_2",
	'H': "15",
	'M': "04",
	'S': "05",
	'z': "-0700",
	'Z': "MST",
	'p': "PM",
	'I': "03",
}

// translateStrptime converts a strptime-style format string (as used in
// DateFormat/TimeFormat/DateNumFormat, e.g. "%d/%b/%Y") into a Go
// time-package reference layout. Literal bytes, including the padding
// spaces syslog dates rely on, pass through unchanged.
func translateStrptime(format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", fmt.Errorf("%w: trailing '%%' in date/time format %q", ErrBraceMismatch, format)
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}
		layout, ok := strptimeConv[format[i]]
		if !ok {
			return "", fmt.Errorf("%w: unsupported date/time conversion '%%%c'", ErrBraceMismatch, format[i])
		}
		b.WriteString(layout)
	}
	return b.String(), nil
}
