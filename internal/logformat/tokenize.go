package logformat

import "strings"

// nextToken implements the token extraction contract: scan line
// starting at pos, counting unescaped occurrences of delim, and return the
// substring up to (not including) the count-th occurrence, along with the
// position just past that delimiter. A backslash in the input escapes the
// following byte, so an escaped delimiter does not count.
//
// If delimEOL is true the token runs to the end of line regardless of delim.
// count must be >= 1; callers needing the default single-delimiter behaviour
// pass 1.
//
// Three outcomes beyond the cnt-th-delimiter case:
//   - pos already at or past end of line (nothing left for this directive
//     to consume): ErrLineExhausted.
//   - delim never occurs in line[pos:]: ErrTokenMissing.
//   - delim occurs at least once but fewer than count times before EOL:
//     succeeds, returning the rest of the line as the token (same result
//     as if EOL were the cnt-th delimiter).
func nextToken(line string, pos int, delim byte, delimEOL bool, count int) (token string, newPos int, err error) {
	if pos > len(line) {
		return "", pos, ErrLineExhausted
	}
	if pos == len(line) {
		return "", pos, ErrLineExhausted
	}
	if count < 1 {
		count = 1
	}
	if delimEOL {
		return line[pos:], len(line), nil
	}

	seen := 0
	i := pos
	for i < len(line) {
		c := line[i]
		if c == '\\' && i+1 < len(line) {
			i += 2
			continue
		}
		if c == delim {
			seen++
			if seen == count {
				return line[pos:i], i + 1, nil
			}
		}
		i++
	}
	// The delimiter was seen at least once but fewer than count times
	// before end-of-line: the remainder of the line up to EOL is the
	// token, same as reaching the count-th delimiter would have produced.
	if seen > 0 {
		return line[pos:], len(line), nil
	}
	// The delimiter never occurred in the remaining line at all.
	return "", pos, ErrTokenMissing
}

// matchLiteral consumes one literal byte from line at pos. A mismatch
// silently advances input by one byte rather than failing — the format's
// literal bytes are expected structure, not validated structure.
func matchLiteral(line string, pos int, want byte) int {
	if pos >= len(line) {
		return pos
	}
	return pos + 1
}

// skipLeadingSpace advances pos past any run of ASCII spaces/tabs, used by
// the '~' directive.
func skipLeadingSpace(line string, pos int) int {
	for pos < len(line) && (line[pos] == ' ' || line[pos] == '\t') {
		pos++
	}
	return pos
}

// dateDelimCount computes the delimiter occurrence count %d must use when
// its delimiter is a space: normally 1, but syslog-style dates pad the day
// with an extra space ("Nov  2"), so the count grows to the larger of the
// number of spaces anywhere in the configured date format and the length of
// the first run of consecutive spaces found scanning forward from pos, plus
// one.
func dateDelimCount(dateFormat, line string, pos int) int {
	fmtSpaces := strings.Count(dateFormat, " ")
	inputSpaces := 0
	if idx := strings.IndexByte(line[pos:], ' '); idx >= 0 {
		for i := pos + idx; i < len(line) && line[i] == ' '; i++ {
			inputSpaces++
		}
	}
	n := fmtSpaces
	if inputSpaces > n {
		n = inputSpaces
	}
	return n + 1
}
