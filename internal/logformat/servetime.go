package logformat

import "strconv"

// parseServeTimeToken converts a %L/%T/%D/%n token into microseconds,
// since serve time is always stored in microseconds internally regardless
// of which directive reported it. Garbage or unparsable tokens silently
// coerce to 0 rather than rejecting the line.
func parseServeTimeToken(kind Kind, token string) uint64 {
	switch kind {
	case KindServeMillis:
		ms, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0
		}
		return uint64(ms * 1000)

	case KindServeSeconds:
		s, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0
		}
		return uint64(s * 1e6)

	case KindServeMicros:
		us, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			return 0
		}
		return us

	case KindServeNanos:
		ns, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			return 0
		}
		return ns / 1000
	}
	return 0
}
