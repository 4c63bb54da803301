package logformat

import "testing"

// TestServeTimeUnitsAgree checks the testable property that %L, %T, %D, and
// %n tokens describing the same real duration (250ms) all resolve to the
// same microsecond value.
func TestServeTimeUnitsAgree(t *testing.T) {
	cases := []struct {
		kind  Kind
		token string
	}{
		{KindServeMillis, "250"},
		{KindServeSeconds, "0.250"},
		{KindServeMicros, "250000"},
		{KindServeNanos, "250000000"},
	}
	for _, c := range cases {
		if got := parseServeTimeToken(c.kind, c.token); got != 250000 {
			t.Errorf("parseServeTimeToken(%v, %q) = %d, want 250000", c.kind, c.token, got)
		}
	}
}

func TestServeTimeMicrosDirect(t *testing.T) {
	if got := parseServeTimeToken(KindServeMicros, "1234"); got != 1234 {
		t.Errorf("parseServeTimeToken(KindServeMicros, 1234) = %d, want 1234", got)
	}
}

func TestServeTimeGarbageCoercesToZero(t *testing.T) {
	for _, kind := range []Kind{KindServeMillis, KindServeSeconds, KindServeMicros, KindServeNanos} {
		if got := parseServeTimeToken(kind, "not-a-number"); got != 0 {
			t.Errorf("parseServeTimeToken(%v, garbage) = %d, want 0", kind, got)
		}
	}
}
