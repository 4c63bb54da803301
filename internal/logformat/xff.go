package logformat

import (
	"strings"

	"accessparse/internal/logitem"
)

// ParseXFF implements "%{reject}h" directive: the reject-set
// characters delimit candidate IP addresses within the token. The first
// valid IP found becomes the host; a subsequent non-IP candidate after a
// host has already been found breaks the loop rather than continuing to
// scan (a malformed trailing entry does not get to overwrite a good host,
// but it also does not invalidate the line).
//
// No behaviour beyond this is invented for the interaction between the
// reject set and a hard delimiter that happens to also appear in the
// surrounding format; callers are expected to have already sliced the
// token at the hard delimiter before calling ParseXFF, which is exactly
// what the directive engine's token extraction step does.
func ParseXFF(token, rejectSet string) (host string, typeIP logitem.TypeIP, ok bool) {
	if rejectSet == "" {
		rejectSet = ","
	}
	candidates := splitAny(token, rejectSet)

	foundHost := false
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		c = stripBracketedPort(c)
		kind, err := ValidateIP(c)
		if err != nil || kind == logitem.TypeIPInvalid {
			if foundHost {
				break
			}
			continue
		}
		if !foundHost {
			host = c
			typeIP = kind
			foundHost = true
		}
	}
	return host, typeIP, foundHost
}

// stripBracketedPort strips a "[addr]:port" or "[addr]" wrapper down to the
// bare address, matching the bracketed-IPv6-host handling used for %h.
func stripBracketedPort(s string) string {
	if len(s) == 0 || s[0] != '[' {
		return s
	}
	if end := strings.IndexByte(s, ']'); end > 0 {
		return s[1:end]
	}
	return s
}

func splitAny(s, cutset string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(cutset, s[i]) >= 0 {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
