package logformat

import (
	"net/url"
	"strconv"
	"strings"
)

var methods = []string{
	"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS", "PATCH", "CONNECT", "TRACE",
}

var protocols = []string{
	"HTTP/1.0", "HTTP/1.1", "HTTP/2", "HTTP/3",
}

// DecodeURL percent-decodes s in place semantics (returns a new string),
// optionally decoding twice, stripping CR/LF and trimming surrounding
// whitespace. An empty result after decoding yields ("", false).
func DecodeURL(s string, doubleDecode bool) (string, bool) {
	decoded := decodeOnce(s)
	if doubleDecode {
		decoded = decodeOnce(decoded)
	}
	decoded = strings.Map(func(r rune) rune {
			if r == '\r' || r == '\n' {
				return -1
			}
			return r
		}, decoded)
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", false
	}
	return decoded, true
}

func decodeOnce(s string) string {
	// url.QueryUnescape turns '+' into space, which is wrong for a path
	// component; PathUnescape preserves '+' literally while still decoding
	// %XX sequences.
	if out, err := url.PathUnescape(s); err == nil {
		return out
	}
	return s
}

// MatchMethod returns the canonical uppercase spelling of a case-insensitive
// prefix match against the known method table, and whether it matched.
func MatchMethod(token string) (string, bool) {
	up := strings.ToUpper(token)
	for _, m := range methods {
		if strings.HasPrefix(up, m) {
			return m, true
		}
	}
	return "", false
}

// MatchProtocol returns the canonical uppercase spelling of a case-insensitive
// prefix match against the known protocol table, and whether it matched.
func MatchProtocol(token string) (string, bool) {
	up := strings.ToUpper(token)
	for _, p := range protocols {
		if strings.HasPrefix(up, p) {
			return p, true
		}
	}
	return "", false
}

// ParseRequestLine implements %r extraction: locate a method
// prefix, find the last space, and check that what follows it is a valid
// protocol token; the substring between is the request. Per Open Question
// #2, a malformed request line (no trailing protocol, or an empty middle)
// yields the literal "-" rather than an error — downstream treats this as a
// valid request, and that quirk is preserved verbatim.
func ParseRequestLine(line string) (method, req, protocol string) {
	rest := line
	if m, ok := MatchMethod(line); ok {
		method = m
		rest = strings.TrimSpace(line[len(m):])
	}

	lastSpace := strings.LastIndexByte(rest, ' ')
	if lastSpace < 0 {
		return method, "-", ""
	}
	protoToken := rest[lastSpace+1:]
	proto, ok := MatchProtocol(protoToken)
	if !ok {
		return method, "-", ""
	}
	req = strings.TrimSpace(rest[:lastSpace])
	if req == "" {
		return method, "-", proto
	}
	return method, req, proto
}

var googleRefererHosts = []string{
	"www.google.",
	"webcache.googleusercontent.com",
	"translate.googleusercontent.com",
}

// ExtractKeyphrase implements Google-referer keyphrase extraction.
// It returns ("", false) for referers that are not one of the recognized
// Google-family hosts, or that contain none of the recognized query markers.
func ExtractKeyphrase(referer string) (string, bool) {
	lower := strings.ToLower(referer)
	matched := false
	for _, h := range googleRefererHosts {
		if strings.Contains(lower, h) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	markers := []string{"&q=", "?q=", "%26q%3d", "%3fq%3d", "q=cache:", "/+"}
	var start int = -1
	var markerLen int
	for _, mk := range markers {
		if idx := strings.Index(lower, mk); idx >= 0 {
			if start == -1 || idx < start {
				start = idx
				markerLen = len(mk)
			}
		}
	}
	if start == -1 {
		return "", false
	}

	rest := referer[start+markerLen:]
	// "q=cache:<x>+" marker form: skip ahead past the next '+'.
	if strings.HasPrefix(strings.ToLower(referer[start:start+markerLen]), "q=cache:") {
		if plus := strings.IndexByte(rest, '+'); plus >= 0 {
			rest = rest[plus+1:]
		}
	}

	end := len(rest)
	if idx := strings.IndexByte(rest, '&'); idx >= 0 && idx < end {
		end = idx
	}
	if idx := strings.Index(rest, "%26"); idx >= 0 && idx < end {
		end = idx
	}
	token := rest[:end]

	decoded, ok := DecodeURL(token, false)
	if !ok {
		return "", false
	}
	decoded = strings.ReplaceAll(decoded, "+", " ")
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", false
	}
	return decoded, true
}

// RefSiteLen bounds the extracted referer site, matching the C
// implementation's fixed output buffer.
const RefSiteLen = 256

// ExtractRefererSite implements referer-site extraction: strip the
// scheme via the first "//", take up to the next '/' or '?', and truncate.
func ExtractRefererSite(referer string) string {
	s := referer
	if idx := strings.Index(s, "//"); idx >= 0 {
		s = s[idx+2:]
	}
	end := len(s)
	if idx := strings.IndexAny(s, "/?"); idx >= 0 {
		end = idx
	}
	site := s[:end]
	if len(site) > RefSiteLen {
		site = site[:RefSiteLen]
	}
	return site
}

// MaxMimeOut bounds the normalized MIME output, matching the C
// implementation's fixed output buffer.
const MaxMimeOut = 256

// NormalizeMime implements MIME normalization: split on ';' and ',',
// trim, lowercase, rejoin with "; ", truncate to MaxMimeOut.
func NormalizeMime(raw string) string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	joined := strings.Join(out, "; ")
	if len(joined) > MaxMimeOut {
		joined = joined[:MaxMimeOut]
	}
	return joined
}

// recognizedCacheStatus mirrors the table of cache-status tokens that are
// retained verbatim (case-insensitive); anything else leaves the field
// unset without invalidating the line.
var recognizedCacheStatus = map[string]string{
	"miss": "MISS",
	"bypass": "BYPASS",
	"expired": "EXPIRED",
	"stale": "STALE",
	"updating": "UPDATING",
	"revalidated": "REVALIDATED",
	"hit": "HIT",
}

// MatchCacheStatus returns the canonical spelling of a recognized cache
// status token, and whether it was recognized.
func MatchCacheStatus(token string) (string, bool) {
	v, ok := recognizedCacheStatus[strings.ToLower(token)]
	return v, ok
}

// ParseStatus implements %s semantics: a decimal status rejected if
// it has trailing garbage or (unless strict mode is disabled) is not a
// recognized HTTP status.
func ParseStatus(token string, noStrict bool, isValid func(int) bool) (int, bool) {
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	if !noStrict && isValid != nil && !isValid(n) {
		return 0, false
	}
	return n, true
}

// ParseBytes implements %b semantics: parse failure silently yields 0
// rather than rejecting the line.
func ParseBytes(token string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(token), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
