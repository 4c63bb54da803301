package enrich

import (
	"net"

	"accessparse/internal/logitem"
)

// Classifiers bundles GeoIP/ASN lookup, browser/OS/crawler detection, and
// the configured referer/IP exclusion sets into a single concrete
// implementation of downstream.Classifiers. It also satisfies
// classify.Policy, so the same value can be handed to both seams.
type Classifiers struct {
	GeoIP *GeoIP // nil if no --geoip-db configured
	ASN   *ASN   // nil if no --asn-db configured

	ExcludedIPs    map[string]bool
	ExcludedSites  map[string]bool
	IgnoredSites   map[string]bool
	ValidHTTPCodes map[int]bool
}

// NewClassifiers returns a Classifiers with no GeoIP/ASN tables and empty
// exclusion sets; callers populate the maps and assign GeoIP/ASN after
// construction (mirroring config.Load's "build once, then freeze" order).
func NewClassifiers() *Classifiers {
	return &Classifiers{
		ExcludedIPs:    make(map[string]bool),
		ExcludedSites:  make(map[string]bool),
		IgnoredSites:   make(map[string]bool),
		ValidHTTPCodes: make(map[int]bool),
	}
}

// SetBrowserOS implements downstream.Classifiers, then runs the GeoIP/ASN
// lookups if tables are loaded.
func (c *Classifiers) SetBrowserOS(item *logitem.Item) {
	SetBrowserOS(item)
	if c.GeoIP != nil {
		c.GeoIP.Apply(item)
	}
	if c.ASN != nil {
		c.ASN.Apply(item)
	}
}

// IsCrawler implements downstream.Classifiers / classify.Policy.
func (c *Classifiers) IsCrawler(agent string) bool {
	return IsCrawler(agent)
}

// HideReferer implements downstream.Classifiers / classify.Policy: it
// reports whether site is on the configured exclusion list. It does not
// modify any item.
func (c *Classifiers) HideReferer(site string) bool {
	return c.ExcludedSites[site]
}

// IgnoreReferer implements downstream.Classifiers / classify.Policy.
func (c *Classifiers) IgnoreReferer(ref string) bool {
	return c.IgnoredSites[ref]
}

// ExcludedIP implements downstream.Classifiers / classify.Policy.
func (c *Classifiers) ExcludedIP(item *logitem.Item) bool {
	if item == nil {
		return false
	}
	return c.ExcludedIPs[item.Host]
}

// IsValidHTTPStatus implements downstream.Classifiers. An empty
// ValidHTTPCodes set means "accept any code in [100, 599]".
func (c *Classifiers) IsValidHTTPStatus(code int) bool {
	if len(c.ValidHTTPCodes) == 0 {
		return code >= 100 && code <= 599
	}
	return c.ValidHTTPCodes[code]
}

// InvalidIPAddr implements downstream.Classifiers, delegating to net.ParseIP
// the same way internal/logformat's own ValidateIP does.
func (c *Classifiers) InvalidIPAddr(s string) (logitem.TypeIP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return logitem.TypeIPInvalid, nil
	}
	if ip.To4() != nil {
		return logitem.TypeIPv4, nil
	}
	return logitem.TypeIPv6, nil
}
