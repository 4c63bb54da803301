// Package logitem defines the canonical parsed record produced by the
// directive engine and consumed by the classifier, resume gate, and
// downstream inserter.
package logitem

import "time"

// TypeIP classifies a validated host token.
type TypeIP int

const (
	TypeIPUnknown TypeIP = iota
	TypeIPv4
	TypeIPv6
	TypeIPInvalid
)

func (t TypeIP) String() string {
	switch t {
	case TypeIPv4:
		return "ipv4"
	case TypeIPv6:
		return "ipv6"
	case TypeIPInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// IgnoreLevel is the outcome of the line classifier's ignore-policy chain.
type IgnoreLevel int

const (
	// Keep means the line is neither counted as ignored nor excluded from panels.
	Keep IgnoreLevel = iota
	// IgnoreReq means the line is counted but not shown in panels (e.g. a static asset).
	IgnoreReq
	// IgnorePanel means the line is excluded from both counts and panels entirely.
	IgnorePanel
)

func (l IgnoreLevel) String() string {
	switch l {
	case IgnoreReq:
		return "ignore-req"
	case IgnorePanel:
		return "ignore-panel"
	default:
		return "keep"
	}
}

// Item is the canonical parsed record. Every attribute that was optional in
// the original owned-string model is a Go *string or zero value here — Go's
// garbage collector retires the manual "if not null, free" ladders entirely,
// so there is no destructor.
type Item struct {
	Date    string // YYYYMMDD form of the configured DateNumFormat. Required.
	NumDate uint32 // numeric form of Date, used as a sort key.
	Time    string // HH:MM:SS
	DT      time.Time

	Host   string // required
	TypeIP TypeIP

	VHost       *string
	UserID      *string
	CacheStatus *string // only set if token is a recognized cache status

	Method   string
	Protocol string

	Req  string // required, URL-decoded
	QStr *string

	Ref       *string
	Site      *string
	Keyphrase *string

	Agent     string // "-" if absent
	AgentHash uint32
	AgentHex  string

	Browser     *string
	BrowserType *string
	OS          *string
	OSType      *string
	Continent   *string
	Country     *string
	ASN         *string
	ASOrg       *string

	Status   int    // -1 means unset
	RespSize uint64 // bytes

	// ServeTime is always stored in microseconds regardless of the source
	// directive (%L, %T, %D, %n).
	ServeTime uint64

	TLSType       *string
	TLSCypher     *string
	TLSTypeCypher *string
	MimeType      *string

	IgnoreLevel IgnoreLevel
	Is404       bool
	IsStatic    bool

	UniqKey string
}

// New returns an Item with the zero values the directive engine expects
// before any directive has run: an unset status and a start-of-log DT.
func New(startTime time.Time) *Item {
	return &Item{
		Status: -1,
		DT:     startTime,
	}
}

// Valid reports whether item satisfies the invariants required before it may
// be handed to a downstream inserter: non-empty Host, Date, and Req.
func (it *Item) Valid() bool {
	return it.Host != "" && it.Date != "" && it.Req != ""
}
