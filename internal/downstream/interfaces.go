// Package downstream defines the external-collaborator seams the
// parsing core calls through but does not implement on its own: the
// aggregation engine's insert path, the resume store, and the
// browser/OS/crawler/IP classifiers. internal/enrich and internal/resume
// provide concrete implementations; a caller embedding this module as a
// library may substitute any other implementation of the same interfaces.
package downstream

import (
	"context"

	"accessparse/internal/logitem"
	"accessparse/internal/resume"
)

// Inserter consumes a validated Item. The callee takes no ownership; Go's
// GC retires the original's "caller frees immediately after" contract.
type Inserter interface {
	Insert(ctx context.Context, item *logitem.Item) error
}

// Counters implements the per-log counter updates:
// count_process, count_process_and_invalid, uncount_processed,
// uncount_invalid.
type Counters interface {
	CountProcessed()
	CountProcessedAndInvalid()
	UncountProcessed()
	UncountInvalid()
}

// ResumeStore is the persisted dedup/resume fingerprint store:
// ht_get_last_parse / ht_insert_last_parse.
type ResumeStore interface {
	Get(ctx context.Context, inode uint64) (resume.LastParse, bool, error)
	Put(ctx context.Context, inode uint64, lp resume.LastParse) error
}

// Classifiers bundles every classifier collaborator: set_browser_os,
// is_crawler, hide_referer, ignore_referer, excluded_ip,
// is_valid_http_status, invalid_ipaddr. internal/enrich.Classifiers is the
// concrete implementation wired by the CLI; it also satisfies
// classify.Policy.
type Classifiers interface {
	SetBrowserOS(item *logitem.Item)
	IsCrawler(agent string) bool
	HideReferer(site string) bool
	IgnoreReferer(ref string) bool
	ExcludedIP(item *logitem.Item) bool
	IsValidHTTPStatus(code int) bool
	InvalidIPAddr(s string) (logitem.TypeIP, error)
}

// JSONWalker is the external JSON walker seam (parse_json_string):
// walk a decoded JSON object and invoke perKV once per top-level key/value
// pair. DefaultJSONWalker is the built-in implementation; internal/logformat's
// JSON directive engine walks objects itself and does not call through this
// interface. A caller may substitute a streaming or schema-aware walker.
type JSONWalker interface {
	Walk(obj map[string]any, perKV func(key string, value any) error) error
}
