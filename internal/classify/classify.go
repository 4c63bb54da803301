// Package classify implements the line classifier: required-field
// validation, the ignore-policy chain, static/404 classification, and the
// unique-visitor key.
package classify

import (
	"fmt"
	"strings"

	"accessparse/internal/logformat"
	"accessparse/internal/logitem"
)

// ErrMissingRequiredField is returned by Validate when Host, Date, or Req
// is empty after an otherwise successful parse.
var ErrMissingRequiredField = fmt.Errorf("classify: missing required field")

// Policy bundles the external collaborators the ignore-policy chain needs:
// excluded IPs, crawler detection, and referer exclusion. Static-file
// recognition is not part of it; Classify does that from Options.
// internal/enrich provides a concrete implementation; callers may
// substitute any other.
type Policy interface {
	ExcludedIP(item *logitem.Item) bool
	IsCrawler(agent string) bool
	HideReferer(site string) bool
	IgnoreReferer(ref string) bool
}

// Options configures the ignore-policy chain and the static/404 rules.
type Options struct {
	IgnoreCrawlers bool
	CrawlersOnly bool
	IgnoreStatus map[int]bool
	IgnoreStatics StaticsMode
	StaticFiles []string
	AllStaticFiles bool
	IgnoreQStr bool
	Code444As404 bool
}

// StaticsMode mirrors config.StaticsMode without importing the config
// package from this leaf package.
type StaticsMode int

const (
	StaticsOff StaticsMode = iota
	StaticsIgnoreReq
	StaticsIgnorePanel
)

// Validate enforces the required-field check: Host, Date, and Req must
// be non-empty after an otherwise successful parse.
func Validate(item *logitem.Item) error {
	if item.Host == "" || item.Date == "" || item.Req == "" {
		return ErrMissingRequiredField
	}
	return nil
}

// Classify runs the full classifier over an already-validated item:
// default the agent, compute its hash, evaluate the ignore-policy chain in
// order, strip the query string if configured, mark is_404/is_static, and
// compute the unique-visitor key.
func Classify(item *logitem.Item, policy Policy, opt Options) {
	if item.Agent == "" {
		item.Agent = "-"
	}
	item.AgentHash = logformat.DJB2(item.Agent)
	item.AgentHex = logformat.AgentHex(item.AgentHash)

	item.IgnoreLevel = evaluateIgnorePolicy(item, policy, opt)

	if opt.IgnoreQStr {
		if idx := strings.IndexByte(item.Req, '?'); idx >= 0 {
			item.Req = item.Req[:idx]
		}
	}

	markStaticOr404(item, opt)

	item.UniqKey = fmt.Sprintf("%s|%s|%s", item.Date, item.Host, item.AgentHex)
}

func evaluateIgnorePolicy(item *logitem.Item, policy Policy, opt Options) logitem.IgnoreLevel {
	if policy != nil && policy.ExcludedIP(item) {
		return logitem.IgnorePanel
	}

	if policy != nil {
		isCrawler := policy.IsCrawler(item.Agent)
		if opt.IgnoreCrawlers && isCrawler {
			return logitem.IgnorePanel
		}
		if opt.CrawlersOnly && !isCrawler {
			return logitem.IgnorePanel
		}
	}

	if item.Ref != nil && policy != nil {
		if policy.IgnoreReferer(*item.Ref) {
			return logitem.IgnorePanel
		}
	}

	if opt.IgnoreStatus != nil && opt.IgnoreStatus[item.Status] {
		return logitem.IgnorePanel
	}

	if isStaticAsset(item.Req, opt) {
		switch opt.IgnoreStatics {
		case StaticsIgnoreReq:
			return logitem.IgnoreReq
		case StaticsIgnorePanel:
			return logitem.IgnorePanel
		}
	}

	return logitem.Keep
}

func isStaticAsset(req string, opt Options) bool {
	path := req
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	ext := ""
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		ext = strings.ToLower(path[idx:])
	}
	if ext == "" {
		return false
	}
	if opt.AllStaticFiles {
		return true
	}
	for _, e := range opt.StaticFiles {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func markStaticOr404(item *logitem.Item, opt Options) {
	if item.Status == 404 || (opt.Code444As404 && item.Status == 444) {
		item.Is404 = true
		return
	}
	item.IsStatic = isStaticAsset(item.Req, opt)
}
