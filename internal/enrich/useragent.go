package enrich

import (
	"strings"

	"github.com/mileusna/useragent"

	"accessparse/internal/logitem"
)

// SetBrowserOS parses item.Agent and fills Browser/BrowserType/OS/OSType,
// implementing the downstream.Classifiers seam's set_browser_os. It is a
// pure function of the Agent string; there is nothing to cache or reload
// the way the MMDB-backed lookups do.
func SetBrowserOS(item *logitem.Item) {
	if item == nil || item.Agent == "" || item.Agent == "-" {
		return
	}
	ua := useragent.Parse(item.Agent)

	if ua.Name != "" {
		item.Browser = &ua.Name
	}
	item.BrowserType = browserType(ua)

	if ua.OS != "" {
		item.OS = &ua.OS
	}
	item.OSType = osType(ua)
}

func browserType(ua useragent.UserAgent) *string {
	var t string
	switch {
	case ua.Bot:
		t = "crawler"
	case ua.Tablet:
		t = "tablet"
	case ua.Mobile:
		t = "mobile"
	case ua.Desktop:
		t = "desktop"
	default:
		return nil
	}
	return &t
}

func osType(ua useragent.UserAgent) *string {
	os := strings.ToLower(ua.OS)
	var t string
	switch {
	case os == "":
		return nil
	case strings.Contains(os, "ios"), strings.Contains(os, "iphone"), strings.Contains(os, "ipad"):
		t = "ios"
	case strings.Contains(os, "android"):
		t = "android"
	case strings.Contains(os, "mac"):
		t = "macos"
	case strings.Contains(os, "windows"):
		t = "windows"
	case strings.Contains(os, "linux"):
		t = "linux"
	default:
		return nil
	}
	return &t
}

// IsCrawler reports whether agent is a known bot/crawler user agent,
// implementing the downstream.Classifiers seam's is_crawler.
func IsCrawler(agent string) bool {
	if agent == "" || agent == "-" {
		return false
	}
	return useragent.Parse(agent).Bot
}
