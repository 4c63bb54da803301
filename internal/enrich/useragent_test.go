package enrich

import (
	"testing"

	"accessparse/internal/logitem"
)

func TestSetBrowserOS_EmptyOrDashAgentIsNoop(t *testing.T) {
	for _, agent := range []string{"", "-"} {
		item := &logitem.Item{Agent: agent}
		SetBrowserOS(item)
		if item.Browser != nil || item.OS != nil {
			t.Errorf("agent %q: SetBrowserOS mutated item: %+v", agent, item)
		}
	}
}

func TestSetBrowserOS_DesktopBrowser(t *testing.T) {
	item := &logitem.Item{Agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"}
	SetBrowserOS(item)
	if item.Browser == nil || *item.Browser == "" {
		t.Error("Browser not set for a desktop Chrome UA")
	}
	if item.OS == nil || *item.OS == "" {
		t.Error("OS not set for a desktop Chrome UA")
	}
	if item.OSType == nil || *item.OSType != "windows" {
		t.Errorf("OSType = %v, want windows", item.OSType)
	}
}

func TestSetBrowserOS_MobileUA(t *testing.T) {
	item := &logitem.Item{Agent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"}
	SetBrowserOS(item)
	if item.OSType == nil || *item.OSType != "ios" {
		t.Errorf("OSType = %v, want ios", item.OSType)
	}
	if item.BrowserType == nil {
		t.Fatal("BrowserType not set for a mobile UA")
	}
}

func TestIsCrawler(t *testing.T) {
	cases := []struct {
		agent string
		want  bool
	}{
		{"", false},
		{"-", false},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36", false},
	}
	for _, c := range cases {
		if got := IsCrawler(c.agent); got != c.want {
			t.Errorf("IsCrawler(%q) = %v, want %v", c.agent, got, c.want)
		}
	}
}
