package classify

import (
	"testing"

	"accessparse/internal/logitem"
)

type fakePolicy struct {
	excludedIPs map[string]bool
	crawler     bool
	hide        map[string]bool
	ignore      map[string]bool
}

func (p fakePolicy) ExcludedIP(item *logitem.Item) bool { return p.excludedIPs[item.Host] }
func (p fakePolicy) IsCrawler(string) bool              { return p.crawler }
func (p fakePolicy) HideReferer(site string) bool       { return p.hide[site] }
func (p fakePolicy) IgnoreReferer(ref string) bool      { return p.ignore[ref] }

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		item *logitem.Item
		want bool
	}{
		{"complete", &logitem.Item{Host: "1.2.3.4", Date: "20260101", Req: "/"}, true},
		{"missing host", &logitem.Item{Date: "20260101", Req: "/"}, false},
		{"missing date", &logitem.Item{Host: "1.2.3.4", Req: "/"}, false},
		{"missing req", &logitem.Item{Host: "1.2.3.4", Date: "20260101"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Validate(c.item)
			if (err == nil) != c.want {
				t.Errorf("Validate() error = %v, want ok=%v", err, c.want)
			}
		})
	}
}

func TestClassify_ExcludedIPWinsOverEverythingElse(t *testing.T) {
	item := &logitem.Item{Host: "9.9.9.9", Req: "/index.html", Status: 200}
	policy := fakePolicy{excludedIPs: map[string]bool{"9.9.9.9": true}}
	Classify(item, policy, Options{})
	if item.IgnoreLevel != logitem.IgnorePanel {
		t.Errorf("IgnoreLevel = %v, want IgnorePanel", item.IgnoreLevel)
	}
}

func TestClassify_CrawlerPolicy(t *testing.T) {
	item := &logitem.Item{Host: "1.2.3.4", Req: "/", Status: 200}
	policy := fakePolicy{crawler: true}
	Classify(item, policy, Options{IgnoreCrawlers: true})
	if item.IgnoreLevel != logitem.IgnorePanel {
		t.Errorf("IgnoreLevel = %v, want IgnorePanel for ignored crawler", item.IgnoreLevel)
	}
}

func TestClassify_StaticAssetIgnoreReq(t *testing.T) {
	item := &logitem.Item{Host: "1.2.3.4", Req: "/app.css", Status: 200}
	Classify(item, fakePolicy{}, Options{IgnoreStatics: StaticsIgnoreReq, StaticFiles: []string{".css"}})
	if item.IgnoreLevel != logitem.IgnoreReq {
		t.Errorf("IgnoreLevel = %v, want IgnoreReq", item.IgnoreLevel)
	}
	if !item.IsStatic {
		t.Error("IsStatic = false, want true")
	}
}

func TestClassify_Code444As404(t *testing.T) {
	item := &logitem.Item{Host: "1.2.3.4", Req: "/", Status: 444}
	Classify(item, fakePolicy{}, Options{Code444As404: true})
	if !item.Is404 {
		t.Error("Is404 = false, want true when code444-as-404 is set")
	}
}

func TestClassify_IgnoreQStrStripsQuery(t *testing.T) {
	item := &logitem.Item{Host: "1.2.3.4", Req: "/search?q=x", Status: 200}
	Classify(item, fakePolicy{}, Options{IgnoreQStr: true})
	if item.Req != "/search" {
		t.Errorf("Req = %q, want /search", item.Req)
	}
}

func TestClassify_DefaultsAgentAndComputesUniqKey(t *testing.T) {
	item := &logitem.Item{Host: "1.2.3.4", Req: "/", Status: 200, Date: "20260101"}
	Classify(item, fakePolicy{}, Options{})
	if item.Agent != "-" {
		t.Errorf("Agent = %q, want -", item.Agent)
	}
	if item.UniqKey == "" {
		t.Error("UniqKey is empty")
	}
}
