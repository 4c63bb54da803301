package logformat

import "testing"

func TestExtractKeyphrase_GoogleSearch(t *testing.T) {
	ref := "https://www.google.com/search?q=load+balancer&hl=en"
	kp, ok := ExtractKeyphrase(ref)
	if !ok {
		t.Fatal("ExtractKeyphrase: expected a keyphrase")
	}
	if kp != "load balancer" {
		t.Errorf("keyphrase = %q, want %q", kp, "load balancer")
	}
}

func TestExtractKeyphrase_NonGoogleReferer(t *testing.T) {
	if _, ok := ExtractKeyphrase("https://example.com/search?q=load+balancer"); ok {
		t.Error("ExtractKeyphrase: expected no keyphrase for a non-Google referer")
	}
}

func TestExtractKeyphrase_WebCache(t *testing.T) {
	// No '&' or '?' immediately precedes "q=cache:" here, so the
	// "q=cache:<x>+" marker form (skip ahead past the next '+') is the one
	// that fires rather than "&q=" / "?q=".
	ref := "http://webcache.googleusercontent.com/q=cache:abc123+golang+channels"
	kp, ok := ExtractKeyphrase(ref)
	if !ok {
		t.Fatal("ExtractKeyphrase: expected a keyphrase from a webcache referer")
	}
	if kp != "golang channels" {
		t.Errorf("keyphrase = %q, want %q", kp, "golang channels")
	}
}

func TestExtractRefererSite(t *testing.T) {
	site := ExtractRefererSite("https://www.google.com/search?q=load+balancer&hl=en")
	if site != "www.google.com" {
		t.Errorf("site = %q, want www.google.com", site)
	}
}

func TestExtractRefererSite_Truncates(t *testing.T) {
	long := "http://"
	for i := 0; i < RefSiteLen+50; i++ {
		long += "a"
	}
	site := ExtractRefererSite(long)
	if len(site) != RefSiteLen {
		t.Errorf("len(site) = %d, want %d", len(site), RefSiteLen)
	}
}

func TestNormalizeMime(t *testing.T) {
	got := NormalizeMime("Text/HTML; charset=utf-8, Text/Plain")
	want := "text/html; charset=utf-8; text/plain"
	if got != want {
		t.Errorf("NormalizeMime = %q, want %q", got, want)
	}
}

func TestMatchCacheStatus_KnownToken(t *testing.T) {
	v, ok := MatchCacheStatus("hit")
	if !ok || v != "HIT" {
		t.Errorf("MatchCacheStatus(hit) = (%q, %v), want (HIT, true)", v, ok)
	}
}

func TestMatchCacheStatus_UnknownToken(t *testing.T) {
	if _, ok := MatchCacheStatus("whatever"); ok {
		t.Error("MatchCacheStatus: expected unknown token to be rejected")
	}
}

func TestParseRequestLine_MalformedYieldsDash(t *testing.T) {
	method, req, protocol := ParseRequestLine("garbage with no protocol")
	if req != "-" {
		t.Errorf("req = %q, want -", req)
	}
	_ = method
	_ = protocol
}

func TestDecodeURL_RoundTripsUnreservedChars(t *testing.T) {
	raw := "abc-._~123"
	decoded, ok := DecodeURL(raw, false)
	if !ok || decoded != raw {
		t.Errorf("DecodeURL(%q) = (%q, %v), want (%q, true)", raw, decoded, ok, raw)
	}
}
