package enrich

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"

	"accessparse/internal/logitem"
)

func TestGeoIP_ApplyNilReader(t *testing.T) {
	g := NewGeoIP()
	defer g.Close()

	item := &logitem.Item{Host: "8.8.8.8"}
	g.Apply(item)
	if item.Country != nil || item.Continent != nil {
		t.Errorf("Apply with nil reader mutated item: %+v", item)
	}
}

func TestGeoIP_ApplyInvalidHost(t *testing.T) {
	g := NewGeoIP()
	defer g.Close()

	item := &logitem.Item{Host: "not-an-ip"}
	g.Apply(item)
	if item.Country != nil {
		t.Errorf("Apply on non-IP host set Country = %v, want nil", item.Country)
	}
}

func TestGeoIP_LoadBadPath(t *testing.T) {
	g := NewGeoIP()
	defer g.Close()

	if _, err := g.Load("/nonexistent/path.mmdb"); err == nil {
		t.Error("Load bad path: expected error, got nil")
	}
}

func TestGeoIP_LoadBadFile(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "bad.mmdb")
	if err := os.WriteFile(tmp, []byte("not a valid mmdb"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := NewGeoIP()
	defer g.Close()

	if _, err := g.Load(tmp); err == nil {
		t.Error("Load bad file: expected error, got nil")
	}
}

// generateTestGeoMMDB creates a minimal country/continent MMDB in a temp
// directory:
//   - 8.8.8.8/32: country=US, continent=NA
//   - 1.1.1.1/32: continent only (no country — tests partial data)
func generateTestGeoMMDB(t *testing.T) string {
	t.Helper()

	tree, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType:            "Test-GeoIP-Country",
		RecordSize:              24,
		IncludeReservedNetworks: true,
	})
	if err != nil {
		t.Fatalf("mmdbwriter.New: %v", err)
	}

	_, net8, _ := net.ParseCIDR("8.8.8.8/32")
	if err := tree.Insert(net8, mmdbtype.Map{
		"country":   mmdbtype.Map{"iso_code": mmdbtype.String("US")},
		"continent": mmdbtype.Map{"code": mmdbtype.String("NA")},
	}); err != nil {
		t.Fatalf("Insert 8.8.8.8: %v", err)
	}

	_, net1, _ := net.ParseCIDR("1.1.1.1/32")
	if err := tree.Insert(net1, mmdbtype.Map{
		"continent": mmdbtype.Map{"code": mmdbtype.String("OC")},
	}); err != nil {
		t.Fatalf("Insert 1.1.1.1: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.mmdb")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	defer f.Close()

	if _, err := tree.WriteTo(f); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return path
}

func TestGeoIP_LoadAndApply(t *testing.T) {
	path := generateTestGeoMMDB(t)

	g := NewGeoIP()
	defer g.Close()

	info, err := g.Load(path)
	if err != nil {
		t.Fatalf("Load(%q): %v", path, err)
	}
	if info.DatabaseType != "Test-GeoIP-Country" {
		t.Errorf("DatabaseType = %q, want %q", info.DatabaseType, "Test-GeoIP-Country")
	}
	if info.BuildTime.IsZero() {
		t.Error("BuildTime is zero")
	}

	item := &logitem.Item{Host: "8.8.8.8"}
	g.Apply(item)
	if item.Country == nil || *item.Country != "US" {
		t.Errorf("Country = %v, want US", item.Country)
	}
	if item.Continent == nil || *item.Continent != "NA" {
		t.Errorf("Continent = %v, want NA", item.Continent)
	}
}

func TestGeoIP_ApplyPartialAndMiss(t *testing.T) {
	path := generateTestGeoMMDB(t)

	g := NewGeoIP()
	defer g.Close()

	if _, err := g.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	item := &logitem.Item{Host: "1.1.1.1"}
	g.Apply(item)
	if item.Country != nil {
		t.Errorf("Country = %v, want nil", item.Country)
	}
	if item.Continent == nil || *item.Continent != "OC" {
		t.Errorf("Continent = %v, want OC", item.Continent)
	}

	miss := &logitem.Item{Host: "10.0.0.1"}
	g.Apply(miss)
	if miss.Country != nil || miss.Continent != nil {
		t.Errorf("Apply on private IP mutated item: %+v", miss)
	}
}

func TestGeoIP_LoadSwapsReader(t *testing.T) {
	path := generateTestGeoMMDB(t)

	g := NewGeoIP()
	defer g.Close()

	if _, err := g.Load(path); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if _, err := g.Load(path); err != nil {
		t.Fatalf("second Load: %v", err)
	}

	item := &logitem.Item{Host: "8.8.8.8"}
	g.Apply(item)
	if item.Country == nil {
		t.Fatal("Apply after swap did not populate Country")
	}
}
