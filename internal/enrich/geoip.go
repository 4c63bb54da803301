// Package enrich provides concrete implementations of the classifier
// seam (downstream.Classifiers): GeoIP/ASN lookup, browser/OS/crawler
// detection, and the exclusion sets.
package enrich

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oschwald/maxminddb-golang"
	"golang.org/x/time/rate"

	"accessparse/internal/logitem"
)

// reloadBurstWindow bounds how often a watched MMDB reload may fire; a
// download or rsync of a new database tends to emit several Write events in
// quick succession, and re-opening the file on every one of them is wasted
// work for no behavioural benefit.
const reloadBurstWindow = 2 * time.Second

// GeoIPInfo describes a loaded country/continent MMDB database.
type GeoIPInfo struct {
	DatabaseType string
	BuildTime time.Time
}

// geoRecord decodes only the fields item.Country and item.Continent need
// from a GeoLite2-Country / GeoIP2-Country database.
type geoRecord struct {
	Continent struct {
		Code string `maxminddb:"code"`
	} `maxminddb:"continent"`
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// GeoIP resolves a validated host token to country/continent metadata and
// writes it directly onto a logitem.Item rather than returning a generic
// string map — there is exactly one consumer of this table (the
// classifier), so the indirection buys nothing. Safe for concurrent use;
// the reader is swapped atomically so a hot reload never blocks an
// in-flight lookup.
type GeoIP struct {
	reader atomic.Pointer[maxminddb.Reader]

	mu sync.Mutex
	watcher *fsnotify.Watcher
	watchDone chan struct{}
	reloadLim *rate.Limiter
}

// NewGeoIP returns a GeoIP table with no database loaded. Apply is a no-op
// until Load succeeds.
func NewGeoIP() *GeoIP {
	return &GeoIP{}
}

// Apply looks up item.Host and, on a hit, sets item.Country and
// item.Continent. It is a no-op if no database has been loaded or the host
// does not parse as an IP (e.g. a hostname %h kept with IP validation off).
func (g *GeoIP) Apply(item *logitem.Item) {
	r := g.reader.Load()
	if r == nil || item == nil {
		return
	}
	ip := net.ParseIP(item.Host)
	if ip == nil {
		return
	}
	var rec geoRecord
	if err := r.Lookup(ip, &rec); err != nil {
		return
	}
	if rec.Country.ISOCode != "" {
		item.Country = &rec.Country.ISOCode
	}
	if rec.Continent.Code != "" {
		item.Continent = &rec.Continent.Code
	}
}

// Load opens an MMDB file and swaps the atomic reader pointer, closing the
// previous reader once the swap completes.
func (g *GeoIP) Load(path string) (GeoIPInfo, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return GeoIPInfo{}, fmt.Errorf("enrich: open geoip mmdb %q: %w", path, err)
	}
	info := GeoIPInfo{
		DatabaseType: r.Metadata.DatabaseType,
		BuildTime: time.Unix(int64(r.Metadata.BuildEpoch), 0), //nolint:gosec
	}
	old := g.reader.Swap(r)
	if old != nil {
		_ = old.Close()
	}
	return info, nil
}

// WatchFile watches path for changes via fsnotify and reloads on
// write/create. Calling WatchFile again replaces any previous watch.
func (g *GeoIP) WatchFile(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopWatchLocked()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("enrich: create geoip watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return fmt.Errorf("enrich: watch geoip %q: %w", path, err)
	}

	g.watcher = w
	g.watchDone = make(chan struct{})
	g.reloadLim = rate.NewLimiter(rate.Every(reloadBurstWindow), 1)
	go g.watchLoop(w, path, g.watchDone)
	return nil
}

func (g *GeoIP) watchLoop(w *fsnotify.Watcher, path string, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 && g.reloadLim.Allow() {
				_, _ = g.Load(path)
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

func (g *GeoIP) stopWatchLocked() {
	if g.watcher != nil {
		_ = g.watcher.Close()
		<-g.watchDone
		g.watcher = nil
		g.watchDone = nil
	}
}

// Close stops the file watcher, if any, and closes the current reader.
func (g *GeoIP) Close() {
	g.mu.Lock()
	g.stopWatchLocked()
	g.mu.Unlock()

	if r := g.reader.Swap(nil); r != nil {
		_ = r.Close()
	}
}

// formatASN renders an autonomous system number the way MaxMind's own
// tooling does: "AS" followed by the decimal number.
func formatASN(n uint) string {
	return "AS" + strconv.FormatUint(uint64(n), 10)
}
