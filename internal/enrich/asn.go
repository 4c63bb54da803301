package enrich

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oschwald/maxminddb-golang"
	"golang.org/x/time/rate"

	"accessparse/internal/logitem"
)

// ASNInfo describes a loaded ASN MMDB database.
type ASNInfo struct {
	DatabaseType string
	BuildTime    time.Time
}

// asnRecord decodes the root-level fields a GeoLite2-ASN / GeoIP2-ASN
// database stores.
type asnRecord struct {
	Number       uint   `maxminddb:"autonomous_system_number"`
	Organization string `maxminddb:"autonomous_system_organization"`
}

// ASN resolves a validated host token to autonomous-system metadata and
// writes it onto a logitem.Item's ASN/ASOrg fields. Safe for concurrent use.
type ASN struct {
	reader atomic.Pointer[maxminddb.Reader]

	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
	reloadLim *rate.Limiter
}

// NewASN returns an ASN table with no database loaded.
func NewASN() *ASN {
	return &ASN{}
}

// Apply looks up item.Host and, on a hit, sets item.ASN and item.ASOrg.
func (a *ASN) Apply(item *logitem.Item) {
	r := a.reader.Load()
	if r == nil || item == nil {
		return
	}
	ip := net.ParseIP(item.Host)
	if ip == nil {
		return
	}
	var rec asnRecord
	if err := r.Lookup(ip, &rec); err != nil {
		return
	}
	if rec.Number != 0 {
		s := formatASN(rec.Number)
		item.ASN = &s
	}
	if rec.Organization != "" {
		item.ASOrg = &rec.Organization
	}
}

// Load opens an ASN MMDB file and swaps the atomic reader pointer.
func (a *ASN) Load(path string) (ASNInfo, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return ASNInfo{}, fmt.Errorf("enrich: open asn mmdb %q: %w", path, err)
	}
	info := ASNInfo{
		DatabaseType: r.Metadata.DatabaseType,
		BuildTime:    time.Unix(int64(r.Metadata.BuildEpoch), 0), //nolint:gosec
	}
	old := a.reader.Swap(r)
	if old != nil {
		_ = old.Close()
	}
	return info, nil
}

// WatchFile watches path for changes via fsnotify and reloads on
// write/create. Calling WatchFile again replaces any previous watch.
func (a *ASN) WatchFile(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopWatchLocked()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("enrich: create asn watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return fmt.Errorf("enrich: watch asn %q: %w", path, err)
	}

	a.watcher = w
	a.watchDone = make(chan struct{})
	a.reloadLim = rate.NewLimiter(rate.Every(reloadBurstWindow), 1)
	go a.watchLoop(w, path, a.watchDone)
	return nil
}

func (a *ASN) watchLoop(w *fsnotify.Watcher, path string, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 && a.reloadLim.Allow() {
				_, _ = a.Load(path)
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

func (a *ASN) stopWatchLocked() {
	if a.watcher != nil {
		_ = a.watcher.Close()
		<-a.watchDone
		a.watcher = nil
		a.watchDone = nil
	}
}

// Close stops the file watcher, if any, and closes the current reader.
func (a *ASN) Close() {
	a.mu.Lock()
	a.stopWatchLocked()
	a.mu.Unlock()

	if r := a.reader.Swap(nil); r != nil {
		_ = r.Close()
	}
}
