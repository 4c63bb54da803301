package logsource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"accessparse/internal/logging"
)

// Follower tails a single regular file past EOF, feeding newly appended
// lines to onLine until ctx is cancelled. Grounded directly on the
// teacher's tail ingester's readNewLines/handleFSEvent: watch the parent
// directory, react to Write/Remove/Rename (plus a periodic poll), detect inode change as
// rotation and a size decrease as truncation.
type Follower struct {
	log    *Log
	logger *slog.Logger
	onLine func(line string)
}

// NewFollower returns a Follower over an already-opened, already-drained
// Log (the caller has read it to EOF via ReadLine first).
func NewFollower(l *Log, logger *slog.Logger, onLine func(line string)) *Follower {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Follower{log: l, logger: logger, onLine: onLine}
}

// Run watches the log's parent directory and streams appended lines until
// ctx is cancelled or the file is removed/renamed away.
func (f *Follower) Run(ctx context.Context) error {
	if f.log.file == nil {
		return errors.New("logsource: cannot follow a non-regular-file log")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(f.log.Filename)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	f.drain()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != f.log.Filename {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write):
				f.drain()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				if err := f.reopen(); err != nil {
					f.logger.Warn("logsource: reopen after rotation failed", "file", f.log.Filename, "error", err)
					return nil
				}
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

		case <-ticker.C:
			// Polling fallback: some editors/log rotators replace a file
			// without emitting an event fsnotify reliably catches on every
			// platform, so a short poll tick backs the watch up.
			f.checkRotationAndDrain()
		}
	}
}

func (f *Follower) drain() {
	for {
		line, err := f.log.ReadLine()
		if line != "" {
			f.onLine(line)
		}
		if err != nil {
			if err != io.EOF {
				f.logger.Warn("logsource: follow read error", "file", f.log.Filename, "error", err)
			}
			return
		}
	}
}

func (f *Follower) checkRotationAndDrain() {
	info, err := os.Stat(f.log.Filename)
	if err != nil {
		return
	}
	newInode, ok := getInode(info)
	if ok && f.log.HasInode && newInode != f.log.Inode {
		if err := f.reopen(); err != nil {
			f.logger.Warn("logsource: reopen after inode change failed", "file", f.log.Filename, "error", err)
		}
		return
	}
	if uint64(info.Size()) < f.log.Size { //nolint:gosec
		f.logger.Info("logsource: truncation detected, resetting", "file", f.log.Filename)
		if _, err := f.log.file.Seek(0, io.SeekStart); err == nil {
			f.log.Size = 0
			f.drain()
		}
		return
	}
	f.drain()
}

// reopen closes the current descriptor and reopens the same filename after
// rotation or truncation, replacing f.log's fields in place rather than
// copying the whole struct (which embeds a sync.Mutex) so every existing
// pointer to f.log keeps observing the same identity.
func (f *Follower) reopen() error {
	_ = f.log.Close()
	l, err := Open(f.log.Filename)
	if err != nil {
		return err
	}
	f.log.file = l.file
	f.log.closer = l.closer
	f.log.reader = l.reader
	f.log.Inode = l.Inode
	f.log.HasInode = l.HasInode
	f.log.Size = l.Size
	f.log.StartTime = l.StartTime
	f.log.Snippet = l.Snippet
	return nil
}
