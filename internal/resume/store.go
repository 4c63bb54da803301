package resume

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// fileRecord is the on-disk shape: a flat map of inode -> fingerprint,
// keyed by inode instead of by path since a resume fingerprint is recorded
// per inode (or 0 for pipes) rather than by filename.
type fileRecord struct {
	Inodes map[uint64]LastParse `msgpack:"inodes"`
}

// Store is a file-backed, msgpack-encoded implementation of the
// downstream.ResumeStore interface. It is safe for concurrent use.
//
// msgpack is used because the snippet field is binary; a binary-friendly
// codec avoids a base64 round-trip on every Get/Put, which a byte-for-byte
// snippet comparison (SameSnippet) does on every decision.
type Store struct {
	path string

	mu sync.Mutex
	records fileRecord
	loaded bool
}

// NewStore returns a Store backed by path. The file is read lazily on the
// first Get or Put; a missing file is treated as empty state rather than
// an error.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	s.records = fileRecord{Inodes: make(map[uint64]LastParse)}
	if s.path == "" {
		s.loaded = true
		return nil
	}
	data, err := os.ReadFile(filepath.Clean(s.path))
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("resume: reading %s: %w", s.path, err)
	}
	var rec fileRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		// Corrupt state file; start fresh rather than failing the run.
		s.loaded = true
		return nil
	}
	if rec.Inodes == nil {
		rec.Inodes = make(map[uint64]LastParse)
	}
	s.records = rec
	s.loaded = true
	return nil
}

// Get implements downstream.ResumeStore.
func (s *Store) Get(ctx context.Context, inode uint64) (LastParse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return LastParse{}, false, err
	}
	lp, ok := s.records.Inodes[inode]
	return lp, ok, nil
}

// Put implements downstream.ResumeStore, persisting immediately via an
// atomic write-to-temp-then-rename.
func (s *Store) Put(ctx context.Context, inode uint64, lp LastParse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.records.Inodes[inode] = lp
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("resume: creating state dir: %w", err)
	}
	data, err := msgpack.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("resume: encoding state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("resume: writing temp state file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
