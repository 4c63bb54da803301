// Package logsource implements the Log/Logs lifecycle: opening
// files/pipes/compressed logs, stating inodes, capturing the resume
// snippet, and (in follow mode) tailing appended lines via fsnotify.
package logsource

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	seekable "github.com/SaveTheRbtz/zstd-seekable-format-go/pkg"
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"accessparse/internal/resume"
)

// SnippetBytes is the number of leading bytes captured at open time and
// compared across runs by resume.ShouldRestoreFromDisk.
const SnippetBytes = 2048

// MaxLogErrors bounds the per-log ring of recorded line errors ('s
// "Errors[]" ring).
const MaxLogErrors = 50

// LineError records a single per-line parse failure for the end-of-run
// summary.
type LineError struct {
	Line uint64
	Err error
}

// Log is the per-input-source state the pipeline reads through: a name,
// an open reader, inode/size bookkeeping, the startup snippet, and the
// running counters reported at the end of the run.
type Log struct {
	Filename string
	IsPipe bool

	file *os.File // nil for stdin without a real descriptor we can stat
	closer io.Closer
	reader *bufio.Reader

	Inode uint64
	HasInode bool
	Size uint64

	StartTime time.Time
	Snippet []byte

	mu sync.Mutex
	lineCount uint64
	readBytes uint64

	Processed uint64
	Invalid uint64
	errIdx int
	Errors []LineError
}

// Open opens filename (or stdin, for "-"), auto-detects and unwraps
// compression by extension (.gz,.br,.zst), stats the underlying
// descriptor for its inode and size, and captures the startup snippet.
func Open(filename string) (*Log, error) {
	if filename == "-" {
		return openStdin()
	}

	f, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("logsource: open %s: %w", filename, err)
	}

	info, statErr := f.Stat()
	var inode uint64
	var hasInode bool
	var size uint64
	if statErr == nil {
		size = uint64(info.Size()) //nolint:gosec
		inode, hasInode = getInode(info)
	}

	rc, err := wrapCompressed(f, filename)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("logsource: decompress %s: %w", filename, err)
	}

	l := &Log{
		Filename: filename,
		file: f,
		closer: rc,
		reader: bufio.NewReader(rc),
		Inode: inode,
		HasInode: hasInode,
		Size: size,
		StartTime: time.Now(),
	}
	if err := l.captureSnippet(); err != nil {
		_ = l.Close()
		return nil, err
	}
	return l, nil
}

func openStdin() (*Log, error) {
	l := &Log{
		Filename: "-",
		IsPipe: true,
		closer: io.NopCloser(os.Stdin),
		reader: bufio.NewReader(os.Stdin),
		StartTime: time.Now(),
	}
	if err := l.captureSnippet(); err != nil {
		return nil, err
	}
	return l, nil
}

// wrapCompressed returns a ReadCloser over f, unwrapping.gz/.br/.zst by
// extension. Uncompressed files pass through as f itself, unwrapped. On
// success the returned closer owns f.
func wrapCompressed(f *os.File, filename string) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		return &chainedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case ".br":
		return &chainedCloser{Reader: brotli.NewReader(f), closers: []io.Closer{f}}, nil
	case ".zst":
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}
		sr, err := seekable.NewReader(f, dec)
		if err != nil {
			dec.Close()
			return nil, err
		}
		return &chainedCloser{Reader: sr, closers: []io.Closer{sr, f}}, nil
	default:
		return f, nil
	}
}

// chainedCloser closes every listed layer in order, outermost first,
// tolerating a reader (like brotli's) with no Close method of its own.
type chainedCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *chainedCloser) Close() error {
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *Log) captureSnippet() error {
	buf := make([]byte, SnippetBytes)
	n, err := io.ReadFull(l.reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("logsource: snippet read: %w", err)
	}
	l.Snippet = buf[:n]
	// Push the snippet bytes back in front of the reader so line reading
	// starts from byte 0, not SnippetBytes.
	l.reader = bufio.NewReader(io.MultiReader(strings.NewReader(string(l.Snippet)), l.reader))
	return nil
}

// ReadLine returns the next line with its trailing newline (and, for
// CRLF-terminated lines, the carriage return) stripped. io.EOF is returned
// once the underlying reader is exhausted with no more data.
func (l *Log) ReadLine() (string, error) {
	line, err := l.reader.ReadString('\n')
	if len(line) == 0 && err != nil {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	l.mu.Lock()
	l.lineCount++
	l.readBytes += uint64(len(line)) + 1 //nolint:gosec
	l.mu.Unlock()
	if err != nil && err != io.EOF {
		return line, err
	}
	if err == io.EOF && line == "" {
		return "", io.EOF
	}
	return line, nil
}

// RecordError appends a line failure to the bounded error ring, dropping
// the oldest entry once MaxLogErrors is reached (a ring, not an
// unbounded log of every failure in a badly-formatted file).
func (l *Log) RecordError(line uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	le := LineError{Line: line, Err: err}
	if len(l.Errors) < MaxLogErrors {
		l.Errors = append(l.Errors, le)
		return
	}
	l.Errors[l.errIdx] = le
	l.errIdx = (l.errIdx + 1) % MaxLogErrors
}

// LineCount returns the number of lines read so far.
func (l *Log) LineCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lineCount
}

// Fingerprint returns the resume.LastParse this log should persist after
// the current run, using ts as the last successfully extracted timestamp.
func (l *Log) Fingerprint(ts int64) resume.LastParse {
	l.mu.Lock()
	defer l.mu.Unlock()
	return resume.LastParse{
		TS: ts,
		Line: l.lineCount,
		Size: l.Size,
		Snippet: l.Snippet,
	}
}

// Summary renders the one-line end-of-run report printed on every exit
// surface: lines read, processed, invalid, and error count.
func (l *Log) Summary() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("%s: %d lines, %d processed, %d invalid, %d errors",
		l.Filename, l.lineCount, l.Processed, l.Invalid, len(l.Errors))
}

// Close releases the underlying reader/file. Safe to call once; the CLI
// defers Logs.CloseAll, which calls it for every opened log.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// getInode extracts the inode number from file info.
func getInode(info os.FileInfo) (uint64, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return stat.Ino, true
}

// Logs is an ordered collection of opened logs plus the current-target
// pointer a status reporter reads concurrently, implemented with
// atomic.Pointer instead of the design notes' spinlock (Go has no portable
// spinlock primitive, and atomic.Pointer gives the same "cheap update
// under no contention, lock-free read" property).
type Logs struct {
	items []*Log
	current atomic.Pointer[string]
}

// NewLogs opens every filename in order, closing whatever was already
// opened if any one of them fails.
func NewLogs(filenames []string) (*Logs, error) {
	ls := &Logs{}
	for _, fn := range filenames {
		l, err := Open(fn)
		if err != nil {
			ls.CloseAll()
			return nil, err
		}
		ls.items = append(ls.items, l)
	}
	return ls, nil
}

// All returns the opened logs in configured order.
func (ls *Logs) All() []*Log {
	return ls.items
}

// SetCurrent records which log is presently being consumed.
func (ls *Logs) SetCurrent(filename string) {
	name := filename
	ls.current.Store(&name)
}

// Current returns the filename most recently passed to SetCurrent, or ""
// if none has been set yet.
func (ls *Logs) Current() string {
	p := ls.current.Load()
	if p == nil {
		return ""
	}
	return *p
}

// CloseAll closes every opened log, collecting the first error.
func (ls *Logs) CloseAll() error {
	var firstErr error
	for _, l := range ls.items {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
