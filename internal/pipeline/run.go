package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"accessparse/internal/logitem"
	"accessparse/internal/logsource"
	"accessparse/internal/resume"
)

// eagainRetryDelay mirrors the original fgetline's nanosleep: on EAGAIN
// from a non-blocking pipe, sleep and retry rather than treating it as EOF
// (unless ProcessAndExit is set).
const eagainRetryDelay = 100 * time.Millisecond

// Run drives the full read → parse → reorder → insert pipeline over a
// single opened log. It blocks until the log is exhausted (or ctx is
// cancelled), then persists the updated resume fingerprint.
func Run(ctx context.Context, log *logsource.Log, opt Options) error {
	jobs := opt.Jobs
	if jobs < 1 {
		jobs = 1
	}
	chunkSize := opt.ChunkSize
	if chunkSize < 1 {
		chunkSize = 1
	}
	opt.ChunkSize = chunkSize

	if opt.NumTests > 0 {
		if err := sniff(ctx, log, opt); err != nil {
			return err
		}
	}

	cand, err := loadCandidate(ctx, log, opt)
	if err != nil {
		return err
	}

	chunks := make(chan Chunk, jobs*2)
	results := make(chan Result, jobs*2)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	var readErr error
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer close(chunks)
		readErr = readChunks(gctx, log, opt, chunks)
	}()

	for n := 0; n < jobs; n++ {
		g.Go(func() error {
			// Workers finish every chunk the reader has queued, even after
			// cancellation, so the drain below still flushes them.
			for c := range chunks {
				results <- runChunk(c, opt)
			}
			return nil
		})
	}

	workersDone := make(chan error, 1)
	go func() {
		defer close(results)
		workersDone <- g.Wait()
	}()

	drainErr := drainResults(ctx, log, opt, cand, results)
	if drainErr != nil {
		// Keep consuming so blocked workers, and through them the reader,
		// can finish and be waited on below.
		for range results {
		}
	}

	<-readerDone
	werr := <-workersDone

	if drainErr != nil {
		return drainErr
	}
	if werr != nil && !errors.Is(werr, context.Canceled) {
		return werr
	}
	if readErr != nil && readErr != io.EOF {
		return readErr
	}

	return persistFingerprint(ctx, log, opt, cand)
}

// readChunks reads log line by line, batching up to opt.ChunkSize lines
// per Chunk, and sends each to out with a monotonically increasing Seq
// starting at 0. It returns when the log is exhausted, ctx is cancelled
// (checked between chunks), or a read error other than EOF occurs.
func readChunks(ctx context.Context, log *logsource.Log, opt Options, out chan<- Chunk) error {
	var seq uint64
	buf := linesPool.get(opt.ChunkSize)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		out <- Chunk{Seq: seq, Lines: buf}
		seq++
		buf = linesPool.get(opt.ChunkSize)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		default:
		}

		line, err := log.ReadLine()
		if err != nil {
			if errors.Is(err, syscall.EAGAIN) {
				flush()
				if opt.ProcessAndExit {
					return io.EOF
				}
				time.Sleep(eagainRetryDelay)
				continue
			}
			if line != "" {
				buf = append(buf, []byte(line))
			}
			flush()
			if err == io.EOF {
				return io.EOF
			}
			return err
		}

		buf = append(buf, []byte(line))
		if len(buf) >= opt.ChunkSize {
			flush()
		}
	}
}

// sniff implements the format-sniffing phase: read up to opt.NumTests
// lines synchronously, parsing (and, unless SniffDryRun, inserting) each.
// If none parse successfully the log is declared format-mismatched.
func sniff(ctx context.Context, log *logsource.Log, opt Options) error {
	var ok int
	for i := 0; i < opt.NumTests; i++ {
		line, err := log.ReadLine()
		if err != nil {
			break
		}
		res := parseOne(line, uint64(i)+1, opt) //nolint:gosec
		if res.Err != nil || res.Item == nil {
			continue
		}
		ok++
		if !opt.SniffDryRun && opt.Inserter != nil {
			if err := opt.Inserter.Insert(ctx, res.Item); err != nil {
				return fmt.Errorf("pipeline: sniff insert: %w", err)
			}
		}
	}
	if ok == 0 {
		return fmt.Errorf("pipeline: format mismatch: no lines of %q parsed in first %d tests", log.Filename, opt.NumTests)
	}
	return nil
}

// loadCandidate looks up the saved resume fingerprint for log's inode (0
// for pipes), returning a Candidate primed with Saved/HasSaved but an
// empty Current — handleItem fills Current per line as results drain.
func loadCandidate(ctx context.Context, log *logsource.Log, opt Options) (*resume.Candidate, error) {
	cand := &resume.Candidate{Restore: opt.Restore, HasInode: log.HasInode}
	if !opt.Restore || opt.ResumeStore == nil {
		return cand, nil
	}
	inode := log.Inode
	if !log.HasInode {
		inode = 0
	}
	saved, ok, err := opt.ResumeStore.Get(ctx, inode)
	if err != nil {
		return nil, fmt.Errorf("pipeline: resume lookup: %w", err)
	}
	cand.HasSaved = ok
	cand.Saved = saved
	return cand, nil
}

// drainResults consumes Results through the reorder buffer in strict Seq
// order and applies the resume gate, classifier ignore level, and
// downstream counters/insert calls to each line.
func drainResults(ctx context.Context, log *logsource.Log, opt Options, cand *resume.Candidate, results <-chan Result) error {
	rb := newReorderBuffer(0)
	var cumBytes uint64
	for res := range results {
		for _, r := range rb.push(res) {
			for _, ioe := range r.Items {
				cumBytes += ioe.Bytes
				if err := handleItem(ctx, log, opt, cand, ioe, cumBytes); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// handleItem applies the resume gate and counters/insert calls to one
// line's parse outcome: exactly one of inserted-and-counted,
// counted-invalid, counted-ignored (dropped silently for IgnorePanel), or
// skipped by the resume gate.
func handleItem(ctx context.Context, log *logsource.Log, opt Options, cand *resume.Candidate, ioe ItemOrError, cumBytes uint64) error {
	var ts int64
	if ioe.Item != nil {
		ts = ioe.Item.DT.Unix()
	}
	// Current.TS keeps the running maximum over the lines seen so far.
	maxTS := cand.Current.TS
	if ts > maxTS {
		maxTS = ts
	}
	cand.Current = resume.LastParse{TS: maxTS, Line: ioe.Line, Size: cumBytes, Snippet: log.Snippet}

	if ioe.Err != nil {
		if !resume.ShouldCountInvalid(*cand, ts) {
			return nil
		}
		log.RecordError(ioe.Line, ioe.Err)
		log.Invalid++
		if opt.Counters != nil {
			opt.Counters.CountProcessedAndInvalid()
		}
		return nil
	}

	if !resume.ShouldRestoreFromDisk(*cand) {
		return nil
	}

	item := ioe.Item
	if item.IgnoreLevel == logitem.IgnorePanel {
		return nil
	}

	if opt.Inserter != nil {
		if err := opt.Inserter.Insert(ctx, item); err != nil {
			return fmt.Errorf("pipeline: insert: %w", err)
		}
	}
	log.Processed++
	if opt.Counters != nil {
		opt.Counters.CountProcessed()
	}
	return nil
}

// persistFingerprint writes back the updated LastParse for log's inode (0
// for pipes) once the run completes.
func persistFingerprint(ctx context.Context, log *logsource.Log, opt Options, cand *resume.Candidate) error {
	if opt.ResumeStore == nil {
		return nil
	}
	inode := log.Inode
	if !log.HasInode {
		inode = 0
	}
	lp := cand.Current
	if lp.Snippet == nil {
		lp.Snippet = log.Snippet
	}
	if err := opt.ResumeStore.Put(ctx, inode, lp); err != nil {
		return fmt.Errorf("pipeline: resume save: %w", err)
	}
	return nil
}
