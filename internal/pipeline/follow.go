package pipeline

import (
	"context"
	"fmt"

	"accessparse/internal/logsource"
	"accessparse/internal/resume"
)

// LineHandler parses and dispatches lines arriving one at a time from a
// logsource.Follower, reusing the same parse → classify → resume-gate →
// insert path a batched Run uses, but without chunking or reordering since
// a tail only ever produces lines in order.
type LineHandler struct {
	log      *logsource.Log
	opt      Options
	cand     *resume.Candidate
	lineNo   uint64
	cumBytes uint64
}

// NewLineHandler starts counting lines and bytes from log's current
// position, so a follower attached mid-file continues the same sequence
// Run left off at.
func NewLineHandler(log *logsource.Log, opt Options) *LineHandler {
	return &LineHandler{
		log:      log,
		opt:      opt,
		cand:     &resume.Candidate{Restore: opt.Restore, HasInode: log.HasInode},
		lineNo:   log.LineCount(),
		cumBytes: 0,
	}
}

// Handle parses one line and applies the same counters/insert contract
// handleItem does for a batched run.
func (h *LineHandler) Handle(ctx context.Context, line string) error {
	h.lineNo++
	ioe := parseOne(line, h.lineNo, h.opt)
	h.cumBytes += ioe.Bytes
	if err := handleItem(ctx, h.log, h.opt, h.cand, ioe, h.cumBytes); err != nil {
		return fmt.Errorf("pipeline: follow: %w", err)
	}
	return nil
}

// Flush persists the current resume fingerprint, the way Run does at the
// end of a batch — a follower calls this periodically or on shutdown.
func (h *LineHandler) Flush(ctx context.Context) error {
	return persistFingerprint(ctx, h.log, h.opt, h.cand)
}
