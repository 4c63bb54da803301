// Package pipeline implements the worker-pool read/parse/insert
// pipeline: a chunked reader feeding a bounded channel, N parser workers
// coordinated by golang.org/x/sync/errgroup, a sequence-gated reorder
// stage, and a single-threaded downstream inserter.
package pipeline

import "accessparse/internal/logitem"

// Chunk is a batch of raw lines read in order from a single log, tagged
// with a monotonic sequence number so the reorder stage can restore input
// order after concurrent parsing.
type Chunk struct {
	Seq uint64
	Lines [][]byte
}

// ItemOrError is one line's parse outcome: a validated Item, or the error
// that made it invalid (with the parsed Item still attached when only
// required-field validation failed), plus the 1-based line number for error
// reporting and the resume/invalid-counting gate.
type ItemOrError struct {
	Line uint64
	Bytes uint64 // length of the raw line plus its newline, for resume bookkeeping
	Item *logitem.Item
	Err error
}

// Result is one chunk's worth of parse outcomes, in the same order as the
// Chunk's Lines.
type Result struct {
	Seq uint64
	Items []ItemOrError
}

var linesPool = newLinesPool()

type linesBufPool struct {
	pool chan [][]byte
}

func newLinesPool() *linesBufPool {
	return &linesBufPool{pool: make(chan [][]byte, 64)}
}

// get returns a reusable [][]byte slice with at least capacity cap, the
// one genuinely hot allocation in the read loop that calls out for
// pooling.
func (p *linesBufPool) get(capacity int) [][]byte {
	select {
	case buf := <-p.pool:
		return buf[:0]
	default:
		return make([][]byte, 0, capacity)
	}
}

func (p *linesBufPool) put(buf [][]byte) {
	select {
	case p.pool <- buf:
	default:
	}
}
