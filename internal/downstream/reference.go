package downstream

import (
	"context"
	"sync/atomic"

	"accessparse/internal/logitem"
)

// NopInserter discards every item, for callers that want parsing and
// counters without forwarding anything to a storage engine. The CLI does
// not use it.
type NopInserter struct{}

// Insert implements Inserter.
func (NopInserter) Insert(context.Context, *logitem.Item) error { return nil }

// CountingInserter accumulates a running total of inserted items, the way
// a real storage engine's write path would acknowledge a batch — used by
// the CLI when no external aggregation engine is wired in. It records only
// the count, not the call sequence.
type CountingInserter struct {
	count atomic.Int64
}

// Insert implements Inserter.
func (c *CountingInserter) Insert(_ context.Context, _ *logitem.Item) error {
	c.count.Add(1)
	return nil
}

// Count returns the number of items inserted so far.
func (c *CountingInserter) Count() int64 {
	return c.count.Load()
}

// LogCounters is a concrete Counters backed by atomics, one per log, the
// per-log counters names (processed/invalid are also mirrored directly
// on logsource.Log; LogCounters exists for callers that want the downstream
// interface rather than reaching into Log's fields).
type LogCounters struct {
	processed atomic.Int64
	processedInvalid atomic.Int64
}

// CountProcessed implements Counters.
func (c *LogCounters) CountProcessed() { c.processed.Add(1) }

// CountProcessedAndInvalid implements Counters.
func (c *LogCounters) CountProcessedAndInvalid() { c.processedInvalid.Add(1) }

// UncountProcessed implements Counters.
func (c *LogCounters) UncountProcessed() { c.processed.Add(-1) }

// UncountInvalid implements Counters.
func (c *LogCounters) UncountInvalid() { c.processedInvalid.Add(-1) }

// Processed returns the current processed count.
func (c *LogCounters) Processed() int64 { return c.processed.Load() }

// Invalid returns the current invalid count.
func (c *LogCounters) Invalid() int64 { return c.processedInvalid.Load() }

// DefaultJSONWalker implements JSONWalker with a plain top-level iteration
// over the decoded object, the same walk internal/logformat's JSON
// directive engine performs inline; it exists as a standalone value so a
// caller wiring a custom Classifiers/Inserter set can still reuse the
// built-in walk without depending on internal/logformat directly.
type DefaultJSONWalker struct{}

// Walk implements JSONWalker.
func (DefaultJSONWalker) Walk(obj map[string]any, perKV func(key string, value any) error) error {
	for k, v := range obj {
		if err := perKV(k, v); err != nil {
			return err
		}
	}
	return nil
}
