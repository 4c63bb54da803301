// Package runtimestate holds the handful of mutable, concurrently-accessed
// flags that the rest of the system would otherwise keep on a global config
// struct. Carving them out as explicit atomic fields on a small struct shared
// by reference is the redesign the original's global mutable conf calls for:
// everything else about a run is decided once at startup and frozen into an
// immutable config.Context; only these flags genuinely change while workers
// are running concurrently.
package runtimestate

import "sync/atomic"

// State is shared by reference across the reader, workers, and inserter for
// the duration of one pipeline run.
type State struct {
	// BandwidthSeen is set once, the first time any %b directive successfully
	// parses a nonzero byte count, via CompareAndSwap(false, true).
	BandwidthSeen atomic.Bool

	// ServeUsecsSeen is set once, the first time any of %L/%T/%D/%n
	// successfully parses a nonzero serve time, via CompareAndSwap(false, true).
	ServeUsecsSeen atomic.Bool
}

// New returns a fresh, zeroed State.
func New() *State {
	return &State{}
}

// SetOnce sets flag to true and reports whether this call was the one that
// changed it from false to true.
func SetOnce(flag *atomic.Bool) bool {
	return flag.CompareAndSwap(false, true)
}
