// Package logging provides utilities for structured logging across the system.
//
// Design principles:
//   - Logging is dependency-injected, never global
//   - Each component owns its own scoped logger
//   - Logger scoping happens once at construction time
//   - slog.With() is used to attach default attributes
//   - If no logger is provided, a discard logger is used
//
// Global configuration (output format, level, destination) belongs only in main().
// Components must never call slog.SetDefault or access global loggers.
//
// Logging is intentionally sparse:
//   - No logging inside tight loops (directive parsing, per-line classification)
//   - Lifecycle boundaries are the intended log points: log open/close, format
//     sniff result, pipeline start/drain, resume store load/save, enrichment
//     database reload.
package logging

import (
	"context"
	"log/slog"
	"sync"
)

// discardHandler is a handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output.
// Use this as a default when no logger is provided.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns the provided logger if non-nil, otherwise returns a discard logger.
// This is the standard pattern for optional logger parameters:
//
//	func NewComponent(logger *slog.Logger) *Component {
//	    logger = logging.Default(logger)
//	    return &Component{logger: logger.With("component", "name")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// ComponentFilterHandler wraps a base slog.Handler and allows the minimum
// level to be raised or lowered per "component" attribute at runtime, without
// touching the base handler's own level configuration. It exists so that a
// single long-running invocation (e.g. --follow mode watching several log
// sources) can turn on verbose logging for one component — say, the resume
// store while diagnosing a restore decision — without flooding the output
// with debug lines from every other component.
type componentLevels struct {
	mu     sync.RWMutex
	levels map[string]slog.Level
}

type ComponentFilterHandler struct {
	base         slog.Handler
	defaultLevel slog.Level
	state        *componentLevels
}

// NewComponentFilterHandler wraps base, applying defaultLevel to any record
// whose "component" attribute (set via logger.With("component", name) or
// directly on the call) has no override.
func NewComponentFilterHandler(base slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		base:         base,
		defaultLevel: defaultLevel,
		state:        &componentLevels{levels: make(map[string]slog.Level)},
	}
}

// SetLevel overrides the minimum level for a single component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.levels[component] = level
}

// ClearLevel removes a component's override, reverting it to DefaultLevel.
func (h *ComponentFilterHandler) ClearLevel(component string) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	delete(h.state.levels, component)
}

// Level returns the effective minimum level for component.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	if lvl, ok := h.state.levels[component]; ok {
		return lvl
	}
	return h.defaultLevel
}

// DefaultLevel returns the level applied to records with no component attribute
// or with a component that has no override.
func (h *ComponentFilterHandler) DefaultLevel() slog.Level {
	return h.defaultLevel
}

// componentHandler wraps base, remembering any "component" attribute attached
// via With so Handle can find it even when the call site sets no attrs at all.
type componentHandler struct {
	filter    *ComponentFilterHandler
	base      slog.Handler
	component string // "" if no component attr has been attached yet
}

func (h *ComponentFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Without a component attribute we can't yet know the effective level;
	// Handle performs the authoritative check. Here we only apply a coarse
	// pre-filter against the lowest level currently in effect for anything,
	// so callers that never touch a raised component still short-circuit.
	if level >= h.DefaultLevel() {
		return true
	}
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	for _, lvl := range h.state.levels {
		if level >= lvl {
			return true
		}
	}
	return false
}

func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := ""
	r.Attrs(func(a slog.Attr) bool {
			if a.Key == "component" {
				component = a.Value.String()
				return false
			}
			return true
	})
	if r.Level < h.Level(component) {
		return nil
	}
	return h.base.Handle(ctx, r)
}

func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := ""
	for _, a := range attrs {
		if a.Key == "component" {
			component = a.Value.String()
		}
	}
	base := h.base.WithAttrs(attrs)
	if component == "" {
		return &ComponentFilterHandler{base: base, defaultLevel: h.defaultLevel, state: h.state}
	}
	return &componentHandler{filter: h, base: base, component: component}
}

func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	return &ComponentFilterHandler{base: h.base.WithGroup(name), defaultLevel: h.defaultLevel, state: h.state}
}

func (h *componentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.filter.Level(h.component)
}

func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.filter.Level(h.component) {
		return nil
	}
	return h.base.Handle(ctx, r)
}

func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			component = a.Value.String()
		}
	}
	return &componentHandler{filter: h.filter, base: h.base.WithAttrs(attrs), component: component}
}

func (h *componentHandler) WithGroup(name string) slog.Handler {
	return &componentHandler{filter: h.filter, base: h.base.WithGroup(name), component: h.component}
}
