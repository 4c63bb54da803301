package pipeline

import (
	"accessparse/internal/classify"
	"accessparse/internal/downstream"
	"accessparse/internal/logformat"
)

// Options configures a pipeline run over a single logsource.Log.
type Options struct {
	Jobs int
	ChunkSize int

	// Directive-engine configuration. JSON is mutually exclusive with
	// Directives/Engine: when true, JSONOpts drives parsing instead.
	Directives []logformat.Directive
	Engine logformat.Options

	JSON bool
	JSONOpts logformat.JSONOptions

	Policy classify.Policy
	ClassifyOpts classify.Options

	Restore bool
	ResumeStore downstream.ResumeStore

	Inserter downstream.Inserter
	Counters downstream.Counters

	// NumTests is the number of leading lines to format-sniff before
	// starting the main pipeline; 0 disables sniffing.
	NumTests int
	// SniffDryRun suppresses Inserter.Insert calls during sniffing.
	SniffDryRun bool
	// ProcessAndExit makes readChunks treat a pipe's EAGAIN as EOF instead
	// of sleeping and retrying (EAGAIN handling).
	ProcessAndExit bool
}
