package pipeline

import (
	"fmt"

	"accessparse/internal/classify"
	"accessparse/internal/logformat"
	"accessparse/internal/logitem"
)

// parseLine dispatches to the JSON directive engine or the plain directive
// engine depending on opt.JSON.
func parseLine(line string, opt Options) (*logitem.Item, error) {
	if opt.JSON {
		item, err := logformat.ParseJSONLine([]byte(line), opt.JSONOpts)
		if err != nil {
			return nil, fmt.Errorf("pipeline: json parse: %w", err)
		}
		return item, nil
	}
	item, err := logformat.ParseLine(opt.Directives, line, opt.Engine)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parse: %w", err)
	}
	return item, nil
}

// parseOne runs the directive engine, then required-field validation, then
// classification, over a single raw line. On a directive failure Item is
// nil and Err is set; when a required field is missing, the parsed Item is
// kept beside Err so the invalid-count gate can read its timestamp. An
// outcome with Err set is never inserted.
func parseOne(line string, lineNo uint64, opt Options) ItemOrError {
	nbytes := uint64(len(line)) + 1 //nolint:gosec
	parsed, err := parseLine(line, opt)
	if err != nil {
		return ItemOrError{Line: lineNo, Bytes: nbytes, Err: err}
	}
	if err := classify.Validate(parsed); err != nil {
		return ItemOrError{Line: lineNo, Bytes: nbytes, Item: parsed, Err: err}
	}
	classify.Classify(parsed, opt.Policy, opt.ClassifyOpts)
	return ItemOrError{Line: lineNo, Bytes: nbytes, Item: parsed}
}

// runChunk parses every line in c, preserving input order within the
// chunk.
func runChunk(c Chunk, opt Options) Result {
	res := Result{Seq: c.Seq, Items: make([]ItemOrError, len(c.Lines))}
	base := c.Seq*uint64(opt.ChunkSize) + 1 //nolint:gosec
	for i, raw := range c.Lines {
		res.Items[i] = parseOne(string(raw), base+uint64(i), opt)
	}
	linesPool.put(c.Lines)
	return res
}
