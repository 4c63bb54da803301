package resume

// Candidate bundles everything ShouldRestoreFromDisk needs to decide whether
// a log's current state should be treated as already ingested.
type Candidate struct {
	// Restore is false if resume/dedup was not requested for this run at all
	// (the --restore config flag); in that case every line is processed.
	Restore bool

	// HasInode is false for pipes, which have no stable inode to key a
	// fingerprint on.
	HasInode bool

	// HasSaved is false if no LastParse was found for this inode (first run).
	HasSaved bool
	Saved LastParse

	Current LastParse
}

// ShouldRestoreFromDisk implements the exact decision table, reproduced
// here as a literal ordered sequence of checks rather than refactored into
// a differently-ordered set of comparisons — the ordering itself encodes
// the "prefer missing lines over double-counting" tie-break in the final
// fallback branch. It returns true to process the current state, false to
// drop it as already ingested.
func ShouldRestoreFromDisk(c Candidate) bool {
	// No restore requested, or no prior LastParse.ts => process.
	if !c.Restore || !c.HasSaved || c.Saved.TS == 0 {
		return true
	}

	sameSnippet := c.Current.SameSnippet(c.Saved)

	// Same snippet AND current size > saved size AND current line >= saved line => process.
	if sameSnippet && c.Current.Size > c.Saved.Size && c.Current.Line >= c.Saved.Line {
		return true
	}

	// Same snippet (otherwise) => drop.
	if sameSnippet {
		return false
	}

	// No inode (pipe), current timestamp <= saved timestamp => drop.
	if !c.HasInode && c.Current.TS <= c.Saved.TS {
		return false
	}

	// Current timestamp > saved timestamp => process.
	if c.Current.TS > c.Saved.TS {
		return true
	}

	// Current size < saved size AND timestamps equal => process (assume truncation).
	if c.Current.Size < c.Saved.Size && c.Current.TS == c.Saved.TS {
		return true
	}

	// Otherwise => drop (conservative: prefer missing lines over double-counting).
	return false
}

// ShouldCountInvalid applies the same gate to invalid-line counting, but
// additionally suppresses the count if no timestamp was extractable from
// the line (ts == 0).
func ShouldCountInvalid(c Candidate, extractedTS int64) bool {
	if extractedTS == 0 {
		return false
	}
	return ShouldRestoreFromDisk(c)
}
