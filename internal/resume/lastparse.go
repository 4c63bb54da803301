// Package resume implements the dedup/resume fingerprint: a
// per-inode "last parse" record that lets a subsequent run skip lines
// already ingested by a prior run of the same log file.
package resume

// LastParse is the resume fingerprint keyed by inode (or 0 for pipes),
// and the persisted-state shape
type LastParse struct {
	TS int64 `msgpack:"ts"`
	Line uint64 `msgpack:"line"`
	Size uint64 `msgpack:"size"`
	Snippet []byte `msgpack:"snippet"`
}

// SameSnippet reports whether two fingerprints were captured from what is
// recognizably the same file: their snippets are byte-for-byte equal and
// neither is empty.
func (lp LastParse) SameSnippet(other LastParse) bool {
	if len(lp.Snippet) == 0 || len(other.Snippet) == 0 {
		return false
	}
	if len(lp.Snippet) != len(other.Snippet) {
		return false
	}
	for i := range lp.Snippet {
		if lp.Snippet[i] != other.Snippet[i] {
			return false
		}
	}
	return true
}
