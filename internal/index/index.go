// Package index maintains the in-memory fingerprint → record id mapping used
// for duplicate detection.
//
// The index mirrors the stored record list: every fingerprint present in any
// stored record appears at most once. It is rebuilt wholesale at startup and
// kept in sync incrementally by the engine; Rebuild must run before the
// poller's first tick. The index itself is not goroutine-safe — the engine's
// mutex covers it together with the record list it mirrors.
package index

import "go.clipvault.dev/clipvault/internal/record"

// Index maps content fingerprints to record ids.
type Index struct {
	byFP map[string]string
}

// New returns an empty index.
func New() *Index {
	return &Index{byFP: make(map[string]string)}
}

// Rebuild replaces the index contents from the full record list. Image
// records register both the full-image and the thumbnail fingerprint, so a
// paste-back that only has thumbnail bytes still resolves to the record.
func (ix *Index) Rebuild(records []record.Record) {
	ix.byFP = make(map[string]string, len(records))
	for _, r := range records {
		ix.byFP[r.Hash] = r.ID
		if r.ThumbHash != "" {
			ix.byFP[r.ThumbHash] = r.ID
		}
	}
}

// Lookup returns the record id bound to fp, if any.
func (ix *Index) Lookup(fp string) (string, bool) {
	id, ok := ix.byFP[fp]
	return id, ok
}

// Put binds fp to id, replacing any previous binding.
func (ix *Index) Put(fp, id string) {
	ix.byFP[fp] = id
}

// Remove deletes the binding for fp.
func (ix *Index) Remove(fp string) {
	delete(ix.byFP, fp)
}

// Len returns the number of registered fingerprints.
func (ix *Index) Len() int { return len(ix.byFP) }
