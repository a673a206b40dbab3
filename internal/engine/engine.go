// Package engine implements the clipboard history core: the ingest pipeline,
// the retention sweeper, the query engine, and the explicit move/delete/
// favorite operations.
//
// The engine owns the record list, the favorites set, and the hash index as
// one unit. A single mutex covers every read-modify-write across all three,
// so a query or move racing an in-flight ingest observes either the pre- or
// post-ingest state, never a half-updated list or an index lagging the list
// it mirrors. Every mutation is written through to the durable store while
// the mutex is held.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.clipvault.dev/clipvault/internal/classify"
	"go.clipvault.dev/clipvault/internal/index"
	"go.clipvault.dev/clipvault/internal/record"
	"go.clipvault.dev/clipvault/internal/store"
	"go.clipvault.dev/clipvault/internal/thumb"
)

// MaxQueryResults bounds the size of a single query response.
const MaxQueryResults = 500

// Engine is the record-store core.
type Engine struct {
	mu      sync.Mutex
	st      store.Store
	idx     *index.Index
	records []record.Record
	favs    map[string]bool

	maxRecords    int
	retentionDays int

	now func() time.Time // test seam

	subMu sync.RWMutex
	subs  map[chan record.Event]struct{}
}

// New loads the persisted state from st and rebuilds the hash index. The
// returned engine is ready for the poller's first tick.
func New(st store.Store, maxRecords, retentionDays int) (*Engine, error) {
	recs, err := st.Records()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	favs, err := st.Favorites()
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	ix := index.New()
	ix.Rebuild(recs)

	return &Engine{
		st:            st,
		idx:           ix,
		records:       recs,
		favs:          favs,
		maxRecords:    maxRecords,
		retentionDays: retentionDays,
		now:           time.Now,
		subs:          make(map[chan record.Event]struct{}),
	}, nil
}

// Subscribe registers a listener channel for change events. Delivery is
// best-effort: a full channel drops the event rather than blocking ingest.
func (e *Engine) Subscribe() chan record.Event {
	ch := make(chan record.Event, 16)
	e.subMu.Lock()
	e.subs[ch] = struct{}{}
	e.subMu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel.
func (e *Engine) Unsubscribe(ch chan record.Event) {
	e.subMu.Lock()
	delete(e.subs, ch)
	e.subMu.Unlock()
}

// Subscribers returns the number of registered listeners.
func (e *Engine) Subscribers() int {
	e.subMu.RLock()
	defer e.subMu.RUnlock()
	return len(e.subs)
}

func (e *Engine) publish(ev record.Event) {
	e.subMu.RLock()
	defer e.subMu.RUnlock()
	for ch := range e.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("event subscriber channel full, dropping", "event", ev.Kind)
		}
	}
}

// IngestText processes one observed text clipboard value.
func (e *Engine) IngestText(text string) {
	fp := record.FingerprintText(text)
	e.ingest(fp, func(tsMillis int64) record.Record {
		return record.Record{
			ID:   record.NewID(fp, tsMillis),
			Hash: fp,
			Kind: classify.Classify(text),
			Text: text,
			TS:   tsMillis,
			Tags: []string{},
		}
	})
}

// IngestImage processes one observed image clipboard payload (PNG bytes).
// The stored payload is a downscaled thumbnail; both the full-image and the
// thumbnail fingerprint are registered in the index.
func (e *Engine) IngestImage(png []byte) {
	fp := record.Fingerprint(png)
	e.ingest(fp, func(tsMillis int64) record.Record {
		preview, err := thumb.Downscale(png)
		if err != nil {
			slog.Warn("thumbnail generation failed, storing original", "err", err)
			preview = png
		}
		return record.Record{
			ID:        record.NewID(fp, tsMillis),
			Hash:      fp,
			ThumbHash: record.Fingerprint(preview),
			Kind:      record.KindImage,
			ImageData: preview,
			TS:        tsMillis,
			Tags:      []string{},
		}
	})
}

// ingest runs the new-vs-duplicate decision for fp, then the retention
// sweep, emitting the resulting events. build constructs the record only on
// the new path so image thumbnailing is skipped for repeats.
func (e *Engine) ingest(fp string, build func(tsMillis int64) record.Record) {
	e.mu.Lock()
	events := e.ingestLocked(fp, build)
	if pruned := e.sweepLocked(); len(pruned) > 0 {
		events = append(events, record.Event{Kind: record.EventPruned, RemovedIDs: pruned})
	}
	e.mu.Unlock()

	for _, ev := range events {
		e.publish(ev)
	}
}

func (e *Engine) ingestLocked(fp string, build func(tsMillis int64) record.Record) []record.Event {
	if id, ok := e.idx.Lookup(fp); ok {
		// Duplicate: move the existing record to the top, all fields
		// (ts included) untouched.
		k := e.indexOfLocked(id)
		if k < 0 {
			// Index out of sync with the list; recover by rebuilding.
			slog.Error("index referenced missing record, rebuilding", "id", id)
			e.idx.Rebuild(e.records)
			return nil
		}
		if k == 0 {
			// Re-copy of the front-most value: nothing to do, no event.
			return nil
		}
		r := e.records[k]
		e.records = append(e.records[:k], e.records[k+1:]...)
		e.records = append([]record.Record{r}, e.records...)
		e.persistRecordsLocked()
		slog.Debug("record moved to top", "id", r.ID, "from", k)
		return []record.Event{{Kind: record.EventMoved, ID: r.ID, FromIndex: k}}
	}

	rec := build(e.now().UnixMilli())
	e.records = append([]record.Record{rec}, e.records...)
	if e.maxRecords > 0 && len(e.records) > e.maxRecords {
		for _, dropped := range e.records[e.maxRecords:] {
			e.removeFromIndexLocked(dropped)
		}
		e.records = e.records[:e.maxRecords]
	}
	e.idx.Put(rec.Hash, rec.ID)
	if rec.ThumbHash != "" {
		e.idx.Put(rec.ThumbHash, rec.ID)
	}
	e.persistRecordsLocked()
	slog.Debug("record created", "id", rec.ID, "kind", rec.Kind)
	return []record.Event{{Kind: record.EventCreated, Record: &rec}}
}

// Sweep runs the retention sweeper outside the ingest path (e.g. at startup)
// and returns the removed ids, publishing a pruned event if any.
func (e *Engine) Sweep() []string {
	e.mu.Lock()
	removed := e.sweepLocked()
	e.mu.Unlock()
	if len(removed) > 0 {
		e.publish(record.Event{Kind: record.EventPruned, RemovedIDs: removed})
	}
	return removed
}

// sweepLocked evicts records older than the retention window unless
// favorited. Favoriting exempts from eviction but never refreshes age.
// Relative order of survivors is preserved. Favorite ids whose record no
// longer exists are garbage-collected at the same time.
func (e *Engine) sweepLocked() []string {
	cutoff := e.now().AddDate(0, 0, -e.retentionDays).UnixMilli()

	var removed []string
	kept := e.records[:0]
	for _, r := range e.records {
		if r.TS < cutoff && !e.favs[r.ID] {
			e.removeFromIndexLocked(r)
			removed = append(removed, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	if len(removed) > 0 {
		e.records = kept
		e.persistRecordsLocked()
		slog.Info("retention sweep evicted records", "count", len(removed))
	}

	if e.gcFavoritesLocked() {
		e.persistFavoritesLocked()
	}
	return removed
}

// gcFavoritesLocked drops favorite ids with no surviving record. Reports
// whether anything changed.
func (e *Engine) gcFavoritesLocked() bool {
	live := make(map[string]struct{}, len(e.records))
	for _, r := range e.records {
		live[r.ID] = struct{}{}
	}
	changed := false
	for id := range e.favs {
		if _, ok := live[id]; !ok {
			delete(e.favs, id)
			changed = true
		}
	}
	return changed
}

// Query returns at most MaxQueryResults records matching q, annotated with
// favorite membership. Results follow stored list order — the head of the
// list is the most recently captured-or-touched record, so automatic
// move-to-top and explicit undo moves are both visible to the consumer.
func (e *Engine) Query(q record.Query) []record.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))

	out := make([]record.Record, 0, MaxQueryResults)
	for _, r := range e.records {
		if q.Kind != "" && q.Kind != record.KindAll && r.Kind != q.Kind {
			continue
		}
		if q.OnlyFavorites && !e.favs[r.ID] {
			continue
		}
		if keyword != "" && !matchKeyword(r, keyword) {
			continue
		}
		r.Fav = e.favs[r.ID]
		out = append(out, r)
		if len(out) == MaxQueryResults {
			break
		}
	}
	return out
}

// matchKeyword reports whether r's payload text or joined tags contain the
// (already lowercased) keyword. Image records have no text and never match.
func matchKeyword(r record.Record, keyword string) bool {
	if strings.Contains(strings.ToLower(r.Text), keyword) {
		return true
	}
	if len(r.Tags) > 0 {
		return strings.Contains(strings.ToLower(strings.Join(r.Tags, " ")), keyword)
	}
	return false
}

// Get returns the record with the given id.
func (e *Engine) Get(id string) (record.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := e.indexOfLocked(id)
	if k < 0 {
		return record.Record{}, false
	}
	return e.records[k], true
}

// MoveTo repositions the record with the given id to clamp(target, 0, len).
// Used by consumers to reverse an automatic move-to-top; the engine keeps no
// undo stack of its own. Returns false if the id is absent.
func (e *Engine) MoveTo(id string, target int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := e.indexOfLocked(id)
	if k < 0 {
		return false
	}
	r := e.records[k]
	rest := append(e.records[:k], e.records[k+1:]...)
	if target < 0 {
		target = 0
	}
	if target > len(rest) {
		target = len(rest)
	}
	e.records = append(rest[:target], append([]record.Record{r}, rest[target:]...)...)
	e.persistRecordsLocked()
	return true
}

// Delete removes the record with the given id. Returns false if absent.
func (e *Engine) Delete(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := e.indexOfLocked(id)
	if k < 0 {
		return false
	}
	e.removeFromIndexLocked(e.records[k])
	e.records = append(e.records[:k], e.records[k+1:]...)
	e.persistRecordsLocked()
	return true
}

// SetFavorite adds or removes id from the favorites set. Returns false if no
// record with that id exists.
func (e *Engine) SetFavorite(id string, fav bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexOfLocked(id) < 0 {
		return false
	}
	if fav {
		e.favs[id] = true
	} else {
		delete(e.favs, id)
	}
	e.persistFavoritesLocked()
	return true
}

// Resolve expands a unique id prefix to a full record id, so CLI users can
// paste the truncated ids shown in list output. An exact id always resolves
// to itself; an ambiguous or unknown prefix resolves to nothing.
func (e *Engine) Resolve(prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var match string
	for _, r := range e.records {
		if r.ID == prefix {
			return r.ID, true
		}
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", false
			}
			match = r.ID
		}
	}
	return match, match != ""
}

// Counts returns the current record and favorite counts.
func (e *Engine) Counts() (records, favorites int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.records), len(e.favs)
}

func (e *Engine) indexOfLocked(id string) int {
	for i, r := range e.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) removeFromIndexLocked(r record.Record) {
	e.idx.Remove(r.Hash)
	if r.ThumbHash != "" {
		e.idx.Remove(r.ThumbHash)
	}
}

// persistRecordsLocked writes the record list through to the durable store.
// A failed write is logged and the in-memory state stands; the next
// successful mutation re-persists everything.
func (e *Engine) persistRecordsLocked() {
	if err := e.st.SetRecords(e.records); err != nil {
		slog.Error("persist records failed", "err", err)
	}
}

func (e *Engine) persistFavoritesLocked() {
	if err := e.st.SetFavorites(e.favs); err != nil {
		slog.Error("persist favorites failed", "err", err)
	}
}
