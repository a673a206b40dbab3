package engine

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.clipvault.dev/clipvault/internal/message"
	"go.clipvault.dev/clipvault/internal/record"
)

// memStore is an in-memory store.Store for tests.
type memStore struct {
	records  []record.Record
	favs     map[string]bool
	settings message.Settings
}

func newMemStore() *memStore {
	return &memStore{favs: map[string]bool{}, settings: message.DefaultSettings()}
}

func (m *memStore) Records() ([]record.Record, error) { return m.records, nil }
func (m *memStore) SetRecords(r []record.Record) error {
	m.records = append([]record.Record(nil), r...)
	return nil
}
func (m *memStore) Favorites() (map[string]bool, error) { return m.favs, nil }
func (m *memStore) SetFavorites(f map[string]bool) error {
	m.favs = make(map[string]bool, len(f))
	for k, v := range f {
		m.favs[k] = v
	}
	return nil
}
func (m *memStore) Settings() (message.Settings, error)  { return m.settings, nil }
func (m *memStore) SetSettings(s message.Settings) error { m.settings = s; return nil }
func (m *memStore) Close() error                         { return nil }

func newTestEngine(t *testing.T, maxRecords, retentionDays int) (*Engine, *memStore) {
	t.Helper()
	st := newMemStore()
	e, err := New(st, maxRecords, retentionDays)
	require.NoError(t, err)
	return e, st
}

func ids(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

// tinyPNG returns a small valid PNG for image ingest tests.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func drain(ch chan record.Event) []record.Event {
	var out []record.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestIngestCreatesThenMovesToTop(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)
	ch := e.Subscribe()
	defer e.Unsubscribe(ch)

	e.IngestText("hello")
	events := drain(ch)
	require.Len(t, events, 1)
	assert.Equal(t, record.EventCreated, events[0].Kind)
	helloID := events[0].Record.ID

	e.IngestText("world")
	events = drain(ch)
	require.Len(t, events, 1)
	assert.Equal(t, record.EventCreated, events[0].Kind)
	worldID := events[0].Record.ID

	recs := e.Query(record.Query{})
	assert.Equal(t, []string{worldID, helloID}, ids(recs))

	// Re-copying "hello" moves the existing record, never creates a new one.
	e.IngestText("hello")
	events = drain(ch)
	require.Len(t, events, 1)
	assert.Equal(t, record.EventMoved, events[0].Kind)
	assert.Equal(t, helloID, events[0].ID)
	assert.Equal(t, 1, events[0].FromIndex)

	recs = e.Query(record.Query{})
	assert.Equal(t, []string{helloID, worldID}, ids(recs))
}

func TestRepeatOfFrontRecordIsNoOp(t *testing.T) {
	e, st := newTestEngine(t, 100, 30)

	e.IngestText("same")
	before := append([]record.Record(nil), st.records...)

	ch := e.Subscribe()
	defer e.Unsubscribe(ch)

	e.IngestText("same")
	assert.Empty(t, drain(ch), "repeat of front-most value must emit no events")
	assert.Equal(t, before, st.records, "repeat of front-most value must not mutate the store")
}

func TestMoveToTopPreservesRecordFields(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)

	e.IngestText("first")
	first := e.Query(record.Query{})[0]
	e.IngestText("second")

	e.IngestText("first")
	moved := e.Query(record.Query{})[0]

	assert.Equal(t, first.ID, moved.ID)
	assert.Equal(t, first.TS, moved.TS, "move-to-top must not touch ts")
	assert.Equal(t, first.Tags, moved.Tags)
}

func TestCapacityBoundTruncatesTail(t *testing.T) {
	e, _ := newTestEngine(t, 3, 30)

	e.IngestText("a")
	e.IngestText("b")
	e.IngestText("c")
	e.IngestText("d")

	recs := e.Query(record.Query{})
	require.Len(t, recs, 3)
	assert.Equal(t, "d", recs[0].Text)
	assert.Equal(t, "b", recs[2].Text)

	// The truncated record's fingerprint is gone from the index: re-copying
	// "a" creates a fresh record rather than moving a ghost.
	ch := e.Subscribe()
	defer e.Unsubscribe(ch)
	e.IngestText("a")
	events := drain(ch)
	require.Len(t, events, 1)
	assert.Equal(t, record.EventCreated, events[0].Kind)
}

func TestSweepEvictsOldUnlessFavorited(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }
	e.IngestText("ancient")
	ancientID := e.Query(record.Query{})[0].ID
	e.IngestText("protected")
	protectedID := e.Query(record.Query{})[0].ID
	require.True(t, e.SetFavorite(protectedID, true))

	// 40 days later both are past the 30-day window; only the favorite survives.
	e.now = func() time.Time { return base.AddDate(0, 0, 40) }
	ch := e.Subscribe()
	defer e.Unsubscribe(ch)

	e.IngestText("fresh")
	events := drain(ch)
	require.Len(t, events, 2)
	assert.Equal(t, record.EventCreated, events[0].Kind)
	assert.Equal(t, record.EventPruned, events[1].Kind)
	assert.Equal(t, []string{ancientID}, events[1].RemovedIDs)

	recs := e.Query(record.Query{})
	require.Len(t, recs, 2)
	assert.Equal(t, "fresh", recs[0].Text)
	assert.Equal(t, protectedID, recs[1].ID)

	// Unfavorite and sweep again: the exemption was the only thing keeping it.
	require.True(t, e.SetFavorite(protectedID, false))
	removed := e.Sweep()
	assert.Equal(t, []string{protectedID}, removed)
}

func TestSweepGarbageCollectsOrphanFavorites(t *testing.T) {
	e, st := newTestEngine(t, 100, 30)

	e.IngestText("kept")
	id := e.Query(record.Query{})[0].ID
	require.True(t, e.SetFavorite(id, true))
	require.True(t, e.Delete(id))

	// Deletion leaves the favorite as an orphan until the next sweep.
	e.now = func() time.Time { return time.Now().AddDate(0, 0, 40) }
	e.IngestText("trigger")

	favs, err := st.Favorites()
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestMoveToRoundTripRestoresOrder(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)
	ch := e.Subscribe()
	defer e.Unsubscribe(ch)

	e.IngestText("hello")
	e.IngestText("world")
	drain(ch)

	// Re-copy "hello": automatic move-to-top.
	e.IngestText("hello")
	events := drain(ch)
	require.Len(t, events, 1)
	moved := events[0]
	require.Equal(t, record.EventMoved, moved.Kind)
	require.Equal(t, 1, moved.FromIndex)

	// The consumer's undo: move it back to where it came from.
	require.True(t, e.MoveTo(moved.ID, moved.FromIndex))

	recs := e.Query(record.Query{})
	assert.Equal(t, "world", recs[0].Text)
	assert.Equal(t, "hello", recs[1].Text)
}

func TestMoveToClampsTarget(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)
	e.IngestText("a")
	e.IngestText("b")
	e.IngestText("c")
	id := e.Query(record.Query{})[2].ID // "a"

	require.True(t, e.MoveTo(id, 99))
	recs := e.Query(record.Query{})
	assert.Equal(t, id, recs[2].ID)

	require.True(t, e.MoveTo(id, -5))
	recs = e.Query(record.Query{})
	assert.Equal(t, id, recs[0].ID)
}

func TestOperationsOnUnknownIDReturnFalse(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)
	e.IngestText("something")

	assert.False(t, e.MoveTo("nope", 0))
	assert.False(t, e.Delete("nope"))
	assert.False(t, e.SetFavorite("nope", true))
}

func TestQueryFilters(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)

	e.IngestText("https://example.com/docs")
	e.IngestText("const x = 1;")
	e.IngestText("grocery list: milk")
	groceryID := e.Query(record.Query{})[0].ID
	require.True(t, e.SetFavorite(groceryID, true))

	links := e.Query(record.Query{Kind: record.KindLink})
	require.Len(t, links, 1)
	assert.Equal(t, record.KindLink, links[0].Kind)

	all := e.Query(record.Query{Kind: record.KindAll})
	assert.Len(t, all, 3)

	favs := e.Query(record.Query{OnlyFavorites: true})
	require.Len(t, favs, 1)
	assert.Equal(t, groceryID, favs[0].ID)
	assert.True(t, favs[0].Fav, "query annotates favorite membership")

	byKeyword := e.Query(record.Query{Keyword: "MILK"})
	require.Len(t, byKeyword, 1)
	assert.Equal(t, groceryID, byKeyword[0].ID)

	// Conjunctive: favorite filter AND non-matching keyword.
	assert.Empty(t, e.Query(record.Query{OnlyFavorites: true, Keyword: "const"}))
}

func TestQueryMatchesTags(t *testing.T) {
	e, st := newTestEngine(t, 100, 30)
	e.IngestText("payload")

	// Tag assignment is a front-end concern; simulate a tagged record.
	recs, _ := st.Records()
	recs[0].Tags = []string{"work", "standup"}
	require.NoError(t, st.SetRecords(recs))
	e2, err := New(st, 100, 30)
	require.NoError(t, err)

	got := e2.Query(record.Query{Keyword: "standup"})
	require.Len(t, got, 1)
	assert.Equal(t, "payload", got[0].Text)
}

func TestQueryFollowsStoredOrder(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	tick := 0
	e.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	e.IngestText("older")
	e.IngestText("newer")
	e.IngestText("older") // move-to-top without touching ts

	recs := e.Query(record.Query{})
	require.Len(t, recs, 2)
	assert.Equal(t, "older", recs[0].Text, "display order follows list position, not ts")
	assert.Greater(t, recs[1].TS, recs[0].TS)
}

func TestIngestImageRegistersBothFingerprints(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)
	ch := e.Subscribe()
	defer e.Unsubscribe(ch)

	png := tinyPNG(t)
	e.IngestImage(png)
	events := drain(ch)
	require.Len(t, events, 1)
	rec := events[0].Record
	require.NotNil(t, rec)
	assert.Equal(t, record.KindImage, rec.Kind)
	assert.Equal(t, record.Fingerprint(png), rec.Hash)
	assert.NotEmpty(t, rec.ThumbHash)
	assert.NotEmpty(t, rec.ImageData)

	// Paste-back scenario: the preview bytes come around again and must
	// resolve to the same record (front-most here, so a silent no-op).
	e.IngestImage(rec.ImageData)
	assert.Empty(t, drain(ch))
	records, _ := e.Counts()
	assert.Equal(t, 1, records)
}

func TestImageNeverMatchesKeyword(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)
	e.IngestImage(tinyPNG(t))

	assert.Empty(t, e.Query(record.Query{Keyword: "png"}))
	assert.Len(t, e.Query(record.Query{Kind: record.KindImage}), 1)
}

func TestResolvePrefix(t *testing.T) {
	e, _ := newTestEngine(t, 100, 30)
	e.IngestText("alpha")
	id := e.Query(record.Query{})[0].ID

	full, ok := e.Resolve(id[:12])
	require.True(t, ok)
	assert.Equal(t, id, full)

	_, ok = e.Resolve("")
	assert.False(t, ok)
	_, ok = e.Resolve("zzzz")
	assert.False(t, ok)
}

func TestStateSurvivesRestart(t *testing.T) {
	st := newMemStore()
	e, err := New(st, 100, 30)
	require.NoError(t, err)
	e.IngestText("persisted")
	id := e.Query(record.Query{})[0].ID

	// A second engine over the same store rebuilds the index from it.
	e2, err := New(st, 100, 30)
	require.NoError(t, err)

	recs := e2.Query(record.Query{})
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ID)

	// Dedup still works against the rebuilt index.
	ch := e2.Subscribe()
	defer e2.Unsubscribe(ch)
	e2.IngestText("persisted")
	assert.Empty(t, drain(ch))
}
