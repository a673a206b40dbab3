package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a scriptable clip.Backend.
type fakeBackend struct {
	text string
	img  []byte
}

func (f *fakeBackend) Name() string        { return "fake" }
func (f *fakeBackend) ReadText() string    { return f.text }
func (f *fakeBackend) ReadImage() []byte   { return f.img }
func (f *fakeBackend) WriteText(s string)  { f.text = s }
func (f *fakeBackend) WriteImage(b []byte) { f.img = b }
func (f *fakeBackend) Close()              {}

// recordingIngester captures what the watcher hands off.
type recordingIngester struct {
	texts  []string
	images [][]byte
}

func (r *recordingIngester) IngestText(text string) { r.texts = append(r.texts, text) }
func (r *recordingIngester) IngestImage(png []byte) { r.images = append(r.images, png) }

func newTestWatcher() (*Watcher, *fakeBackend, *recordingIngester) {
	b := &fakeBackend{}
	ing := &recordingIngester{}
	return New(b, ing, DefaultInterval), b, ing
}

func TestTickIngestsChangedText(t *testing.T) {
	w, b, ing := newTestWatcher()

	b.text = "hello"
	w.Tick()
	require.Equal(t, []string{"hello"}, ing.texts)

	// Unchanged value: no-op on subsequent ticks.
	w.Tick()
	w.Tick()
	assert.Len(t, ing.texts, 1)

	b.text = "world"
	w.Tick()
	assert.Equal(t, []string{"hello", "world"}, ing.texts)
}

func TestTickSkipsEmptyClipboard(t *testing.T) {
	w, _, ing := newTestWatcher()
	w.Tick()
	assert.Empty(t, ing.texts)
	assert.Empty(t, ing.images)
}

func TestImageTakesPriorityOverText(t *testing.T) {
	w, b, ing := newTestWatcher()

	// An image copy often exposes a textual description alongside it; only
	// the image may be processed that tick.
	b.img = []byte{1, 2, 3}
	b.text = "image description"
	w.Tick()
	require.Len(t, ing.images, 1)
	assert.Empty(t, ing.texts)

	// Next tick the image is unchanged, so the text change is picked up.
	w.Tick()
	assert.Equal(t, []string{"image description"}, ing.texts)
	assert.Len(t, ing.images, 1)
}

func TestImageChangeDetectionByFingerprint(t *testing.T) {
	w, b, ing := newTestWatcher()

	b.img = []byte{1, 2, 3}
	w.Tick()
	b.img = []byte{4, 5, 6}
	w.Tick()
	b.img = []byte{4, 5, 6}
	w.Tick()

	assert.Len(t, ing.images, 2)
}

func TestMarkSuppressesPasteBackEcho(t *testing.T) {
	w, b, ing := newTestWatcher()

	// Paste-back path: the daemon writes the clipboard itself and marks the
	// value as observed before the next tick samples it.
	w.MarkText("from history")
	b.text = "from history"
	w.Tick()
	assert.Empty(t, ing.texts)

	w.MarkImage([]byte{9, 9})
	b.img = []byte{9, 9}
	w.Tick()
	assert.Empty(t, ing.images)

	// A genuinely new user copy is still picked up afterwards.
	b.img = nil
	b.text = "user copy"
	w.Tick()
	assert.Equal(t, []string{"user copy"}, ing.texts)
}
