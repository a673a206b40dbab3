// Package clip provides a minimal interface to the OS clipboard.
//
// The poller samples through it on a fixed cadence and the paste-back path
// writes through it; there is no change-notification surface here — change
// detection is the watcher's job. Build constraints select the
// implementation:
//
//	clip_supported.go — Linux / macOS / Windows via golang.design/x/clipboard
//	clip_other.go     — headless / container stub
package clip

// Backend is the interface all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the current text payload, or "" if the clipboard is
	// empty or holds no text.
	ReadText() string

	// ReadImage returns the current image payload as PNG bytes, or nil.
	ReadImage() []byte

	// WriteText replaces the clipboard contents with text.
	WriteText(text string)

	// WriteImage replaces the clipboard contents with PNG bytes.
	WriteImage(png []byte)

	// Close releases any resources held by the backend.
	Close()
}

// headlessBackend is a no-op backend for environments without a display
// server (headless Linux servers, containers, CI). Reads are always empty
// and writes are silently discarded.
type headlessBackend struct{}

func (headlessBackend) Name() string       { return "headless (no-op)" }
func (headlessBackend) ReadText() string   { return "" }
func (headlessBackend) ReadImage() []byte  { return nil }
func (headlessBackend) WriteText(string)   {}
func (headlessBackend) WriteImage([]byte)  {}
func (headlessBackend) Close()             {}
