// Package paste implements the paste-back collaborator: writing a stored
// record back to the OS clipboard and, where the platform supports it,
// simulating a paste keystroke into the previously focused application.
//
// Keystroke injection is best-effort and never required for correctness; on
// platforms without support the clipboard is written and the user pastes
// manually.
package paste

import (
	"log/slog"

	"go.clipvault.dev/clipvault/internal/clip"
	"go.clipvault.dev/clipvault/internal/record"
)

// Observer is the watcher's observation-state setter. Marking the written
// value prevents the poller from re-ingesting what the daemon itself just
// put on the clipboard.
type Observer interface {
	MarkText(text string)
	MarkImage(png []byte)
}

// Paster writes records to the clipboard.
type Paster struct {
	backend  clip.Backend
	observer Observer
}

// New returns a Paster writing through backend and notifying observer.
func New(backend clip.Backend, observer Observer) *Paster {
	return &Paster{backend: backend, observer: observer}
}

// Paste writes r's payload to the clipboard, marks it as observed, and
// attempts the platform paste keystroke. Image records paste their stored
// thumbnail — the hash index maps the thumbnail fingerprint back to the
// record, so a later re-copy still resolves to it.
func (p *Paster) Paste(r record.Record) {
	if r.Kind == record.KindImage {
		p.observer.MarkImage(r.ImageData)
		p.backend.WriteImage(r.ImageData)
	} else {
		p.observer.MarkText(r.Text)
		p.backend.WriteText(r.Text)
	}

	if err := sendPasteKeystroke(); err != nil {
		slog.Debug("paste keystroke not sent", "err", err)
	}
}
