// Package watcher polls the OS clipboard on a fixed cadence and drives the
// ingest pipeline on change.
//
// The watcher owns two pieces of observation state across ticks: the last
// seen text value and the last seen image fingerprint. These exist purely
// for change detection — deduplication against history is the hash index's
// job. The paste-back path updates them through MarkText/MarkImage so the
// watcher does not re-ingest a value the daemon itself just wrote.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.clipvault.dev/clipvault/internal/clip"
	"go.clipvault.dev/clipvault/internal/record"
)

// DefaultInterval is the poll cadence: coarse enough to avoid busy-polling
// cost, fine enough that manual copies feel responsive.
const DefaultInterval = 750 * time.Millisecond

// Ingester is the slice of the engine the watcher drives.
type Ingester interface {
	IngestText(text string)
	IngestImage(png []byte)
}

// Watcher samples the clipboard and hands changed values to the ingester.
type Watcher struct {
	backend  clip.Backend
	ingester Ingester
	interval time.Duration

	mu       sync.Mutex
	lastText string
	lastImg  string // fingerprint, not bytes

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a watcher. interval <= 0 selects DefaultInterval.
func New(backend clip.Backend, ingester Ingester, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		backend:  backend,
		ingester: ingester,
		interval: interval,
	}
}

// Start schedules the recurring tick. Ticks run sequentially in a single
// goroutine, so no two ticks ever overlap an in-flight ingest and sweep.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx)
	slog.Info("clipboard watcher started", "interval", w.interval, "backend", w.backend.Name())
}

// Stop suppresses the next scheduled tick and waits for a currently running
// one to finish. Safe to call at any time after Start.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	slog.Info("clipboard watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Tick()
		}
	}
}

// Tick samples the clipboard once. The image payload takes priority: when an
// image is copied the OS often exposes a textual description alongside it,
// and at most one of the two payloads is processed per tick. Read failures
// are skipped; the next tick retries.
func (w *Watcher) Tick() {
	if img := w.backend.ReadImage(); len(img) > 0 {
		fp := record.Fingerprint(img)
		w.mu.Lock()
		changed := fp != w.lastImg
		if changed {
			w.lastImg = fp
		}
		w.mu.Unlock()
		if changed {
			w.ingester.IngestImage(img)
			return
		}
	}

	text := w.backend.ReadText()
	if text == "" {
		return
	}
	w.mu.Lock()
	changed := text != w.lastText
	if changed {
		w.lastText = text
	}
	w.mu.Unlock()
	if changed {
		w.ingester.IngestText(text)
	}
}

// MarkText records text as already observed, so a programmatic clipboard
// write is not re-ingested on the next tick.
func (w *Watcher) MarkText(text string) {
	w.mu.Lock()
	w.lastText = text
	w.mu.Unlock()
}

// MarkImage records an image payload as already observed.
func (w *Watcher) MarkImage(png []byte) {
	w.mu.Lock()
	w.lastImg = record.Fingerprint(png)
	w.mu.Unlock()
}
