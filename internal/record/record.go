// Package record defines the clipboard history data model shared by the
// engine, the durable store, and the wire protocol.
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Kind classifies a record's payload.
type Kind string

const (
	KindText  Kind = "text"
	KindLink  Kind = "link"
	KindCode  Kind = "code"
	KindImage Kind = "image"

	// KindAll is a query wildcard, never stored on a record.
	KindAll Kind = "all"
)

// Record is one captured clipboard entry.
//
// ID and the fingerprints are immutable for the record's lifetime; only list
// position, favorite membership, and (conceptually) ts may change. Kind is
// assigned once at creation and never recomputed.
type Record struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
	// ThumbHash is set for image records only: the fingerprint of the
	// downscaled preview, registered in the index alongside Hash so a
	// paste-back of the thumbnail still resolves to this record.
	ThumbHash string `json:"thumbHash,omitempty"`
	Kind      Kind   `json:"type"`
	Text      string `json:"text,omitempty"`
	// ImageData is the downscaled PNG preview, not the original bytes.
	ImageData []byte   `json:"imageData,omitempty"`
	TS        int64    `json:"ts"` // milliseconds since epoch
	Tags      []string `json:"tags"`

	// Fav is a query-time annotation (favorite membership), not persisted
	// with the record itself.
	Fav bool `json:"fav,omitempty"`
}

// Fingerprint returns the content hash used as the dedup key.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintText fingerprints a text payload.
func FingerprintText(text string) string {
	return Fingerprint([]byte(text))
}

// NewID builds a record id from a fingerprint and a capture timestamp.
// The timestamp component keeps ids unique when the same content is captured
// again after its earlier record was evicted.
func NewID(fingerprint string, tsMillis int64) string {
	return fmt.Sprintf("%s-%d", fingerprint, tsMillis)
}

// Query selects a filtered view of the record list. Filters are conjunctive.
type Query struct {
	Keyword       string `json:"keyword,omitempty"`
	Kind          Kind   `json:"kind,omitempty"`
	OnlyFavorites bool   `json:"onlyFavorites,omitempty"`
}

// EventKind discriminates change events.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventMoved   EventKind = "moved"
	EventPruned  EventKind = "pruned"
)

// Event is an incremental change notification. A consumer holding a copy of
// the list can apply events in order without re-fetching.
type Event struct {
	Kind EventKind `json:"kind"`

	// created
	Record *Record `json:"record,omitempty"`

	// moved
	ID        string `json:"id,omitempty"`
	FromIndex int    `json:"fromIndex,omitempty"`

	// pruned
	RemovedIDs []string `json:"removedIds,omitempty"`
}
