// Package message defines the clipvault IPC wire protocol.
//
// All messages are newline-delimited JSON: each message is exactly one line,
// <json>\n. Binary payloads (image previews) ride inside record JSON as
// base64 via encoding/json's []byte handling. The same envelope is used on
// the local Unix socket and, optionally encrypted, over TCP.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"go.clipvault.dev/clipvault/internal/record"
)

// Type identifies the kind of message.
type Type string

const (
	// Requests
	TypeList        Type = "LIST"
	TypeMove        Type = "MOVE"
	TypeDelete      Type = "DELETE"
	TypeFavorite    Type = "FAVORITE"
	TypePaste       Type = "PASTE"
	TypeWatch       Type = "WATCH"
	TypeStatus      Type = "STATUS"
	TypeSettings    Type = "SETTINGS"
	TypeSetShortcut Type = "SET_SHORTCUT"
	TypeAuth        Type = "AUTH"

	// Responses
	TypeRecords          Type = "RECORDS"
	TypeAck              Type = "ACK"
	TypeEvent            Type = "EVENT"
	TypeStatusResponse   Type = "STATUS_RESPONSE"
	TypeSettingsResponse Type = "SETTINGS_RESPONSE"
	TypeError            Type = "ERROR"
)

// Settings mirrors the persisted settings document. The engine reads only
// MaxRecords and RetentionDays; the rest round-trips for front-ends.
type Settings struct {
	MaxRecords    int    `json:"maxRecords"`
	RetentionDays int    `json:"retentionDays"`
	PanelWidth    int    `json:"panelWidth,omitempty"`
	PanelHeight   int    `json:"panelHeight,omitempty"`
	Shortcut      string `json:"shortcut,omitempty"`
}

// DefaultSettings returns the settings applied on first run.
func DefaultSettings() Settings {
	return Settings{
		MaxRecords:    100000,
		RetentionDays: 30,
		PanelWidth:    900,
		PanelHeight:   600,
		Shortcut:      "CommandOrControl+Shift+V",
	}
}

// Status carries daemon metadata for STATUS_RESPONSE.
type Status struct {
	Version   string    `json:"version"`
	Backend   string    `json:"backend"`
	Records   int       `json:"records"`
	Favorites int       `json:"favorites"`
	Watchers  int       `json:"watchers"`
	StartedAt time.Time `json:"started_at"`
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type   Type   `json:"type"`
	Source string `json:"source,omitempty"`

	// LIST
	Query *record.Query `json:"query,omitempty"`

	// MOVE / DELETE / FAVORITE / PASTE — target record
	ID string `json:"id,omitempty"`

	// MOVE
	TargetIndex int `json:"targetIndex,omitempty"`

	// FAVORITE
	Favorite bool `json:"favorite,omitempty"`

	// SET_SHORTCUT
	Shortcut string `json:"shortcut,omitempty"`

	// AUTH — token, base64-encoded
	Payload string `json:"payload,omitempty"`

	// RECORDS
	Records []record.Record `json:"records,omitempty"`

	// ACK
	OK bool `json:"ok,omitempty"`

	// EVENT
	Event *record.Event `json:"event,omitempty"`

	// STATUS_RESPONSE
	Status *Status `json:"status,omitempty"`

	// SETTINGS_RESPONSE
	Settings *Settings `json:"settings,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// Ack is shorthand for an ACK response.
func Ack(ok bool) *Message {
	return &Message{Type: TypeAck, OK: ok}
}

// Errorf is shorthand for an ERROR response.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}
