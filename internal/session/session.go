// Package session adapts a net.Conn into a clipvault request handler.
//
// One Session serves one front-end or CLI connection: it answers query and
// mutation requests against the engine, and a WATCH request turns the rest
// of the connection into a change-event stream. Connections arrive over the
// local IPC socket (unauthenticated, owner-restricted by the OS) or over TCP
// with token auth and secretbox encryption.
package session

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net"
	"time"

	"go.clipvault.dev/clipvault/internal/engine"
	"go.clipvault.dev/clipvault/internal/message"
	"go.clipvault.dev/clipvault/internal/paste"
	"go.clipvault.dev/clipvault/internal/record"
	"go.clipvault.dev/clipvault/internal/store"
	"go.clipvault.dev/clipvault/internal/wire"
)

const authTimeout = 10 * time.Second

// Deps bundles what a session needs from the daemon.
type Deps struct {
	Engine *engine.Engine
	Paster *paste.Paster
	Store  store.Store
	Status func() *message.Status
}

// Session serves one connection.
type Session struct {
	conn  *wire.Conn
	deps  Deps
	token string // empty = no auth (IPC socket)
	id    string
}

// New wraps conn. token and key apply to TCP connections; pass "" and nil
// for the local IPC socket.
func New(conn net.Conn, deps Deps, token string, key *[32]byte) *Session {
	return &Session{
		conn:  wire.New(conn, key),
		deps:  deps,
		token: token,
		id:    conn.RemoteAddr().String(),
	}
}

// Serve authenticates if required, then answers requests until the
// connection closes.
func (s *Session) Serve() {
	defer s.conn.Close()
	log := slog.With("peer", s.id)

	if s.token != "" {
		s.conn.SetReadDeadline(authTimeout)
		msg, err := s.conn.ReadMsg()
		if err != nil {
			log.Warn("auth read failed", "err", err)
			return
		}
		s.conn.SetReadDeadline(0)

		tokenBytes, _ := base64.StdEncoding.DecodeString(msg.Payload)
		if msg.Type != message.TypeAuth || string(tokenBytes) != s.token {
			log.Warn("auth failed")
			_ = s.conn.WriteMsg(message.Errorf("auth_failed"))
			return
		}
		log.Debug("authenticated", "source", msg.Source)
	}

	for {
		msg, err := s.conn.ReadMsg()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Debug("connection closed", "err", err)
			}
			return
		}

		// Targeted operations accept unique id prefixes from list output.
		if msg.ID != "" {
			if full, ok := s.deps.Engine.Resolve(msg.ID); ok {
				msg.ID = full
			}
		}

		switch msg.Type {
		case message.TypeList:
			q := record.Query{}
			if msg.Query != nil {
				q = *msg.Query
			}
			recs := s.deps.Engine.Query(q)
			if err := s.conn.WriteMsg(&message.Message{Type: message.TypeRecords, Records: recs}); err != nil {
				return
			}

		case message.TypeMove:
			ok := s.deps.Engine.MoveTo(msg.ID, msg.TargetIndex)
			if err := s.conn.WriteMsg(message.Ack(ok)); err != nil {
				return
			}

		case message.TypeDelete:
			ok := s.deps.Engine.Delete(msg.ID)
			if err := s.conn.WriteMsg(message.Ack(ok)); err != nil {
				return
			}

		case message.TypeFavorite:
			ok := s.deps.Engine.SetFavorite(msg.ID, msg.Favorite)
			if err := s.conn.WriteMsg(message.Ack(ok)); err != nil {
				return
			}

		case message.TypePaste:
			rec, ok := s.deps.Engine.Get(msg.ID)
			if ok {
				s.deps.Paster.Paste(rec)
			}
			if err := s.conn.WriteMsg(message.Ack(ok)); err != nil {
				return
			}

		case message.TypeStatus:
			if err := s.conn.WriteMsg(&message.Message{
				Type:   message.TypeStatusResponse,
				Status: s.deps.Status(),
			}); err != nil {
				return
			}

		case message.TypeSettings:
			settings, err := s.deps.Store.Settings()
			if err != nil {
				_ = s.conn.WriteMsg(message.Errorf("settings: %v", err))
				return
			}
			if err := s.conn.WriteMsg(&message.Message{
				Type:     message.TypeSettingsResponse,
				Settings: &settings,
			}); err != nil {
				return
			}

		case message.TypeSetShortcut:
			ok := s.setShortcut(msg.Shortcut)
			if err := s.conn.WriteMsg(message.Ack(ok)); err != nil {
				return
			}

		case message.TypeWatch:
			s.serveWatch(log)
			return

		default:
			log.Warn("unexpected message type", "type", msg.Type)
			_ = s.conn.WriteMsg(message.Errorf("unexpected type %q", msg.Type))
		}
	}
}

func (s *Session) setShortcut(shortcut string) bool {
	if shortcut == "" {
		return false
	}
	settings, err := s.deps.Store.Settings()
	if err != nil {
		slog.Error("load settings failed", "err", err)
		return false
	}
	settings.Shortcut = shortcut
	if err := s.deps.Store.SetSettings(settings); err != nil {
		slog.Error("persist settings failed", "err", err)
		return false
	}
	return true
}

// serveWatch streams change events until the peer disconnects. Each watcher
// gets its own buffered channel; a slow watcher drops events rather than
// blocking ingest.
func (s *Session) serveWatch(log *slog.Logger) {
	ch := s.deps.Engine.Subscribe()
	defer s.deps.Engine.Unsubscribe(ch)

	log.Info("watch started")

	// Drain the connection so a peer close ends the stream.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, err := s.conn.ReadMsg(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readerDone:
			log.Info("watch ended")
			return
		case ev := <-ch:
			if err := s.conn.WriteMsg(&message.Message{Type: message.TypeEvent, Event: &ev}); err != nil {
				log.Debug("watch write failed", "err", err)
				return
			}
		}
	}
}
