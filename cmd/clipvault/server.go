package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/clip"
	"go.clipvault.dev/clipvault/internal/crypto"
	"go.clipvault.dev/clipvault/internal/engine"
	"go.clipvault.dev/clipvault/internal/ipc"
	"go.clipvault.dev/clipvault/internal/message"
	"go.clipvault.dev/clipvault/internal/paste"
	"go.clipvault.dev/clipvault/internal/session"
	"go.clipvault.dev/clipvault/internal/store"
	"go.clipvault.dev/clipvault/internal/watcher"
)

func newServerCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipvault daemon: polls the system clipboard, maintains the
deduplicated history in a local SQLite database, and serves queries and
change events to front-ends over the local IPC socket.

Pass --addr to additionally listen on TCP for remote front-ends; combine
with --token for authentication and message encryption.

Config file search order:
  /etc/clipvault/clipvault.toml
  $HOME/.config/clipvault/clipvault.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPVAULT_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServer(v) },
	}

	f := cmd.Flags()
	f.String("data", "", "database path (default: $HOME/.local/share/clipvault/clipvault.db)")
	f.Duration("interval", watcher.DefaultInterval, "clipboard poll interval")
	f.String("addr", "", "optional TCP listen address for remote front-ends")
	f.String("token", "", "shared secret for TCP connections (empty = no auth, no encryption)")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServer(v *viper.Viper) error {
	setupLogging(v)

	dataPath := v.GetString("data")
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home: %w", err)
		}
		dataPath = filepath.Join(home, ".local", "share", "clipvault", "clipvault.db")
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	st, err := store.Open(dataPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	settings, err := st.Settings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	slog.Info("clipvault server starting",
		"version", Version,
		"data", dataPath,
		"max_records", settings.MaxRecords,
		"retention_days", settings.RetentionDays,
	)

	eng, err := engine.New(st, settings.MaxRecords, settings.RetentionDays)
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	// Catch up on anything that aged out while the daemon was down.
	eng.Sweep()

	backend := clip.New()
	defer backend.Close()

	w := watcher.New(backend, eng, v.GetDuration("interval"))
	paster := paste.New(backend, w)

	startedAt := time.Now()
	deps := session.Deps{
		Engine: eng,
		Paster: paster,
		Store:  st,
		Status: func() *message.Status {
			records, favorites := eng.Counts()
			return &message.Status{
				Version:   Version,
				Backend:   backend.Name(),
				Records:   records,
				Favorites: favorites,
				Watchers:  eng.Subscribers(),
				StartedAt: startedAt,
			}
		},
	}

	ipcLn, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("IPC socket: %w", err)
	}
	defer ipcLn.Close()
	slog.Info("IPC socket listening", "path", ipc.SocketPath())
	go serveConns(ipcLn, deps, "", nil)

	if addr := v.GetString("addr"); addr != "" {
		token := v.GetString("token")
		var key *[32]byte
		if token != "" {
			key, err = crypto.DeriveKey(token)
			if err != nil {
				return fmt.Errorf("key derivation: %w", err)
			}
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		defer ln.Close()
		slog.Info("TCP listening", "addr", ln.Addr(), "encrypted", key != nil)
		go serveConns(ln, deps, token, key)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)
	<-ctx.Done()
	w.Stop()

	slog.Info("clipvault server stopped")
	return nil
}

func serveConns(ln net.Listener, deps session.Deps, token string, key *[32]byte) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go session.New(conn, deps, token, key).Serve()
	}
}
