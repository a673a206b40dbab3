// Package ipc provides the local IPC channel used by CLI commands and
// front-ends to talk to a running clipvault daemon.
//
// The channel carries the newline-delimited JSON protocol from package
// message. On Linux and macOS it is a Unix domain socket; on Windows a named
// pipe. The daemon listens; clients probe for it with IsRunning.
package ipc

import (
	"net"
	"os"
)

// SocketPath returns the platform-appropriate path for the IPC endpoint.
//
//   - Linux:   $XDG_RUNTIME_DIR/clipvault.sock, else $TMPDIR/clipvault.sock
//   - macOS:   $TMPDIR/clipvault.sock
//   - Windows: \\.\pipe\clipvault
//
// $CLIPVAULT_SOCKET overrides on all platforms.
func SocketPath() string {
	if s := os.Getenv("CLIPVAULT_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a clipvault daemon appears to be listening on the
// IPC endpoint. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a net.Listener on the IPC endpoint, removing any stale
// socket file from a previous (crashed) run first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	_ = os.Remove(path)
	return listenIPC(path)
}

// Dial connects to the IPC endpoint.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}
