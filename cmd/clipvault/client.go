package main

import (
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/crypto"
	"go.clipvault.dev/clipvault/internal/ipc"
	"go.clipvault.dev/clipvault/internal/message"
	"go.clipvault.dev/clipvault/internal/wire"
)

const dialTimeout = 5 * time.Second

// dialDaemon connects to a running clipvault daemon: over TCP when --server
// is set (authenticating if --token is given), otherwise over the local IPC
// socket.
func dialDaemon(v *viper.Viper) (*wire.Conn, error) {
	serverAddr := v.GetString("server")
	if serverAddr == "" {
		if !ipc.IsRunning() {
			return nil, fmt.Errorf("no clipvault daemon on %s (is \"clipvault server\" running?)", ipc.SocketPath())
		}
		conn, err := ipc.Dial()
		if err != nil {
			return nil, fmt.Errorf("dial IPC: %w", err)
		}
		return wire.New(conn, nil), nil
	}

	token := v.GetString("token")
	var key *[32]byte
	if token != "" {
		var err error
		key, err = crypto.DeriveKey(token)
		if err != nil {
			return nil, fmt.Errorf("key derivation: %w", err)
		}
	}

	conn, err := net.DialTimeout("tcp", serverAddr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", serverAddr, err)
	}
	wc := wire.New(conn, key)
	if token != "" {
		if err := wc.WriteMsg(&message.Message{
			Type:    message.TypeAuth,
			Source:  defaultSource(),
			Payload: base64.StdEncoding.EncodeToString([]byte(token)),
		}); err != nil {
			wc.Close()
			return nil, fmt.Errorf("auth: %w", err)
		}
	}
	return wc, nil
}

// request performs one request/response round trip against the daemon.
func request(v *viper.Viper, msg *message.Message) (*message.Message, error) {
	wc, err := dialDaemon(v)
	if err != nil {
		return nil, err
	}
	defer wc.Close()

	if err := wc.WriteMsg(msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.Type == message.TypeError {
		return nil, fmt.Errorf("daemon: %s", resp.Error)
	}
	return resp, nil
}

// ackRequest performs a round trip expecting an ACK; a false ACK becomes a
// non-zero exit without a stack of error context.
func ackRequest(v *viper.Viper, msg *message.Message, notFoundHint string) error {
	resp, err := request(v, msg)
	if err != nil {
		return err
	}
	if resp.Type != message.TypeAck {
		return fmt.Errorf("unexpected response type %q", resp.Type)
	}
	if !resp.OK {
		return fmt.Errorf("%s", notFoundHint)
	}
	return nil
}

func defaultSource() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
