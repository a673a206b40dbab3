package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/message"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream change events as JSON lines",
		Long: `Subscribes to the daemon's change events and prints one JSON object per
line until interrupted:

  {"kind":"created","record":{...}}
  {"kind":"moved","id":"...","fromIndex":3}
  {"kind":"pruned","removedIds":["..."]}

A consumer holding a copy of the list can apply these incrementally without
re-fetching the full history.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runWatch(v) },
	}

	addClientFlags(cmd)
	return cmd
}

func runWatch(v *viper.Viper) error {
	wc, err := dialDaemon(v)
	if err != nil {
		return err
	}
	defer wc.Close()

	if err := wc.WriteMsg(&message.Message{Type: message.TypeWatch}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		msg, err := wc.ReadMsg()
		if err != nil {
			return nil // daemon gone or interrupted
		}
		if msg.Type != message.TypeEvent || msg.Event == nil {
			continue
		}
		if err := enc.Encode(msg.Event); err != nil {
			return err
		}
	}
}
