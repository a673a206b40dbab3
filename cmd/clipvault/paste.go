package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/message"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste <id>",
		Short: "Write a record back to the OS clipboard",
		Long: `Writes the record's payload to the system clipboard and, on macOS,
simulates Cmd+V into the foreground application (best-effort; requires the
accessibility permission). On other platforms the clipboard is written and
you paste manually.

The daemon marks the value as already observed, so re-pasting never creates
a duplicate history entry. <id> may be the truncated id shown by "clipvault
list" as long as it is unambiguous.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			return ackRequest(v, &message.Message{
				Type: message.TypePaste,
				ID:   args[0],
			}, "no record with id "+args[0])
		},
	}

	addClientFlags(cmd)
	return cmd
}
