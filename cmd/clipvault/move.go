package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/message"
)

func newMoveCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "move <id> <index>",
		Short: "Move a record to a target list position",
		Long: `Repositions a record within the history list. This is the undo primitive:
when an automatic move-to-top fires, the daemon emits a moved event carrying
the record's previous index — moving it back there reverses the reorder.
The target index is clamped to the list bounds.`,
		Args:    cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return ackRequest(v, &message.Message{
				Type:        message.TypeMove,
				ID:          args[0],
				TargetIndex: target,
			}, "no record with id "+args[0])
		},
	}

	addClientFlags(cmd)
	return cmd
}
