package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/message"
)

func newDeleteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a record from the history",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			return ackRequest(v, &message.Message{
				Type: message.TypeDelete,
				ID:   args[0],
			}, "no record with id "+args[0])
		},
	}

	addClientFlags(cmd)
	return cmd
}
