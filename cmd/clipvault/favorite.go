package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/message"
)

func newFavoriteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Favorite (or unfavorite) a record",
		Long: `Adds a record to the favorites set. Favorited records are exempt from
retention eviction regardless of age; favoriting does not refresh a record's
age, it only protects it. Use --remove to unfavorite.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			return ackRequest(v, &message.Message{
				Type:     message.TypeFavorite,
				ID:       args[0],
				Favorite: !v.GetBool("remove"),
			}, "no record with id "+args[0])
		},
	}

	cmd.Flags().Bool("remove", false, "unfavorite instead")
	addClientFlags(cmd)
	return cmd
}
