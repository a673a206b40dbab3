package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon status",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addClientFlags(cmd)
	return cmd
}

func runStatus(v *viper.Viper) error {
	resp, err := request(v, &message.Message{Type: message.TypeStatus})
	if err != nil {
		return err
	}
	if resp.Type != message.TypeStatusResponse || resp.Status == nil {
		return fmt.Errorf("unexpected response type %q", resp.Type)
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(resp.Status, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	s := resp.Status
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", s.Version)
	fmt.Fprintf(w, "Backend:\t%s\n", s.Backend)
	fmt.Fprintf(w, "Records:\t%d\n", s.Records)
	fmt.Fprintf(w, "Favorites:\t%d\n", s.Favorites)
	fmt.Fprintf(w, "Watchers:\t%d\n", s.Watchers)
	fmt.Fprintf(w, "Uptime:\t%s\n", time.Since(s.StartedAt).Round(time.Second))
	return w.Flush()
}
