package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.clipvault.dev/clipvault/internal/message"
	"go.clipvault.dev/clipvault/internal/record"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clipboard history records",
		Long: `Queries the daemon's record list, most recent first.

Filters combine: --kind restricts to one content kind, --favorites to
favorited records, and --keyword does a case-insensitive substring match on
payload text and tags (image records never match a keyword).`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runList(v) },
	}

	f := cmd.Flags()
	f.String("keyword", "", "substring filter on text and tags")
	f.String("kind", "all", "content kind: all|text|link|code|image")
	f.Bool("favorites", false, "only favorited records")
	f.Bool("json", false, "output raw JSON")
	addClientFlags(cmd)

	return cmd
}

func runList(v *viper.Viper) error {
	resp, err := request(v, &message.Message{
		Type: message.TypeList,
		Query: &record.Query{
			Keyword:       v.GetString("keyword"),
			Kind:          record.Kind(v.GetString("kind")),
			OnlyFavorites: v.GetBool("favorites"),
		},
	})
	if err != nil {
		return err
	}
	if resp.Type != message.TypeRecords {
		return fmt.Errorf("unexpected response type %q", resp.Type)
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(resp.Records, "", "  ")
		fmt.Println(string(enc))
		return nil
	}

	if len(resp.Records) == 0 {
		fmt.Println("No records.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tID\tKIND\tCAPTURED\tPREVIEW\n")
	_, _ = fmt.Fprintf(tw, "\t--\t----\t--------\t-------\n")
	for _, r := range resp.Records {
		marker := ""
		if r.Fav {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			marker, shortID(r.ID), r.Kind, fmtAge(time.UnixMilli(r.TS)), preview(r),
		)
	}
	return tw.Flush()
}

// shortID truncates the fingerprint part of an id for table display; the
// full id is available via --json.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func preview(r record.Record) string {
	if r.Kind == record.KindImage {
		return fmt.Sprintf("(image, %d bytes preview)", len(r.ImageData))
	}
	p := strings.Join(strings.Fields(r.Text), " ")
	// Truncate on runes so a multi-byte character is never split.
	if runes := []rune(p); len(runes) > 60 {
		p = string(runes[:60]) + "…"
	}
	return p
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	}
	return t.Format("2006-01-02 15:04")
}
