package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/platform"
	"github.com/boorutools/bulk-tag-editor/internal/ratelimit"
)

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := ratelimit.NewRegistry()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tHOSTS\tRATE LIMIT\tRECORD PATH\tEDIT PATH")
			for _, key := range registry.Keys() {
				p, err := platform.Lookup(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.Key, p.HostPattern(), registry.DisplayString(p.Key), p.RecordPathPrefix, p.TagsPath("<id>"))
			}
			return w.Flush()
		},
	}
}
