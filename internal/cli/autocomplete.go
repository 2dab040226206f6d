package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/api"
	"github.com/boorutools/bulk-tag-editor/internal/util/sanitize"
)

func newAutocompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "autocomplete <term>",
		Short: "Look up tag suggestions on the site",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := api.NewClient(cfg)
			if err != nil {
				return err
			}
			term := sanitize.Term(strings.Join(args, " "))
			if term == "" {
				return errors.New("search term is empty")
			}
			suggestions, err := client.Autocomplete(GetContext(), term)
			if err != nil {
				return err
			}
			for _, s := range suggestions {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}
