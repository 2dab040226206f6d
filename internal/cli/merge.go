package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/editor"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

func newMergeCmd() *cobra.Command {
	var (
		current string
		add     string
		remove  string
		fancy   bool
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Apply tag additions and removals to a single tag list",
		Long: `Merge --add and --remove into the tag list given with --tags and print the
result. No request is made. Removals win over additions.`,
		Example: `  bulk-tag-editor merge --tags "safe, solo" --add "pony" --remove "solo"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			field := editor.NewField(current, fancy)
			if err := editor.ApplyToField(field, tagset.Deserialize(add), tagset.Deserialize(remove)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), field.Value())
			return nil
		},
	}

	cmd.Flags().StringVarP(&current, "tags", "t", "", "Current tag list (comma separated)")
	cmd.Flags().StringVarP(&add, "add", "a", "", "Tags to add (comma separated)")
	cmd.Flags().StringVarP(&remove, "remove", "r", "", "Tags to remove (comma separated)")
	cmd.Flags().BoolVar(&fancy, "fancy", false, "Treat the field as being in chip presentation")

	return cmd
}
