package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/editor"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

// newTagsCmd creates the 'tags' command group for the saved editors.
func newTagsCmd() *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Show and change the saved add/remove tag lists",
		Long: `The add and remove editors are saved locally and reused by
"apply --saved" and "edit". Editors are named "add" and "remove".`,
	}

	tagsCmd.AddCommand(newTagsActionCmd("show <editor>", "Print an editor's tags", cobra.ExactArgs(1),
		func(e *editor.TagEditor, args []string) (bool, error) { return false, nil }))
	tagsCmd.AddCommand(newTagsActionCmd("add <editor> <tags>", "Add tags to an editor", cobra.MinimumNArgs(2),
		func(e *editor.TagEditor, args []string) (bool, error) {
			for _, tag := range tagset.Deserialize(strings.Join(args, ",")).Tags() {
				e.AddTag(tag)
			}
			return true, nil
		}))
	tagsCmd.AddCommand(newTagsActionCmd("remove <editor> <tags>", "Remove tags from an editor", cobra.MinimumNArgs(2),
		func(e *editor.TagEditor, args []string) (bool, error) {
			for _, tag := range tagset.Deserialize(strings.Join(args, ",")).Tags() {
				e.RemoveTag(tag)
			}
			return true, nil
		}))
	tagsCmd.AddCommand(newTagsActionCmd("clear <editor>", "Delete an editor's saved tags", cobra.ExactArgs(1),
		func(e *editor.TagEditor, args []string) (bool, error) {
			return false, e.ResetTags()
		}))
	tagsCmd.AddCommand(newTagsActionCmd("set <editor> <tags>", "Replace an editor's tags", cobra.MinimumNArgs(2),
		func(e *editor.TagEditor, args []string) (bool, error) {
			e.Text().SetValue(strings.Join(args, ","))
			return true, nil
		}))

	return tagsCmd
}

// newTagsActionCmd builds a tags subcommand. action receives the editor and
// the arguments after the editor name and reports whether to save.
func newTagsActionCmd(use, short string, args cobra.PositionalArgs, action func(*editor.TagEditor, []string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:       use,
		Short:     short,
		Args:      args,
		ValidArgs: []string{"add", "remove"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			pair, err := editor.NewPair(store)
			if err != nil {
				return err
			}
			e, ok := pair.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown editor %q (use add or remove)", args[0])
			}

			save, err := action(e, args[1:])
			if err != nil {
				return err
			}
			if save {
				if err := e.SaveTags(); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.Text().Value())
			return nil
		},
	}
}
