package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/api"
	"github.com/boorutools/bulk-tag-editor/internal/bulk"
	"github.com/boorutools/bulk-tag-editor/internal/config"
	"github.com/boorutools/bulk-tag-editor/internal/editor"
	"github.com/boorutools/bulk-tag-editor/internal/kvstore"
	"github.com/boorutools/bulk-tag-editor/internal/notify"
	"github.com/boorutools/bulk-tag-editor/internal/platform"
	"github.com/boorutools/bulk-tag-editor/internal/progress"
	"github.com/boorutools/bulk-tag-editor/internal/ratelimit"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
)

// ErrPartialFailure is returned when some records of a bulk apply failed.
var ErrPartialFailure = errors.New("some records were not updated")

// ErrEmptySelection is returned when no record ids were given.
var ErrEmptySelection = errors.New("no records selected")

// tagFlags are the add/remove inputs shared by apply and edit.
type tagFlags struct {
	add    string
	remove string
	saved  bool
}

// sets returns the add and remove sets. With saved, the persisted editors are
// the base and the flags are added to them.
func (f tagFlags) sets(store kvstore.Store) (add, remove *tagset.TagSet, err error) {
	add, remove = tagset.New(), tagset.New()
	if f.saved {
		pair, err := editor.NewPair(store)
		if err != nil {
			return nil, nil, err
		}
		add, remove = pair.Sets()
	}
	for _, tag := range tagset.Deserialize(f.add).Tags() {
		add.Add(tag)
	}
	for _, tag := range tagset.Deserialize(f.remove).Tags() {
		remove.Add(tag)
	}
	return add, remove, nil
}

func newApplyCmd() *cobra.Command {
	var (
		tags       tagFlags
		sel        selectionFlags
		notifyFlag bool
	)

	cmd := &cobra.Command{
		Use:   "apply [id...]",
		Short: "Apply tag additions and removals to many records",
		Long: `Fetch each selected record's tags, add and remove the given tags, and
submit the result. Records are processed one at a time in the order given,
spaced by the site's rate limit. A failed record is reported and skipped.

Records can be given as arguments, in a file (--ids-file, "-" for stdin) or
taken from a listing page (--from-page: a saved HTML file or a site path such
as "/search?q=pony").`,
		Example: `  bulk-tag-editor apply 1234 5678 --add "safe, pony" --remove "solo"
  bulk-tag-editor apply --from-page "/search?q=pony" --saved`,
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

			add, remove, err := tags.sets(store)
			if err != nil {
				return err
			}
			if add.Len() == 0 && remove.Len() == 0 {
				return errors.New("nothing to apply: use --add, --remove or --saved")
			}

			client, err := api.NewClient(cfg)
			if err != nil {
				return err
			}

			ctx := GetContext()
			selection, err := sel.build(ctx, client, args)
			if err != nil {
				return err
			}
			if selection.Len() == 0 {
				return ErrEmptySelection
			}

			p, registry := platformCooldown(cfg, client.Platform())
			GetLogger().Info().
				Str("platform", registry.DisplayString(p.Key)).
				Int("records", selection.Len()).
				Msg("Applying tags")

			notifier := notify.NewNotifier(cfg.NotificationsEnabled, GetLogger())
			if cmd.Flags().Changed("notify") {
				notifier.SetEnabled(notifyFlag)
			}

			selection.Arm()
			pipeline := bulk.NewPipeline(client, p, ratelimit.GlobalLimiter(), progress.New(os.Stderr))
			summary := pipeline.Run(ctx, selection, add, remove)

			notifier.BulkComplete(p.Key, summary.Total, summary.Failed)

			if summary.Failed > 0 {
				return fmt.Errorf("%w: %d of %d failed", ErrPartialFailure, summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tags.add, "add", "a", "", "Tags to add (comma separated)")
	cmd.Flags().StringVarP(&tags.remove, "remove", "r", "", "Tags to remove (comma separated)")
	cmd.Flags().BoolVar(&tags.saved, "saved", false, "Use the saved add and remove editors")
	cmd.Flags().StringVar(&sel.idsFile, "ids-file", "", "File with record ids separated by commas or whitespace")
	cmd.Flags().StringVar(&sel.fromPage, "from-page", "", "Listing page (HTML file or site path) to take record ids from")
	cmd.Flags().BoolVar(&notifyFlag, "notify", false, "Send a desktop notification when done (overrides config)")

	return cmd
}

// platformCooldown applies the configured cooldown to p. A cooldown shorter
// than the site's own interval is ignored with a warning.
func platformCooldown(cfg *config.Config, p platform.Config) (platform.Config, *ratelimit.Registry) {
	registry := ratelimit.NewRegistry()
	if cfg.Cooldown > 0 && !registry.SetCooldown(p.Key, cfg.Cooldown) {
		GetLogger().Warn().
			Dur("cooldown", cfg.Cooldown).
			Str("platform", registry.DisplayString(p.Key)).
			Msg("Ignoring cooldown shorter than the site's limit")
	}
	p.Cooldown = registry.Cooldown(p.Key)
	return p, registry
}
