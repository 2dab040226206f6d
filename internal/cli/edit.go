package cli

import (
	"context"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/api"
	"github.com/boorutools/bulk-tag-editor/internal/bulk"
	"github.com/boorutools/bulk-tag-editor/internal/editor"
	"github.com/boorutools/bulk-tag-editor/internal/events"
	"github.com/boorutools/bulk-tag-editor/internal/logging"
	"github.com/boorutools/bulk-tag-editor/internal/notify"
	"github.com/boorutools/bulk-tag-editor/internal/platform"
	"github.com/boorutools/bulk-tag-editor/internal/progress"
	"github.com/boorutools/bulk-tag-editor/internal/ratelimit"
	"github.com/boorutools/bulk-tag-editor/internal/tagset"
	"github.com/boorutools/bulk-tag-editor/internal/tui"
)

func newEditCmd() *cobra.Command {
	var (
		sel     selectionFlags
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "edit [id...]",
		Short: "Edit the add/remove tag lists in the terminal",
		Long: `Open the two tag editors in the terminal. Tags typed into an editor are
committed with Enter or a comma; Tab switches editors and Ctrl-S saves.

Records given as arguments, --ids-file or --from-page are listed above the
editors. Ctrl-B turns bulk mode on (picking every record), Ctrl-N/Ctrl-P and
Ctrl-R change the picks, and Ctrl-A applies the editors to the picked
records. Suggestions (Ctrl-T) are looked up on the site unless --offline is
set.`,
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

			ctx := GetContext()
			opts := tui.Options{Pair: pair, Bus: events.NewEventBus(events.DefaultBuffer)}
			defer opts.Bus.Close()

			if !offline {
				client, err := api.NewClient(cfg)
				if err != nil {
					return err
				}
				opts.Suggest = client.Autocomplete

				selection, err := sel.build(ctx, client, args)
				if err != nil {
					return err
				}
				opts.Records = selection.IDs()

				p, _ := platformCooldown(cfg, client.Platform())
				notifier := notify.NewNotifier(cfg.NotificationsEnabled, GetLogger())
				opts.Apply = newApplyFunc(client, p, opts.Bus, notifier)
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			opts.Screen = screen

			// The screen belongs to the editor until it exits.
			console := GetLogger().Output()
			GetLogger().SetOutput(io.Discard)
			GetLogger().Install()
			defer func() {
				GetLogger().SetOutput(console)
				GetLogger().Install()
			}()
			stopLog := logEditorNotices(opts.Bus, GetLogger())
			defer stopLog()

			return tui.New(opts).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&sel.idsFile, "ids-file", "", "File with record ids separated by commas or whitespace")
	cmd.Flags().StringVar(&sel.fromPage, "from-page", "", "Listing page (HTML file or site path) to take record ids from")
	cmd.Flags().BoolVar(&offline, "offline", false, "Do not contact the site")

	return cmd
}

// newApplyFunc runs the bulk pipeline over the editor's picked records,
// reporting through bus.
func newApplyFunc(client *api.Client, p platform.Config, bus *events.EventBus, notifier *notify.Notifier) tui.ApplyFunc {
	return func(ctx context.Context, sel *bulk.Selection, add, remove *tagset.TagSet) string {
		pipeline := bulk.NewPipeline(client, p, ratelimit.GlobalLimiter(), progress.NewEventProgress(bus))
		summary := pipeline.Run(ctx, sel, add, remove)
		notifier.BulkComplete(p.Key, summary.Total, summary.Failed)
		return summary.Message()
	}
}

// logEditorNotices copies the editor's status notices to logger's current
// sinks. The returned func stops copying and must run before the logger's
// output changes again.
func logEditorNotices(bus *events.EventBus, logger *logging.Logger) func() {
	zl := logger.Zerolog()
	ch := bus.Subscribe(events.EventLog)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			if e, ok := ev.(*events.LogEvent); ok {
				zl.WithLevel(zerologLevel(e.Level)).Str("source", "editor").Msg(e.Message)
			}
		}
	}()
	return func() {
		bus.Unsubscribe(events.EventLog, ch)
		<-done
		if n := bus.GetDroppedEventCount(); n > 0 {
			logger.Debug().Int64("dropped", n).Msg("Editor events dropped")
		}
	}
}

func zerologLevel(l events.LogLevel) zerolog.Level {
	switch l {
	case events.DebugLevel:
		return zerolog.DebugLevel
	case events.WarnLevel:
		return zerolog.WarnLevel
	case events.ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
