// Package cli provides the command-line interface for bulk-tag-editor.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/config"
	"github.com/boorutools/bulk-tag-editor/internal/http"
	"github.com/boorutools/bulk-tag-editor/internal/kvstore"
	"github.com/boorutools/bulk-tag-editor/internal/logging"
	"github.com/boorutools/bulk-tag-editor/internal/ratelimit"
	"github.com/boorutools/bulk-tag-editor/internal/version"
)

var (
	// Global flags
	cfgFile      string
	hostFlag     string
	schemeFlag   string
	platformFlag string
	sessionFlag  string
	storeDriver  string
	storePath    string
	logFile      string
	verbose      bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bulk-tag-editor",
		Short: "Add and remove tags on many booru records at once",
		Long: `bulk-tag-editor ` + version.Version + ` - Built: ` + version.BuildTime + `
Curate a list of tags to add and a list of tags to remove, then apply them
to a single tag string or to a selection of records on a booru.

Supported sites: derpibooru (and trixiebooru), ponybooru, ponerpics, twibooru.
Submissions are sent one at a time, spaced by the site's rate limit.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger(logging.Options{LogFile: logFile})
			logger.Install()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Booru host name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&schemeFlag, "scheme", "", "URL scheme, http or https (overrides config)")
	rootCmd.PersistentFlags().StringVar(&platformFlag, "platform", "", "Platform key, when the host name does not identify it")
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "Session Cookie header value (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Store driver: json, sqlite or memory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Store file path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotating file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for bulk-tag-editor.

QUICK TEST (temporary, current session only):
  source <(bulk-tag-editor completion bash)`,
	}

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})
	return completionCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling pending requests...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newTagsCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newPlatformsCmd())
	rootCmd.AddCommand(newAutocompleteCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if hostFlag != "" {
		cfg.Host = hostFlag
	}
	if schemeFlag != "" {
		cfg.Scheme = schemeFlag
	}
	if platformFlag != "" {
		cfg.Platform = platformFlag
	}
	if sessionFlag != "" {
		cfg.SessionCookie = sessionFlag
	}
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
		if storePath == "" {
			cfg.StorePath = config.DefaultStorePath(storeDriver)
		}
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}
	if logFile == "" && cfg.LogFile != "" {
		logFile = cfg.LogFile
		GetLogger().SetLogFile(logFile)
		GetLogger().Install()
	}
	if http.NeedsProxyPassword(cfg) {
		password, err := promptSecret(fmt.Sprintf("Proxy password for %s: ", cfg.ProxyUser))
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.ProxyPassword = password
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured key-value store and makes it the rate
// limiter's persistence, so cooldowns carry over between runs.
func openStore(cfg *config.Config) (kvstore.Store, error) {
	store, err := kvstore.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	ratelimit.SetGlobalStore(store)
	return store, nil
}
