package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boorutools/bulk-tag-editor/internal/config"
	"github.com/boorutools/bulk-tag-editor/internal/kvstore"
	"github.com/boorutools/bulk-tag-editor/internal/platform"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bulk-tag-editor configuration",
		Long: `Configuration management commands for bulk-tag-editor.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for bulk-tag-editor.

The configuration is saved to ~/.config/bulk-tag-editor/config unless
--config is given. Use --force to overwrite an existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			out := cmd.OutOrStdout()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, err := runConfigPrompts(stdin, out)
			if err != nil {
				return err
			}
			if cfg.SessionCookie == "" {
				cookie, err := promptSecret("Session Cookie header (optional, needed to submit): ")
				if err != nil {
					return fmt.Errorf("failed to read session cookie: %w", err)
				}
				cfg.SessionCookie = cookie
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}
			GetLogger().Info().Str("path", path).Msg("Configuration saved")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	return cmd
}

// runConfigPrompts asks for the non-secret settings.
func runConfigPrompts(reader *bufio.Reader, w io.Writer) (*config.Config, error) {
	cfg := config.NewConfig()

	fmt.Fprintln(w, "bulk-tag-editor configuration")
	fmt.Fprintln(w, "=============================")

	var err error
	if cfg.Host, err = promptLine(reader, w, "Booru host", cfg.Host); err != nil {
		return nil, err
	}
	if _, err := platform.Select(cfg.Host); err != nil {
		fmt.Fprintf(w, "  %s is not a known site; choose one of: %s\n", cfg.Host, strings.Join(platform.Keys(), ", "))
		if cfg.Platform, err = promptLine(reader, w, "Platform", "derpibooru"); err != nil {
			return nil, err
		}
	}
	if cfg.StoreDriver, err = promptLine(reader, w, "Store driver (json, sqlite, memory)", cfg.StoreDriver); err != nil {
		return nil, err
	}
	cfg.StorePath = config.DefaultStorePath(cfg.StoreDriver)
	if cfg.StoreDriver != kvstore.DriverMemory {
		if cfg.StorePath, err = promptLine(reader, w, "Store path", cfg.StorePath); err != nil {
			return nil, err
		}
	}
	notify, err := promptLine(reader, w, "Desktop notification when a bulk apply finishes (true/false)", "false")
	if err != nil {
		return nil, err
	}
	cfg.NotificationsEnabled, _ = strconv.ParseBool(notify)
	return cfg, nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Config file:    %s\n", configPath())
	fmt.Fprintf(w, "Host:           %s\n", cfg.Host)
	if cfg.Platform != "" {
		fmt.Fprintf(w, "Platform:       %s\n", cfg.Platform)
	}
	fmt.Fprintf(w, "Base URL:       %s\n", cfg.BaseURL())
	fmt.Fprintf(w, "Session cookie: %s\n", mask(cfg.SessionCookie))
	fmt.Fprintf(w, "User agent:     %s\n", cfg.UserAgent)
	if cfg.Cooldown > 0 {
		fmt.Fprintf(w, "Cooldown:       %s\n", cfg.Cooldown)
	}
	fmt.Fprintf(w, "Store:          %s (%s)\n", cfg.StoreDriver, cfg.StorePath)
	fmt.Fprintf(w, "Proxy mode:     %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(w, "Proxy:          %s:%d\n", cfg.ProxyHost, cfg.ProxyPort)
	}
	fmt.Fprintf(w, "Notifications:  %t\n", cfg.NotificationsEnabled)
	if cfg.LogFile != "" {
		fmt.Fprintf(w, "Log file:       %s\n", cfg.LogFile)
	}
}

// mask hides all but the last four characters of a secret.
func mask(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	}
}
