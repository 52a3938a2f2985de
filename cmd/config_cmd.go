package cmd

import (
	"fmt"

	"github.com/theirongolddev/subkill/internal/config"
	"github.com/theirongolddev/subkill/internal/identity"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	if id := config.GetUserID(cfg); id > 0 {
		fmt.Printf("    User id:    %d\n", id)
	} else {
		fmt.Println("    User id:    not set")
	}
	if cfg.General.LaunchURL != "" {
		fmt.Printf("    Launch URL: %s\n", cfg.General.LaunchURL)
	}
	fmt.Println()

	fmt.Println("  [Backend]")
	fmt.Printf("    URL:       %s\n", config.GetAPIURL(cfg))
	if t := config.RequestTimeout(cfg); t > 0 {
		fmt.Printf("    Timeout:   %s\n", t)
	} else {
		fmt.Println("    Timeout:   none")
	}
	if token := config.GetBotToken(cfg); token != "" {
		fmt.Printf("    Bot token: %s\n", maskSecret(token))
	} else {
		fmt.Println("    Bot token: not configured (launch data is not verified)")
	}
	initData, err := identity.LoadInitData()
	switch {
	case err != nil:
		fmt.Printf("    Launch data: keyring unavailable (%v)\n", err)
	case initData != "":
		fmt.Printf("    Launch data: %s\n", maskSecret(initData))
	default:
		fmt.Println("    Launch data: not saved (subkill login)")
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:    %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Reload:     every %s\n", config.ReloadInterval(cfg))
	fmt.Printf("    Rate limit: %.1f rps, burst %d\n", cfg.Daemon.RateLimitRPS, cfg.Daemon.RateLimitBurst)
	fmt.Printf("    Events:     %d buffered\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Cache]")
	if cfg.Cache.Enabled {
		fmt.Printf("    Snapshots: %s\n", config.CachePath(cfg))
	} else {
		fmt.Println("    Snapshots: disabled")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level: %s\n", cfg.Logging.Level)
	fmt.Printf("    File:  %s\n", config.LogPath(cfg))
	fmt.Println()

	fmt.Println("  Run `subkill setup` to reconfigure.")
	return nil
}
