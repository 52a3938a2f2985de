package cmd

import (
	"fmt"

	"github.com/theirongolddev/subkill/internal/config"
	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/tui"
	"github.com/theirongolddev/subkill/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()
	theme.SetActive(cfg.Appearance.Theme)

	// The dashboard owns the terminal, so logs go to a file.
	logf, err := openLogFile(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logf.Close() }()

	s, err := newSession(cfg, logf, nil)
	if err != nil {
		return err
	}

	st := state.New(s.id.UserID)
	opts := []controller.Option{
		controller.WithConfirmer(tui.ModalConfirmed),
		controller.WithLogger(s.log),
	}

	if cache := s.openCache(); cache != nil {
		defer func() { _ = cache.Close() }()
		if snap, ok, err := cache.LoadSnapshot(s.id.UserID); err != nil {
			s.log.WithError(err).Warn("cached snapshot unreadable")
		} else if ok {
			st.Restore(snap)
		}
		opts = append(opts, s.cacheReloads(cache))
	}

	ctl := controller.New(s.client, st, opts...)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(ctl, tui.Options{
		Offline:     flagOffline,
		ReloadEvery: config.ReloadInterval(cfg),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
