package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/config"
	"github.com/theirongolddev/subkill/internal/pain"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the live counter of money wasted today",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()
	s, err := newSession(cfg, cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counter := pain.NewCounter(pain.RealClock{}, func(st pain.State) {
		printPain(st)
	})
	defer counter.Stop()

	reload := func() error {
		a, err := s.client.GetAnalytics(ctx, s.id.UserID)
		if err != nil {
			return err
		}
		st := counter.Restart(a.PainCounter)
		if !st.Running {
			fmt.Println("\r  Ничего не утекает: все подписки в деле 🎉")
			return nil
		}
		printPain(st)
		return nil
	}

	if err := reload(); err != nil {
		return fmt.Errorf("аналитика не загружена: %w", err)
	}
	fmt.Fprintln(os.Stderr, cli.Muted("  Ctrl+C для выхода"))

	ticker := time.NewTicker(config.ReloadInterval(cfg))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-ticker.C:
			if err := reload(); err != nil {
				s.log.WithError(err).Warn("analytics reload failed, counter keeps running")
			}
		}
	}
}

func printPain(st pain.State) {
	d := st.Display()
	fmt.Printf("\r  🔥 %s  %s  +%.2f₽/сек   ", cli.Waste("Утекает: "+d.Amount), d.Today, st.PerSecond())
}
