package cmd

import (
	"fmt"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/spf13/cobra"
)

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Show earned and locked achievements",
	RunE:  runAchievements,
}

func init() {
	rootCmd.AddCommand(achievementsCmd)
}

func runAchievements(cmd *cobra.Command, _ []string) error {
	s, err := newSession(loadConfigOrDefault(), cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	v := view.Achievements(snap.Achievements)

	fmt.Println()
	fmt.Println(cli.RenderTitle("🏆 АЧИВКИ"))
	fmt.Println()

	if v.EarnedEmpty != "" {
		fmt.Printf("  %s\n", v.EarnedEmpty)
	}
	for _, a := range v.Earned {
		fmt.Printf("  %s %s\n", a.Emoji, a.Name)
		if a.Description != "" {
			fmt.Printf("     %s\n", cli.Muted(a.Description))
		}
	}

	if v.ShowLocked {
		fmt.Println()
		fmt.Println("  Ещё не открыты")
		for _, a := range v.Locked {
			fmt.Printf("  %s %s  %s\n", a.Emoji, cli.Muted(a.Name), cli.Muted(a.Description))
		}
	}
	fmt.Println()
	return nil
}
