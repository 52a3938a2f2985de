package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/subkill/internal/cli"

	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show who saved the most by cancelling",
	RunE:  runLeaderboard,
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	s, err := newSession(loadConfigOrDefault(), cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	lb, err := s.client.GetLeaderboard(ctx)
	if err != nil {
		return fmt.Errorf("рейтинг не загружен: %w", err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("🥇 РЕЙТИНГ"))
	fmt.Println()

	if len(lb.Entries) == 0 {
		fmt.Println("  Пока никто ничего не отменил")
		fmt.Println()
		return nil
	}

	medals := map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}
	rows := make([][]string, 0, len(lb.Entries))
	for _, e := range lb.Entries {
		pos := strconv.Itoa(e.Position)
		if m, ok := medals[e.Position]; ok {
			pos = m
		}
		rows = append(rows, []string{
			pos,
			e.Name,
			cli.Money(cli.FormatRubles(e.Saved)),
			strconv.Itoa(e.Cancelled),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "Имя", "Сэкономлено", "Отменено"},
		Rows:    rows,
	}))
	fmt.Printf("  Всего сэкономлено: %s · участников: %d\n\n",
		cli.Money(cli.FormatRubles(lb.TotalSaved)), lb.TotalUsers)
	return nil
}
