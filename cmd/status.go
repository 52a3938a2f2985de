package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subkill/internal/api"
	"github.com/theirongolddev/subkill/internal/cli"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// statusReloads is how many cached reloads the status view lists.
const statusReloads = 5

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend health, resolved identity and recent reloads",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := newSession(loadConfigOrDefault(), cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	fmt.Println()
	fmt.Println(cli.RenderTitle("SUBKILLER STATUS"))
	fmt.Println()

	rows := [][]string{
		{"Сервер", s.client.BaseURL()},
		{"Пользователь", fmt.Sprintf("%d (%s)", s.id.UserID, s.id.Source)},
	}
	if s.initData != "" {
		rows = append(rows, []string{"Данные запуска", maskSecret(s.initData)})
	}

	warnStyle := lipgloss.NewStyle().Foreground(cli.ColorOrange)
	if flagOffline {
		rows = append(rows, []string{"Backend", "не проверялся (офлайн)"})
	} else {
		h, err := s.client.Health(ctx)
		switch {
		case err == nil:
			rows = append(rows, []string{"Backend", cli.Money(h.Status + " · " + h.Service)})
		case api.IsNetwork(err):
			rows = append(rows, []string{"Backend", warnStyle.Render("недоступен")})
		default:
			rows = append(rows, []string{"Backend", warnStyle.Render(err.Error())})
		}
	}

	fmt.Print(cli.RenderTable(cli.Table{Rows: rows}))

	cache := s.openCache()
	if cache == nil {
		fmt.Println()
		fmt.Println(cli.Muted("  Кэш отключён"))
		return nil
	}
	defer func() { _ = cache.Close() }()

	reloads, err := cache.RecentReloads(s.id.UserID, statusReloads)
	if err != nil {
		return fmt.Errorf("reading reload history: %w", err)
	}
	if len(reloads) == 0 {
		fmt.Println()
		fmt.Println(cli.Muted("  Загрузок ещё не было"))
		return nil
	}

	history := make([][]string, 0, len(reloads))
	for _, r := range reloads {
		result := cli.Money("ok")
		if !r.OK {
			result = warnStyle.Render("ошибки: " + strings.Join(r.Failed, ", "))
		}
		history = append(history, []string{r.At.Local().Format("02.01 15:04:05"), result})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Последние загрузки",
		Headers: []string{"Время", "Результат"},
		Rows:    history,
	}))
	fmt.Println()
	return nil
}
