package cmd

import (
	"fmt"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/pain"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:     "analytics",
	Aliases: []string{"stats"},
	Short:   "Show spending analytics and subscription health",
	RunE:    runAnalytics,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
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

	p := view.Analytics(snap.Analytics)

	fmt.Println()
	fmt.Println(cli.RenderTitle("📊 АНАЛИТИКА"))
	fmt.Println()

	if !p.Visible {
		fmt.Println("  Аналитика ещё не загружена")
		fmt.Println()
		return nil
	}

	fmt.Printf("  Здоровье подписок: %s %s\n\n",
		cli.Colored(p.HealthColor, fmt.Sprintf("%d/100", p.HealthScore)), p.HealthEmoji)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "В месяц", "В год"},
		Rows: [][]string{
			{"Траты", p.TotalMonthly, p.TotalYearly},
			{"Впустую", cli.Waste(p.WastedMonthly), cli.Waste(p.WastedYearly)},
			{"Сэкономлено", cli.Money(p.SavedMonthly), ""},
		},
	}))
	fmt.Printf("  Активных: %d · отменено: %d\n\n", p.ActiveCount, p.CancelledCount)

	if p.PainBanner {
		st := pain.Start(snap.Analytics.PainCounter, snap.LoadedAt)
		d := st.Display()
		fmt.Printf("  🔥 %s  %s\n", cli.Waste("Утекает: "+d.Amount), d.Today)
		fmt.Println(cli.Muted("     Живой счётчик: subkill watch"))
		fmt.Println()
	}

	fmt.Println("  Если инвестировать впустую потраченное в S&P 500:")
	fmt.Printf("    через 5 лет:  %s\n", cli.Money(p.Invest5y))
	fmt.Printf("    через 10 лет: %s\n", cli.Money(p.Invest10y))
	fmt.Println()

	fmt.Println("  По категориям")
	if p.CategoriesEmpty != "" {
		fmt.Printf("    %s\n\n", p.CategoriesEmpty)
		return nil
	}
	top := p.Categories[0].Amount
	for _, c := range p.Categories {
		fmt.Printf("%s %s\n", cli.RenderHorizontalBar(c.Name, c.Amount, top, 30), c.Label)
	}
	fmt.Println()
	return nil
}
