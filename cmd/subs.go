package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/spf13/cobra"
)

var subsCmd = &cobra.Command{
	Use:     "subs",
	Aliases: []string{"subscriptions", "ls"},
	Short:   "List tracked subscriptions",
	RunE:    runSubs,
}

func init() {
	rootCmd.AddCommand(subsCmd)
}

func runSubs(cmd *cobra.Command, _ []string) error {
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

	list := view.Subscriptions(snap.Subscriptions, time.Now())

	fmt.Println()
	fmt.Println(cli.RenderTitle("📋 ПОДПИСКИ"))
	fmt.Println()

	if len(list.Cards) == 0 {
		fmt.Printf("  %s\n\n", list.Empty)
		fmt.Println("  Добавить: subkill add --name Netflix --price 999")
		return nil
	}

	rows := make([][]string, 0, len(list.Cards))
	for _, c := range list.Cards {
		price := cli.Money(c.Price + c.Period)
		if c.Class == "cancelled" {
			price = cli.Muted(c.Price + c.Period)
		}
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			c.Icon + " " + c.Name,
			c.Usage,
			price,
			c.Meta,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Подписка", "", "Цена", ""},
		Rows:    rows,
	}))

	if snap.Analytics != nil {
		fmt.Println()
		fmt.Printf("  Итого: %s/мес · впустую %s/мес\n",
			cli.Money(cli.FormatRubles(snap.Analytics.TotalMonthly)),
			cli.Waste(cli.FormatRubles(snap.Analytics.WastedMonthly)))
	}
	fmt.Println()
	fmt.Println(cli.Muted("  Подробнее: subkill tui"))
	return nil
}
