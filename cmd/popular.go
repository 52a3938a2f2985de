package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/spf13/cobra"
)

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List popular services available for quick add",
	RunE:  runPopular,
}

func init() {
	rootCmd.AddCommand(popularCmd)
}

func runPopular(cmd *cobra.Command, _ []string) error {
	s, err := newSession(loadConfigOrDefault(), cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	catalog, err := s.client.GetPopularSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("каталог не загружен: %w", err)
	}
	grid := view.Popular(catalog)

	names := make(map[string]string, len(grid.Categories))
	for _, c := range grid.Categories {
		names[c.Key] = c.Name
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("⚡ ПОПУЛЯРНЫЕ"))
	fmt.Println()

	if len(grid.Tiles) == 0 {
		fmt.Println("  Каталог пуст")
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(grid.Tiles))
	for i, t := range grid.Tiles {
		category := names[t.Prefill.Category]
		if category == "" {
			category = t.Prefill.Category
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			cli.CategoryIcon(t.Prefill.Category) + " " + t.Name,
			category,
			cli.Money(t.Price),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"#", "Сервис", "Категория", "Цена"},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Println(cli.Muted("  Добавить: subkill add --popular <#>"))
	fmt.Println()
	return nil
}
