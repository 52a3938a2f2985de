package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/spf13/cobra"
)

var alternativesCmd = &cobra.Command{
	Use:     "alternatives <name>",
	Aliases: []string{"alts"},
	Short:   "Find cheaper alternatives to a service",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runAlternatives,
}

func init() {
	rootCmd.AddCommand(alternativesCmd)
}

func runAlternatives(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	s, err := newSession(loadConfigOrDefault(), cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	alts, err := s.client.FindAlternatives(ctx, name)
	if err != nil {
		s.log.WithError(err).WithField("name", name).Debug("alternatives lookup failed")
	}
	v := view.Alternatives(alts, err)

	fmt.Println()
	fmt.Println(cli.RenderTitle("💡 АЛЬТЕРНАТИВЫ: " + name))
	fmt.Println()

	if v.Message != "" {
		fmt.Printf("  %s\n\n", v.Message)
		if err != nil {
			return errReported
		}
		return nil
	}

	rows := make([][]string, 0, len(v.Rows))
	for _, r := range v.Rows {
		rows = append(rows, []string{r.Name, cli.Money(r.Price), r.Coverage})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Сервис", "Цена", ""},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
