package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/model"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage <id> <high|medium|low|none|unknown>",
	Short: "Record how often you use a subscription",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	id, err := parseSubscriptionID(args[0])
	if err != nil {
		return err
	}
	level := model.UsageLevel(strings.ToLower(args[1]))
	if !slices.Contains(model.UsageLevels, level) {
		return fmt.Errorf("неизвестный уровень %q, варианты: %s", args[1], usageLevelList())
	}

	s, err := newSession(loadConfigOrDefault(), cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	ctl, closeCache, err := s.newController(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	sub, ok := ctl.Store().Subscription(id)
	if !ok {
		return fmt.Errorf("подписка %d не найдена", id)
	}

	out := ctl.Dispatch(ctx, controller.SaveUsage{SubID: id, Level: level})
	if out.Err != nil && !out.Reloaded {
		return fmt.Errorf("%s: %w", out.Toast, out.Err)
	}
	fmt.Printf("  %s %s %s: %s\n", out.Toast, cli.UsageEmoji(level), sub.Name, cli.UsageLabel(level))
	return nil
}

func parseSubscriptionID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный id подписки %q (см. subkill subs)", s)
	}
	return id, nil
}

func usageLevelList() string {
	names := make([]string, 0, len(model.UsageLevels))
	for _, l := range model.UsageLevels {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}
