package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/tui"
	"github.com/theirongolddev/subkill/internal/view"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagAddName     string
	flagAddPrice    string
	flagAddCategory string
	flagAddCycle    string
	flagAddDate     string
	flagAddTrial    bool
	flagAddPopular  int
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a subscription",
	Long: "Add a subscription from flags. Missing name or price opens a form when\n" +
		"stdin is a terminal. --popular prefills from the quick-add catalog.",
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&flagAddName, "name", "", "Service name")
	addCmd.Flags().StringVar(&flagAddPrice, "price", "", "Price per billing period, rubles")
	addCmd.Flags().StringVar(&flagAddCategory, "category", "", "Category key, e.g. streaming")
	addCmd.Flags().StringVar(&flagAddCycle, "cycle", "", "Billing cycle: weekly, monthly, quarterly, yearly")
	addCmd.Flags().StringVar(&flagAddDate, "date", "", "Next billing date, YYYY-MM-DD")
	addCmd.Flags().BoolVar(&flagAddTrial, "trial", false, "Subscription is a trial; --date is its end")
	addCmd.Flags().IntVar(&flagAddPopular, "popular", 0, "Prefill from entry # of `subkill popular`")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	s, err := newSession(loadConfigOrDefault(), cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	ctl, closeCache, err := s.newController(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer closeCache()

	grid := view.Popular(ctl.Store().Snapshot().Popular)
	if flagAddPopular != 0 {
		if flagAddPopular < 1 || flagAddPopular > len(grid.Tiles) {
			return fmt.Errorf("нет популярного сервиса #%d (всего %d)", flagAddPopular, len(grid.Tiles))
		}
		ctx, cancel := requestContext(cmd)
		ctl.Dispatch(ctx, controller.QuickAdd{Entry: grid.Tiles[flagAddPopular-1].Prefill})
		cancel()
	}

	form := addFormFromFlags(cmd, ctl.Form())
	if form.Name == "" || form.Price == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("нужны --name и --price")
		}
		if err := tui.NewAddForm(&form, grid.Categories).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("add form: %w", err)
		}
	}

	ctx, cancel = requestContext(cmd)
	defer cancel()
	out := ctl.Dispatch(ctx, controller.Submit{Form: form})
	if out.Err != nil && !out.Reloaded {
		return fmt.Errorf("%s: %w", out.Toast, out.Err)
	}
	fmt.Printf("  %s\n", out.Toast)
	return nil
}

// addFormFromFlags overlays explicitly set flags on base.
func addFormFromFlags(cmd *cobra.Command, base controller.Form) controller.Form {
	f := base
	flags := cmd.Flags()
	if flags.Changed("name") {
		f.Name = flagAddName
	}
	if flags.Changed("price") {
		f.Price = flagAddPrice
	}
	if flags.Changed("category") {
		f.Category = flagAddCategory
	}
	if flags.Changed("cycle") {
		f.Cycle = flagAddCycle
	}
	if flags.Changed("date") {
		f.Date = flagAddDate
	}
	if flags.Changed("trial") {
		f.Trial = flagAddTrial
	}
	return f
}
