package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var flagCancelYes bool

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	cancelCmd.Flags().BoolVarP(&flagCancelYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	id, err := parseSubscriptionID(args[0])
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if !flagCancelYes && !interactive {
		return errors.New("нет терминала для подтверждения, добавьте --yes")
	}

	s, err := newSession(loadConfigOrDefault(), cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	ctl, closeCache, err := s.newController(ctx, controller.WithConfirmer(cancelConfirmer()))
	cancel()
	if err != nil {
		return err
	}
	defer closeCache()

	sub, ok := ctl.Store().Subscription(id)
	if !ok {
		return fmt.Errorf("подписка %d не найдена", id)
	}
	if sub.Status == model.StatusCancelled {
		fmt.Printf("  %s уже отменена\n", sub.Name)
		return nil
	}

	// The prompt blocks inside Dispatch; the client timeout bounds the requests.
	out := ctl.Dispatch(cmd.Context(), controller.CancelSubscription{SubID: id})
	switch {
	case out.Err != nil && !out.Reloaded:
		return fmt.Errorf("%s: %w", out.Toast, out.Err)
	case out.Toast == "":
		fmt.Println("  Отмена не подтверждена")
	default:
		fmt.Printf("  %s\n", out.Toast)
	}
	return nil
}

// cancelConfirmer asks on the terminal unless --yes was given.
func cancelConfirmer() controller.Confirmer {
	return controller.ConfirmFunc(func(prompt string) bool {
		if flagCancelYes {
			return true
		}
		var ok bool
		err := huh.NewConfirm().
			Title(prompt).
			Affirmative("Да, отменить").
			Negative("Нет").
			Value(&ok).
			Run()
		return err == nil && ok
	})
}
