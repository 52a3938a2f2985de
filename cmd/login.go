package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/subkill/internal/config"
	"github.com/theirongolddev/subkill/internal/identity"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login [init-data]",
	Short: "Save mini-app launch data to the OS keyring",
	Long: "Save the mini-app launch data (Telegram initData) so every command runs as\n" +
		"that user. Without an argument it is read from stdin without echo.",
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget saved launch data and the cached dashboard",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(_ *cobra.Command, args []string) error {
	var initData string
	if len(args) == 1 {
		initData = args[0]
	} else {
		var err error
		if initData, err = readSecret("  Данные запуска: "); err != nil {
			return err
		}
	}
	initData = strings.TrimSpace(initData)
	if initData == "" {
		return errors.New("пустые данные запуска")
	}

	userID, err := identity.UserIDFromInitData(initData)
	if err != nil {
		return fmt.Errorf("в данных запуска нет пользователя: %w", err)
	}

	cfg := loadConfigOrDefault()
	if token := config.GetBotToken(cfg); token != "" {
		if err := identity.Validate(initData, token); err != nil {
			return fmt.Errorf("подпись не прошла проверку: %w", err)
		}
	}

	if err := identity.SaveInitData(initData); err != nil {
		return err
	}

	fmt.Printf("  Сохранено. Пользователь: %d\n", userID)
	if config.GetBotToken(cfg) == "" {
		fmt.Println("  Подпись не проверялась: токен бота не настроен.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	// Resolve before deleting so the right cached snapshot goes too.
	s, sessErr := newSession(cfg, cmd.ErrOrStderr(), nil)

	if err := identity.DeleteInitData(); err != nil {
		return err
	}
	fmt.Println("  Данные запуска удалены")

	if sessErr != nil {
		return nil
	}
	if cache := s.openCache(); cache != nil {
		defer func() { _ = cache.Close() }()
		if err := cache.DeleteSnapshot(s.id.UserID); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Printf("  Кэш пользователя %d очищен\n", s.id.UserID)
	}
	return nil
}

// readSecret reads one line without echo from a terminal, or plainly from a
// pipe.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return line, nil
}
