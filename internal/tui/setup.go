package tui

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/theirongolddev/subkill/internal/config"
	"github.com/theirongolddev/subkill/internal/identity"
	"github.com/theirongolddev/subkill/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

var (
	errBadURL    = errors.New("нужен адрес вида http://host:port")
	errBadUserID = errors.New("id должен быть положительным числом")
)

// SetupValues holds the first-run wizard's raw answers.
type SetupValues struct {
	APIURL    string
	UserID    string
	LaunchURL string
	Theme     string
}

// SetupValuesFrom prefills the wizard from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	v := SetupValues{
		APIURL:    cfg.Backend.URL,
		LaunchURL: cfg.General.LaunchURL,
		Theme:     cfg.Appearance.Theme,
	}
	if cfg.General.UserID > 0 {
		v.UserID = strconv.FormatInt(cfg.General.UserID, 10)
	}
	return v
}

// NewSetupForm builds the first-run wizard over vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, th := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(th.Name, th.Name))
	}
	if vals.Theme == "" {
		vals.Theme = theme.All[0].Name
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Добро пожаловать в SubKiller").
				Description("Пара вопросов, и дашборд готов.\nВсё можно поменять позже: subkill setup"),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Адрес сервера").
				Placeholder(config.DefaultConfig().Backend.URL).
				Validate(validateBaseURL).
				Value(&vals.APIURL),
			huh.NewInput().
				Title("Telegram user id").
				Description("Можно оставить пустым и указать ссылку запуска").
				Validate(validateUserID).
				Value(&vals.UserID),
			huh.NewInput().
				Title("Ссылка запуска мини-приложения").
				Description("Например https://host/app?user_id=123").
				Value(&vals.LaunchURL),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Цветовая тема").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true).WithTheme(huh.ThemeCharm())
}

// Apply writes the answers into cfg. A user id is taken from the launch URL
// when none was typed.
func (v SetupValues) Apply(cfg *config.Config) {
	if u := strings.TrimSpace(v.APIURL); u != "" {
		cfg.Backend.URL = strings.TrimRight(u, "/")
	}
	cfg.General.LaunchURL = strings.TrimSpace(v.LaunchURL)

	if id, err := strconv.ParseInt(strings.TrimSpace(v.UserID), 10, 64); err == nil && id > 0 {
		cfg.General.UserID = id
	} else if id, err := identity.UserIDFromLaunchURL(cfg.General.LaunchURL); err == nil {
		cfg.General.UserID = id
	}

	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
}

func validateBaseURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errBadURL
	}
	return nil
}

func validateUserID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err != nil || id <= 0 {
		return errBadUserID
	}
	return nil
}
