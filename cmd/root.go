// Package cmd implements the subkill CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/theirongolddev/subkill/internal/api"
	"github.com/theirongolddev/subkill/internal/config"
	"github.com/theirongolddev/subkill/internal/controller"
	"github.com/theirongolddev/subkill/internal/identity"
	"github.com/theirongolddev/subkill/internal/metrics"
	"github.com/theirongolddev/subkill/internal/state"
	"github.com/theirongolddev/subkill/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagAPIURL    string
	flagUserID    int64
	flagLaunchURL string
	flagQuiet     bool
	flagLogLevel  string
	flagOffline   bool
	flagEnvFile   string
)

var rootCmd = &cobra.Command{
	Use:   "subkill",
	Short: "SubKiller subscription dashboard",
	Long:  "Track recurring subscriptions, see what you waste, and cancel what you don't use.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadDotEnv(flagEnvFile)
	},
	RunE:          runTUI,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "  Ошибка: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "SubKiller backend URL (overrides config and "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().Int64Var(&flagUserID, "user-id", 0, "Telegram user id fallback")
	rootCmd.PersistentFlags().StringVar(&flagLaunchURL, "launch-url", "", "Mini-app launch URL carrying ?user_id=")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Use the last cached snapshot, no network")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Optional dotenv file")
}

// errReported marks errors whose message was already printed.
var errReported = errors.New("reported")

// session is everything a command needs to talk to the backend as one user.
type session struct {
	cfg      config.Config
	log      *logrus.Logger
	id       identity.Identity
	initData string
	client   *api.Client
}

// loadConfigOrDefault loads config, returning defaults on error.
// This ensures commands can always start even if config is corrupted.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Конфиг не прочитан (%v), использую значения по умолчанию\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// newLogger builds the process logger. Flag level wins over config.
func newLogger(cfg config.Config, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := flagLogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if flagQuiet && lvl > logrus.ErrorLevel {
		lvl = logrus.ErrorLevel
	}
	log.SetLevel(lvl)
	return log
}

// openLogFile opens the configured log file for modes that own the terminal.
func openLogFile(cfg config.Config) (*os.File, error) {
	path := config.LogPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	//nolint:gosec // log path is configured by the local user
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
}

// newSession resolves identity and builds the API client. logOut receives
// log lines; m may be nil.
func newSession(cfg config.Config, logOut io.Writer, m *metrics.Metrics) (*session, error) {
	log := newLogger(cfg, logOut)

	initData, err := identity.LoadInitData()
	if err != nil {
		log.WithError(err).Warn("keyring unavailable")
	}
	if initData != "" {
		if token := config.GetBotToken(cfg); token != "" {
			if err := identity.Validate(initData, token); err != nil {
				return nil, fmt.Errorf("сохранённые данные запуска не прошли проверку: %w", err)
			}
		}
	}

	launchURL := cfg.General.LaunchURL
	if flagLaunchURL != "" {
		launchURL = flagLaunchURL
	}
	userID := config.GetUserID(cfg)
	if flagUserID > 0 {
		userID = flagUserID
	}

	id, err := identity.Resolve(identity.Sources{
		InitData:     initData,
		LaunchURL:    launchURL,
		ConfigUserID: userID,
	})
	if errors.Is(err, identity.ErrNoIdentity) {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "  Откройте через Telegram бота")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "  Или укажите пользователя:")
		fmt.Fprintln(os.Stderr, "    subkill login                      (данные запуска мини-приложения)")
		fmt.Fprintln(os.Stderr, "    subkill --user-id 123456 subs")
		fmt.Fprintln(os.Stderr, "    subkill setup")
		fmt.Fprintln(os.Stderr)
		return nil, errReported
	}
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"user_id": id.UserID, "source": id.Source}).Debug("identity resolved")

	apiURL := config.GetAPIURL(cfg)
	if flagAPIURL != "" {
		apiURL = flagAPIURL
	}

	opts := []api.Option{
		api.WithLogger(log),
		api.WithTimeout(config.RequestTimeout(cfg)),
	}
	if initData != "" {
		opts = append(opts, api.WithInitData(initData))
	}
	if m != nil {
		opts = append(opts, api.WithMetrics(m))
	}

	return &session{
		cfg:      cfg,
		log:      log,
		id:       id,
		initData: initData,
		client:   api.New(apiURL, opts...),
	}, nil
}

// openCache opens the snapshot cache, or returns nil when disabled or broken.
func (s *session) openCache() *store.Cache {
	if !s.cfg.Cache.Enabled {
		return nil
	}
	path := config.CachePath(s.cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		s.log.WithError(err).Warn("cache directory unavailable")
		return nil
	}
	c, err := store.Open(path)
	if err != nil {
		s.log.WithError(err).Warn("cache unavailable")
		return nil
	}
	return c
}

// loadSnapshot returns the dashboard for one-shot commands: the cache in
// offline mode, a fresh load otherwise. Fresh loads are written back to the
// cache.
func (s *session) loadSnapshot(ctx context.Context) (state.Snapshot, error) {
	cache := s.openCache()
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	if flagOffline {
		if cache == nil {
			return state.Snapshot{}, errors.New("кэш отключён, офлайн-режим недоступен")
		}
		snap, ok, err := cache.LoadSnapshot(s.id.UserID)
		if err != nil {
			return state.Snapshot{}, err
		}
		if !ok {
			return state.Snapshot{}, errors.New("нет сохранённых данных, запустите без --offline")
		}
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Офлайн: данные от %s\n", snap.LoadedAt.Local().Format("02.01 15:04"))
		}
		return snap, nil
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Загружаю данные...\n")
	}

	st := state.New(s.id.UserID)
	b := s.client.LoadAll(ctx, s.id.UserID)
	st.Apply(b)
	snap := st.Snapshot()

	failed := b.FailedSections()
	if len(failed) > 0 && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Не загрузилось: %s\n", strings.Join(failed, ", "))
	}
	if b.UserErr != nil && b.SubsErr != nil && b.AnalyticsErr != nil {
		return snap, fmt.Errorf("данные не загружены: %w", b.Err())
	}

	if cache != nil {
		if err := cache.SaveSnapshot(snap); err != nil {
			s.log.WithError(err).Warn("cache write failed")
		}
		if err := cache.RecordReload(s.id.UserID, snap.LoadedAt, failed); err != nil {
			s.log.WithError(err).Warn("cache write failed")
		}
	}
	return snap, nil
}

// errOffline is returned by commands that change data when --offline is set.
var errOffline = errors.New("офлайн: изменения недоступны")

// newController loads a fresh dashboard into a controller so commands that
// change data run through the same actions as the dashboard. The returned
// closer releases the cache.
func (s *session) newController(ctx context.Context, opts ...controller.Option) (*controller.Controller, func(), error) {
	if flagOffline {
		return nil, nil, errOffline
	}

	opts = append([]controller.Option{controller.WithLogger(s.log)}, opts...)
	closer := func() {}
	if cache := s.openCache(); cache != nil {
		closer = func() { _ = cache.Close() }
		opts = append(opts, s.cacheReloads(cache))
	}

	ctl := controller.New(s.client, state.New(s.id.UserID), opts...)
	if out := ctl.Dispatch(ctx, controller.Reload{}); out.Toast == controller.ToastLoadFailed {
		closer()
		return nil, nil, fmt.Errorf("данные не загружены: %w", out.Err)
	}
	return ctl, closer, nil
}

// cacheReloads writes every controller reload to the cache.
func (s *session) cacheReloads(cache *store.Cache) controller.Option {
	return controller.OnReload(func(snap state.Snapshot, b *api.Bundle) {
		if err := cache.SaveSnapshot(snap); err != nil {
			s.log.WithError(err).Warn("cache write failed")
		}
		if err := cache.RecordReload(snap.UserID, snap.LoadedAt, b.FailedSections()); err != nil {
			s.log.WithError(err).Warn("cache write failed")
		}
	})
}

// requestContext scopes a command's requests to Ctrl+C. Request deadlines
// come only from the client's configured timeout.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// maskSecret shortens a secret for display.
func maskSecret(s string) string {
	if len(s) > 16 {
		return s[:8] + "..." + s[len(s)-4:]
	}
	if len(s) > 4 {
		return s[:4] + "..."
	}
	return "****"
}
