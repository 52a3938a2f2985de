package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/subkill/internal/cli"
	"github.com/theirongolddev/subkill/internal/config"
	"github.com/theirongolddev/subkill/internal/daemon"
	"github.com/theirongolddev/subkill/internal/metrics"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background dashboard daemon with HTTP/SSE endpoints",
	Long: "Reload the dashboard on an interval, keep the pain counter ticking and serve\n" +
		"/healthz, /v1/status, /v1/events, /v1/stream (SSE) and /metrics.",
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Reload interval (default from config)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(config.CacheDir(), "subkilld.pid"), "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.CacheDir(), "subkilld.log"), "Log file path for detached mode")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	proc := daemonProcess{pidFile: flagDaemonPIDFile}
	if err := proc.ensureStopped(); err != nil {
		return err
	}
	if flagDaemonDetach {
		return spawnDaemon(proc)
	}
	return serveDaemon(proc)
}

// spawnDaemon re-executes the current command line as a detached child.
func spawnDaemon(proc daemonProcess) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := slices.DeleteFunc(slices.Clone(os.Args[1:]), func(a string) bool {
		return a == "--detach" || strings.HasPrefix(a, "--detach=")
	})
	args = append(args, "--child")

	for _, dir := range []string{filepath.Dir(proc.pidFile), filepath.Dir(flagDaemonLogFile)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create daemon directory: %w", err)
		}
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()

	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  PID file: %s\n", proc.pidFile)
	fmt.Printf("  API: http://%s/v1/status\n", daemonAddr())
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

// serveDaemon runs the service in this process until SIGINT or SIGTERM.
func serveDaemon(proc daemonProcess) error {
	cfg := loadConfigOrDefault()
	m := metrics.New()
	s, err := newSession(cfg, os.Stderr, m)
	if err != nil {
		return err
	}

	dcfg := daemonConfig(cfg, s)
	if err := proc.claim(daemonRecord{
		PID:       os.Getpid(),
		Addr:      dcfg.Addr,
		StartedAt: time.Now(),
		UserID:    s.id.UserID,
	}); err != nil {
		return err
	}
	defer proc.release()

	opts := []daemon.Option{
		daemon.WithMetrics(m),
		daemon.WithLogger(s.log),
	}
	if cache := s.openCache(); cache != nil {
		defer func() { _ = cache.Close() }()
		opts = append(opts, daemon.WithCache(cache))
	}
	svc := daemon.New(dcfg, s.client, opts...)

	s.log.WithFields(logrus.Fields{
		"addr":     dcfg.Addr,
		"interval": dcfg.Interval,
		"user_id":  dcfg.UserID,
		"api_url":  dcfg.APIURL,
	}).Info("daemon starting")
	fmt.Printf("  subkill daemon listening on http://%s\n", dcfg.Addr)
	fmt.Printf("  Stop with: subkill daemon stop --pid-file %s\n", proc.pidFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// daemonConfig merges daemon flags over the config file.
func daemonConfig(cfg config.Config, s *session) daemon.Config {
	dc := daemon.Config{
		UserID:       s.id.UserID,
		APIURL:       s.client.BaseURL(),
		Interval:     config.ReloadInterval(cfg),
		Addr:         cfg.Daemon.Addr,
		EventsBuffer: cfg.Daemon.EventsBuffer,
		RateLimit:    rate.Limit(cfg.Daemon.RateLimitRPS),
		RateBurst:    cfg.Daemon.RateLimitBurst,
	}
	if flagDaemonAddr != "" {
		dc.Addr = flagDaemonAddr
	}
	if flagDaemonInterval > 0 {
		dc.Interval = flagDaemonInterval
	}
	if flagDaemonEventsBuffer > 0 {
		dc.EventsBuffer = flagDaemonEventsBuffer
	}
	return dc
}

// daemonAddr is the address status probes use when no record exists.
func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	if addr := loadConfigOrDefault().Daemon.Addr; addr != "" {
		return addr
	}
	return "127.0.0.1:8787"
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	proc := daemonProcess{pidFile: flagDaemonPIDFile}
	pid, alive, err := proc.running()
	switch {
	case err != nil:
		fmt.Printf("  Daemon: not running (%v)\n", err)
		return nil
	case !alive:
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := daemonAddr()
	rec, recErr := proc.record()
	if recErr == nil && rec.Addr != "" {
		addr = rec.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)
	if recErr == nil && !rec.StartedAt.IsZero() {
		fmt.Printf("  Up since: %s\n", rec.StartedAt.Local().Format(time.RFC3339))
	}

	st, err := probeDaemon(cmd.Context(), addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}
	printDaemonStatus(st)
	return nil
}

// probeDaemon fetches /v1/status with a short deadline.
func probeDaemon(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func printDaemonStatus(st daemon.Status) {
	if st.LastReloadAt.IsZero() {
		fmt.Printf("  Last reload: pending\n")
	} else {
		fmt.Printf("  Last reload: %s\n", st.LastReloadAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Reload count: %d (every %ds)\n", st.ReloadCount, st.ReloadIntervalSec)
	fmt.Printf("  User: %d\n", st.UserID)
	fmt.Printf("  Subscriptions: %d (%d active, %d cancelled)\n",
		st.Summary.Subscriptions, st.Summary.ActiveCount, st.Summary.CancelledCount)
	fmt.Printf("  Monthly: %s, wasted %s, saved %s\n",
		cli.FormatRubles(st.Summary.TotalMonthly),
		cli.FormatRubles(st.Summary.WastedMonthly),
		cli.FormatRubles(st.Summary.SavedMonthly))
	fmt.Printf("  Health: %d/100\n", st.Summary.HealthScore)
	if st.Pain.Running {
		fmt.Printf("  Pain counter: %s (%s)\n", st.Pain.Amount, st.Pain.Today)
	}
	fmt.Printf("  Events: %d buffered, %d stream subscribers\n", st.EventCount, st.SubscriberCount)
	if len(st.FailedSections) > 0 {
		fmt.Printf("  Failed sections: %s\n", strings.Join(st.FailedSections, ", "))
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	proc := daemonProcess{pidFile: flagDaemonPIDFile}
	pid, err := proc.stop(8 * time.Second)
	if err != nil {
		return err
	}
	fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	return nil
}
