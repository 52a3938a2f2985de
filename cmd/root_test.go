package cmd

import (
	"io"
	"testing"

	"github.com/theirongolddev/subkill/internal/config"

	"github.com/sirupsen/logrus"
)

func withLogFlags(t *testing.T, quiet bool, level string) {
	t.Helper()
	prevQuiet, prevLevel := flagQuiet, flagLogLevel
	flagQuiet, flagLogLevel = quiet, level
	t.Cleanup(func() { flagQuiet, flagLogLevel = prevQuiet, prevLevel })
}

func TestNewLoggerLevels(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"

	tests := []struct {
		name  string
		quiet bool
		flag  string
		want  logrus.Level
	}{
		{"config level", false, "", logrus.WarnLevel},
		{"flag wins over config", false, "debug", logrus.DebugLevel},
		{"quiet caps info", true, "info", logrus.ErrorLevel},
		{"quiet caps config level", true, "", logrus.ErrorLevel},
		{"quiet keeps fatal", true, "fatal", logrus.FatalLevel},
		{"bad level falls back to info", false, "loud", logrus.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withLogFlags(t, tt.quiet, tt.flag)
			log := newLogger(cfg, io.Discard)
			if got := log.GetLevel(); got != tt.want {
				t.Fatalf("level = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuietSilencesInfo(t *testing.T) {
	withLogFlags(t, true, "debug")
	log := newLogger(config.DefaultConfig(), io.Discard)
	for _, lvl := range []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.DebugLevel} {
		if log.IsLevelEnabled(lvl) {
			t.Errorf("%s enabled under --quiet", lvl)
		}
	}
	if !log.IsLevelEnabled(logrus.ErrorLevel) {
		t.Error("errors must still be logged under --quiet")
	}
}
