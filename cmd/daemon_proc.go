package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// daemonRecord is written next to the pid file while the daemon runs.
type daemonRecord struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	UserID    int64     `json:"user_id"`
}

// daemonProcess manages the pid file and its JSON record.
type daemonProcess struct {
	pidFile string
}

func (p daemonProcess) recordPath() string {
	return p.pidFile + ".json"
}

// running reads the pid file and probes the process.
func (p daemonProcess) running() (pid int, alive bool, err error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(p.pidFile)
	if err != nil {
		return 0, false, err
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("invalid pid in %s", p.pidFile)
	}
	return pid, processAlive(pid), nil
}

// ensureStopped fails if a live daemon owns the pid file and clears a stale one.
func (p daemonProcess) ensureStopped() error {
	pid, alive, err := p.running()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	p.release()
	return nil
}

// claim writes the pid file and the record for the current process.
func (p daemonProcess) claim(rec daemonRecord) error {
	if err := os.MkdirAll(filepath.Dir(p.pidFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(p.pidFile, []byte(strconv.Itoa(rec.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	// The record only enriches status output.
	_ = os.WriteFile(p.recordPath(), append(data, '\n'), 0o600)
	return nil
}

func (p daemonProcess) release() {
	_ = os.Remove(p.pidFile)
	_ = os.Remove(p.recordPath())
}

func (p daemonProcess) record() (daemonRecord, error) {
	var rec daemonRecord
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(p.recordPath())
	if err != nil {
		return rec, err
	}
	return rec, json.Unmarshal(data, &rec)
}

// stop sends SIGTERM and waits up to timeout for the process to exit.
func (p daemonProcess) stop(timeout time.Duration) (int, error) {
	pid, alive, err := p.running()
	if err != nil || !alive {
		p.release()
		return 0, errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("signal daemon process: %w", err)
	}

	poll := time.NewTicker(150 * time.Millisecond)
	defer poll.Stop()
	deadline := time.After(timeout)
	for {
		select {
		case <-poll.C:
			if !processAlive(pid) {
				p.release()
				return pid, nil
			}
		case <-deadline:
			return pid, fmt.Errorf("daemon (pid %d) did not exit in time", pid)
		}
	}
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
