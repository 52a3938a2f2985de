package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDaemonProcessClaimAndRelease(t *testing.T) {
	p := daemonProcess{pidFile: filepath.Join(t.TempDir(), "run", "subkilld.pid")}

	if _, _, err := p.running(); !os.IsNotExist(err) {
		t.Fatalf("running() before claim: err = %v, want not-exist", err)
	}
	if err := p.ensureStopped(); err != nil {
		t.Fatalf("ensureStopped() with no pid file: %v", err)
	}

	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rec := daemonRecord{PID: os.Getpid(), Addr: "127.0.0.1:9999", StartedAt: started, UserID: 42}
	if err := p.claim(rec); err != nil {
		t.Fatalf("claim: %v", err)
	}

	pid, alive, err := p.running()
	if err != nil || pid != os.Getpid() || !alive {
		t.Fatalf("running() = %d, %v, %v; want own pid alive", pid, alive, err)
	}
	if err := p.ensureStopped(); err == nil {
		t.Fatal("ensureStopped() should refuse while the owner is alive")
	}

	got, err := p.record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got.Addr != rec.Addr || got.UserID != 42 || !got.StartedAt.Equal(started) {
		t.Fatalf("record = %+v, want %+v", got, rec)
	}

	p.release()
	if _, err := os.Stat(p.pidFile); !os.IsNotExist(err) {
		t.Fatalf("pid file still present after release: %v", err)
	}
	if _, err := os.Stat(p.recordPath()); !os.IsNotExist(err) {
		t.Fatalf("record still present after release: %v", err)
	}
}

func TestDaemonProcessRejectsGarbagePID(t *testing.T) {
	p := daemonProcess{pidFile: filepath.Join(t.TempDir(), "subkilld.pid")}
	if err := os.WriteFile(p.pidFile, []byte("not-a-pid\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.running(); err == nil {
		t.Fatal("running() accepted a non-numeric pid")
	}
	if _, err := p.stop(time.Second); err == nil {
		t.Fatal("stop() succeeded without a daemon")
	}
	if _, err := os.Stat(p.pidFile); !os.IsNotExist(err) {
		t.Fatal("stop() should clear an unusable pid file")
	}
}
