//go:build unix

package pty

import (
	"bufio"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestSpawnAndExit(t *testing.T) {
	master, slave, err := Native{}.OpenPTY(24, 80, 640, 480)
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	defer master.Close()

	proc, err := slave.SpawnCommand(exec.Command("/bin/sh", "-c", "stty size; echo ready"))
	if err != nil {
		t.Fatalf("SpawnCommand() = %v", err)
	}

	r := bufio.NewReader(master)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read = %v", err)
	}
	if got := strings.TrimSpace(line); got != "24 80" {
		t.Errorf("stty size = %q, want %q", got, "24 80")
	}

	child := proc.(*Child)
	select {
	case <-child.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("child did not exit")
	}
	exited, err := proc.TryWait()
	if !exited || err != nil {
		t.Errorf("TryWait() = %v, %v, want true, nil", exited, err)
	}
	if err := proc.Kill(); err != nil {
		t.Errorf("Kill() after exit = %v", err)
	}
}

func TestTryWaitRunning(t *testing.T) {
	master, slave, err := Native{}.OpenPTY(10, 10, 0, 0)
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	defer master.Close()

	proc, err := slave.SpawnCommand(exec.Command("/bin/sh", "-c", "sleep 30"))
	if err != nil {
		t.Fatal(err)
	}
	if exited, _ := proc.TryWait(); exited {
		t.Error("TryWait() = true for a running child")
	}
	if err := master.Resize(20, 40, 0, 0); err != nil {
		t.Errorf("Resize() = %v", err)
	}
	if err := proc.Kill(); err != nil {
		t.Fatalf("Kill() = %v", err)
	}
	<-proc.(*Child).Done()
	if exited, _ := proc.TryWait(); !exited {
		t.Error("TryWait() = false after Kill")
	}
}

func TestSpawnError(t *testing.T) {
	master, slave, err := Native{}.OpenPTY(10, 10, 0, 0)
	if err != nil {
		t.Skipf("no pty available: %v", err)
	}
	defer master.Close()
	defer slave.Close()

	_, err = slave.SpawnCommand(exec.Command("/nonexistent/binary"))
	var serr *SpawnError
	if !errors.As(err, &serr) {
		t.Fatalf("SpawnCommand() = %v, want *SpawnError", err)
	}
}
