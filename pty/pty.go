//go:build unix

// Package pty opens pseudo terminal pairs and spawns children on them.
package pty

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"

	"github.com/Gskartwii/wezterm/mux"
)

// ErrOpen wraps failures to allocate a pty pair.
var ErrOpen = errors.New("pty: open failed")

// SpawnError is returned when a command cannot be started on a pty.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("pty: spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Native opens pairs through the operating system.
type Native struct{}

var _ mux.PtySystem = Native{}

// OpenPTY allocates a pair and sets its initial window size.
func (Native) OpenPTY(rows, cols, widthPx, heightPx int) (mux.Pty, mux.SlavePty, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	m := &Master{f: master}
	if err := m.Resize(rows, cols, widthPx, heightPx); err != nil {
		master.Close()
		slave.Close()
		return nil, nil, err
	}
	return m, &Slave{f: slave}, nil
}

// Master is the controlling side of a pair.
type Master struct {
	f *os.File
}

func (m *Master) Read(p []byte) (int, error)  { return m.f.Read(p) }
func (m *Master) Write(p []byte) (int, error) { return m.f.Write(p) }
func (m *Master) Close() error                { return m.f.Close() }

// Resize updates the window size seen by the child.
func (m *Master) Resize(rows, cols, widthPx, heightPx int) error {
	err := pty.Setsize(m.f, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
		X:    uint16(widthPx),
		Y:    uint16(heightPx),
	})
	if err != nil {
		return fmt.Errorf("pty: resize to %dx%d: %w", cols, rows, err)
	}
	return nil
}

// Slave is the side children attach to.
type Slave struct {
	f *os.File
}

// SpawnCommand starts cmd as a session leader with the slave as its
// controlling terminal. The slave is closed in the parent afterwards
// since only the child needs it.
func (s *Slave) SpawnCommand(cmd *exec.Cmd) (mux.Process, error) {
	cmd.Stdin = s.f
	cmd.Stdout = s.f
	cmd.Stderr = s.f
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: cmd.Path, Err: err}
	}
	s.f.Close()
	return newChild(cmd), nil
}

func (s *Slave) Close() error { return s.f.Close() }

// Child is a running command. Its exit is collected by a goroutine so
// TryWait never blocks.
type Child struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu  sync.Mutex
	err error
}

func newChild(cmd *exec.Cmd) *Child {
	c := &Child{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	}()
	return c
}

// TryWait reports whether the child has exited. A non-zero exit status is
// reported as exited with a nil error; err is only set when waiting failed.
func (c *Child) TryWait() (bool, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		var exitErr *exec.ExitError
		if c.err != nil && !errors.As(c.err, &exitErr) {
			return true, c.err
		}
		return true, nil
	default:
		return false, nil
	}
}

// Done is closed when the child exits.
func (c *Child) Done() <-chan struct{} { return c.done }

// Pid returns the child's process id.
func (c *Child) Pid() int { return c.cmd.Process.Pid }

// Kill terminates the child. Killing an exited child is not an error.
func (c *Child) Kill() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
