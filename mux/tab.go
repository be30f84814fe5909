// Package mux holds tabs and the collection the window cycles through.
package mux

import (
	"io"
	"os/exec"
	"sync/atomic"

	"github.com/Gskartwii/wezterm/term"
)

// TabID identifies a tab for the lifetime of the process. IDs are never
// reused.
type TabID uint64

var nextTabID atomic.Uint64

// NewTabID returns a fresh TabID.
func NewTabID() TabID {
	return TabID(nextTabID.Add(1))
}

// Pty is the master side of a pseudo terminal.
type Pty interface {
	io.ReadWriteCloser
	Resize(rows, cols, widthPx, heightPx int) error
}

// SlavePty is the side a child process is attached to.
type SlavePty interface {
	SpawnCommand(cmd *exec.Cmd) (Process, error)
	Close() error
}

// PtySystem opens pseudo terminal pairs.
type PtySystem interface {
	OpenPTY(rows, cols, widthPx, heightPx int) (Pty, SlavePty, error)
}

// Process is a child attached to a tab.
type Process interface {
	// TryWait reports without blocking whether the process has exited.
	TryWait() (exited bool, err error)
	Kill() error
}

// Tab is one terminal session.
type Tab struct {
	id       TabID
	terminal term.Terminal
	process  Process
	pty      Pty
}

// NewTab assembles a tab with a fresh id.
func NewTab(terminal term.Terminal, process Process, pty Pty) *Tab {
	return &Tab{id: NewTabID(), terminal: terminal, process: process, pty: pty}
}

func (t *Tab) ID() TabID               { return t.id }
func (t *Tab) Terminal() term.Terminal { return t.terminal }
func (t *Tab) Process() Process        { return t.process }
func (t *Tab) Pty() Pty                { return t.pty }

// Close kills the child and closes the pty. Both are attempted; the first
// error is returned.
func (t *Tab) Close() error {
	kerr := t.process.Kill()
	perr := t.pty.Close()
	if kerr != nil {
		return kerr
	}
	return perr
}
