//go:build unix

package main

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gskartwii/wezterm/config"
	"github.com/Gskartwii/wezterm/font"
	"github.com/Gskartwii/wezterm/mux"
	"github.com/Gskartwii/wezterm/render"
	"github.com/Gskartwii/wezterm/term"
	"github.com/Gskartwii/wezterm/window"
)

type lastWordsProcess struct {
	exited atomic.Bool
}

func (p *lastWordsProcess) TryWait() (bool, error) { return p.exited.Load(), nil }
func (p *lastWordsProcess) Kill() error            { return nil }

// lastWordsPty prints once, then marks its child exited and goes quiet.
type lastWordsPty struct {
	proc   *lastWordsProcess
	output []byte
	reads  int
	closed chan struct{}
	once   sync.Once
}

func (p *lastWordsPty) Read(b []byte) (int, error) {
	p.reads++
	if p.reads == 1 {
		return copy(b, p.output), nil
	}
	p.proc.exited.Store(true)
	<-p.closed
	return 0, io.EOF
}

func (p *lastWordsPty) Write(b []byte) (int, error)     { return len(b), nil }
func (p *lastWordsPty) Resize(int, int, int, int) error { return nil }

func (p *lastWordsPty) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

type lastWordsSlave struct {
	proc *lastWordsProcess
}

func (s lastWordsSlave) SpawnCommand(*exec.Cmd) (mux.Process, error) { return s.proc, nil }
func (s lastWordsSlave) Close() error                                { return nil }

type lastWordsPtys struct{}

func (lastWordsPtys) OpenPTY(int, int, int, int) (mux.Pty, mux.SlavePty, error) {
	proc := &lastWordsProcess{}
	pty := &lastWordsPty{proc: proc, output: []byte("bye"), closed: make(chan struct{})}
	return pty, lastWordsSlave{proc: proc}, nil
}

func TestLoop_PaintsOutputBeforeChildExit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Program = []string{"/bin/sh"}
	fonts := font.NewConfiguration(cfg, font.WithFinder(func(string) (string, error) {
		return "", errors.New("none")
	}))
	presenter := &render.ImagePresenter{}
	w, err := window.New(window.Options{
		Config:    cfg,
		Host:      &host{},
		Ptys:      lastWordsPtys{},
		Fonts:     fonts,
		Presenter: presenter,
		Width:     320,
		Height:    96,
	})
	if err != nil {
		t.Fatalf("window.New() = %v", err)
	}
	defer w.Close()

	if _, err := w.SpawnTab(); err != nil {
		t.Fatalf("SpawnTab() = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := loop(ctx, w); err != nil {
		t.Fatalf("loop() = %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("loop ran until the timeout instead of stopping on child exit")
	}
	if w.Tabs().Len() != 0 {
		t.Errorf("%d tabs left, want 0", w.Tabs().Len())
	}

	img := presenter.Last()
	if img == nil {
		t.Fatal("no frame presented")
	}
	drawn := false
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !drawn; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) != term.DefaultBackground {
				drawn = true
				break
			}
		}
	}
	if !drawn {
		t.Error("final frame is blank, the child's last output was not painted")
	}
}
