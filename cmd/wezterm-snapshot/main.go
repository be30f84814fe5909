//go:build unix

// Command wezterm-snapshot runs a program in a headless terminal window and
// writes the rendered screen to a PNG file.
package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/Gskartwii/wezterm"
	"github.com/Gskartwii/wezterm/config"
	"github.com/Gskartwii/wezterm/font"
	"github.com/Gskartwii/wezterm/mux"
	"github.com/Gskartwii/wezterm/pty"
	"github.com/Gskartwii/wezterm/render"
	"github.com/Gskartwii/wezterm/window"
)

// frameInterval paces repaints while output keeps arriving.
const frameInterval = 16 * time.Millisecond

// host logs what a windowing system would show.
type host struct {
	title string
}

func (h *host) SetWindowTitle(title string) {
	h.title = title
	wezterm.Logger().Debug("window title", "title", title)
}

func (h *host) TabWasCreated(id mux.TabID) {}

func (h *host) DeregisterTab(id mux.TabID) error { return nil }

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		width      int
		height     int
		out        string
		timeout    time.Duration
		verbose    bool
	)

	pflag.StringVarP(&configPath, "config", "c", "", "Path to a TOML or YAML config file")
	pflag.IntVar(&width, "width", 800, "Window width in pixels")
	pflag.IntVar(&height, "height", 480, "Window height in pixels")
	pflag.StringVarP(&out, "out", "o", "snapshot.png", "Output PNG file")
	pflag.DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Stop waiting for the program after this long")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
	pflag.Parse()

	if verbose {
		wezterm.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if args := pflag.Args(); len(args) > 0 {
		cfg.Program = args
	}

	presenter := &render.ImagePresenter{}
	h := &host{}
	w, err := window.New(window.Options{
		Config:    cfg,
		Host:      h,
		Ptys:      pty.Native{},
		Fonts:     font.NewConfiguration(cfg),
		Presenter: presenter,
		Width:     width,
		Height:    height,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating window: %v\n", err)
		return 1
	}
	defer w.Close()

	if _, err := w.SpawnTab(); err != nil {
		fmt.Fprintf(os.Stderr, "Error spawning %v: %v\n", cfg.Program, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := loop(ctx, w); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		return 1
	}

	if err := writePNG(out, presenter); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
		return 1
	}
	fmt.Printf("Snapshot of %q saved to %s (%dx%d)\n", h.title, out, width, height)
	return 0
}

// loop runs the window until its last child exits or ctx is done, then
// paints once more so the final screen is captured.
func loop(ctx context.Context, w *window.TerminalWindow) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-w.Events().C():
			e(w)
			w.ProcessEvents()
		case <-ticker.C:
			if childrenExited(w) {
				// Apply what the children wrote before they went away, then
				// let the window drop their tabs.
				err := settle(w)
				w.TestForChildExit()
				return err
			}
			if err := settle(w); err != nil {
				return err
			}
		case <-ctx.Done():
			return settle(w)
		}
	}
}

// settle applies pending output and paints it.
func settle(w *window.TerminalWindow) error {
	w.ProcessEvents()
	return w.PaintIfNeeded()
}

// childrenExited reports whether every tab's child has exited, without
// removing any tab.
func childrenExited(w *window.TerminalWindow) bool {
	for _, tab := range w.Tabs().All() {
		if exited, err := tab.Process().TryWait(); !exited && err == nil {
			return false
		}
	}
	return true
}

func writePNG(path string, p *render.ImagePresenter) error {
	img := p.Last()
	if img == nil {
		return errors.New("no frame was presented")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
