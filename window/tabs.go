package window

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Gskartwii/wezterm"
	"github.com/Gskartwii/wezterm/mux"
)

// readBufferSize is the chunk size pty output is forwarded in.
const readBufferSize = 4096

// ActivateTab makes tab idx active. Out of range indices are ignored.
func (w *TerminalWindow) ActivateTab(idx int) {
	if !w.tabs.SetActive(idx) {
		return
	}
	if t := w.activeTerminal(); t != nil {
		t.MakeAllLinesDirty()
	}
	w.UpdateTitle()
}

// ActivateTabRelative moves the active tab by delta, wrapping around in
// either direction.
func (w *TerminalWindow) ActivateTabRelative(delta int) {
	n := w.tabs.Len()
	if n == 0 {
		return
	}
	idx := (w.tabs.ActiveIndex() + delta) % n
	if idx < 0 {
		idx += n
	}
	w.ActivateTab(idx)
}

// UpdateTitle sets the window title from the active tab. With more than
// one tab the title is prefixed with the tab position.
func (w *TerminalWindow) UpdateTitle() {
	n := w.tabs.Len()
	if n == 0 {
		return
	}
	title := w.tabs.Active().Terminal().Title()
	if n > 1 {
		title = fmt.Sprintf("[%d/%d] %s", w.tabs.ActiveIndex()+1, n, title)
	}
	w.host.SetWindowTitle(title)
}

// SpawnTab starts the configured program in a new tab sized to the window
// and makes it active. On error no tab is added.
func (w *TerminalWindow) SpawnTab() (mux.TabID, error) {
	rows, cols := w.dims.Grid()

	cmd, err := w.cfg.BuildProg(nil)
	if err != nil {
		return 0, err
	}

	master, slave, err := w.ptys.OpenPTY(rows, cols, w.dims.Width, w.dims.Height)
	if err != nil {
		return 0, err
	}

	proc, err := slave.SpawnCommand(cmd)
	if err != nil {
		slave.Close()
		master.Close()
		return 0, err
	}

	terminal, err := w.newTerminal(rows, cols, w.cfg.Scrollback(), w.cfg.HyperlinkRules)
	if err != nil {
		proc.Kill()
		master.Close()
		return 0, err
	}

	tab := mux.NewTab(terminal, proc, master)
	w.tabs.Push(tab)
	w.ActivateTab(w.tabs.Len() - 1)
	w.host.TabWasCreated(tab.ID())
	w.pump(tab)

	wezterm.Logger().Info("tab spawned", "tab", tab.ID(), "rows", rows, "cols", cols, "program", cmd.Path)
	return tab.ID(), nil
}

// pump forwards pty output to the tab's terminal through the event queue.
// It stops when the pty is closed or the child goes away.
func (w *TerminalWindow) pump(tab *mux.Tab) {
	id := tab.ID()
	go func() {
		buf := make([]byte, readBufferSize)
		for {
			n, err := tab.Pty().Read(buf)
			if n > 0 {
				data := append([]byte(nil), buf[:n]...)
				if !w.events.Post(func(w *TerminalWindow) {
					if t, ok := w.tabs.Find(id); ok {
						t.Terminal().Write(data)
					}
				}) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
					wezterm.Logger().Debug("pty read ended", "tab", id, "err", err)
				}
				return
			}
		}
	}()
}

// ResizeSurfaces resizes the window and every tab to width by height
// pixels. It reports false without touching any tab when the size is
// unchanged. A pty resize failure aborts the pass; tabs already visited
// keep their new size.
func (w *TerminalWindow) ResizeSurfaces(width, height int) (bool, error) {
	if width == w.dims.Width && height == w.dims.Height {
		return false, nil
	}
	w.dims.Width, w.dims.Height = width, height
	w.surface.Resize(width, height)

	rows, cols := w.dims.Grid()
	for _, tab := range w.tabs.All() {
		if err := resizeTab(tab, rows, cols, width, height); err != nil {
			return false, err
		}
		if o, ok := w.overlays[tab.ID()]; ok {
			if err := resizeTab(o, rows, cols, width, height); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

func resizeTab(tab *mux.Tab, rows, cols, width, height int) error {
	if err := tab.Pty().Resize(rows, cols, width, height); err != nil {
		return err
	}
	tab.Terminal().Resize(rows, cols)
	return nil
}

// TabDidTerminate removes tab id, repaints whichever tab becomes active
// and tells the host. Host errors are logged and otherwise ignored.
func (w *TerminalWindow) TabDidTerminate(id mux.TabID) {
	log := wezterm.Logger()

	if tab, ok := w.tabs.RemoveByID(id); ok {
		if err := tab.Close(); err != nil {
			log.Debug("closing terminated tab", "tab", id, "err", err)
		}
	}
	if o, ok := w.overlays[id]; ok {
		o.Close()
		delete(w.overlays, id)
	}

	if t := w.activeTerminal(); t != nil {
		t.MakeAllLinesDirty()
		w.UpdateTitle()
	}

	if err := w.host.DeregisterTab(id); err != nil {
		log.Warn("deregister tab failed", "tab", id, "err", err)
	}
}

// TestForChildExit removes every tab whose process has exited and reports
// whether the window is now empty.
func (w *TerminalWindow) TestForChildExit() bool {
	var dead []mux.TabID
	for _, tab := range w.tabs.All() {
		exited, err := tab.Process().TryWait()
		if exited || err != nil {
			dead = append(dead, tab.ID())
		}
	}
	for _, id := range dead {
		w.TabDidTerminate(id)
	}
	return w.tabs.Len() == 0
}
