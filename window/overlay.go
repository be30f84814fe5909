package window

import (
	"github.com/Gskartwii/wezterm"
	"github.com/Gskartwii/wezterm/mux"
)

// ShowOverlay draws overlay in place of tab id until CancelOverlay. Input
// sent to the window goes to the overlay meanwhile. A previous overlay for
// the same tab is closed.
func (w *TerminalWindow) ShowOverlay(id mux.TabID, overlay *mux.Tab) {
	if old, ok := w.overlays[id]; ok && old != overlay {
		old.Close()
	}
	w.overlays[id] = overlay
	overlay.Terminal().MakeAllLinesDirty()
}

// Overlay returns the overlay shown for tab id.
func (w *TerminalWindow) Overlay(id mux.TabID) (*mux.Tab, bool) {
	o, ok := w.overlays[id]
	return o, ok
}

// CancelOverlay removes the overlay of tab id, if any, and repaints the
// tab underneath.
func (w *TerminalWindow) CancelOverlay(id mux.TabID) {
	o, ok := w.overlays[id]
	if !ok {
		return
	}
	delete(w.overlays, id)
	if err := o.Close(); err != nil {
		wezterm.Logger().Debug("closing overlay", "tab", id, "err", err)
	}
	if tab, ok := w.tabs.Find(id); ok {
		tab.Terminal().MakeAllLinesDirty()
	}
}

// ScheduleCancelOverlay asks the owner goroutine to cancel the overlay of
// tab id. It is safe to call from any goroutine.
func (w *TerminalWindow) ScheduleCancelOverlay(id mux.TabID) {
	w.events.Post(func(w *TerminalWindow) { w.CancelOverlay(id) })
}

// SendInput writes p to the active tab, or to its overlay when one is up.
func (w *TerminalWindow) SendInput(p []byte) error {
	tab := w.tabs.Active()
	if tab == nil {
		return nil
	}
	if o, ok := w.overlays[tab.ID()]; ok {
		tab = o
	}
	_, err := tab.Pty().Write(p)
	return err
}
