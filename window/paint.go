package window

import (
	"errors"
	"fmt"

	"github.com/Gskartwii/wezterm"
	"github.com/Gskartwii/wezterm/atlas"
	"github.com/Gskartwii/wezterm/term"
)

// activeTerminal returns what the active tab shows: its overlay if one is
// up, otherwise its own terminal.
func (w *TerminalWindow) activeTerminal() term.Terminal {
	tab := w.tabs.Active()
	if tab == nil {
		return nil
	}
	if o, ok := w.overlays[tab.ID()]; ok {
		return o.Terminal()
	}
	return tab.Terminal()
}

// PaintIfNeeded paints when the active terminal has dirty lines.
func (w *TerminalWindow) PaintIfNeeded() error {
	t := w.activeTerminal()
	if t == nil || !t.HasDirtyLines() {
		return nil
	}
	return w.Paint()
}

// Paint renders the active terminal and presents the frame. The frame is
// presented even when rendering fails. When the glyph atlas overflows it is
// rebuilt at the requested size, the terminal is marked fully dirty and the
// paint is retried, at most PaintRetryLimit times.
func (w *TerminalWindow) Paint() error {
	t := w.activeTerminal()
	if t == nil {
		frame := w.surface.Frame()
		frame.Clear(term.DefaultBackground)
		if err := frame.Finish(); err != nil {
			return &PresentError{Err: err}
		}
		return nil
	}

	for attempt := 0; ; attempt++ {
		frame := w.surface.Frame()
		err := w.painter.Paint(frame, t)
		if ferr := frame.Finish(); ferr != nil {
			return &PresentError{Err: ferr}
		}

		var oos *atlas.OutOfTextureSpaceError
		if !errors.As(err, &oos) {
			return err
		}
		if attempt >= w.cfg.PaintRetryLimit {
			return fmt.Errorf("%w after %d rebuilds: %w", ErrAtlasRecoveryExhausted, attempt, err)
		}

		size, err := w.rebuildSize(oos.Size)
		if err != nil {
			return err
		}
		if err := w.painter.Cache().RecreateAtlas(size); err != nil {
			return err
		}
		t.MakeAllLinesDirty()
		wezterm.Logger().Debug("retrying paint after atlas rebuild", "attempt", attempt+1, "size", size)
	}
}

// rebuildSize clamps a requested atlas size to MaxAtlasSize. Once the atlas
// is already at the maximum there is nothing left to grow into.
func (w *TerminalWindow) rebuildSize(requested int) (int, error) {
	limit := w.cfg.MaxAtlasSize
	if requested <= limit {
		return requested, nil
	}
	if w.painter.Cache().Atlas().Side() >= limit {
		return 0, fmt.Errorf("%w: need atlas size %d, limit %d", ErrAtlasRecoveryExhausted, requested, limit)
	}
	return limit, nil
}
