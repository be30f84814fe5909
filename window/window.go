// Package window drives one terminal window: its tabs, the paint loop and
// the recovery from glyph atlas overflow.
//
// A TerminalWindow belongs to the goroutine running its event loop. Other
// goroutines talk to it only by posting events on its EventQueue.
package window

import (
	"errors"
	"fmt"

	"github.com/Gskartwii/wezterm/config"
	"github.com/Gskartwii/wezterm/font"
	"github.com/Gskartwii/wezterm/glyphcache"
	"github.com/Gskartwii/wezterm/mux"
	"github.com/Gskartwii/wezterm/render"
	"github.com/Gskartwii/wezterm/term"
)

// Sentinel errors for the window package.
var (
	// ErrAtlasRecoveryExhausted is returned when a paint keeps overflowing
	// the atlas after the configured number of rebuilds, or needs an atlas
	// larger than the configured maximum.
	ErrAtlasRecoveryExhausted = errors.New("window: atlas recovery exhausted")

	// ErrMissingOption is returned by New when a required option is nil.
	ErrMissingOption = errors.New("window: missing option")
)

// PresentError reports that a finished frame could not be presented. There
// is no recovery from it; the window should be closed.
type PresentError struct {
	Err error
}

func (e *PresentError) Error() string {
	return "window: present failed: " + e.Err.Error()
}

func (e *PresentError) Unwrap() error { return e.Err }

// Host is the windowing system side of a TerminalWindow.
type Host interface {
	SetWindowTitle(title string)
	TabWasCreated(id mux.TabID)
	DeregisterTab(id mux.TabID) error
}

// Painter renders a terminal into a frame through a glyph cache.
type Painter interface {
	Paint(f *render.Frame, t term.Terminal) error
	Cache() *glyphcache.GlyphCache
	Metrics() font.Metrics
}

// TerminalFactory constructs the emulation state for a new tab.
type TerminalFactory func(rows, cols, scrollback int, rules []config.HyperlinkRule) (term.Terminal, error)

// Dimensions is the window size and the cell size, in pixels.
type Dimensions struct {
	Width      int
	Height     int
	CellWidth  int
	CellHeight int
}

// Grid returns the rows and columns that fit. A size one pixel short of a
// whole cell still counts that cell.
func (d Dimensions) Grid() (rows, cols int) {
	return (d.Height + 1) / d.CellHeight, (d.Width + 1) / d.CellWidth
}

// Options configures New.
type Options struct {
	Config *config.Config
	Host   Host
	Ptys   mux.PtySystem

	// Fonts resolves styles; required unless Painter is set.
	Fonts font.Resolver

	// Painter overrides the renderer built from Fonts.
	Painter Painter

	Presenter render.Presenter

	// NewTerminal defaults to term.New.
	NewTerminal TerminalFactory

	// Events defaults to a queue of DefaultEventQueueSize.
	Events *EventQueue

	Width  int
	Height int
}

// TerminalWindow owns the tabs shown in one window.
type TerminalWindow struct {
	cfg         *config.Config
	host        Host
	ptys        mux.PtySystem
	painter     Painter
	newTerminal TerminalFactory
	events      *EventQueue

	surface *render.Surface
	dims    Dimensions
	tabs    mux.Tabs

	// overlays maps a tab to the pseudo tab drawn in its place.
	overlays map[mux.TabID]*mux.Tab
}

// New creates a window with no tabs.
func New(opts Options) (*TerminalWindow, error) {
	if opts.Config == nil || opts.Host == nil || opts.Ptys == nil {
		return nil, ErrMissingOption
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	painter := opts.Painter
	if painter == nil {
		if opts.Fonts == nil {
			return nil, fmt.Errorf("%w: Fonts", ErrMissingOption)
		}
		cache, err := glyphcache.NewGlyphCache(opts.Fonts, opts.Config.AtlasSize)
		if err != nil {
			return nil, err
		}
		r, err := render.NewRenderer(opts.Fonts, cache, opts.Config.Font)
		if err != nil {
			return nil, err
		}
		painter = r
	}

	newTerminal := opts.NewTerminal
	if newTerminal == nil {
		newTerminal = func(rows, cols, scrollback int, rules []config.HyperlinkRule) (term.Terminal, error) {
			return term.New(rows, cols, scrollback, rules)
		}
	}

	events := opts.Events
	if events == nil {
		events = NewEventQueue(DefaultEventQueueSize)
	}

	cw, ch := render.CellSize(painter.Metrics())
	return &TerminalWindow{
		cfg:         opts.Config,
		host:        opts.Host,
		ptys:        opts.Ptys,
		painter:     painter,
		newTerminal: newTerminal,
		events:      events,
		surface:     render.NewSurface(opts.Width, opts.Height, opts.Presenter),
		dims:        Dimensions{Width: opts.Width, Height: opts.Height, CellWidth: max(1, cw), CellHeight: max(1, ch)},
		overlays:    make(map[mux.TabID]*mux.Tab),
	}, nil
}

// Dimensions returns the current window and cell size.
func (w *TerminalWindow) Dimensions() Dimensions { return w.dims }

// Tabs returns the tab collection.
func (w *TerminalWindow) Tabs() *mux.Tabs { return &w.tabs }

// Events returns the window's event queue.
func (w *TerminalWindow) Events() *EventQueue { return w.events }

// Cache returns the glyph cache used for painting.
func (w *TerminalWindow) Cache() *glyphcache.GlyphCache { return w.painter.Cache() }

// Close terminates every tab and overlay and closes the event queue.
func (w *TerminalWindow) Close() error {
	var errs []error
	for id, o := range w.overlays {
		errs = append(errs, o.Close())
		delete(w.overlays, id)
	}
	for _, tab := range w.tabs.All() {
		errs = append(errs, tab.Close())
	}
	w.tabs = mux.Tabs{}
	w.events.Close()
	return errors.Join(errs...)
}
