package term

import (
	"slices"
	"sync"
	"sync/atomic"

	headlessterm "github.com/danielgatis/go-headless-term"

	"github.com/Gskartwii/wezterm/config"
)

// Headless is a Terminal backed by the headless VT emulator.
//
// Writes may come from a different goroutine than reads; the emulator locks
// internally and Headless guards its own state.
type Headless struct {
	vt    *headlessterm.Terminal
	rules []Rule

	fullRepaint atomic.Bool

	mu     sync.Mutex
	images []ImagePlacement
}

var _ Terminal = (*Headless)(nil)

// New creates a terminal of the given size. The first paint redraws
// every row.
func New(rows, cols, scrollback int, rules []config.HyperlinkRule) (*Headless, error) {
	compiled, err := CompileRules(rules)
	if err != nil {
		return nil, err
	}
	vt := headlessterm.New(headlessterm.WithSize(rows, cols))
	vt.SetMaxScrollback(scrollback)

	t := &Headless{vt: vt, rules: compiled}
	t.fullRepaint.Store(true)
	return t, nil
}

// Write feeds program output to the emulator.
func (t *Headless) Write(p []byte) (int, error) { return t.vt.Write(p) }

func (t *Headless) Rows() int     { return t.vt.Rows() }
func (t *Headless) Cols() int     { return t.vt.Cols() }
func (t *Headless) Title() string { return t.vt.Title() }

// Resize changes the grid size and forces a full redraw.
func (t *Headless) Resize(rows, cols int) {
	t.vt.Resize(rows, cols)
	t.fullRepaint.Store(true)
}

func (t *Headless) HasDirtyLines() bool {
	return t.fullRepaint.Load() || t.vt.HasDirty()
}

func (t *Headless) DirtyLines() []int {
	rows := t.vt.Rows()
	if t.fullRepaint.Load() {
		all := make([]int, rows)
		for i := range all {
			all[i] = i
		}
		return all
	}

	cells := t.vt.DirtyCells()
	lines := make([]int, 0, len(cells))
	for _, p := range cells {
		if p.Row >= 0 && p.Row < rows {
			lines = append(lines, p.Row)
		}
	}
	slices.Sort(lines)
	return slices.Compact(lines)
}

func (t *Headless) MakeAllLinesDirty() { t.fullRepaint.Store(true) }

func (t *Headless) ClearDirty() {
	t.fullRepaint.Store(false)
	t.vt.ClearDirty()
}

// Cell resolves the cell at row, col. Out of range cells are blank.
func (t *Headless) Cell(row, col int) Cell {
	c := t.vt.Cell(row, col)
	if c == nil {
		return Cell{Text: " ", Fg: DefaultForeground, Bg: DefaultBackground}
	}

	out := Cell{
		Text:      " ",
		Fg:        resolve(c.Fg, DefaultForeground),
		Bg:        resolve(c.Bg, DefaultBackground),
		Bold:      c.Flags&headlessterm.CellFlagBold != 0,
		Italic:    c.Flags&headlessterm.CellFlagItalic != 0,
		Underline: c.Flags&headlessterm.CellFlagUnderline != 0,
		Wide:      c.Flags&headlessterm.CellFlagWideChar != 0,
		Spacer:    c.Flags&headlessterm.CellFlagWideCharSpacer != 0,
	}
	if c.Char != 0 {
		out.Text = string(c.Char)
	}
	if c.Flags&headlessterm.CellFlagReverse != 0 {
		out.Fg, out.Bg = out.Bg, out.Fg
	}
	if c.Hyperlink != nil {
		out.Hyperlink = c.Hyperlink.URI
	}
	return out
}

func (t *Headless) Line(row int) string { return t.vt.LineContent(row) }

func (t *Headless) Links(row int) []Link {
	if len(t.rules) == 0 {
		return nil
	}
	return FindLinks(t.Line(row), t.rules)
}

// PlaceImage anchors img at the cursor, covering rows by cols cells.
func (t *Headless) PlaceImage(img *ImageData, rows, cols int) {
	row, col := t.vt.CursorPos()
	t.mu.Lock()
	t.images = append(t.images, ImagePlacement{Row: row, Col: col, Rows: rows, Cols: cols, Image: img})
	t.mu.Unlock()
	t.fullRepaint.Store(true)
}

func (t *Headless) Images() []ImagePlacement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.images)
}

// Scrollback returns the configured scrollback limit.
func (t *Headless) Scrollback() int { return t.vt.MaxScrollback() }
