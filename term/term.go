// Package term defines the terminal state the window renders and the
// adapter over the headless VT emulator that implements it.
package term

import (
	"image/color"
	"io"
	"sync/atomic"
)

// Cell is one resolved character cell.
type Cell struct {
	// Text is the cell's grapheme; a blank cell holds a single space.
	Text string

	Fg color.RGBA
	Bg color.RGBA

	Bold      bool
	Italic    bool
	Underline bool

	// Wide marks the first column of a double-width character.
	Wide bool

	// Spacer marks the column covered by the preceding wide character.
	Spacer bool

	// Hyperlink is the OSC 8 target, if any.
	Hyperlink string
}

// Terminal is the emulation state of one tab.
type Terminal interface {
	io.Writer

	Rows() int
	Cols() int
	Title() string
	Resize(rows, cols int)

	// HasDirtyLines reports whether any row changed since ClearDirty.
	HasDirtyLines() bool

	// DirtyLines returns the changed rows in ascending order.
	DirtyLines() []int

	// MakeAllLinesDirty forces the next paint to redraw every row.
	MakeAllLinesDirty()

	ClearDirty()

	Cell(row, col int) Cell
	Line(row int) string

	// Links returns hyperlink spans detected in row by the configured rules.
	Links(row int) []Link

	Images() []ImagePlacement
}

var imageIDs atomic.Uint64

// ImageData is an undecoded inline image. Placements that share an
// ImageData share its ID and therefore its decoded texture.
type ImageData struct {
	ID   uint64
	Data []byte
}

// NewImageData wraps raw encoded image bytes with a fresh ID.
func NewImageData(data []byte) *ImageData {
	return &ImageData{ID: imageIDs.Add(1), Data: data}
}

// ImagePlacement positions an image over a rectangle of cells.
type ImagePlacement struct {
	Row, Col   int
	Rows, Cols int
	Image      *ImageData
}
