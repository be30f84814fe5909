// Package font resolves text styles to fonts, rasterizes glyphs by index,
// and shapes cell text into positioned glyphs.
//
// A resolved Font is a fallback chain: index 0 is the first family named by
// the style and later indices are fallbacks. Glyph positions are only
// meaningful together with the fallback index that produced them.
package font

import (
	"errors"

	"github.com/Gskartwii/wezterm/config"
)

// Sentinel errors for the font package.
var (
	// ErrNoGlyph is returned when a glyph index is out of range for a face.
	ErrNoGlyph = errors.New("font: no such glyph")

	// ErrBadFontIndex is returned for a fallback index outside the chain.
	ErrBadFontIndex = errors.New("font: fallback index out of range")
)

// ResolutionError is returned when no usable font matches a style.
type ResolutionError struct {
	Family string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return "font: cannot resolve " + e.Family + ": " + e.Err.Error()
	}
	return "font: cannot resolve " + e.Family
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Metrics describes the terminal cell a font produces, in pixels.
type Metrics struct {
	CellWidth  float64
	CellHeight float64

	// Descender is the distance from the baseline to the cell bottom.
	Descender float64
}

// GlyphInfo is one shaped glyph.
type GlyphInfo struct {
	// Cluster is the rune index of the glyph's source text.
	Cluster int

	// FontIdx is the fallback chain index the glyph came from.
	FontIdx int

	// GlyphPos is the glyph index within that face.
	GlyphPos uint32

	XAdvance float64
	XOffset  float64
	YOffset  float64
}

// RasterizedGlyph is a glyph bitmap in RGBA, 4 bytes per pixel, rows packed.
type RasterizedGlyph struct {
	Width  int
	Height int
	Data   []byte

	// BearingX is the distance from the pen position to the bitmap's left edge.
	BearingX float64

	// BearingY is the distance from the baseline up to the bitmap's top edge.
	BearingY float64

	HasColor bool
}

// Font is a resolved fallback chain.
type Font interface {
	Metrics() Metrics
	RasterizeGlyph(glyphPos uint32, fontIdx int) (*RasterizedGlyph, error)
	Shape(text string) ([]GlyphInfo, error)
}

// Resolver maps a text style to a Font.
type Resolver interface {
	ResolveFont(style *config.TextStyle) (Font, error)
}
