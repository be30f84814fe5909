package glyphcache

import (
	"errors"
	"strconv"
)

var (
	// ErrNilImage is returned by CachedImage for a nil image.
	ErrNilImage = errors.New("glyphcache: nil image")

	// ErrNilStyle is returned by CachedGlyph for a nil style.
	ErrNilStyle = errors.New("glyphcache: nil style")
)

// RasterizationError wraps a font failure while rendering a glyph.
type RasterizationError struct {
	FontIdx  int
	GlyphPos uint32
	Err      error
}

func (e *RasterizationError) Error() string {
	return "glyphcache: rasterize glyph " + strconv.FormatUint(uint64(e.GlyphPos), 10) +
		" of font " + strconv.Itoa(e.FontIdx) + ": " + e.Err.Error()
}

func (e *RasterizationError) Unwrap() error { return e.Err }

// DecodeError wraps an image decoding failure.
type DecodeError struct {
	ID  uint64
	Err error
}

func (e *DecodeError) Error() string {
	return "glyphcache: decode image " + strconv.FormatUint(e.ID, 10) + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
