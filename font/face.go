package font

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	gtfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// face is one member of a fallback chain. The same font bytes are parsed
// twice: by sfnt for outlines and metrics, and by go-text for shaping.
// Glyph indices agree between the two since they come from the same file.
type face struct {
	name  string
	sfnt  *opentype.Font
	shape *gtfont.Font
	ppem  fixed.Int26_6

	buf sfnt.Buffer
}

func parseFace(name string, data []byte, ppem float64) (*face, error) {
	sf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("font: failed to parse %s: %w", name, err)
	}
	gf, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("font: failed to parse %s for shaping: %w", name, err)
	}
	return &face{
		name:  name,
		sfnt:  sf,
		shape: gf.Font,
		ppem:  floatToFixed(ppem),
	}, nil
}

// glyphIndex returns the glyph for r, or 0 if the face lacks it.
func (f *face) glyphIndex(r rune) uint32 {
	idx, err := f.sfnt.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return uint32(idx)
}

func (f *face) advance(gid uint32) float64 {
	adv, err := f.sfnt.GlyphAdvance(&f.buf, sfnt.GlyphIndex(gid), f.ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return fixedToFloat(adv)
}

// metrics derives the cell size from the face's line height and the
// advance of 'M'.
func (f *face) metrics() (Metrics, error) {
	m, err := f.sfnt.Metrics(&f.buf, f.ppem, xfont.HintingFull)
	if err != nil {
		return Metrics{}, fmt.Errorf("font: metrics for %s: %w", f.name, err)
	}
	width := f.advance(f.glyphIndex('M'))
	if width <= 0 {
		width = fixedToFloat(f.ppem) / 2
	}
	return Metrics{
		CellWidth:  width,
		CellHeight: fixedToFloat(m.Height),
		Descender:  fixedToFloat(m.Descent),
	}, nil
}

// rasterize renders a glyph outline as white coverage in an RGBA bitmap.
// Glyphs with no ink (spaces) produce a zero-sized bitmap.
func (f *face) rasterize(gid uint32) (*RasterizedGlyph, error) {
	if gid >= uint32(f.sfnt.NumGlyphs()) {
		return nil, ErrNoGlyph
	}

	bounds, _, err := f.sfnt.GlyphBounds(&f.buf, sfnt.GlyphIndex(gid), f.ppem, xfont.HintingNone)
	if err != nil {
		return nil, f.rasterError(gid, err)
	}

	minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	maxX, maxY := bounds.Max.X.Ceil(), bounds.Max.Y.Ceil()
	w, h := maxX-minX, maxY-minY

	glyph := &RasterizedGlyph{
		BearingX: float64(minX),
		BearingY: float64(-minY),
	}
	if w <= 0 || h <= 0 {
		return glyph, nil
	}

	segments, err := f.sfnt.LoadGlyph(&f.buf, sfnt.GlyphIndex(gid), f.ppem, nil)
	if err != nil {
		return nil, f.rasterError(gid, err)
	}

	ox, oy := float32(minX), float32(minY)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(p.X)/64 - ox, float32(p.Y)/64 - oy
	}

	r := vector.NewRasterizer(w, h)
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			r.MoveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			r.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			r.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(seg.Args[0])
			cx, cy := pt(seg.Args[1])
			dx, dy := pt(seg.Args[2])
			r.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	r.ClosePath()

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Draw(dst, dst.Bounds(), image.White, image.Point{})

	glyph.Width = w
	glyph.Height = h
	glyph.Data = dst.Pix
	return glyph, nil
}

func (f *face) rasterError(gid uint32, err error) error {
	if errors.Is(err, sfnt.ErrColoredGlyph) {
		return fmt.Errorf("font: %s glyph %d is a color glyph: %w", f.name, gid, err)
	}
	return fmt.Errorf("font: %s glyph %d: %w", f.name, gid, err)
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
