// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"math"
	"slices"

	"golang.org/x/image/draw"
	"golang.org/x/text/width"

	"github.com/Gskartwii/wezterm/config"
	"github.com/Gskartwii/wezterm/font"
	"github.com/Gskartwii/wezterm/glyphcache"
	"github.com/Gskartwii/wezterm/term"
)

// CellSize rounds font metrics up to whole pixels.
func CellSize(m font.Metrics) (w, h int) {
	return int(math.Ceil(m.CellWidth)), int(math.Ceil(m.CellHeight))
}

// Renderer paints terminal rows through a glyph cache.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	fonts   font.Resolver
	cache   *glyphcache.GlyphCache
	metrics font.Metrics

	// styles holds the base style with bold and italic applied, indexed
	// by bold | italic<<1.
	styles [4]config.TextStyle
}

// NewRenderer creates a renderer for base and resolves it to obtain the
// cell metrics.
func NewRenderer(fonts font.Resolver, cache *glyphcache.GlyphCache, base config.TextStyle) (*Renderer, error) {
	f, err := fonts.ResolveFont(&base)
	if err != nil {
		return nil, err
	}
	r := &Renderer{fonts: fonts, cache: cache, metrics: f.Metrics()}
	for i := range r.styles {
		r.styles[i] = base.WithAttributes(i&1 != 0, i&2 != 0)
	}
	return r, nil
}

// Metrics returns the base font's cell metrics.
func (r *Renderer) Metrics() font.Metrics { return r.metrics }

// Cache returns the glyph cache.
func (r *Renderer) Cache() *glyphcache.GlyphCache { return r.cache }

// Paint redraws the dirty rows of t into f. Any cache error aborts the
// paint and is returned unchanged; the terminal stays dirty in that case.
func (r *Renderer) Paint(f *Frame, t term.Terminal) error {
	lines := t.DirtyLines()
	if len(lines) == 0 {
		return nil
	}
	cw, ch := CellSize(r.metrics)

	for _, row := range lines {
		if err := r.paintRow(f, t, row, cw, ch); err != nil {
			return err
		}
	}

	for _, p := range t.Images() {
		if !overlapsRows(p, lines) {
			continue
		}
		if err := r.paintImage(f, p, cw, ch); err != nil {
			return err
		}
	}

	t.ClearDirty()
	return nil
}

func (r *Renderer) paintRow(f *Frame, t term.Terminal, row, cw, ch int) error {
	top := row * ch
	f.Fill(image.Rect(0, top, f.Bounds().Dx(), top+ch), term.DefaultBackground)

	baseline := top + ch - int(math.Round(r.metrics.Descender))
	links := t.Links(row)

	for col := 0; col < t.Cols(); col++ {
		cell := t.Cell(row, col)
		if cell.Spacer {
			continue
		}
		span := 1
		if cell.Wide || isWide(cell.Text) {
			span = 2
		}
		left := col * cw
		cellRect := image.Rect(left, top, left+span*cw, top+ch)
		f.Fill(cellRect, cell.Bg)

		if cell.Text != " " {
			if err := r.paintText(f, cell, left, baseline); err != nil {
				return err
			}
		}

		if cell.Underline || cell.Hyperlink != "" || inLink(links, col) {
			f.Fill(image.Rect(cellRect.Min.X, baseline+1, cellRect.Max.X, baseline+2), cell.Fg)
		}
	}
	return nil
}

func (r *Renderer) paintText(f *Frame, cell term.Cell, left, baseline int) error {
	style := &r.styles[styleIndex(cell.Bold, cell.Italic)]
	fnt, err := r.fonts.ResolveFont(style)
	if err != nil {
		return err
	}
	infos, err := fnt.Shape(cell.Text)
	if err != nil {
		return err
	}

	pen := float64(left)
	for _, info := range infos {
		g, err := r.cache.CachedGlyph(info, style)
		if err != nil {
			return err
		}
		if g.Texture != nil {
			x := int(math.Round(pen + g.BearingX + g.XOffset))
			y := int(math.Round(float64(baseline) - g.BearingY - g.YOffset))
			if err := r.blit(f, g, x, y, cell.Fg); err != nil {
				return err
			}
		}
		pen += info.XAdvance
	}
	return nil
}

// blit composites a glyph sprite. Monochrome glyphs use their alpha as a
// mask for the foreground colour; colour glyphs are drawn as they are.
func (r *Renderer) blit(f *Frame, g *glyphcache.CachedGlyph, x, y int, fg color.RGBA) error {
	src, err := r.cache.Atlas().Pixels(*g.Texture)
	if err != nil {
		return err
	}
	dst := image.Rect(x, y, x+g.Texture.Width(), y+g.Texture.Height())
	if g.HasColor {
		draw.Draw(f.Image(), dst, src, src.Rect.Min, draw.Over)
		return nil
	}
	draw.DrawMask(f.Image(), dst, image.NewUniform(fg), image.Point{}, src, src.Rect.Min, draw.Over)
	return nil
}

func (r *Renderer) paintImage(f *Frame, p term.ImagePlacement, cw, ch int) error {
	sprite, err := r.cache.CachedImage(p.Image)
	if err != nil {
		return err
	}
	src, err := r.cache.Atlas().Pixels(*sprite)
	if err != nil {
		return err
	}
	dst := image.Rect(p.Col*cw, p.Row*ch, (p.Col+p.Cols)*cw, (p.Row+p.Rows)*ch)
	draw.ApproxBiLinear.Scale(f.Image(), dst, src, src.Rect, draw.Over, nil)
	return nil
}

func styleIndex(bold, italic bool) int {
	i := 0
	if bold {
		i |= 1
	}
	if italic {
		i |= 2
	}
	return i
}

// isWide reports whether text occupies two cells.
func isWide(text string) bool {
	p, _ := width.LookupString(text)
	switch p.Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

func inLink(links []term.Link, col int) bool {
	for _, l := range links {
		if col >= l.Start && col < l.End {
			return true
		}
	}
	return false
}

func overlapsRows(p term.ImagePlacement, lines []int) bool {
	return slices.ContainsFunc(lines, func(row int) bool {
		return row >= p.Row && row < p.Row+p.Rows
	})
}
