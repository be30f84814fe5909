// Package glyphcache memoizes rendered glyphs and decoded images in a
// shared texture atlas.
//
// A GlyphCache is owned by a single goroutine, normally the render loop.
// Entries are never mutated after insertion and never evicted one by one:
// when the atlas runs out of space the owner calls RecreateAtlas, which
// drops every entry together with the old atlas.
package glyphcache

import (
	"image"
	"math"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/Gskartwii/wezterm"
	"github.com/Gskartwii/wezterm/atlas"
	"github.com/Gskartwii/wezterm/config"
	"github.com/Gskartwii/wezterm/font"
	"github.com/Gskartwii/wezterm/term"
)

// oversizeFactor is how much taller than a cell a glyph may rasterize
// before it is scaled down to fit.
const oversizeFactor = 1.5

// CachedGlyph is a rendered glyph. Texture is nil for glyphs without ink.
type CachedGlyph struct {
	HasColor bool
	XOffset  float64
	YOffset  float64
	BearingX float64
	BearingY float64
	Texture  *atlas.Sprite
	Scale    float64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits          uint64
	Misses        uint64
	Insertions    uint64
	ImageHits     uint64
	ImageMisses   uint64
	AtlasRebuilds uint64
}

type counters struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	insertions    atomic.Uint64
	imageHits     atomic.Uint64
	imageMisses   atomic.Uint64
	atlasRebuilds atomic.Uint64
}

// GlyphCache maps glyph keys and image ids to atlas contents.
type GlyphCache struct {
	fonts  font.Resolver
	atlas  *atlas.Atlas
	styles styleTable
	glyphs map[internedKey]*CachedGlyph
	images map[uint64]*atlas.Sprite
	stats  counters
}

// NewGlyphCache creates a cache with an empty atlas of the given side.
func NewGlyphCache(fonts font.Resolver, side int) (*GlyphCache, error) {
	a, err := atlas.New(side, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		return nil, err
	}
	return &GlyphCache{
		fonts:  fonts,
		atlas:  a,
		styles: newStyleTable(),
		glyphs: make(map[internedKey]*CachedGlyph),
		images: make(map[uint64]*atlas.Sprite),
	}, nil
}

// CachedGlyph returns the glyph for info rendered in style, rendering and
// inserting it on a miss. Failed renders insert nothing.
func (c *GlyphCache) CachedGlyph(info font.GlyphInfo, style *config.TextStyle) (*CachedGlyph, error) {
	if style == nil {
		return nil, ErrNilStyle
	}
	borrowed := BorrowedGlyphKey{FontIdx: info.FontIdx, GlyphPos: info.GlyphPos, Style: style}

	if key, ok := c.styles.lookup(borrowed); ok {
		if g, ok := c.glyphs[key]; ok {
			c.stats.hits.Add(1)
			return g, nil
		}
	}
	c.stats.misses.Add(1)

	g, err := c.loadGlyph(info, style)
	if err != nil {
		return nil, err
	}

	owned := borrowed.Owned()
	c.glyphs[c.styles.intern(&owned)] = g
	c.stats.insertions.Add(1)
	return g, nil
}

// loadGlyph rasterizes a glyph and moves it into the atlas. Glyphs much
// taller than a cell (emoji, mostly) are resampled to cell height first so
// everything in the atlas is drawn at scale 1.
func (c *GlyphCache) loadGlyph(info font.GlyphInfo, style *config.TextStyle) (*CachedGlyph, error) {
	f, err := c.fonts.ResolveFont(style)
	if err != nil {
		return nil, err
	}
	metrics := f.Metrics()

	raw, err := f.RasterizeGlyph(info.GlyphPos, info.FontIdx)
	if err != nil {
		return nil, &RasterizationError{FontIdx: info.FontIdx, GlyphPos: info.GlyphPos, Err: err}
	}

	scale := 1.0
	if float64(raw.Height) > oversizeFactor*metrics.CellHeight {
		scale = metrics.CellHeight / float64(raw.Height)
	}

	if info.FontIdx != 0 {
		wezterm.Logger().Debug("fallback glyph",
			"font_idx", info.FontIdx, "glyph", info.GlyphPos,
			"width", raw.Width, "height", raw.Height, "scale", scale)
	}

	if raw.Width == 0 || raw.Height == 0 {
		return &CachedGlyph{
			HasColor: raw.HasColor,
			XOffset:  info.XOffset * scale,
			YOffset:  info.YOffset * scale,
			Scale:    scale,
		}, nil
	}

	img := &image.RGBA{
		Pix:    raw.Data,
		Stride: raw.Width * 4,
		Rect:   image.Rect(0, 0, raw.Width, raw.Height),
	}
	if scale != 1.0 {
		img = resample(img, scale)
	}

	sprite, err := c.atlas.Allocate(img)
	if err != nil {
		return nil, err
	}

	return &CachedGlyph{
		HasColor: raw.HasColor,
		XOffset:  info.XOffset * scale,
		YOffset:  info.YOffset * scale,
		BearingX: raw.BearingX * scale,
		BearingY: raw.BearingY * scale,
		Texture:  &sprite,
		Scale:    1.0,
	}, nil
}

// resample scales src by factor with Catmull-Rom filtering.
func resample(src *image.RGBA, factor float64) *image.RGBA {
	w := max(1, int(math.Floor(float64(src.Rect.Dx())*factor)))
	h := max(1, int(math.Floor(float64(src.Rect.Dy())*factor)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// CachedImage returns the atlas sprite for img, decoding it on the first
// request for its id.
func (c *GlyphCache) CachedImage(img *term.ImageData) (*atlas.Sprite, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if s, ok := c.images[img.ID]; ok {
		c.stats.imageHits.Add(1)
		return s, nil
	}
	c.stats.imageMisses.Add(1)

	decoded, err := decode(img)
	if err != nil {
		return nil, err
	}
	sprite, err := c.atlas.Allocate(decoded)
	if err != nil {
		return nil, err
	}
	c.images[img.ID] = &sprite
	return &sprite, nil
}

// RecreateAtlas replaces the atlas with an empty one of the given side and
// drops every cached glyph and image with it. On error the cache is
// unchanged.
func (c *GlyphCache) RecreateAtlas(side int) error {
	a, err := atlas.New(side, c.atlas.Format())
	if err != nil {
		return err
	}
	old := c.atlas
	c.atlas = a
	clear(c.glyphs)
	clear(c.images)
	c.stats.atlasRebuilds.Add(1)
	wezterm.Logger().Info("glyph atlas recreated",
		"size", side,
		"generation", a.Generation(),
		"previous_size", old.Side(),
		"previous_sprites", old.SpriteCount(),
		"previous_utilization", old.Utilization())
	return nil
}

// Atlas returns the current atlas.
func (c *GlyphCache) Atlas() *atlas.Atlas { return c.atlas }

// Len returns the number of cached glyphs.
func (c *GlyphCache) Len() int { return len(c.glyphs) }

// ImageLen returns the number of cached images.
func (c *GlyphCache) ImageLen() int { return len(c.images) }

// StyleCount returns the number of distinct styles interned so far.
func (c *GlyphCache) StyleCount() int { return c.styles.len() }

// Stats returns the cache counters.
func (c *GlyphCache) Stats() Stats {
	return Stats{
		Hits:          c.stats.hits.Load(),
		Misses:        c.stats.misses.Load(),
		Insertions:    c.stats.insertions.Load(),
		ImageHits:     c.stats.imageHits.Load(),
		ImageMisses:   c.stats.imageMisses.Load(),
		AtlasRebuilds: c.stats.atlasRebuilds.Load(),
	}
}
