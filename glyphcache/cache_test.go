package glyphcache

import (
	"bytes"
	"errors"
	"hash/maphash"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Gskartwii/wezterm/atlas"
	"github.com/Gskartwii/wezterm/config"
	"github.com/Gskartwii/wezterm/font"
	"github.com/Gskartwii/wezterm/term"
)

var errRaster = errors.New("raster failed")

const (
	glyphSpace    = 0
	glyphLetter   = 1
	glyphEmoji    = 2
	glyphBroken   = 99
	fakeCellH     = 16.0
	fakeEmojiSide = 30
)

type fakeFont struct {
	rasterized int
}

func (f *fakeFont) Metrics() font.Metrics {
	return font.Metrics{CellWidth: 8, CellHeight: fakeCellH}
}

func (f *fakeFont) RasterizeGlyph(pos uint32, _ int) (*font.RasterizedGlyph, error) {
	f.rasterized++
	switch pos {
	case glyphSpace:
		return &font.RasterizedGlyph{BearingX: 3, BearingY: 3}, nil
	case glyphLetter:
		return bitmap(6, 10, 1, 9), nil
	case glyphEmoji:
		g := bitmap(fakeEmojiSide, fakeEmojiSide, 2, 28)
		g.HasColor = true
		return g, nil
	default:
		return nil, errRaster
	}
}

func (f *fakeFont) Shape(string) ([]font.GlyphInfo, error) { return nil, nil }

func bitmap(w, h int, bx, by float64) *font.RasterizedGlyph {
	data := make([]byte, w*h*4)
	for i := range data {
		data[i] = 0xff
	}
	return &font.RasterizedGlyph{Width: w, Height: h, Data: data, BearingX: bx, BearingY: by}
}

type fakeResolver struct {
	font     *fakeFont
	resolved int
	err      error
}

func (r *fakeResolver) ResolveFont(*config.TextStyle) (font.Font, error) {
	r.resolved++
	if r.err != nil {
		return nil, r.err
	}
	return r.font, nil
}

func newCache(t *testing.T, side int) (*GlyphCache, *fakeResolver) {
	t.Helper()
	r := &fakeResolver{font: &fakeFont{}}
	c, err := NewGlyphCache(r, side)
	if err != nil {
		t.Fatalf("NewGlyphCache() = %v", err)
	}
	return c, r
}

func TestCachedGlyph_HitReturnsSameInstance(t *testing.T) {
	c, r := newCache(t, 128)
	style := config.DefaultTextStyle()
	info := font.GlyphInfo{GlyphPos: glyphLetter}

	first, err := c.CachedGlyph(info, &style)
	if err != nil {
		t.Fatalf("CachedGlyph() = %v", err)
	}

	equal := style.Clone()
	second, err := c.CachedGlyph(info, &equal)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("equal keys should return the same *CachedGlyph")
	}
	if r.font.rasterized != 1 {
		t.Errorf("rasterized %d times, want 1", r.font.rasterized)
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 1 || s.Insertions != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestCachedGlyph_StylesDoNotAlias(t *testing.T) {
	c, _ := newCache(t, 128)
	regular := config.DefaultTextStyle()
	bold := regular.WithAttributes(true, false)
	info := font.GlyphInfo{GlyphPos: glyphLetter}

	a, err := c.CachedGlyph(info, &regular)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.CachedGlyph(info, &bold)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different styles must produce distinct entries")
	}
	if c.Len() != 2 || c.StyleCount() != 2 {
		t.Errorf("Len() = %d, StyleCount() = %d, want 2, 2", c.Len(), c.StyleCount())
	}
}

func TestCachedGlyph_StyleIsCopiedOnInsert(t *testing.T) {
	c, r := newCache(t, 128)
	style := config.DefaultTextStyle()
	info := font.GlyphInfo{GlyphPos: glyphLetter}

	first, _ := c.CachedGlyph(info, &style)
	style.Font[0].Family = "Mutated"

	original := config.DefaultTextStyle()
	again, _ := c.CachedGlyph(info, &original)
	if again != first {
		t.Error("mutating the caller's style must not affect the stored key")
	}
	if r.font.rasterized != 1 {
		t.Errorf("rasterized %d times, want 1", r.font.rasterized)
	}
}

func TestCachedGlyph_Whitespace(t *testing.T) {
	c, _ := newCache(t, 128)
	style := config.DefaultTextStyle()

	g, err := c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphSpace, XOffset: 2, YOffset: 1}, &style)
	if err != nil {
		t.Fatal(err)
	}
	if g.Texture != nil {
		t.Error("whitespace glyph must have no texture")
	}
	if g.BearingX != 0 || g.BearingY != 0 {
		t.Errorf("bearing = (%v, %v), want zero", g.BearingX, g.BearingY)
	}
	if g.XOffset != 2 || g.YOffset != 1 || g.Scale != 1 {
		t.Errorf("glyph = %+v", g)
	}
	if n := c.Atlas().SpriteCount(); n != 0 {
		t.Errorf("atlas holds %d sprites, want 0", n)
	}
}

func TestCachedGlyph_OrdinaryKeepsUnitScale(t *testing.T) {
	c, _ := newCache(t, 128)
	style := config.DefaultTextStyle()

	g, err := c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphLetter, XOffset: 1}, &style)
	if err != nil {
		t.Fatal(err)
	}
	if g.Scale != 1 || g.BearingX != 1 || g.BearingY != 9 || g.XOffset != 1 {
		t.Errorf("glyph = %+v", g)
	}
	if g.Texture == nil || g.Texture.Width() != 6 || g.Texture.Height() != 10 {
		t.Fatalf("Texture = %+v, want 6x10", g.Texture)
	}
	if !c.Atlas().Valid(*g.Texture) {
		t.Error("texture should belong to the current atlas")
	}
}

func TestCachedGlyph_OversizeIsScaled(t *testing.T) {
	c, _ := newCache(t, 128)
	style := config.DefaultTextStyle()

	g, err := c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphEmoji, FontIdx: 1, XOffset: 3}, &style)
	if err != nil {
		t.Fatal(err)
	}
	if g.Scale != 1 {
		t.Errorf("Scale = %v, want 1 after resampling", g.Scale)
	}
	if g.Texture == nil {
		t.Fatal("oversize glyph should have a texture")
	}
	if h := g.Texture.Height(); float64(h) > fakeCellH {
		t.Errorf("atlas height = %d, want <= %v", h, fakeCellH)
	}
	factor := fakeCellH / fakeEmojiSide
	if g.BearingY != 28*factor || g.XOffset != 3*factor {
		t.Errorf("bearing/offset not scaled: %+v", g)
	}
	if !g.HasColor {
		t.Error("HasColor lost")
	}
}

func TestCachedGlyph_FailureInsertsNothing(t *testing.T) {
	c, r := newCache(t, 128)
	style := config.DefaultTextStyle()

	_, err := c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphBroken}, &style)
	var rerr *RasterizationError
	if !errors.As(err, &rerr) || !errors.Is(err, errRaster) {
		t.Fatalf("CachedGlyph() = %v, want *RasterizationError", err)
	}
	if c.Len() != 0 {
		t.Error("failed render must not be cached")
	}

	r.err = &font.ResolutionError{Family: "x"}
	_, err = c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphLetter}, &style)
	var ferr *font.ResolutionError
	if !errors.As(err, &ferr) {
		t.Fatalf("CachedGlyph() = %v, want *font.ResolutionError", err)
	}

	r.err = nil
	if _, err := c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphLetter}, &style); err != nil {
		t.Errorf("retry after failure = %v", err)
	}
}

func TestCachedGlyph_OutOfSpace(t *testing.T) {
	c, _ := newCache(t, 16)
	style := config.DefaultTextStyle()

	// Two 6x10 letters share the first shelf of a 16 atlas; a third does not fit.
	for idx := 0; idx < 2; idx++ {
		if _, err := c.CachedGlyph(font.GlyphInfo{FontIdx: idx, GlyphPos: glyphLetter}, &style); err != nil {
			t.Fatalf("CachedGlyph(font %d) = %v", idx, err)
		}
	}
	_, err := c.CachedGlyph(font.GlyphInfo{FontIdx: 2, GlyphPos: glyphLetter}, &style)
	var oos *atlas.OutOfTextureSpaceError
	if !errors.As(err, &oos) {
		t.Fatalf("CachedGlyph() = %v, want *atlas.OutOfTextureSpaceError", err)
	}
	if oos.Size != 32 {
		t.Errorf("Size = %d, want 32", oos.Size)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	if err := c.RecreateAtlas(oos.Size); err != nil {
		t.Fatalf("RecreateAtlas() = %v", err)
	}
	if c.Len() != 0 || c.ImageLen() != 0 {
		t.Error("RecreateAtlas must drop every entry")
	}
	if c.Atlas().Side() != oos.Size {
		t.Errorf("Side() = %d, want %d", c.Atlas().Side(), oos.Size)
	}
	if _, err := c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphLetter}, &style); err != nil {
		t.Errorf("CachedGlyph() after rebuild = %v", err)
	}
	if c.Stats().AtlasRebuilds != 1 {
		t.Errorf("AtlasRebuilds = %d, want 1", c.Stats().AtlasRebuilds)
	}
}

func TestRecreateAtlas_FailureKeepsState(t *testing.T) {
	c, _ := newCache(t, 64)
	style := config.DefaultTextStyle()
	g, _ := c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphLetter}, &style)
	before := c.Atlas()

	var serr *atlas.SizeError
	if err := c.RecreateAtlas(1); !errors.As(err, &serr) {
		t.Fatalf("RecreateAtlas(1) = %v, want *atlas.SizeError", err)
	}
	if c.Atlas() != before || c.Len() != 1 || !before.Valid(*g.Texture) {
		t.Error("failed rebuild must leave the cache unchanged")
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCachedImage(t *testing.T) {
	c, _ := newCache(t, 128)
	data := encodePNG(t, 4, 4)

	a := term.NewImageData(data)
	shared := &term.ImageData{ID: a.ID, Data: data}
	b := term.NewImageData(data)

	sa, err := c.CachedImage(a)
	if err != nil {
		t.Fatalf("CachedImage() = %v", err)
	}
	ss, err := c.CachedImage(shared)
	if err != nil {
		t.Fatal(err)
	}
	if sa != ss {
		t.Error("same id should return the same sprite")
	}
	sb, err := c.CachedImage(b)
	if err != nil {
		t.Fatal(err)
	}
	if sb == sa {
		t.Error("different ids should decode independently")
	}

	st := c.Stats()
	if st.ImageMisses != 2 || st.ImageHits != 1 || c.ImageLen() != 2 {
		t.Errorf("Stats() = %+v, ImageLen() = %d", st, c.ImageLen())
	}

	px, err := c.Atlas().Pixels(*sa)
	if err != nil {
		t.Fatal(err)
	}
	if got := px.RGBAAt(sa.Rect.Min.X, sa.Rect.Min.Y); got.R != 255 {
		t.Errorf("decoded pixel = %v", got)
	}
}

func TestCachedImage_DecodeError(t *testing.T) {
	c, _ := newCache(t, 128)
	img := term.NewImageData([]byte("garbage"))

	_, err := c.CachedImage(img)
	var derr *DecodeError
	if !errors.As(err, &derr) || derr.ID != img.ID {
		t.Fatalf("CachedImage() = %v, want *DecodeError", err)
	}
	if c.ImageLen() != 0 {
		t.Error("failed decode must not be cached")
	}
	if _, err := c.CachedImage(nil); !errors.Is(err, ErrNilImage) {
		t.Errorf("CachedImage(nil) = %v", err)
	}
}

func TestKeyEquivalence(t *testing.T) {
	seed := maphash.MakeSeed()
	style := config.TextStyle{Font: []config.FontAttributes{{Family: "A", Bold: true}}}
	borrowed := BorrowedGlyphKey{FontIdx: 1, GlyphPos: 7, Style: &style}
	owned := borrowed.Owned()

	if !owned.Equal(borrowed) {
		t.Error("owned key should equal its borrowed source")
	}
	if owned.Hash(seed) != borrowed.Hash(seed) {
		t.Error("owned and borrowed hashes differ")
	}

	other := style.WithAttributes(false, true)
	tests := []BorrowedGlyphKey{
		{FontIdx: 0, GlyphPos: 7, Style: &style},
		{FontIdx: 1, GlyphPos: 8, Style: &style},
		{FontIdx: 1, GlyphPos: 7, Style: &other},
	}
	for _, k := range tests {
		if owned.Equal(k) {
			t.Errorf("%+v should not equal %+v", owned, k)
		}
	}

	style.Font[0].Family = "B"
	if owned.Style.Font[0].Family != "A" {
		t.Error("Owned must deep-copy the style")
	}
}

func TestCachedGlyph_NilStyle(t *testing.T) {
	c, r := newCache(t, 128)
	if _, err := c.CachedGlyph(font.GlyphInfo{GlyphPos: glyphLetter}, nil); !errors.Is(err, ErrNilStyle) {
		t.Fatalf("CachedGlyph(nil style) = %v, want ErrNilStyle", err)
	}
	if r.resolved != 0 || c.Len() != 0 {
		t.Error("a nil style must not reach the font or the cache")
	}
}

func TestCachedGlyph_HitDoesNotAllocate(t *testing.T) {
	c, _ := newCache(t, 128)
	style := config.DefaultTextStyle()
	style.Foreground = "#0a141e"
	info := font.GlyphInfo{GlyphPos: glyphLetter, FontIdx: 1}
	if _, err := c.CachedGlyph(info, &style); err != nil {
		t.Fatal(err)
	}

	allocs := testing.AllocsPerRun(100, func() {
		if _, err := c.CachedGlyph(info, &style); err != nil {
			t.Fatal(err)
		}
	})
	if allocs != 0 {
		t.Errorf("CachedGlyph hit allocated %v times, want 0", allocs)
	}
}

func BenchmarkCachedGlyphHit(b *testing.B) {
	r := &fakeResolver{font: &fakeFont{}}
	c, _ := NewGlyphCache(r, 128)
	style := config.DefaultTextStyle()
	info := font.GlyphInfo{GlyphPos: glyphLetter}
	c.CachedGlyph(info, &style)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.CachedGlyph(info, &style)
	}
}
