package font

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"

	"github.com/Gskartwii/wezterm"
	"github.com/Gskartwii/wezterm/config"
)

// ErrFontNotFound is returned when a family is neither built in nor
// installed on the system.
var ErrFontNotFound = errors.New("font: not found")

// BuiltinFamily names the embedded fallback family.
const BuiltinFamily = "Go Mono"

// Option configures a Configuration.
type Option func(*Configuration)

// WithoutBuiltinFallback stops Go Mono from being appended to every
// fallback chain, so styles naming only missing families fail to resolve.
func WithoutBuiltinFallback() Option {
	return func(c *Configuration) { c.builtinFallback = false }
}

// WithFinder replaces system font lookup, which maps a file name
// candidate to a path.
func WithFinder(find func(name string) (string, error)) Option {
	return func(c *Configuration) { c.find = find }
}

// Configuration resolves text styles to fonts at one pixel size and caches
// the result per style.
//
// Configuration is safe for concurrent use.
type Configuration struct {
	ppem            float64
	builtinFallback bool
	find            func(name string) (string, error)

	mu    sync.Mutex
	fonts map[string]*NamedFont
}

// NewConfiguration creates a resolver for the font size and DPI in cfg.
func NewConfiguration(cfg *config.Config, opts ...Option) *Configuration {
	c := &Configuration{
		ppem:            cfg.FontSize * cfg.DPI / 72,
		builtinFallback: true,
		find:            findfont.Find,
		fonts:           make(map[string]*NamedFont),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PixelsPerEm returns the em size fonts are scaled to.
func (c *Configuration) PixelsPerEm() float64 { return c.ppem }

// ResolveFont returns the fallback chain for style. Repeated calls with an
// equal style return the same Font.
func (c *Configuration) ResolveFont(style *config.TextStyle) (Font, error) {
	key := string(style.AppendFingerprint(nil))

	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.fonts[key]; ok {
		return f, nil
	}

	f, err := c.load(style)
	if err != nil {
		return nil, err
	}
	c.fonts[key] = f
	return f, nil
}

func (c *Configuration) load(style *config.TextStyle) (*NamedFont, error) {
	log := wezterm.Logger()

	var faces []*face
	var lastErr error
	for _, attr := range style.Font {
		fc, err := c.loadFace(attr)
		if err != nil {
			log.Debug("font family skipped", "family", attr.Family, "err", err)
			lastErr = err
			continue
		}
		faces = append(faces, fc)
	}

	if c.builtinFallback {
		fc, err := parseFace(BuiltinFamily, gomono.TTF, c.ppem)
		if err != nil {
			return nil, err
		}
		faces = append(faces, fc)
	}

	if len(faces) == 0 {
		family := ""
		if len(style.Font) > 0 {
			family = style.Font[0].Family
		}
		if lastErr == nil {
			lastErr = ErrFontNotFound
		}
		return nil, &ResolutionError{Family: family, Err: lastErr}
	}

	return newNamedFont(faces)
}

func (c *Configuration) loadFace(attr config.FontAttributes) (*face, error) {
	if data := builtin(attr); data != nil {
		return parseFace(attr.Family, data, c.ppem)
	}

	for _, candidate := range fileCandidates(attr) {
		path, err := c.find(candidate)
		if err != nil || path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("font: reading %s: %w", path, err)
		}
		return parseFace(attr.Family, data, c.ppem)
	}
	return nil, fmt.Errorf("%w: %s", ErrFontNotFound, attr.Family)
}

// builtin returns the embedded Go Mono variant for attr, or nil.
func builtin(attr config.FontAttributes) []byte {
	if normalize(attr.Family) != normalize(BuiltinFamily) {
		return nil
	}
	switch {
	case attr.Bold && attr.Italic:
		return gomonobolditalic.TTF
	case attr.Bold:
		return gomonobold.TTF
	case attr.Italic:
		return gomonoitalic.TTF
	default:
		return gomono.TTF
	}
}

// fileCandidates lists font file names to try for attr, most specific
// first. The plain family is tried last so a bold request still finds
// the regular face.
func fileCandidates(attr config.FontAttributes) []string {
	compact := strings.ReplaceAll(attr.Family, " ", "")
	var suffixes []string
	switch {
	case attr.Bold && attr.Italic:
		suffixes = []string{"-BoldItalic", "-BoldOblique", " Bold Italic"}
	case attr.Bold:
		suffixes = []string{"-Bold", " Bold"}
	case attr.Italic:
		suffixes = []string{"-Italic", "-Oblique", " Italic"}
	default:
		suffixes = []string{"-Regular"}
	}

	out := make([]string, 0, 2*len(suffixes)+2)
	for _, s := range suffixes {
		out = append(out, compact+s+".ttf", attr.Family+s)
	}
	return append(out, compact+".ttf", attr.Family)
}

func normalize(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "-", "")
}

// NamedFont is a resolved fallback chain.
//
// NamedFont is safe for concurrent use.
type NamedFont struct {
	mu      sync.Mutex
	faces   []*face
	metrics Metrics
	shaper  shaping.HarfbuzzShaper
}

func newNamedFont(faces []*face) (*NamedFont, error) {
	m, err := faces[0].metrics()
	if err != nil {
		return nil, err
	}
	return &NamedFont{faces: faces, metrics: m}, nil
}

// Metrics returns the cell metrics of the primary face.
func (f *NamedFont) Metrics() Metrics { return f.metrics }

// Len returns the number of faces in the chain.
func (f *NamedFont) Len() int { return len(f.faces) }

// FaceName returns the family of the face at fontIdx.
func (f *NamedFont) FaceName(fontIdx int) string {
	if fontIdx < 0 || fontIdx >= len(f.faces) {
		return ""
	}
	return f.faces[fontIdx].name
}

// RasterizeGlyph renders glyph glyphPos of the face at fontIdx.
func (f *NamedFont) RasterizeGlyph(glyphPos uint32, fontIdx int) (*RasterizedGlyph, error) {
	if fontIdx < 0 || fontIdx >= len(f.faces) {
		return nil, ErrBadFontIndex
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.faces[fontIdx].rasterize(glyphPos)
}

// Shape converts text into glyphs, using later faces for runes the
// primary face lacks.
func (f *NamedFont) Shape(text string) ([]GlyphInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return shapeRun(&f.shaper, f.faces, text), nil
}
