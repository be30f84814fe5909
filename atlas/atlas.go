package atlas

import (
	"errors"
	"image"
	"image/draw"
	"strconv"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// Sentinel errors for the atlas package.
var (
	// ErrStaleSprite is returned when a sprite from a replaced atlas is used.
	ErrStaleSprite = errors.New("atlas: sprite belongs to a replaced atlas")

	// ErrEmptyImage is returned when allocating a zero-area bitmap.
	ErrEmptyImage = errors.New("atlas: cannot allocate an empty image")
)

// MinSize is the smallest accepted atlas side length.
const MinSize = 16

// padding keeps linear sampling from bleeding between neighbours.
const padding = 1

// OutOfTextureSpaceError reports that an allocation did not fit.
// Size is the atlas side length that would let it succeed.
type OutOfTextureSpaceError struct {
	Size int
}

func (e *OutOfTextureSpaceError) Error() string {
	return "atlas: out of texture space, need size " + strconv.Itoa(e.Size)
}

// SizeError is returned by New for an unusable side length.
type SizeError struct {
	Size int
}

func (e *SizeError) Error() string {
	return "atlas: invalid size " + strconv.Itoa(e.Size)
}

// generations hands out atlas generation numbers. Every atlas ever built in
// the process gets a distinct one, so a sprite can never validate against a
// later atlas.
var generations atomic.Uint64

// Sprite is a handle to a region inside one atlas generation.
type Sprite struct {
	Generation uint64
	Rect       image.Rectangle
}

// Width returns the sprite width in pixels.
func (s Sprite) Width() int { return s.Rect.Dx() }

// Height returns the sprite height in pixels.
func (s Sprite) Height() int { return s.Rect.Dy() }

// Atlas is one square RGBA texture holding many sprites.
//
// Atlas is not safe for concurrent use; it is owned by the render thread.
type Atlas struct {
	surface    *image.RGBA
	side       int
	format     gputypes.TextureFormat
	generation uint64
	packer     *packer
	count      int
}

// New creates an empty atlas with the given side length.
func New(side int, format gputypes.TextureFormat) (*Atlas, error) {
	if side < MinSize {
		return nil, &SizeError{Size: side}
	}
	return &Atlas{
		surface:    image.NewRGBA(image.Rect(0, 0, side, side)),
		side:       side,
		format:     format,
		generation: generations.Add(1),
		packer:     newPacker(side),
	}, nil
}

// Allocate copies img into free space and returns its sprite.
// If the image does not fit, an *OutOfTextureSpaceError is returned and the
// atlas is unchanged.
func (a *Atlas) Allocate(img *image.RGBA) (Sprite, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return Sprite{}, ErrEmptyImage
	}

	x, y, ok := a.packer.place(w, h)
	if !ok {
		return Sprite{}, &OutOfTextureSpaceError{Size: a.requiredSize(w, h)}
	}

	rect := image.Rect(x, y, x+w, y+h)
	draw.Draw(a.surface, rect, img, img.Bounds().Min, draw.Src)
	a.count++

	return Sprite{Generation: a.generation, Rect: rect}, nil
}

// requiredSize doubles the side until the request alone would fit, starting
// from twice the current side so the existing contents get room too.
func (a *Atlas) requiredSize(w, h int) int {
	need := max(w, h) + padding
	size := a.side * 2
	for size < need {
		size *= 2
	}
	return size
}

// Valid reports whether the sprite belongs to this atlas generation.
func (a *Atlas) Valid(s Sprite) bool {
	return s.Generation == a.generation
}

// Pixels returns the sprite's pixels as a sub-image of the atlas surface.
func (a *Atlas) Pixels(s Sprite) (*image.RGBA, error) {
	if !a.Valid(s) {
		return nil, ErrStaleSprite
	}
	return a.surface.SubImage(s.Rect).(*image.RGBA), nil
}

// Side returns the atlas side length in pixels.
func (a *Atlas) Side() int { return a.side }

// Format returns the texture format the atlas is uploaded with.
func (a *Atlas) Format() gputypes.TextureFormat { return a.format }

// Generation returns the generation number shared by all sprites of this atlas.
func (a *Atlas) Generation() uint64 { return a.generation }

// SpriteCount returns the number of allocated sprites.
func (a *Atlas) SpriteCount() int { return a.count }

// Utilization returns the fraction of the surface covered by sprites.
func (a *Atlas) Utilization() float64 { return a.packer.utilization() }
