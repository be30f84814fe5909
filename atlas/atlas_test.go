package atlas

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// --- packer Tests ---

func TestPacker_FillsRowsLeftToRight(t *testing.T) {
	p := newPacker(64)

	tests := []struct {
		w, h int
		x, y int
	}{
		{10, 10, 0, 0},
		{10, 10, 11, 0},
		{10, 8, 22, 0},
		{10, 20, 0, 11},
	}
	for _, tt := range tests {
		x, y, ok := p.place(tt.w, tt.h)
		if !ok || x != tt.x || y != tt.y {
			t.Errorf("place(%d, %d) = (%d, %d, %v), want (%d, %d, true)", tt.w, tt.h, x, y, ok, tt.x, tt.y)
		}
	}
}

func TestPacker_BestFitRow(t *testing.T) {
	p := newPacker(64)
	p.place(30, 20) // row 0, height 21
	p.place(40, 6)  // no room left in row 0, opens row 1 with height 7

	// Both rows have room; the shorter one wastes less.
	x, y, ok := p.place(5, 5)
	if !ok || x != 41 || y != 21 {
		t.Errorf("place(5, 5) = (%d, %d, %v), want (41, 21, true)", x, y, ok)
	}
}

func TestPacker_Full(t *testing.T) {
	p := newPacker(42)

	count := 0
	for {
		if _, _, ok := p.place(20, 20); !ok {
			break
		}
		count++
		if count > 100 {
			t.Fatal("packer never filled up")
		}
	}
	if count != 4 { // 2x2 grid of 20+1 in 42x42
		t.Errorf("placed %d, want 4", count)
	}
}

func TestPacker_TooWide(t *testing.T) {
	p := newPacker(50)
	if _, _, ok := p.place(50, 5); ok {
		t.Error("a sprite as wide as the atlas leaves no room for padding")
	}
	if len(p.rows) != 0 {
		t.Error("failed placement must not open a row")
	}
}

func TestPacker_Utilization(t *testing.T) {
	p := newPacker(100)
	p.place(50, 50)
	if got := p.utilization(); got != 0.25 {
		t.Errorf("utilization() = %v, want 0.25", got)
	}
}

// --- Atlas Tests ---

func TestNew_RejectsTinySide(t *testing.T) {
	_, err := New(8, gputypes.TextureFormatRGBA8Unorm)
	var serr *SizeError
	if !errors.As(err, &serr) || serr.Size != 8 {
		t.Fatalf("New(8) = %v, want *SizeError{8}", err)
	}
}

func TestAllocate_CopiesPixels(t *testing.T) {
	a, err := New(64, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}

	red := color.RGBA{R: 255, A: 255}
	s, err := a.Allocate(solid(4, 3, red))
	if err != nil {
		t.Fatalf("Allocate() = %v", err)
	}
	if s.Width() != 4 || s.Height() != 3 {
		t.Errorf("sprite size = %dx%d, want 4x3", s.Width(), s.Height())
	}

	px, err := a.Pixels(s)
	if err != nil {
		t.Fatalf("Pixels() = %v", err)
	}
	if got := px.RGBAAt(s.Rect.Min.X+3, s.Rect.Min.Y+2); got != red {
		t.Errorf("pixel = %v, want %v", got, red)
	}
	if a.SpriteCount() != 1 {
		t.Errorf("SpriteCount() = %d, want 1", a.SpriteCount())
	}
}

func TestAllocate_OutOfSpace(t *testing.T) {
	a, err := New(16, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.Allocate(solid(10, 10, color.RGBA{A: 255}))
	if err != nil {
		t.Fatalf("first Allocate() = %v", err)
	}

	_, err = a.Allocate(solid(10, 10, color.RGBA{A: 255}))
	var oos *OutOfTextureSpaceError
	if !errors.As(err, &oos) {
		t.Fatalf("Allocate() = %v, want *OutOfTextureSpaceError", err)
	}
	if oos.Size != 32 {
		t.Errorf("Size = %d, want 32", oos.Size)
	}
	if a.SpriteCount() != 1 {
		t.Error("failed allocation must leave the atlas unchanged")
	}
}

func TestAllocate_OversizeRequestSize(t *testing.T) {
	a, err := New(16, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.Allocate(solid(100, 20, color.RGBA{A: 255}))
	var oos *OutOfTextureSpaceError
	if !errors.As(err, &oos) {
		t.Fatalf("Allocate() = %v, want *OutOfTextureSpaceError", err)
	}
	if oos.Size < 101 {
		t.Errorf("Size = %d, want at least 101", oos.Size)
	}

	bigger, err := New(oos.Size, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bigger.Allocate(solid(100, 20, color.RGBA{A: 255})); err != nil {
		t.Errorf("allocation at the required size failed: %v", err)
	}
}

func TestAllocate_Empty(t *testing.T) {
	a, _ := New(16, gputypes.TextureFormatRGBA8Unorm)
	if _, err := a.Allocate(image.NewRGBA(image.Rect(0, 0, 0, 5))); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Allocate(empty) = %v, want ErrEmptyImage", err)
	}
}

func TestSprite_StaleAfterReplacement(t *testing.T) {
	old, _ := New(32, gputypes.TextureFormatRGBA8Unorm)
	s, err := old.Allocate(solid(2, 2, color.RGBA{A: 255}))
	if err != nil {
		t.Fatal(err)
	}

	replacement, _ := New(64, gputypes.TextureFormatRGBA8Unorm)
	if replacement.Generation() <= old.Generation() {
		t.Error("generations must increase")
	}
	if replacement.Valid(s) {
		t.Error("sprite from the old atlas must not validate against the new one")
	}
	if _, err := replacement.Pixels(s); !errors.Is(err, ErrStaleSprite) {
		t.Errorf("Pixels(stale) = %v, want ErrStaleSprite", err)
	}
}
