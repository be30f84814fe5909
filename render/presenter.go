// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Presentation errors.
var (
	// ErrNoTextureCreator is returned when the draw context cannot create
	// textures.
	ErrNoTextureCreator = errors.New("render: draw context has no texture creator")

	// ErrNotTexture is returned when a created texture cannot be drawn.
	ErrNotTexture = errors.New("render: created value is not a gpucontext.Texture")

	// ErrPresenterClosed is returned by Present after Close.
	ErrPresenterClosed = errors.New("render: presenter closed")
)

// Presenter displays finished frames.
type Presenter interface {
	Present(img *image.RGBA) error
}

// textureDestroyer matches the Destroy method of host textures.
type textureDestroyer interface {
	Destroy()
}

// TexturePresenter uploads frames to a GPU texture owned by the host and
// draws it at the origin.
type TexturePresenter struct {
	dc gpucontext.TextureDrawer

	texture any
	width   int
	height  int
	closed  bool
}

// NewTexturePresenter presents through dc.
func NewTexturePresenter(dc gpucontext.TextureDrawer) *TexturePresenter {
	return &TexturePresenter{dc: dc}
}

// Present uploads img and draws it. The texture is created on first use
// and when the frame size changes; otherwise it is updated in place.
func (p *TexturePresenter) Present(img *image.RGBA) error {
	if p.closed {
		return ErrPresenterClosed
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	if p.texture == nil || w != p.width || h != p.height {
		creator := p.dc.TextureCreator()
		if creator == nil {
			return ErrNoTextureCreator
		}
		tex, err := creator.NewTextureFromRGBA(w, h, img.Pix)
		if err != nil {
			return fmt.Errorf("render: NewTextureFromRGBA failed: %w", err)
		}

		// The upload waits for the GPU, so the old texture is no longer in use.
		if destroyer, ok := p.texture.(textureDestroyer); ok {
			destroyer.Destroy()
		}
		p.texture, p.width, p.height = tex, w, h
	} else if updater, ok := p.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(img.Pix); err != nil {
			return fmt.Errorf("render: texture update failed: %w", err)
		}
	}

	gpuTex, ok := p.texture.(gpucontext.Texture)
	if !ok {
		return ErrNotTexture
	}
	return p.dc.DrawTexture(gpuTex, 0, 0)
}

// Close destroys the texture.
func (p *TexturePresenter) Close() {
	if destroyer, ok := p.texture.(textureDestroyer); ok {
		destroyer.Destroy()
	}
	p.texture = nil
	p.closed = true
}

// ImagePresenter keeps a copy of the last presented frame.
//
// ImagePresenter is safe for concurrent use.
type ImagePresenter struct {
	mu    sync.Mutex
	last  *image.RGBA
	count int
}

// Present copies img.
func (p *ImagePresenter) Present(img *image.RGBA) error {
	cp := &image.RGBA{
		Pix:    append([]byte(nil), img.Pix...),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	p.mu.Lock()
	p.last = cp
	p.count++
	p.mu.Unlock()
	return nil
}

// Last returns the most recent frame, or nil.
func (p *ImagePresenter) Last() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Count returns the number of frames presented.
func (p *ImagePresenter) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}
