// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render paints terminal state into frames and presents them.
package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gputypes"
)

// ErrFrameFinished is returned when a frame is finished twice.
var ErrFrameFinished = errors.New("render: frame already finished")

// Surface is a CPU-backed render target using *image.RGBA. Frames are
// acquired from it one at a time and handed to a Presenter when finished.
type Surface struct {
	img       *image.RGBA
	presenter Presenter
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int, presenter Presenter) *Surface {
	return &Surface{
		img:       image.NewRGBA(image.Rect(0, 0, width, height)),
		presenter: presenter,
	}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	return s.img.Bounds().Dx()
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	return s.img.Bounds().Dy()
}

// Format returns the pixel format (RGBA8).
func (s *Surface) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the surface.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Resize replaces the backing image. The contents are not preserved.
func (s *Surface) Resize(width, height int) {
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Frame acquires a frame for painting. Contents carry over from the
// previous frame so only dirty rows need repainting.
func (s *Surface) Frame() *Frame {
	return &Frame{surface: s}
}

// Frame is one paint pass over a surface.
type Frame struct {
	surface  *Surface
	finished bool
}

// Image returns the pixels being painted.
func (f *Frame) Image() *image.RGBA { return f.surface.img }

// Bounds returns the frame rectangle.
func (f *Frame) Bounds() image.Rectangle { return f.surface.img.Bounds() }

// Clear fills the entire frame with the given color.
func (f *Frame) Clear(c color.Color) {
	draw.Draw(f.surface.img, f.surface.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Fill paints r with c.
func (f *Frame) Fill(r image.Rectangle, c color.RGBA) {
	draw.Draw(f.surface.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// Finish presents the frame. It must be called exactly once per frame,
// including when painting failed.
func (f *Frame) Finish() error {
	if f.finished {
		return ErrFrameFinished
	}
	f.finished = true
	if f.surface.presenter == nil {
		return nil
	}
	return f.surface.presenter.Present(f.surface.img)
}
