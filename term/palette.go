package term

import (
	"image/color"

	headlessterm "github.com/danielgatis/go-headless-term"
)

// Default colours for cells that use the terminal defaults.
var (
	DefaultForeground = color.RGBA{R: 0xb2, G: 0xb2, B: 0xb2, A: 0xff}
	DefaultBackground = color.RGBA{A: 0xff}
)

var ansi16 = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xff}, {0xcc, 0x55, 0x55, 0xff},
	{0x55, 0xcc, 0x55, 0xff}, {0xcd, 0xcd, 0x55, 0xff},
	{0x54, 0x55, 0xcb, 0xff}, {0xcc, 0x55, 0xcc, 0xff},
	{0x7a, 0xca, 0xca, 0xff}, {0xcc, 0xcc, 0xcc, 0xff},
	{0x55, 0x55, 0x55, 0xff}, {0xff, 0x55, 0x55, 0xff},
	{0x55, 0xff, 0x55, 0xff}, {0xff, 0xff, 0x55, 0xff},
	{0x55, 0x55, 0xff, 0xff}, {0xff, 0x55, 0xff, 0xff},
	{0x55, 0xff, 0xff, 0xff}, {0xff, 0xff, 0xff, 0xff},
}

// paletteColor returns xterm-256 colour idx.
func paletteColor(idx int) color.RGBA {
	switch {
	case idx < 0:
		return DefaultForeground
	case idx < 16:
		return ansi16[idx]
	case idx < 232:
		idx -= 16
		level := func(v int) uint8 {
			if v == 0 {
				return 0
			}
			return uint8(55 + v*40)
		}
		return color.RGBA{R: level(idx / 36), G: level(idx / 6 % 6), B: level(idx % 6), A: 0xff}
	case idx < 256:
		v := uint8(8 + (idx-232)*10)
		return color.RGBA{R: v, G: v, B: v, A: 0xff}
	default:
		return DefaultForeground
	}
}

// resolve turns an emulator colour into RGBA. Indexed and named colours
// are placeholders until resolved against the palette.
func resolve(c color.Color, fallback color.RGBA) color.RGBA {
	switch c := c.(type) {
	case nil:
		return fallback
	case *headlessterm.IndexedColor:
		return paletteColor(c.Index)
	case *headlessterm.NamedColor:
		switch {
		case c.Name == headlessterm.NamedColorForeground:
			return DefaultForeground
		case c.Name == headlessterm.NamedColorBackground:
			return DefaultBackground
		case c.Name >= 0 && c.Name < 16:
			return ansi16[c.Name]
		default:
			return fallback
		}
	case color.RGBA:
		return c
	default:
		return color.RGBAModel.Convert(c).(color.RGBA)
	}
}
