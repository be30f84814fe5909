package config

import (
	"strconv"
)

// FontAttributes selects one face in a font fallback list.
type FontAttributes struct {
	// Family is the font family name, e.g. "JetBrains Mono".
	Family string `toml:"family" yaml:"family"`

	Bold   bool `toml:"bold" yaml:"bold"`
	Italic bool `toml:"italic" yaml:"italic"`
}

// TextStyle describes how a run of text is drawn: the font fallback list
// and an optional foreground colour override.
//
// TextStyle is compared by value. It holds a slice so it is not a valid
// map key; use Fingerprint to obtain a canonical comparable form.
type TextStyle struct {
	Font []FontAttributes `toml:"font" yaml:"font"`

	// Foreground is a "#rrggbb" colour, empty for the terminal default.
	Foreground string `toml:"foreground" yaml:"foreground"`
}

// DefaultTextStyle returns the style used when nothing is configured.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		Font: []FontAttributes{{Family: "Go Mono"}},
	}
}

// Equal reports whether two styles are equal by value.
func (s *TextStyle) Equal(other *TextStyle) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if s.Foreground != other.Foreground || len(s.Font) != len(other.Font) {
		return false
	}
	for i := range s.Font {
		if s.Font[i] != other.Font[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the style.
func (s *TextStyle) Clone() TextStyle {
	out := TextStyle{Foreground: s.Foreground}
	if s.Font != nil {
		out.Font = make([]FontAttributes, len(s.Font))
		copy(out.Font, s.Font)
	}
	return out
}

// WithAttributes returns a copy of the style with bold and italic applied
// to every entry of the font list.
func (s *TextStyle) WithAttributes(bold, italic bool) TextStyle {
	out := s.Clone()
	for i := range out.Font {
		out.Font[i].Bold = out.Font[i].Bold || bold
		out.Font[i].Italic = out.Font[i].Italic || italic
	}
	return out
}

// AppendFingerprint appends a canonical encoding of the style to dst.
// Two styles produce identical bytes if and only if they are Equal.
// Strings are length-prefixed so no two field layouts collide.
func (s *TextStyle) AppendFingerprint(dst []byte) []byte {
	dst = strconv.AppendInt(dst, int64(len(s.Font)), 10)
	dst = append(dst, ';')
	for _, f := range s.Font {
		dst = strconv.AppendInt(dst, int64(len(f.Family)), 10)
		dst = append(dst, ':')
		dst = append(dst, f.Family...)
		dst = append(dst, flagByte(f.Bold, f.Italic))
	}
	dst = strconv.AppendInt(dst, int64(len(s.Foreground)), 10)
	dst = append(dst, ':')
	dst = append(dst, s.Foreground...)
	return dst
}

func flagByte(bold, italic bool) byte {
	b := byte('0')
	if bold {
		b++
	}
	if italic {
		b += 2
	}
	return b
}
