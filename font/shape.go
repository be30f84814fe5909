package font

import (
	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
)

// shapeRun shapes text with the primary face, then substitutes glyphs the
// primary face lacks from later faces in the chain.
func shapeRun(hb *shaping.HarfbuzzShaper, faces []*face, text string) []GlyphInfo {
	runes := []rune(text)
	if len(runes) == 0 || len(faces) == 0 {
		return nil
	}

	primary := faces[0]
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gtfont.NewFace(primary.shape),
		Size:      primary.ppem,
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	output := hb.Shape(input)

	result := make([]GlyphInfo, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		info := GlyphInfo{
			Cluster:  g.TextIndex(),
			GlyphPos: uint32(g.GlyphID),
			XAdvance: fixedToFloat(g.Advance),
			XOffset:  fixedToFloat(g.XOffset),
			YOffset:  fixedToFloat(g.YOffset),
		}
		if info.GlyphPos == 0 && info.Cluster < len(runes) {
			info = fallbackGlyph(faces, runes[info.Cluster], info)
		}
		result = append(result, info)
	}
	return result
}

// fallbackGlyph looks r up in the faces after the primary one. The
// notdef glyph of the primary face is kept if no face has r.
func fallbackGlyph(faces []*face, r rune, info GlyphInfo) GlyphInfo {
	for idx := 1; idx < len(faces); idx++ {
		gid := faces[idx].glyphIndex(r)
		if gid == 0 {
			continue
		}
		return GlyphInfo{
			Cluster:  info.Cluster,
			FontIdx:  idx,
			GlyphPos: gid,
			XAdvance: faces[idx].advance(gid),
		}
	}
	return info
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
