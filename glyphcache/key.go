package glyphcache

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/Gskartwii/wezterm/config"
)

// fingerprintBuf sizes the stack buffer used for hit-path lookups. Longer
// fingerprints still work; append moves them to the heap.
const fingerprintBuf = 256

// GlyphKey identifies one rendered variant of one glyph. It owns its style.
type GlyphKey struct {
	FontIdx  int
	GlyphPos uint32
	Style    config.TextStyle
}

// BorrowedGlyphKey is a GlyphKey whose style is referenced rather than
// owned. Building one never allocates. Style must not be nil.
type BorrowedGlyphKey struct {
	FontIdx  int
	GlyphPos uint32
	Style    *config.TextStyle
}

// Borrow returns a view of k that shares its style.
func (k *GlyphKey) Borrow() BorrowedGlyphKey {
	return BorrowedGlyphKey{FontIdx: k.FontIdx, GlyphPos: k.GlyphPos, Style: &k.Style}
}

// Equal reports whether k and other identify the same glyph variant.
func (k *GlyphKey) Equal(other BorrowedGlyphKey) bool {
	return k.Borrow().Equal(other)
}

// Hash returns the same value as Hash on any equal BorrowedGlyphKey.
func (k *GlyphKey) Hash(seed maphash.Seed) uint64 {
	return k.Borrow().Hash(seed)
}

// Owned clones the style into a GlyphKey.
func (k BorrowedGlyphKey) Owned() GlyphKey {
	return GlyphKey{FontIdx: k.FontIdx, GlyphPos: k.GlyphPos, Style: k.Style.Clone()}
}

// Equal compares by value; style identity is irrelevant.
func (k BorrowedGlyphKey) Equal(other BorrowedGlyphKey) bool {
	return k.FontIdx == other.FontIdx &&
		k.GlyphPos == other.GlyphPos &&
		k.Style.Equal(other.Style)
}

// Hash hashes the canonical byte form of the key.
func (k BorrowedGlyphKey) Hash(seed maphash.Seed) uint64 {
	var buf [fingerprintBuf]byte
	b := binary.LittleEndian.AppendUint64(buf[:0], uint64(k.FontIdx))
	b = binary.LittleEndian.AppendUint32(b, k.GlyphPos)
	b = k.Style.AppendFingerprint(b)
	return maphash.Bytes(seed, b)
}

// StyleID is the interned handle of a style.
type StyleID uint32

// internedKey is the comparable map key the cache stores glyphs under.
type internedKey struct {
	fontIdx  int
	glyphPos uint32
	style    StyleID
}

// styleTable interns styles by fingerprint. A style is cloned once, the
// first time it is seen; later lookups convert the fingerprint to a map
// key without allocating.
type styleTable struct {
	ids    map[string]StyleID
	styles []config.TextStyle
}

func newStyleTable() styleTable {
	return styleTable{ids: make(map[string]StyleID)}
}

// lookup finds the handle for an already interned key.
func (t *styleTable) lookup(k BorrowedGlyphKey) (internedKey, bool) {
	var buf [fingerprintBuf]byte
	id, ok := t.ids[string(k.Style.AppendFingerprint(buf[:0]))]
	if !ok {
		return internedKey{}, false
	}
	return internedKey{fontIdx: k.FontIdx, glyphPos: k.GlyphPos, style: id}, true
}

// intern stores the owned key's style if needed and returns its handle.
func (t *styleTable) intern(k *GlyphKey) internedKey {
	fp := string(k.Style.AppendFingerprint(nil))
	id, ok := t.ids[fp]
	if !ok {
		id = StyleID(len(t.styles))
		t.styles = append(t.styles, k.Style)
		t.ids[fp] = id
	}
	return internedKey{fontIdx: k.FontIdx, glyphPos: k.GlyphPos, style: id}
}

// style returns the interned style for id.
func (t *styleTable) style(id StyleID) *config.TextStyle {
	return &t.styles[id]
}

func (t *styleTable) len() int { return len(t.styles) }
