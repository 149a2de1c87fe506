// Package fontload loads OpenType fonts through golang.org/x/image/font/sfnt.
// It serves as an independent reader for fonts this module generates.
package fontload

import (
	"fmt"
	"os"

	"golang.org/x/image/font/sfnt"
)

// ScalableFont is a parsed scalable font with original bytes and SFNT view.
type ScalableFont struct {
	Fontname string
	Binary   []byte
	SFNT     *sfnt.Font
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	return ParseOpenTypeFont(bytez)
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory. The font
// has to carry a full name and at least one glyph.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull)
	if err != nil {
		return nil, fmt.Errorf("font has no full name: %w", err)
	}
	if f.SFNT.NumGlyphs() == 0 {
		return nil, fmt.Errorf("font %s has no glyphs", f.Fontname)
	}
	return f, nil
}

// GlyphIndex returns the glyph index for a code point, or 0 if the font does
// not map it.
func (f *ScalableFont) GlyphIndex(r rune) sfnt.GlyphIndex {
	var buf sfnt.Buffer
	gid, err := f.SFNT.GlyphIndex(&buf, r)
	if err != nil {
		return 0
	}
	return gid
}

// GlyphName returns the post table name of a glyph.
func (f *ScalableFont) GlyphName(gid sfnt.GlyphIndex) string {
	var buf sfnt.Buffer
	name, err := f.SFNT.GlyphName(&buf, gid)
	if err != nil {
		return ""
	}
	return name
}
