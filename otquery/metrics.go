package otquery

import (
	"github.com/npillmayer/fontmerge/ot"
	"golang.org/x/image/font/sfnt"
)

// FontMetricsInfo contains selected metric information for a font.
type FontMetricsInfo struct {
	UnitsPerEm      sfnt.Units // ad-hoc units per em
	Ascent, Descent sfnt.Units // ascender and descender from 'hhea'
	LineGap         sfnt.Units // line gap from 'hhea'
	MaxAdvance      sfnt.Units // maximum advance width value in 'hmtx' table
	TypoAscent      sfnt.Units // from 'OS/2'
	TypoDescent     sfnt.Units
	WinAscent       sfnt.Units
	WinDescent      sfnt.Units
}

// GlyphMetricsInfo contains the horizontal metrics of a glyph.
type GlyphMetricsInfo struct {
	Advance sfnt.Units // advance width
	LSB     sfnt.Units // left side bearing
}

// FontMetrics retrieves selected metrics of a font from tables 'head',
// 'hhea' and 'OS/2'. Missing tables leave their fields zero.
func FontMetrics(otf *ot.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	if head, ok := HeadInfo(otf); ok {
		metrics.UnitsPerEm = sfnt.Units(head.UnitsPerEm)
	}
	if hhea := otf.Table(ot.TagHhea); len(hhea) >= 36 {
		metrics.Ascent = sfnt.Units(i16(hhea[4:]))
		metrics.Descent = sfnt.Units(i16(hhea[6:]))
		metrics.LineGap = sfnt.Units(i16(hhea[8:]))
		metrics.MaxAdvance = sfnt.Units(u16(hhea[10:]))
	}
	if os2 := otf.Table(ot.TagOS2); len(os2) >= 78 {
		metrics.TypoAscent = sfnt.Units(i16(os2[68:]))
		metrics.TypoDescent = sfnt.Units(i16(os2[70:]))
		metrics.WinAscent = sfnt.Units(u16(os2[74:]))
		metrics.WinDescent = sfnt.Units(u16(os2[76:]))
	}
	return metrics
}

// GlyphMetrics retrieves the 'hmtx' entry for a glyph. Glyphs beyond
// numberOfHMetrics share the last advance width.
func GlyphMetrics(otf *ot.Font, gid int) (GlyphMetricsInfo, bool) {
	var metrics GlyphMetricsInfo
	hhea, hmtx := otf.Table(ot.TagHhea), otf.Table(ot.TagHmtx)
	if len(hhea) < 36 || gid < 0 {
		return metrics, false
	}
	n := int(u16(hhea[34:]))
	if n == 0 || len(hmtx) < 4*n {
		return metrics, false
	}
	if gid < n {
		metrics.Advance = sfnt.Units(u16(hmtx[4*gid:]))
		metrics.LSB = sfnt.Units(i16(hmtx[4*gid+2:]))
		return metrics, true
	}
	metrics.Advance = sfnt.Units(u16(hmtx[4*(n-1):]))
	p := 4*n + 2*(gid-n)
	if p+2 > len(hmtx) {
		return metrics, false
	}
	metrics.LSB = sfnt.Units(i16(hmtx[p:]))
	return metrics, true
}

// LayoutTables returns the names of the OpenType layout tables present in a font.
func LayoutTables(otf *ot.Font) []string {
	var tables []string
	for _, tag := range []ot.Tag{ot.TagGDEF, ot.TagGSUB, ot.TagGPOS} {
		if otf.HasTable(tag) {
			tables = append(tables, tag.String())
		}
	}
	return tables
}
