package sfd

import (
	"fmt"
	"strings"
)

// Well-known SFNT name IDs, as used with AppendSFNTName.
const (
	NameCopyright      = 0
	NameFamily         = 1
	NameSubfamily      = 2
	NameUniqueID       = 3
	NameFullName       = 4
	NameVersion        = 5
	NamePostScript     = 6
	NameTrademark      = 7
	NameManufacturer   = 8
	NameDesigner       = 9
	NameDescriptor     = 10
	NameVendorURL      = 11
	NameDesignerURL    = 12
	NameLicense        = 13
	NameLicenseURL     = 14
	NamePreferredFam   = 16
	NamePreferredStyle = 17
	NameSampleText     = 19
)

// LangEnglishUS is the Windows language ID for "English (US)".
const LangEnglishUS = 0x409

// SFNTName is an entry of the font's naming table.
type SFNTName struct {
	Lang  int
	ID    int
	Value string
}

// LayerInfo describes a glyph layer declared in the font header.
type LayerInfo struct {
	Name      string
	Quadratic bool
	IsBack    bool
}

// VMetric is a vertical metric which may be stored as an offset
// relative to a font-wide reference value (ascent, descent or bbox).
type VMetric struct {
	Value    float64
	IsOffset bool
}

// OS2Info holds the OS/2 related header fields of a source.
type OS2Info struct {
	Version     int
	WeightClass int
	WidthClass  int
	FSType      int
	Vendor      string
	Panose      [10]byte
	TypoAscent  VMetric
	TypoDescent VMetric
	TypoLineGap float64
	WinAscent   VMetric
	WinDescent  VMetric
	HHeadAscent VMetric
	HHeadDesc   VMetric
	HHeadLGap   float64
	CapHeight   float64
	XHeight     float64
	UseTypo     bool
}

// Font is an editable font source.
type Font struct {
	FontName          string
	FullName          string
	FamilyName        string
	Weight            string
	Copyright         string
	Version           string
	ItalicAngle       float64
	UnderlinePosition float64
	UnderlineWidth    float64
	Ascent            float64
	Descent           float64
	Encoding          string
	Layers            []LayerInfo
	OS2               OS2Info
	Names             []SFNTName
	Lookups           []*Lookup
	AnchorClasses     []AnchorClass
	KernClasses       []*KernClass
	MarkClasses       []MarkClass // mark attachment classes 1..n
	MarkSets          []MarkClass // mark filtering sets 0..n-1

	glyphs []*Glyph
	byName map[string]*Glyph
}

func newFont() *Font {
	return &Font{
		Encoding: "UnicodeBmp",
		Layers: []LayerInfo{
			{Name: "Back", IsBack: true},
			{Name: "Fore"},
		},
		byName: make(map[string]*Glyph),
	}
}

// Em returns the font's units per em (ascent plus descent).
func (f *Font) Em() int {
	return int(f.Ascent + f.Descent + 0.5)
}

// SetEm changes the em size and scales all font data accordingly.
func (f *Font) SetEm(em int) {
	old := f.Ascent + f.Descent
	if em <= 0 || old <= 0 || float64(em) == old {
		return
	}
	s := float64(em) / old
	tracer().Debugf("scaling font %s from %g to %d units per em", f.FontName, old, em)
	f.Ascent *= s
	f.Descent = float64(em) - f.Ascent
	f.UnderlinePosition *= s
	f.UnderlineWidth *= s
	scaleV := func(v *VMetric) { v.Value *= s }
	scaleV(&f.OS2.TypoAscent)
	scaleV(&f.OS2.TypoDescent)
	scaleV(&f.OS2.WinAscent)
	scaleV(&f.OS2.WinDescent)
	scaleV(&f.OS2.HHeadAscent)
	scaleV(&f.OS2.HHeadDesc)
	f.OS2.TypoLineGap *= s
	f.OS2.HHeadLGap *= s
	f.OS2.CapHeight *= s
	f.OS2.XHeight *= s
	for _, kc := range f.KernClasses {
		for i := range kc.Offsets {
			kc.Offsets[i] *= s
		}
	}
	for _, g := range f.glyphs {
		g.scale(s)
	}
}

// SetEncodingUnicode switches the font to a Unicode encoding.
func (f *Font) SetEncodingUnicode() {
	enc := "UnicodeBmp"
	for _, g := range f.glyphs {
		if g.Unicode > 0xffff {
			enc = "UnicodeFull"
			break
		}
	}
	f.Encoding = enc
}

// Glyphs returns all glyphs in source order. The slice must not be modified.
func (f *Font) Glyphs() []*Glyph {
	return f.glyphs
}

// Len returns the number of glyphs.
func (f *Font) Len() int {
	return len(f.glyphs)
}

// Has reports whether a glyph with the given name exists.
func (f *Font) Has(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// Glyph looks up a glyph by name. The error wraps ErrNoSuchGlyph.
func (f *Font) Glyph(name string) (*Glyph, error) {
	if g, ok := f.byName[name]; ok {
		return g, nil
	}
	return nil, noSuchGlyph(name)
}

// GlyphByUnicode returns the glyph encoded at code point r, or nil.
func (f *Font) GlyphByUnicode(r rune) *Glyph {
	for _, g := range f.glyphs {
		if g.Unicode == int(r) {
			return g
		}
	}
	return nil
}

// RenameGlyph gives glyph g a new name. References, kerning and lookup
// entries of other glyphs pointing at g follow the rename.
func (f *Font) RenameGlyph(g *Glyph, name string) error {
	if g.font != f {
		return fmt.Errorf("glyph %q does not belong to font %s", g.Name, f.FontName)
	}
	if _, exists := f.byName[name]; exists {
		return fmt.Errorf("cannot rename %q: glyph %q already exists", g.Name, name)
	}
	old := g.Name
	delete(f.byName, old)
	g.Name = name
	f.byName[name] = g
	for _, other := range f.glyphs {
		other.renameTarget(old, name)
	}
	for _, kc := range f.KernClasses {
		kc.rename(old, name)
	}
	for _, mcs := range [][]MarkClass{f.MarkClasses, f.MarkSets} {
		for _, mc := range mcs {
			for i, g := range mc.Glyphs {
				if g == old {
					mc.Glyphs[i] = name
				}
			}
		}
	}
	return nil
}

// CreateChar returns the glyph encoded at r, creating an empty glyph named
// name if the code point is not yet in the font.
func (f *Font) CreateChar(r rune, name string) (*Glyph, error) {
	if g := f.GlyphByUnicode(r); g != nil {
		return g, nil
	}
	if f.Has(name) {
		return nil, fmt.Errorf("cannot create U+%04X: glyph %q already exists", r, name)
	}
	g := newGlyph(f, name)
	g.Unicode = int(r)
	g.Width = f.Ascent + f.Descent
	f.addGlyph(g)
	return g, nil
}

func (f *Font) addGlyph(g *Glyph) {
	g.font = f
	f.glyphs = append(f.glyphs, g)
	f.byName[g.Name] = g
}

// MergeFonts copies all glyphs of other which do not exist by name in f.
// A copied glyph whose code point is already taken in f keeps no encoding.
// Lookups, anchor classes and kerning classes of other are appended.
func (f *Font) MergeFonts(other *Font) {
	encoded := make(map[int]bool, len(f.glyphs))
	for _, g := range f.glyphs {
		if g.Unicode >= 0 {
			encoded[g.Unicode] = true
		}
	}
	for _, og := range other.glyphs {
		if f.Has(og.Name) {
			tracer().Debugf("merge: keeping existing glyph %q", og.Name)
			continue
		}
		g := og.clone()
		if g.Unicode >= 0 && encoded[g.Unicode] {
			tracer().Infof("merge: U+%04X already encoded, glyph %q stays unencoded", g.Unicode, g.Name)
			g.Unicode = -1
		}
		if g.Unicode >= 0 {
			encoded[g.Unicode] = true
		}
		f.addGlyph(g)
	}
	classOffset, setOffset := len(f.MarkClasses), len(f.MarkSets)
	for _, l := range other.Lookups {
		c := *l
		if cls := c.Flags & FlagMarkAttachmentType; cls != 0 {
			c.Flags = c.Flags&^FlagMarkAttachmentType | (cls>>8+classOffset)<<8
		}
		if c.Flags&FlagUseMarkFilteringSet != 0 {
			c.Flags = c.Flags&0xffff | (c.Flags>>16+setOffset)<<16
		}
		f.Lookups = append(f.Lookups, &c)
	}
	f.MarkClasses = append(f.MarkClasses, other.MarkClasses...)
	f.MarkSets = append(f.MarkSets, other.MarkSets...)
	f.AnchorClasses = append(f.AnchorClasses, other.AnchorClasses...)
	f.KernClasses = append(f.KernClasses, other.KernClasses...)
}

// AppendSFNTName sets a naming table entry, replacing an existing entry for
// the same language and name ID.
func (f *Font) AppendSFNTName(lang, id int, value string) {
	for i, n := range f.Names {
		if n.Lang == lang && n.ID == id {
			f.Names[i].Value = value
			return
		}
	}
	f.Names = append(f.Names, SFNTName{Lang: lang, ID: id, Value: value})
}

// SFNTName returns the naming table entry for a language and name ID.
func (f *Font) SFNTName(lang, id int) (string, bool) {
	for _, n := range f.Names {
		if n.Lang == lang && n.ID == id {
			return n.Value, true
		}
	}
	return "", false
}

// LayerIndex returns the index of a named layer, or -1.
func (f *Font) LayerIndex(name string) int {
	for i, l := range f.Layers {
		if strings.EqualFold(l.Name, name) {
			return i
		}
	}
	return -1
}

// BoundingBox returns the union of all glyph bounding boxes.
func (f *Font) BoundingBox() Rect {
	r := emptyRect()
	for _, g := range f.glyphs {
		r = r.Union(g.BoundingBox())
	}
	return r
}
