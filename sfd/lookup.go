package sfd

// LookupType is FontForge's lookup type number. GSUB types are 1..8,
// GPOS types are 0x101..0x108.
type LookupType int

// Lookup types as stored in SFD files.
const (
	GSUBSingle       LookupType = 1
	GSUBMultiple     LookupType = 2
	GSUBAlternate    LookupType = 3
	GSUBLigature     LookupType = 4
	GSUBContext      LookupType = 5
	GSUBChainContext LookupType = 6
	GSUBReverseChain LookupType = 8
	GPOSSingle       LookupType = 0x101
	GPOSPair         LookupType = 0x102
	GPOSCursive      LookupType = 0x103
	GPOSMarkToBase   LookupType = 0x104
	GPOSMarkToLig    LookupType = 0x105
	GPOSMarkToMark   LookupType = 0x106
	GPOSContext      LookupType = 0x107
	GPOSChainContext LookupType = 0x108
)

// IsGPOS reports whether lookups of this type live in GPOS.
func (t LookupType) IsGPOS() bool {
	return t >= 0x100
}

// Lookup flag bits.
const (
	FlagRightToLeft         = 0x0001
	FlagIgnoreBaseGlyphs    = 0x0002
	FlagIgnoreLigatures     = 0x0004
	FlagIgnoreMarks         = 0x0008
	FlagUseMarkFilteringSet = 0x0010
	FlagMarkAttachmentType  = 0xff00
)

// ScriptLangs lists the language systems of one script a feature is
// registered for.
type ScriptLangs struct {
	Script string
	Langs  []string
}

// FeatureScript binds a lookup to a feature tag for some scripts.
type FeatureScript struct {
	Tag     string
	Scripts []ScriptLangs
}

// Lookup is a lookup declared in the font header. Its rules live in the
// glyphs (PSTs, kerning, anchors) or in the font's kerning classes,
// keyed by subtable name.
type Lookup struct {
	Type      LookupType
	Flags     int
	Name      string
	Subtables []string
	Features  []FeatureScript
}

// HasSubtable reports whether the lookup owns the named subtable.
func (l *Lookup) HasSubtable(name string) bool {
	for _, s := range l.Subtables {
		if s == name {
			return true
		}
	}
	return false
}

// AnchorClass is a named anchor class belonging to a lookup subtable.
type AnchorClass struct {
	Name     string
	Subtable string
}

// KernClass is a class-based kerning subtable. First[0] and Second[0] are
// the "everything else" classes; Offsets is indexed [i*len(Second)+j].
type KernClass struct {
	Subtable string
	First    [][]string
	Second   [][]string
	Offsets  []float64
}

// Offset returns the kerning value between first class i and second class j.
func (kc *KernClass) Offset(i, j int) float64 {
	k := i*len(kc.Second) + j
	if k < 0 || k >= len(kc.Offsets) {
		return 0
	}
	return kc.Offsets[k]
}

func (kc *KernClass) rename(old, name string) {
	for _, classes := range [][][]string{kc.First, kc.Second} {
		for _, cl := range classes {
			for i, g := range cl {
				if g == old {
					cl[i] = name
				}
			}
		}
	}
}

// MarkClass is a named glyph set used for mark attachment classes and
// mark filtering sets.
type MarkClass struct {
	Name   string
	Glyphs []string
}
