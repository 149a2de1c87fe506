package fea

// File is a parsed feature file with all includes resolved.
type File struct {
	Name       string
	Statements []Statement
}

// Statement is a node of the syntax tree.
type Statement interface {
	Position() Pos
}

// Position returns the location of a statement in its source.
func (p Pos) Position() Pos {
	return p
}

// GlyphItem is a glyph name, a glyph range or a reference to a class.
type GlyphItem struct {
	Name  string // glyph name, first glyph of a range
	Last  string // last glyph of a range, or empty
	CID   string // \123, unsupported
	Class string // class reference without '@'
}

// GlyphSet is a single glyph, a class reference or a bracketed list.
type GlyphSet struct {
	Pos
	Items     []GlyphItem
	Bracketed bool
}

// IsSingle reports whether the set is a plain glyph name.
func (gs GlyphSet) IsSingle() bool {
	return !gs.Bracketed && len(gs.Items) == 1 && gs.Items[0].Class == "" && gs.Items[0].Last == ""
}

// Anchor is an anchor literal. Name refers to an anchorDef.
type Anchor struct {
	Pos
	Null         bool
	Name         string
	X, Y         int
	ContourPoint int
	HasContour   bool
}

// ValueRecord is a value record literal. A single number sets the
// advance only.
type ValueRecord struct {
	Pos
	XPlacement, YPlacement int
	XAdvance, YAdvance     int
	Null                   bool
}

// LanguageSystem is a 'languagesystem' statement.
type LanguageSystem struct {
	Pos
	Script, Language string
}

// ClassDefinition is a named glyph class definition.
type ClassDefinition struct {
	Pos
	Name   string
	Glyphs GlyphSet
}

// MarkClassDefinition adds glyphs to a mark class.
type MarkClassDefinition struct {
	Pos
	Glyphs GlyphSet
	Anchor Anchor
	Class  string
}

// AnchorDefinition is an 'anchorDef' statement.
type AnchorDefinition struct {
	Pos
	Name         string
	X, Y         int
	ContourPoint int
	HasContour   bool
}

// LookupBlock is a named lookup definition.
type LookupBlock struct {
	Pos
	Name         string
	UseExtension bool
	Statements   []Statement
}

// FeatureBlock is a feature definition.
type FeatureBlock struct {
	Pos
	Tag        string
	Statements []Statement
}

// GDEFBlock holds the glyph classes of 'table GDEF'. Nil entries were left
// empty.
type GDEFBlock struct {
	Pos
	Base, Ligature, Mark, Component *GlyphSet
}

// ScriptStatement switches the script inside a feature block.
type ScriptStatement struct {
	Pos
	Script string
}

// LanguageStatement switches the language inside a feature block.
type LanguageStatement struct {
	Pos
	Language       string
	IncludeDefault bool
	Required       bool
}

// Lookup flag bits.
const (
	FlagRightToLeft         = 0x0001
	FlagIgnoreBaseGlyphs    = 0x0002
	FlagIgnoreLigatures     = 0x0004
	FlagIgnoreMarks         = 0x0008
	FlagUseMarkFilteringSet = 0x0010
)

// LookupFlagStatement sets the flags for subsequent rules.
type LookupFlagStatement struct {
	Pos
	Flags          uint16
	MarkAttachment *GlyphSet
	MarkFiltering  *GlyphSet
}

// LookupReference adds a named lookup to the enclosing feature.
type LookupReference struct {
	Pos
	Name string
}

// SubtableStatement breaks the current lookup into a new subtable.
type SubtableStatement struct {
	Pos
}

// Context is a glyph sequence, split into backtrack, input and lookahead
// if any of its glyphs were marked with a quote. Lookups holds the lookups
// referenced at each input position.
type Context struct {
	Prefix, Input, Suffix []GlyphSet
	Lookups               [][]string
	Marked                bool
}

// SubstStatement is a substitution rule. Ignore rules may have several
// contexts, all other rules have one.
type SubstStatement struct {
	Pos
	Ignore      bool
	Contexts    []Context
	Replacement []GlyphSet // after 'by'; empty for 'by NULL'
	HasBy       bool
	Alternates  *GlyphSet // after 'from'
}

// PosStatement is a single, pair or contextual positioning rule. Values
// runs parallel to the input of the first context.
type PosStatement struct {
	Pos
	Ignore    bool
	Enumerate bool
	Contexts  []Context
	Values    []*ValueRecord
}

// MarkAttachment is an anchor followed by the mark class attaching to it.
type MarkAttachment struct {
	Anchor Anchor
	Class  string
}

// CursivePos is a 'pos cursive' rule.
type CursivePos struct {
	Pos
	Glyphs      GlyphSet
	Entry, Exit Anchor
}

// MarkPos is a 'pos base' or 'pos mark' rule.
type MarkPos struct {
	Pos
	ToMark bool
	Glyphs GlyphSet
	Marks  []MarkAttachment
}

// LigaturePos is a 'pos ligature' rule with attachments per component.
type LigaturePos struct {
	Pos
	Glyphs     GlyphSet
	Components [][]MarkAttachment
}
