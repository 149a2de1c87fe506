package sfd

// GlyphClass is the OpenType glyph class assigned in the source.
type GlyphClass int

// Glyph classes as numbered in SFD files.
const (
	ClassAutomatic GlyphClass = iota
	ClassNoClass
	ClassBase
	ClassLigature
	ClassMark
	ClassComponent
)

func (c GlyphClass) String() string {
	switch c {
	case ClassAutomatic:
		return "automatic"
	case ClassNoClass:
		return "noclass"
	case ClassBase:
		return "baseglyph"
	case ClassLigature:
		return "baseligature"
	case ClassMark:
		return "mark"
	case ClassComponent:
		return "component"
	}
	return "unknown"
}

// NoColor marks a glyph without a colour tag.
const NoColor = -1

// Layer indices every source has.
const (
	LayerBack = 0
	LayerFore = 1
)

// Reference places another glyph, transformed, into a layer.
type Reference struct {
	Name   string
	Matrix Matrix

	gid int // orig position, resolved to Name after parsing
}

// Layer holds outlines and references of one glyph layer.
type Layer struct {
	Contours []Contour
	Refs     []Reference
}

// AnchorPoint is an attachment point of an anchor class.
type AnchorPoint struct {
	Class    string
	X, Y     float64
	Type     string // mark, basechar, baselig, basemark, entry, exit
	LigIndex int
}

// ValueRecord is a positioning adjustment.
type ValueRecord struct {
	DX, DY, DH, DV float64
}

// IsZero reports whether the record changes nothing.
func (v ValueRecord) IsZero() bool {
	return v == ValueRecord{}
}

func (v *ValueRecord) scale(s float64) {
	v.DX *= s
	v.DY *= s
	v.DH *= s
	v.DV *= s
}

// PSTKind tells apart the per-glyph lookup entries.
type PSTKind int

// Per-glyph lookup entries.
const (
	PSTSubstitution PSTKind = iota
	PSTAlternate
	PSTMultiple
	PSTLigature
	PSTPosition
	PSTPair
)

// PST is a per-glyph positioning, substitution or ligature entry.
// For ligatures Glyphs lists the components, for pairs Glyphs[0] is the
// second glyph.
type PST struct {
	Kind     PSTKind
	Subtable string
	Glyphs   []string
	Pos      ValueRecord
	Pos2     ValueRecord
}

// KernPair is a per-glyph kerning entry with this glyph as first glyph.
type KernPair struct {
	Second   string
	Offset   float64
	Subtable string

	gid int
}

// Glyph is a glyph of a Font.
type Glyph struct {
	Name        string
	Unicode     int
	AltUnicodes []int
	Width       float64
	Class       GlyphClass
	Color       int
	Anchors     []AnchorPoint
	PSTs        []PST
	Kerns       []KernPair

	layers map[int]*Layer
	font   *Font
	gid    int
}

func newGlyph(f *Font, name string) *Glyph {
	return &Glyph{
		Name:    name,
		Unicode: -1,
		Color:   NoColor,
		layers:  make(map[int]*Layer),
		font:    f,
		gid:     -1,
	}
}

func (g *Glyph) clone() *Glyph {
	c := *g
	c.AltUnicodes = append([]int(nil), g.AltUnicodes...)
	c.Anchors = append([]AnchorPoint(nil), g.Anchors...)
	c.PSTs = make([]PST, len(g.PSTs))
	for i, p := range g.PSTs {
		p.Glyphs = append([]string(nil), p.Glyphs...)
		c.PSTs[i] = p
	}
	c.Kerns = append([]KernPair(nil), g.Kerns...)
	c.layers = make(map[int]*Layer, len(g.layers))
	for i, l := range g.layers {
		c.layers[i] = &Layer{
			Contours: append([]Contour(nil), l.Contours...),
			Refs:     append([]Reference(nil), l.Refs...),
		}
	}
	c.font = nil
	return &c
}

// Layer returns layer i of the glyph, creating it if necessary.
func (g *Glyph) Layer(i int) *Layer {
	l, ok := g.layers[i]
	if !ok {
		l = &Layer{}
		g.layers[i] = l
	}
	return l
}

// Contours returns the foreground outlines (without references).
func (g *Glyph) Contours() []Contour {
	if l, ok := g.layers[LayerFore]; ok {
		return l.Contours
	}
	return nil
}

// References returns the foreground references.
func (g *Glyph) References() []Reference {
	if l, ok := g.layers[LayerFore]; ok {
		return l.Refs
	}
	return nil
}

// LayerRefs returns the references of the layer with the given name.
// An unknown layer yields no references.
func (g *Glyph) LayerRefs(layer string) []Reference {
	if g.font == nil {
		return nil
	}
	i := g.font.LayerIndex(layer)
	if i < 0 {
		return nil
	}
	if l, ok := g.layers[i]; ok {
		return l.Refs
	}
	return nil
}

// AddReference adds a transformed reference to the foreground.
func (g *Glyph) AddReference(name string, m Matrix) error {
	if g.font != nil && !g.font.Has(name) {
		return noSuchGlyph(name)
	}
	fg := g.Layer(LayerFore)
	fg.Refs = append(fg.Refs, Reference{Name: name, Matrix: m, gid: -1})
	return nil
}

// Transform applies m to the foreground outlines and references.
func (g *Glyph) Transform(m Matrix) {
	fg := g.Layer(LayerFore)
	for i, c := range fg.Contours {
		fg.Contours[i] = c.Transform(m)
	}
	for i, r := range fg.Refs {
		fg.Refs[i].Matrix = r.Matrix.Compose(m)
	}
}

// BoundingBox returns the exact bounding box of the foreground, with
// references resolved.
func (g *Glyph) BoundingBox() Rect {
	return g.bounds(Identity, 0)
}

const maxRefDepth = 32

func (g *Glyph) bounds(m Matrix, depth int) Rect {
	r := emptyRect()
	if depth > maxRefDepth {
		tracer().Errorf("reference nesting too deep in glyph %q", g.Name)
		return r
	}
	for _, c := range g.Contours() {
		r = r.Union(c.Transform(m).Bounds())
	}
	for _, ref := range g.References() {
		target := g.lookup(ref.Name)
		if target == nil {
			continue
		}
		r = r.Union(target.bounds(ref.Matrix.Compose(m), depth+1))
	}
	return r
}

func (g *Glyph) lookup(name string) *Glyph {
	if g.font == nil {
		return nil
	}
	return g.font.byName[name]
}

// Outline returns the foreground contours with all references flattened.
// Contours of mirrored references are reversed to keep their direction.
func (g *Glyph) Outline() []Contour {
	var out []Contour
	g.flatten(Identity, 0, &out)
	return out
}

func (g *Glyph) flatten(m Matrix, depth int, out *[]Contour) {
	if depth > maxRefDepth {
		return
	}
	for _, c := range g.Contours() {
		t := c.Transform(m)
		if m.Mirrors() {
			t = t.Reverse()
		}
		*out = append(*out, t)
	}
	for _, ref := range g.References() {
		if target := g.lookup(ref.Name); target != nil {
			target.flatten(ref.Matrix.Compose(m), depth+1, out)
		}
	}
}

// LeftSideBearing is the distance from the origin to the left edge of the
// bounding box. Empty glyphs have a left side bearing of 0.
func (g *Glyph) LeftSideBearing() float64 {
	bb := g.BoundingBox()
	if bb.Empty {
		return 0
	}
	return bb.XMin
}

// RightSideBearing is the distance from the right edge of the bounding box
// to the advance width.
func (g *Glyph) RightSideBearing() float64 {
	bb := g.BoundingBox()
	if bb.Empty {
		return g.Width
	}
	return g.Width - bb.XMax
}

// SetLeftSideBearing moves the outline horizontally so that the left side
// bearing becomes lsb. The advance width grows by the same amount, keeping
// the right side bearing.
func (g *Glyph) SetLeftSideBearing(lsb float64) {
	bb := g.BoundingBox()
	if bb.Empty {
		return
	}
	dx := lsb - bb.XMin
	g.Transform(Translate(dx, 0))
	g.Width += dx
}

// SetRightSideBearing changes the advance width so that the right side
// bearing becomes rsb.
func (g *Glyph) SetRightSideBearing(rsb float64) {
	bb := g.BoundingBox()
	if bb.Empty {
		g.Width = rsb
		return
	}
	g.Width = bb.XMax + rsb
}

func (g *Glyph) scale(s float64) {
	m := Scale(s, s)
	for _, l := range g.layers {
		for i, c := range l.Contours {
			l.Contours[i] = c.Transform(m)
		}
		for i := range l.Refs {
			l.Refs[i].Matrix[4] *= s
			l.Refs[i].Matrix[5] *= s
		}
	}
	g.Width *= s
	for i := range g.Anchors {
		g.Anchors[i].X *= s
		g.Anchors[i].Y *= s
	}
	for i := range g.PSTs {
		g.PSTs[i].Pos.scale(s)
		g.PSTs[i].Pos2.scale(s)
	}
	for i := range g.Kerns {
		g.Kerns[i].Offset *= s
	}
}

func (g *Glyph) renameTarget(old, name string) {
	for _, l := range g.layers {
		for i := range l.Refs {
			if l.Refs[i].Name == old {
				l.Refs[i].Name = name
			}
		}
	}
	for i := range g.Kerns {
		if g.Kerns[i].Second == old {
			g.Kerns[i].Second = name
		}
	}
	for i := range g.PSTs {
		for j, n := range g.PSTs[i].Glyphs {
			if n == old {
				g.PSTs[i].Glyphs[j] = name
			}
		}
	}
}
