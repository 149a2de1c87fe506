package fea

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/npillmayer/fontmerge/ot"
)

type langKey struct {
	script, lang string
}

type featureKey struct {
	tag string
	langKey
}

type markClass struct {
	name    string
	glyphs  []uint16
	anchors map[uint16]*anchor
	used    bool
}

// builder walks the syntax tree and collects lookups, features and glyph
// classes.
type builder struct {
	gids          map[string]uint16
	scopes        []map[string][]uint16
	markClasses   map[string]*markClass
	anchors       map[string]*anchor
	langSystems   []langKey
	lookups       []*lookup
	named         map[string]*lookup
	features      map[featureKey][]*lookup
	featureKeys   []featureKey
	required      map[langKey]string
	gdef          map[uint16]uint16 // explicit glyph classes
	inferred      map[uint16]uint16
	attachClasses [][]uint16 // mark attachment classes, class i+1
	filters       [][]uint16 // mark filtering sets

	// state of the block being walked
	feature    string
	script     string
	langs      []langKey
	flags      uint16
	markSet    int
	current    *lookup
	lookupName string // name of the lookup block being walked
	extension  bool
}

// Build resolves a parsed feature file against the glyph names of a font,
// given in glyph ID order, and returns the binaries of tables GDEF, GSUB
// and GPOS. Tables without content are left out.
func Build(file *File, glyphOrder []string) (map[ot.Tag][]byte, error) {
	b := &builder{
		gids:        make(map[string]uint16, len(glyphOrder)),
		scopes:      []map[string][]uint16{make(map[string][]uint16)},
		markClasses: make(map[string]*markClass),
		anchors:     make(map[string]*anchor),
		named:       make(map[string]*lookup),
		features:    make(map[featureKey][]*lookup),
		required:    make(map[langKey]string),
		inferred:    make(map[uint16]uint16),
		markSet:     -1,
	}
	for i, name := range glyphOrder {
		if _, dup := b.gids[name]; !dup {
			b.gids[name] = uint16(i)
		}
	}
	for _, st := range file.Statements {
		if err := b.topStatement(st); err != nil {
			return nil, err
		}
	}
	tables := make(map[ot.Tag][]byte)
	for _, tag := range []ot.Tag{ot.TagGSUB, ot.TagGPOS} {
		data, err := b.buildLayout(tag)
		if err != nil {
			return nil, fmt.Errorf("cannot build table %s: %w", tag, err)
		}
		if data != nil {
			tables[tag] = data
		}
	}
	data, err := b.buildGDEF()
	if err != nil {
		return nil, fmt.Errorf("cannot build table GDEF: %w", err)
	}
	if data != nil {
		tables[ot.TagGDEF] = data
	}
	tracer().Infof("built %d lookups for %d feature entries", len(b.lookups), len(b.featureKeys))
	return tables, nil
}

func (b *builder) topStatement(st Statement) error {
	switch s := st.(type) {
	case *LanguageSystem:
		key := langKey{s.Script, s.Language}
		for _, ls := range b.langSystems {
			if ls == key {
				return nil
			}
		}
		b.langSystems = append(b.langSystems, key)
		return nil
	case *FeatureBlock:
		return b.featureBlock(s)
	case *LookupBlock:
		return b.lookupBlock(s)
	case *GDEFBlock:
		return b.gdefBlock(s)
	case *ClassDefinition, *MarkClassDefinition, *AnchorDefinition:
		return b.definition(st)
	}
	return errorAt(st.Position(), "statement not allowed outside of a block")
}

func (b *builder) definition(st Statement) error {
	switch s := st.(type) {
	case *ClassDefinition:
		gids, err := b.resolve(s.Glyphs)
		if err != nil {
			return err
		}
		b.scopes[len(b.scopes)-1][s.Name] = gids
	case *MarkClassDefinition:
		return b.markClass(s)
	case *AnchorDefinition:
		a, err := makeAnchor(s.Pos, s.X, s.Y, s.ContourPoint, s.HasContour)
		if err != nil {
			return err
		}
		b.anchors[s.Name] = a
	}
	return nil
}

func (b *builder) markClass(s *MarkClassDefinition) error {
	gids, err := b.resolve(s.Glyphs)
	if err != nil {
		return err
	}
	a, err := b.anchor(s.Anchor)
	if err != nil {
		return err
	}
	if a == nil {
		return errorAt(s.Pos, "mark class @%s needs an anchor", s.Class)
	}
	mc, ok := b.markClasses[s.Class]
	if !ok {
		mc = &markClass{name: s.Class, anchors: make(map[uint16]*anchor)}
		b.markClasses[s.Class] = mc
	} else if mc.used {
		return errorAt(s.Pos, "mark class @%s is extended after it has been used", s.Class)
	}
	for _, g := range gids {
		if _, dup := mc.anchors[g]; dup {
			return errorAt(s.Pos, "glyph %d is already in mark class @%s", g, s.Class)
		}
		mc.glyphs = append(mc.glyphs, g)
		mc.anchors[g] = a
	}
	return nil
}

func (b *builder) defaultLangSystems() []langKey {
	if len(b.langSystems) == 0 {
		return []langKey{{"DFLT", "dflt"}}
	}
	return append([]langKey(nil), b.langSystems...)
}

func (b *builder) featureBlock(fb *FeatureBlock) error {
	b.feature, b.script = fb.Tag, ""
	b.langs = b.defaultLangSystems()
	b.flags, b.markSet = 0, -1
	b.current = nil
	b.scopes = append(b.scopes, make(map[string][]uint16))
	defer func() {
		b.feature, b.current = "", nil
		b.flags, b.markSet = 0, -1
		b.scopes = b.scopes[:len(b.scopes)-1]
	}()
	for _, st := range fb.Statements {
		if err := b.blockStatement(st); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) lookupBlock(lb *LookupBlock) error {
	if _, dup := b.named[lb.Name]; dup {
		return errorAt(lb.Pos, "lookup %s is already defined", lb.Name)
	}
	flags, markSet := b.flags, b.markSet
	b.flags, b.markSet = 0, -1
	b.current, b.lookupName, b.extension = nil, lb.Name, lb.UseExtension
	b.scopes = append(b.scopes, make(map[string][]uint16))
	for _, st := range lb.Statements {
		if err := b.blockStatement(st); err != nil {
			return err
		}
	}
	l := b.current
	if l == nil {
		tracer().Infof("lookup %s has no rules", lb.Name)
	}
	b.named[lb.Name] = l
	b.scopes = b.scopes[:len(b.scopes)-1]
	b.current, b.lookupName, b.extension = nil, "", false
	b.flags, b.markSet = flags, markSet
	if b.feature != "" && l != nil {
		b.register(l)
	}
	return nil
}

func (b *builder) gdefBlock(g *GDEFBlock) error {
	if b.gdef != nil {
		return errorAt(g.Pos, "GlyphClassDef is already defined")
	}
	b.gdef = make(map[uint16]uint16)
	for class, gs := range []*GlyphSet{g.Base, g.Ligature, g.Mark, g.Component} {
		if gs == nil {
			continue
		}
		gids, err := b.resolve(*gs)
		if err != nil {
			return err
		}
		for _, gid := range gids {
			b.gdef[gid] = uint16(class + 1)
		}
	}
	return nil
}

// register adds a lookup to the current feature for all current language
// systems.
func (b *builder) register(l *lookup) {
	for _, lk := range b.langs {
		b.registerFor(l, featureKey{b.feature, lk})
	}
}

func (b *builder) registerFor(l *lookup, key featureKey) {
	ls, ok := b.features[key]
	if !ok {
		b.featureKeys = append(b.featureKeys, key)
	}
	for _, x := range ls {
		if x == l {
			return
		}
	}
	b.features[key] = append(ls, l)
}

func (b *builder) blockStatement(st Statement) error {
	switch s := st.(type) {
	case *ScriptStatement:
		b.current = nil
		b.script = s.Script
		b.langs = []langKey{{s.Script, "dflt"}}
		b.flags, b.markSet = 0, -1
	case *LanguageStatement:
		b.current = nil
		script := b.script
		if script == "" {
			script = "DFLT"
		}
		lk := langKey{script, s.Language}
		if s.Language != "dflt" && s.IncludeDefault {
			for _, l := range b.features[featureKey{b.feature, langKey{script, "dflt"}}] {
				b.registerFor(l, featureKey{b.feature, lk})
			}
		}
		b.langs = []langKey{lk}
		if s.Required {
			b.required[lk] = b.feature
		}
	case *LookupFlagStatement:
		return b.lookupFlag(s)
	case *LookupReference:
		l, ok := b.named[s.Name]
		if !ok {
			return errorAt(s.Pos, "unknown lookup %s", s.Name)
		}
		b.current = nil
		if l != nil {
			b.register(l)
		}
	case *LookupBlock:
		return b.lookupBlock(s)
	case *SubtableStatement:
		if b.current != nil {
			b.current.broken = true
		}
	case *ClassDefinition, *MarkClassDefinition, *AnchorDefinition:
		return b.definition(st)
	case *SubstStatement:
		return b.substitution(s)
	case *PosStatement:
		return b.positioning(s)
	case *CursivePos:
		return b.cursive(s)
	case *MarkPos:
		return b.markAttachment(s)
	case *LigaturePos:
		return b.ligatureAttachment(s)
	default:
		return errorAt(st.Position(), "statement not allowed in a block")
	}
	return nil
}

func (b *builder) lookupFlag(s *LookupFlagStatement) error {
	if b.lookupName != "" && b.current != nil {
		return errorAt(s.Pos, "lookupflag has to precede the rules of lookup %s", b.lookupName)
	}
	flags, markSet := s.Flags, -1
	if s.MarkAttachment != nil {
		gids, err := b.resolve(*s.MarkAttachment)
		if err != nil {
			return err
		}
		class, err := b.attachClass(s.Pos, gids)
		if err != nil {
			return err
		}
		flags |= uint16(class) << 8
	}
	if s.MarkFiltering != nil {
		gids, err := b.resolve(*s.MarkFiltering)
		if err != nil {
			return err
		}
		markSet = b.filterSet(gids)
	}
	b.flags, b.markSet = flags, markSet
	if b.lookupName == "" {
		b.current = nil
	}
	return nil
}

// attachClass returns the mark attachment class for a glyph set, creating
// a new one if needed.
func (b *builder) attachClass(pos Pos, gids []uint16) (int, error) {
	set := sortedGlyphs(gids)
	for i, c := range b.attachClasses {
		if equalGlyphs(c, set) {
			return i + 1, nil
		}
	}
	for _, g := range set {
		for _, c := range b.attachClasses {
			for _, h := range c {
				if g == h {
					return 0, errorAt(pos, "glyph %d is already in another mark attachment class", g)
				}
			}
		}
	}
	if len(b.attachClasses) == 255 {
		return 0, errorAt(pos, "too many mark attachment classes")
	}
	b.attachClasses = append(b.attachClasses, set)
	return len(b.attachClasses), nil
}

func (b *builder) filterSet(gids []uint16) int {
	set := sortedGlyphs(gids)
	for i, c := range b.filters {
		if equalGlyphs(c, set) {
			return i
		}
	}
	b.filters = append(b.filters, set)
	return len(b.filters) - 1
}

func (b *builder) newLookup(table ot.Tag, typ, flags uint16, markSet int, name string, pos Pos) *lookup {
	l := &lookup{
		name:    name,
		table:   table,
		typ:     typ,
		flags:   flags,
		markSet: markSet,
		pos:     pos,
		inline:  make(map[uint16]*lookup),
	}
	b.lookups = append(b.lookups, l)
	return l
}

// lookupFor returns the lookup receiving a rule of a given type. Inside a
// feature block consecutive rules of the same type share an anonymous
// lookup.
func (b *builder) lookupFor(pos Pos, table ot.Tag, typ uint16) (*lookup, error) {
	switch {
	case b.lookupName != "":
		if b.current == nil {
			b.current = b.newLookup(table, typ, b.flags, b.markSet, b.lookupName, pos)
			b.current.extension = b.extension
			return b.current, nil
		}
		if b.current.table != table || b.current.typ != typ {
			return nil, errorAt(pos, "lookup %s mixes rules of different types", b.lookupName)
		}
		return b.current, nil
	case b.feature != "":
		if c := b.current; c != nil && c.table == table && c.typ == typ {
			return c, nil
		}
		b.current = b.newLookup(table, typ, b.flags, b.markSet, "", pos)
		b.register(b.current)
		return b.current, nil
	}
	return nil, errorAt(pos, "rules are only allowed in feature or lookup blocks")
}

// inlineLookup returns a lookup for a rule given inline in a chaining
// rule. add stores the rule in a subtable and reports false on conflicts,
// in which case a fresh lookup is started.
func (b *builder) inlineLookup(chain *lookup, typ uint16, add func(subtable) bool) *lookup {
	if l := chain.inline[typ]; l != nil && add(l.current()) {
		return l
	}
	l := b.newLookup(chain.table, typ, chain.flags, chain.markSet, "", chain.pos)
	chain.inline[typ] = l
	add(l.current())
	return l
}

// --- Glyph resolution ------------------------------------------------------

func (b *builder) class(name string) ([]uint16, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if gids, ok := b.scopes[i][name]; ok {
			return gids, true
		}
	}
	if mc, ok := b.markClasses[name]; ok {
		return mc.glyphs, true
	}
	return nil, false
}

func (b *builder) glyph(pos Pos, name string) (uint16, error) {
	if g, ok := b.gids[name]; ok {
		return g, nil
	}
	return 0, errorAt(pos, "unknown glyph %q", name)
}

// resolve returns the glyph IDs of a glyph set, in order of appearance and
// without duplicates.
func (b *builder) resolve(gs GlyphSet) ([]uint16, error) {
	var gids []uint16
	seen := make(map[uint16]bool)
	add := func(g uint16) {
		if !seen[g] {
			seen[g] = true
			gids = append(gids, g)
		}
	}
	for _, it := range gs.Items {
		switch {
		case it.CID != "":
			return nil, unsupportedAt(gs.Pos, "CID glyph names")
		case it.Class != "":
			cls, ok := b.class(it.Class)
			if !ok {
				return nil, errorAt(gs.Pos, "unknown glyph class @%s", it.Class)
			}
			for _, g := range cls {
				add(g)
			}
		case it.Last != "":
			names, err := expandRange(it.Name, it.Last)
			if err != nil {
				return nil, errorAt(gs.Pos, "%v", err)
			}
			for _, n := range names {
				g, err := b.glyph(gs.Pos, n)
				if err != nil {
					return nil, err
				}
				add(g)
			}
		default:
			if g, ok := b.gids[it.Name]; ok {
				add(g)
				continue
			}
			names, ok := b.hyphenRange(it.Name)
			if !ok {
				return nil, errorAt(gs.Pos, "unknown glyph %q", it.Name)
			}
			for _, n := range names {
				g, err := b.glyph(gs.Pos, n)
				if err != nil {
					return nil, err
				}
				add(g)
			}
		}
	}
	return gids, nil
}

// resolveSorted returns the glyph IDs of a set in ascending order.
func (b *builder) resolveSorted(gs GlyphSet) ([]uint16, error) {
	gids, err := b.resolve(gs)
	if err != nil {
		return nil, err
	}
	if len(gids) == 0 {
		return nil, errorAt(gs.Pos, "empty glyph class")
	}
	return sortedGlyphs(gids), nil
}

func (b *builder) resolveOne(gs GlyphSet) (uint16, error) {
	gids, err := b.resolve(gs)
	if err != nil {
		return 0, err
	}
	if len(gids) != 1 {
		return 0, errorAt(gs.Pos, "expected a single glyph, found %d", len(gids))
	}
	return gids[0], nil
}

// hyphenRange interprets an unknown glyph name like "a-z" as a range of
// known glyphs.
func (b *builder) hyphenRange(name string) ([]string, bool) {
	for i := 1; i < len(name)-1; i++ {
		if name[i] != '-' {
			continue
		}
		first, last := name[:i], name[i+1:]
		if _, ok := b.gids[first]; !ok {
			continue
		}
		if _, ok := b.gids[last]; !ok {
			continue
		}
		if names, err := expandRange(first, last); err == nil {
			return names, true
		}
	}
	return nil, false
}

// expandRange lists the glyph names from first to last. The names may
// differ in a single letter, as in "a.sc-d.sc", or in a run of digits of
// equal length, as in "uni0030.x-uni0039.x" or "f08-f12".
func expandRange(first, last string) ([]string, error) {
	if len(first) != len(last) {
		return nil, fmt.Errorf("invalid glyph range %s-%s", first, last)
	}
	i := 0
	for i < len(first) && first[i] == last[i] {
		i++
	}
	if i == len(first) {
		return []string{first}, nil
	}
	j := len(first)
	for j > i && first[j-1] == last[j-1] {
		j--
	}
	prefix, suffix := first[:i], first[j:]
	a, z := first[i:j], last[i:j]
	var names []string
	switch {
	case len(a) == 1 && sameLetterCase(a[0], z[0]) && a[0] < z[0]:
		for c := a[0]; c <= z[0]; c++ {
			names = append(names, prefix+string(c)+suffix)
		}
	case allDigits(a) && allDigits(z):
		// widen to the whole run of digits
		for i > 0 && isDigit(first[i-1]) {
			i--
		}
		for j < len(first) && isDigit(first[j]) {
			j++
		}
		prefix, suffix = first[:i], first[j:]
		from, _ := strconv.Atoi(first[i:j])
		to, _ := strconv.Atoi(last[i:j])
		if from > to {
			return nil, fmt.Errorf("invalid glyph range %s-%s", first, last)
		}
		for n := from; n <= to; n++ {
			names = append(names, fmt.Sprintf("%s%0*d%s", prefix, j-i, n, suffix))
		}
	default:
		return nil, fmt.Errorf("invalid glyph range %s-%s", first, last)
	}
	return names, nil
}

func sameLetterCase(a, z byte) bool {
	return a >= 'a' && z <= 'z' || a >= 'A' && z <= 'Z'
}

func allDigits(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}

// --- Values and anchors ----------------------------------------------------

func toInt16(pos Pos, v int) (int16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, errorAt(pos, "value %d out of range", v)
	}
	return int16(v), nil
}

func makeAnchor(pos Pos, x, y, point int, hasContour bool) (*anchor, error) {
	ax, err := toInt16(pos, x)
	if err != nil {
		return nil, err
	}
	ay, err := toInt16(pos, y)
	if err != nil {
		return nil, err
	}
	if point < 0 || point > math.MaxUint16 {
		return nil, errorAt(pos, "contour point %d out of range", point)
	}
	return &anchor{x: ax, y: ay, point: uint16(point), hasContour: hasContour}, nil
}

// anchor converts an anchor literal; NULL anchors are returned as nil.
func (b *builder) anchor(a Anchor) (*anchor, error) {
	switch {
	case a.Null:
		return nil, nil
	case a.Name != "":
		def, ok := b.anchors[a.Name]
		if !ok {
			return nil, errorAt(a.Pos, "unknown anchor %s", a.Name)
		}
		return def, nil
	}
	return makeAnchor(a.Pos, a.X, a.Y, a.ContourPoint, a.HasContour)
}

func (b *builder) valueRecord(v *ValueRecord) (valueRecord, error) {
	var vr valueRecord
	if v == nil || v.Null {
		return vr, nil
	}
	var err error
	for _, f := range []struct {
		dst *int16
		src int
	}{
		{&vr.xPlacement, v.XPlacement}, {&vr.yPlacement, v.YPlacement},
		{&vr.xAdvance, v.XAdvance}, {&vr.yAdvance, v.YAdvance},
	} {
		if *f.dst, err = toInt16(v.Pos, f.src); err != nil {
			return vr, err
		}
	}
	return vr, nil
}

// infer records a glyph class unless the glyph has one already.
func (b *builder) infer(gids []uint16, class uint16) {
	for _, g := range gids {
		if _, ok := b.inferred[g]; !ok {
			b.inferred[g] = class
		}
	}
}
