package fea

import (
	"sort"

	"github.com/npillmayer/fontmerge/ot"
)

// GSUB and GPOS lookup types.
const (
	gsubSingle    = 1
	gsubMultiple  = 2
	gsubAlternate = 3
	gsubLigature  = 4
	gsubChain     = 6
	gsubExtension = 7

	gposSingle    = 1
	gposPair      = 2
	gposCursive   = 3
	gposMarkBase  = 4
	gposMarkLig   = 5
	gposMarkMark  = 6
	gposChain     = 8
	gposExtension = 9
)

type lookup struct {
	name      string // empty for anonymous lookups
	table     ot.Tag
	typ       uint16
	flags     uint16
	markSet   int // mark filtering set, if flags say so
	pos       Pos
	index     int // position in the lookup list of its table
	extension bool
	subtables []subtable
	broken    bool               // a 'subtable' statement was seen
	inline    map[uint16]*lookup // lookups created for inline rules of a chain
}

// subtable collects the rules of a lookup subtable. encode may split the
// rules into several OpenType subtables.
type subtable interface {
	encode() ([][]byte, error)
}

func newSubtable(table ot.Tag, typ uint16) subtable {
	if table == ot.TagGSUB {
		switch typ {
		case gsubSingle:
			return &singleSubst{m: make(map[uint16]uint16)}
		case gsubMultiple, gsubAlternate:
			return &sequenceSubst{m: make(map[uint16][]uint16)}
		case gsubLigature:
			return &ligatureSubst{seen: make(map[string]uint16)}
		case gsubChain:
			return &chainContext{}
		}
	} else {
		switch typ {
		case gposSingle:
			return &singlePos{m: make(map[uint16]valueRecord)}
		case gposPair:
			return &pairPos{glyphPairs: make(map[[2]uint16][2]valueRecord)}
		case gposCursive:
			return &cursivePos{m: make(map[uint16][2]*anchor)}
		case gposMarkBase, gposMarkMark:
			return newMarkAttach(false)
		case gposMarkLig:
			return newMarkAttach(true)
		case gposChain:
			return &chainContext{}
		}
	}
	panic("fea: no subtable for lookup type")
}

// current returns the subtable receiving new rules.
func (l *lookup) current() subtable {
	if len(l.subtables) == 0 || l.broken {
		l.subtables = append(l.subtables, newSubtable(l.table, l.typ))
		l.broken = false
	}
	return l.subtables[len(l.subtables)-1]
}

func (l *lookup) encode() ([][]byte, error) {
	var out [][]byte
	for _, st := range l.subtables {
		data, err := st.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

func (l *lookup) String() string {
	if l.name != "" {
		return l.name
	}
	return "anonymous lookup at " + l.pos.String()
}

func sortedKeys[V any](m map[uint16]V) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// --- GSUB ------------------------------------------------------------------

type singleSubst struct {
	m map[uint16]uint16
}

// add stores all mappings, or none if one of them conflicts with an
// existing mapping.
func (s *singleSubst) add(from, to []uint16) bool {
	for i, g := range from {
		if t, ok := s.m[g]; ok && t != to[i] {
			return false
		}
	}
	for i, g := range from {
		s.m[g] = to[i]
	}
	return true
}

func (s *singleSubst) encode() ([][]byte, error) {
	if len(s.m) == 0 {
		return nil, nil
	}
	gids := sortedKeys(s.m)
	var w otWriter
	delta := s.m[gids[0]] - gids[0]
	uniform := true
	for _, g := range gids {
		if s.m[g]-g != delta {
			uniform = false
			break
		}
	}
	if uniform {
		w.u16(1)
		w.offset(coverage(gids))
		w.u16(delta)
	} else {
		w.u16(2)
		w.offset(coverage(gids))
		w.u16(uint16(len(gids)))
		for _, g := range gids {
			w.u16(s.m[g])
		}
	}
	data, err := w.bytes()
	return [][]byte{data}, err
}

// sequenceSubst holds multiple or alternate substitutions, which share
// their binary layout.
type sequenceSubst struct {
	m map[uint16][]uint16
}

func equalGlyphs(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *sequenceSubst) add(from []uint16, seq []uint16) bool {
	for _, g := range from {
		if old, ok := s.m[g]; ok && !equalGlyphs(old, seq) {
			return false
		}
	}
	for _, g := range from {
		s.m[g] = seq
	}
	return true
}

func (s *sequenceSubst) encode() ([][]byte, error) {
	if len(s.m) == 0 {
		return nil, nil
	}
	gids := sortedKeys(s.m)
	var w otWriter
	w.u16(1)
	w.offset(coverage(gids))
	w.u16(uint16(len(gids)))
	for _, g := range gids {
		var seq otWriter
		seq.u16(uint16(len(s.m[g])))
		seq.gids(s.m[g])
		w.offset(seq.buf)
	}
	data, err := w.bytes()
	return [][]byte{data}, err
}

type ligature struct {
	components []uint16
	glyph      uint16
}

type ligatureSubst struct {
	ligatures []ligature
	seen      map[string]uint16
}

func ligatureKey(components []uint16) string {
	b := make([]byte, 0, 2*len(components))
	for _, c := range components {
		b = append(b, byte(c>>8), byte(c))
	}
	return string(b)
}

func (s *ligatureSubst) add(ligs []ligature) bool {
	for _, l := range ligs {
		if g, ok := s.seen[ligatureKey(l.components)]; ok && g != l.glyph {
			return false
		}
	}
	for _, l := range ligs {
		key := ligatureKey(l.components)
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = l.glyph
		s.ligatures = append(s.ligatures, l)
	}
	return true
}

func (s *ligatureSubst) encode() ([][]byte, error) {
	if len(s.ligatures) == 0 {
		return nil, nil
	}
	sets := make(map[uint16][]ligature)
	for _, l := range s.ligatures {
		sets[l.components[0]] = append(sets[l.components[0]], l)
	}
	firsts := sortedKeys(sets)
	var w otWriter
	w.u16(1)
	w.offset(coverage(firsts))
	w.u16(uint16(len(firsts)))
	for _, f := range firsts {
		ligs := sets[f]
		// longer ligatures have to be tried first
		sort.SliceStable(ligs, func(i, j int) bool {
			return len(ligs[i].components) > len(ligs[j].components)
		})
		var set otWriter
		set.u16(uint16(len(ligs)))
		for _, l := range ligs {
			var lig otWriter
			lig.u16(l.glyph)
			lig.u16(uint16(len(l.components)))
			lig.gids(l.components[1:])
			set.offset(lig.buf)
		}
		data, err := set.bytes()
		if err != nil {
			return nil, err
		}
		w.offset(data)
	}
	data, err := w.bytes()
	return [][]byte{data}, err
}

// --- Chaining contexts -----------------------------------------------------

type seqLookup struct {
	index  int
	lookup *lookup
}

type chainRule struct {
	backtrack, input, lookahead [][]uint16 // sorted glyph sets
	lookups                     []seqLookup
}

// chainContext encodes every rule as a subtable of format 3, keeping the
// order of rules.
type chainContext struct {
	rules []*chainRule
}

func (c *chainContext) encode() ([][]byte, error) {
	var out [][]byte
	for _, r := range c.rules {
		var w otWriter
		w.u16(3)
		w.u16(uint16(len(r.backtrack)))
		for i := len(r.backtrack) - 1; i >= 0; i-- {
			w.offset(coverage(r.backtrack[i]))
		}
		w.u16(uint16(len(r.input)))
		for _, set := range r.input {
			w.offset(coverage(set))
		}
		w.u16(uint16(len(r.lookahead)))
		for _, set := range r.lookahead {
			w.offset(coverage(set))
		}
		w.u16(uint16(len(r.lookups)))
		for _, sl := range r.lookups {
			w.u16(uint16(sl.index))
			w.u16(uint16(sl.lookup.index))
		}
		data, err := w.bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

// --- GPOS ------------------------------------------------------------------

type singlePos struct {
	m map[uint16]valueRecord
}

func (s *singlePos) add(gids []uint16, v valueRecord) bool {
	for _, g := range gids {
		if old, ok := s.m[g]; ok && old != v {
			return false
		}
	}
	for _, g := range gids {
		s.m[g] = v
	}
	return true
}

func (s *singlePos) encode() ([][]byte, error) {
	if len(s.m) == 0 {
		return nil, nil
	}
	gids := sortedKeys(s.m)
	var format uint16
	same := true
	for _, g := range gids {
		format |= s.m[g].format()
		same = same && s.m[g] == s.m[gids[0]]
	}
	if format == 0 {
		format = valueXAdvance
	}
	var w otWriter
	if same {
		w.u16(1)
		w.offset(coverage(gids))
		w.u16(format)
		w.value(s.m[gids[0]], format)
	} else {
		w.u16(2)
		w.offset(coverage(gids))
		w.u16(format)
		w.u16(uint16(len(gids)))
		for _, g := range gids {
			w.value(s.m[g], format)
		}
	}
	data, err := w.bytes()
	return [][]byte{data}, err
}

// pairPos holds kerning of glyph pairs, encoded as one subtable of format
// 1, and kerning of class pairs, encoded as subtables of format 2.
type pairPos struct {
	glyphPairs map[[2]uint16][2]valueRecord
	classes    []*classPairs
}

type classPairs struct {
	first, second     [][]uint16
	firstOf, secondOf map[uint16]int
	values            map[[2]int][2]valueRecord
}

// addGlyphPair keeps the first value for a pair.
func (p *pairPos) addGlyphPair(a, b uint16, v1, v2 valueRecord) {
	key := [2]uint16{a, b}
	if _, ok := p.glyphPairs[key]; ok {
		tracer().Debugf("kerning pair %d %d already defined", a, b)
		return
	}
	p.glyphPairs[key] = [2]valueRecord{v1, v2}
}

// classFor finds the class of a sorted glyph set, or -1 if none of its
// glyphs has a class yet. ok is false if the set overlaps an existing class
// without being equal to it.
func classFor(set []uint16, of map[uint16]int, classes [][]uint16) (int, bool) {
	c, ok := of[set[0]]
	if !ok {
		for _, g := range set {
			if _, taken := of[g]; taken {
				return 0, false
			}
		}
		return -1, true
	}
	return c, equalGlyphs(classes[c], set)
}

// addClassPair starts a new subtable if the classes conflict with the
// classes of the current one.
func (p *pairPos) addClassPair(a, b []uint16, v1, v2 valueRecord) {
	var cp *classPairs
	ca, cb := -1, -1
	if n := len(p.classes); n > 0 {
		cp = p.classes[n-1]
		var okA, okB bool
		ca, okA = classFor(a, cp.firstOf, cp.first)
		cb, okB = classFor(b, cp.secondOf, cp.second)
		if !okA || !okB {
			cp = nil
		}
	}
	if cp == nil {
		cp = &classPairs{
			firstOf:  make(map[uint16]int),
			secondOf: make(map[uint16]int),
			values:   make(map[[2]int][2]valueRecord),
		}
		p.classes = append(p.classes, cp)
		ca, cb = -1, -1
	}
	if ca < 0 {
		ca = len(cp.first)
		cp.first = append(cp.first, a)
		for _, g := range a {
			cp.firstOf[g] = ca
		}
	}
	if cb < 0 {
		cb = len(cp.second)
		cp.second = append(cp.second, b)
		for _, g := range b {
			cp.secondOf[g] = cb
		}
	}
	key := [2]int{ca, cb}
	if _, ok := cp.values[key]; ok {
		tracer().Debugf("class kerning pair already defined")
		return
	}
	cp.values[key] = [2]valueRecord{v1, v2}
}

func (p *pairPos) encode() ([][]byte, error) {
	var out [][]byte
	if len(p.glyphPairs) > 0 {
		data, err := p.encodeGlyphPairs()
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	for _, cp := range p.classes {
		data, err := cp.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func (p *pairPos) encodeGlyphPairs() ([]byte, error) {
	seconds := make(map[uint16][]uint16)
	var vf1, vf2 uint16
	for pair, v := range p.glyphPairs {
		seconds[pair[0]] = append(seconds[pair[0]], pair[1])
		vf1 |= v[0].format()
		vf2 |= v[1].format()
	}
	if vf1|vf2 == 0 {
		vf1 = valueXAdvance
	}
	firsts := sortedKeys(seconds)
	var w otWriter
	w.u16(1)
	w.offset(coverage(firsts))
	w.u16(vf1)
	w.u16(vf2)
	w.u16(uint16(len(firsts)))
	for _, f := range firsts {
		s := sortedGlyphs(seconds[f])
		var set otWriter
		set.u16(uint16(len(s)))
		for _, g := range s {
			v := p.glyphPairs[[2]uint16{f, g}]
			set.u16(g)
			set.value(v[0], vf1)
			set.value(v[1], vf2)
		}
		w.offset(set.buf)
	}
	return w.bytes()
}

func (cp *classPairs) encode() ([]byte, error) {
	var vf1, vf2 uint16
	for _, v := range cp.values {
		vf1 |= v[0].format()
		vf2 |= v[1].format()
	}
	if vf1|vf2 == 0 {
		vf1 = valueXAdvance
	}
	def1 := make(map[uint16]uint16)
	var covered []uint16
	for g, c := range cp.firstOf {
		def1[g] = uint16(c + 1)
		covered = append(covered, g)
	}
	def2 := make(map[uint16]uint16)
	for g, c := range cp.secondOf {
		def2[g] = uint16(c + 1)
	}
	var w otWriter
	w.u16(2)
	w.offset(coverage(sortedGlyphs(covered)))
	w.u16(vf1)
	w.u16(vf2)
	w.offset(classDef(def1))
	w.offset(classDef(def2))
	n1, n2 := len(cp.first)+1, len(cp.second)+1
	w.u16(uint16(n1))
	w.u16(uint16(n2))
	for c1 := 0; c1 < n1; c1++ {
		for c2 := 0; c2 < n2; c2++ {
			v := cp.values[[2]int{c1 - 1, c2 - 1}]
			w.value(v[0], vf1)
			w.value(v[1], vf2)
		}
	}
	return w.bytes()
}

type cursivePos struct {
	m map[uint16][2]*anchor
}

func (c *cursivePos) add(g uint16, entry, exit *anchor) {
	if _, ok := c.m[g]; ok {
		tracer().Debugf("cursive attachment for glyph %d already defined", g)
		return
	}
	c.m[g] = [2]*anchor{entry, exit}
}

func (c *cursivePos) encode() ([][]byte, error) {
	if len(c.m) == 0 {
		return nil, nil
	}
	gids := sortedKeys(c.m)
	var w otWriter
	w.u16(1)
	w.offset(coverage(gids))
	w.u16(uint16(len(gids)))
	for _, g := range gids {
		w.offset(c.m[g][0].encode())
		w.offset(c.m[g][1].encode())
	}
	data, err := w.bytes()
	return [][]byte{data}, err
}

type markRecord struct {
	class  int
	anchor *anchor
}

// markAttach holds mark-to-base, mark-to-mark or mark-to-ligature
// attachments. Bases of mark-to-ligature lookups have one anchor map per
// component.
type markAttach struct {
	ligatures  bool
	classes    []string
	classIndex map[string]int
	marks      map[uint16]markRecord
	bases      map[uint16][]map[int]*anchor
}

func newMarkAttach(ligatures bool) *markAttach {
	return &markAttach{
		ligatures:  ligatures,
		classIndex: make(map[string]int),
		marks:      make(map[uint16]markRecord),
		bases:      make(map[uint16][]map[int]*anchor),
	}
}

// addClass makes a mark class known to the subtable and returns its index.
// It returns the conflicting glyph if a mark already belongs to another
// class.
func (m *markAttach) addClass(mc *markClass) (int, uint16, bool) {
	if i, ok := m.classIndex[mc.name]; ok {
		return i, 0, true
	}
	for _, g := range mc.glyphs {
		if _, ok := m.marks[g]; ok {
			return 0, g, false
		}
	}
	i := len(m.classes)
	m.classes = append(m.classes, mc.name)
	m.classIndex[mc.name] = i
	for _, g := range mc.glyphs {
		m.marks[g] = markRecord{class: i, anchor: mc.anchors[g]}
	}
	return i, 0, true
}

// setAnchor attaches class to a base glyph at component comp. The first
// definition wins.
func (m *markAttach) setAnchor(base uint16, comp, class int, a *anchor) {
	comps := m.bases[base]
	for len(comps) <= comp {
		comps = append(comps, make(map[int]*anchor))
	}
	m.bases[base] = comps
	if _, ok := comps[comp][class]; ok {
		tracer().Debugf("glyph %d already has an anchor for mark class %s", base, m.classes[class])
		return
	}
	comps[comp][class] = a
}

// addComponents makes sure a ligature has at least n components.
func (m *markAttach) addComponents(base uint16, n int) {
	comps := m.bases[base]
	for len(comps) < n {
		comps = append(comps, make(map[int]*anchor))
	}
	m.bases[base] = comps
}

func (m *markAttach) encode() ([][]byte, error) {
	if len(m.bases) == 0 {
		return nil, nil
	}
	marks := sortedKeys(m.marks)
	bases := sortedKeys(m.bases)
	var markArray otWriter
	markArray.u16(uint16(len(marks)))
	for _, g := range marks {
		markArray.u16(uint16(m.marks[g].class))
		markArray.offset(m.marks[g].anchor.encode())
	}
	ma, err := markArray.bytes()
	if err != nil {
		return nil, err
	}
	var baseArray otWriter
	baseArray.u16(uint16(len(bases)))
	for _, g := range bases {
		if !m.ligatures {
			for c := range m.classes {
				baseArray.offset(m.bases[g][0][c].encode())
			}
			continue
		}
		var attach otWriter
		attach.u16(uint16(len(m.bases[g])))
		for _, comp := range m.bases[g] {
			for c := range m.classes {
				attach.offset(comp[c].encode())
			}
		}
		data, err := attach.bytes()
		if err != nil {
			return nil, err
		}
		baseArray.offset(data)
	}
	ba, err := baseArray.bytes()
	if err != nil {
		return nil, err
	}
	var w otWriter
	w.u16(1)
	w.offset(coverage(marks))
	w.offset(coverage(bases))
	w.u16(uint16(len(m.classes)))
	w.offset(ma)
	w.offset(ba)
	data, err := w.bytes()
	return [][]byte{data}, err
}
