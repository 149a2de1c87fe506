package fea

import (
	"github.com/npillmayer/fontmerge/ot"
)

// Glyph classes of table GDEF.
const (
	classBase      = 1
	classLigature  = 2
	classMark      = 3
	classComponent = 4
)

func (b *builder) substitution(s *SubstStatement) error {
	if s.Ignore {
		l, err := b.lookupFor(s.Pos, ot.TagGSUB, gsubChain)
		if err != nil {
			return err
		}
		for _, ctx := range s.Contexts {
			rule, err := b.chainRule(ctx, ot.TagGSUB, s.Pos)
			if err != nil {
				return err
			}
			cc := l.current().(*chainContext)
			cc.rules = append(cc.rules, rule)
		}
		return nil
	}
	ctx := s.Contexts[0]
	if ctx.Marked {
		return b.chainSubstitution(s, ctx)
	}
	switch {
	case s.Alternates != nil:
		return b.alternateSubst(s, ctx)
	case !s.HasBy:
		return errorAt(s.Pos, "substitution needs 'by' or 'from'")
	case len(ctx.Input) == 1 && len(s.Replacement) == 1:
		from, to, err := b.singleMapping(s, ctx.Input[0])
		if err != nil {
			return err
		}
		l, err := b.lookupFor(s.Pos, ot.TagGSUB, gsubSingle)
		if err != nil {
			return err
		}
		if !l.current().(*singleSubst).add(from, to) {
			return errorAt(s.Pos, "conflicting single substitution in %s", l)
		}
	case len(ctx.Input) == 1:
		from, seq, err := b.multipleMapping(s, ctx.Input[0])
		if err != nil {
			return err
		}
		l, err := b.lookupFor(s.Pos, ot.TagGSUB, gsubMultiple)
		if err != nil {
			return err
		}
		if !l.current().(*sequenceSubst).add(from, seq) {
			return errorAt(s.Pos, "conflicting multiple substitution in %s", l)
		}
	case len(s.Replacement) == 1:
		ligs, err := b.ligatures(s, ctx.Input)
		if err != nil {
			return err
		}
		l, err := b.lookupFor(s.Pos, ot.TagGSUB, gsubLigature)
		if err != nil {
			return err
		}
		if !l.current().(*ligatureSubst).add(ligs) {
			return errorAt(s.Pos, "conflicting ligature substitution in %s", l)
		}
	default:
		return errorAt(s.Pos, "cannot substitute %d glyphs by %d glyphs", len(ctx.Input), len(s.Replacement))
	}
	return nil
}

// singleMapping pairs input glyphs with replacements. A single replacement
// applies to all input glyphs; otherwise both classes need equal size.
func (b *builder) singleMapping(s *SubstStatement, input GlyphSet) ([]uint16, []uint16, error) {
	from, err := b.resolve(input)
	if err != nil {
		return nil, nil, err
	}
	to, err := b.resolve(s.Replacement[0])
	if err != nil {
		return nil, nil, err
	}
	switch {
	case len(to) == 1:
		out := make([]uint16, len(from))
		for i := range out {
			out[i] = to[0]
		}
		return from, out, nil
	case len(to) == len(from):
		return from, to, nil
	}
	return nil, nil, errorAt(s.Pos, "cannot substitute %d glyphs by %d glyphs", len(from), len(to))
}

func (b *builder) multipleMapping(s *SubstStatement, input GlyphSet) ([]uint16, []uint16, error) {
	from, err := b.resolve(input)
	if err != nil {
		return nil, nil, err
	}
	var seq []uint16
	for _, gs := range s.Replacement {
		g, err := b.resolveOne(gs)
		if err != nil {
			return nil, nil, err
		}
		seq = append(seq, g)
	}
	return from, seq, nil
}

// ligatures expands the input classes of a ligature rule into all glyph
// sequences.
func (b *builder) ligatures(s *SubstStatement, input []GlyphSet) ([]ligature, error) {
	glyph, err := b.resolveOne(s.Replacement[0])
	if err != nil {
		return nil, err
	}
	seqs := [][]uint16{nil}
	for _, gs := range input {
		gids, err := b.resolve(gs)
		if err != nil {
			return nil, err
		}
		var next [][]uint16
		for _, seq := range seqs {
			for _, g := range gids {
				next = append(next, append(append([]uint16(nil), seq...), g))
			}
		}
		seqs = next
	}
	ligs := make([]ligature, len(seqs))
	for i, seq := range seqs {
		ligs[i] = ligature{components: seq, glyph: glyph}
	}
	return ligs, nil
}

func (b *builder) alternateSubst(s *SubstStatement, ctx Context) error {
	if len(ctx.Input) != 1 {
		return errorAt(s.Pos, "alternate substitution needs a single input glyph")
	}
	from, err := b.resolve(ctx.Input[0])
	if err != nil {
		return err
	}
	alts, err := b.resolve(*s.Alternates)
	if err != nil {
		return err
	}
	l, err := b.lookupFor(s.Pos, ot.TagGSUB, gsubAlternate)
	if err != nil {
		return err
	}
	if !l.current().(*sequenceSubst).add(from, alts) {
		return errorAt(s.Pos, "conflicting alternate substitution in %s", l)
	}
	return nil
}

// chainRule resolves the glyph sets of a context and the lookups it
// references.
func (b *builder) chainRule(ctx Context, table ot.Tag, pos Pos) (*chainRule, error) {
	rule := &chainRule{}
	for _, part := range []struct {
		sets []GlyphSet
		dst  *[][]uint16
	}{{ctx.Prefix, &rule.backtrack}, {ctx.Input, &rule.input}, {ctx.Suffix, &rule.lookahead}} {
		for _, gs := range part.sets {
			gids, err := b.resolveSorted(gs)
			if err != nil {
				return nil, err
			}
			*part.dst = append(*part.dst, gids)
		}
	}
	for i, names := range ctx.Lookups {
		for _, name := range names {
			l, ok := b.named[name]
			if !ok {
				return nil, errorAt(pos, "unknown lookup %s", name)
			}
			if l == nil {
				continue
			}
			if l.table != table {
				return nil, errorAt(pos, "lookup %s does not belong to table %s", name, table)
			}
			rule.lookups = append(rule.lookups, seqLookup{index: i, lookup: l})
		}
	}
	return rule, nil
}

func hasLookups(ctx Context) bool {
	for _, names := range ctx.Lookups {
		if len(names) > 0 {
			return true
		}
	}
	return false
}

// chainSubstitution handles rules with marked glyphs. Replacements given
// inline go to a separate lookup which the chaining rule references.
func (b *builder) chainSubstitution(s *SubstStatement, ctx Context) error {
	l, err := b.lookupFor(s.Pos, ot.TagGSUB, gsubChain)
	if err != nil {
		return err
	}
	rule, err := b.chainRule(ctx, ot.TagGSUB, s.Pos)
	if err != nil {
		return err
	}
	if s.HasBy {
		if hasLookups(ctx) {
			return errorAt(s.Pos, "a rule cannot have both lookup references and replacements")
		}
		var inline *lookup
		switch {
		case len(ctx.Input) == 1 && len(s.Replacement) == 1:
			from, to, err := b.singleMapping(s, ctx.Input[0])
			if err != nil {
				return err
			}
			inline = b.inlineLookup(l, gsubSingle, func(st subtable) bool {
				return st.(*singleSubst).add(from, to)
			})
		case len(ctx.Input) == 1:
			from, seq, err := b.multipleMapping(s, ctx.Input[0])
			if err != nil {
				return err
			}
			inline = b.inlineLookup(l, gsubMultiple, func(st subtable) bool {
				return st.(*sequenceSubst).add(from, seq)
			})
		case len(s.Replacement) == 1:
			ligs, err := b.ligatures(s, ctx.Input)
			if err != nil {
				return err
			}
			inline = b.inlineLookup(l, gsubLigature, func(st subtable) bool {
				return st.(*ligatureSubst).add(ligs)
			})
		default:
			return errorAt(s.Pos, "cannot substitute %d glyphs by %d glyphs", len(ctx.Input), len(s.Replacement))
		}
		rule.lookups = []seqLookup{{index: 0, lookup: inline}}
	}
	cc := l.current().(*chainContext)
	cc.rules = append(cc.rules, rule)
	return nil
}

func (b *builder) positioning(s *PosStatement) error {
	if s.Ignore {
		l, err := b.lookupFor(s.Pos, ot.TagGPOS, gposChain)
		if err != nil {
			return err
		}
		for _, ctx := range s.Contexts {
			rule, err := b.chainRule(ctx, ot.TagGPOS, s.Pos)
			if err != nil {
				return err
			}
			cc := l.current().(*chainContext)
			cc.rules = append(cc.rules, rule)
		}
		return nil
	}
	ctx := s.Contexts[0]
	if ctx.Marked {
		return b.chainPositioning(s, ctx)
	}
	switch len(ctx.Input) {
	case 1:
		gids, err := b.resolve(ctx.Input[0])
		if err != nil {
			return err
		}
		v, err := b.valueRecord(s.Values[0])
		if err != nil {
			return err
		}
		l, err := b.lookupFor(s.Pos, ot.TagGPOS, gposSingle)
		if err != nil {
			return err
		}
		if !l.current().(*singlePos).add(gids, v) {
			return errorAt(s.Pos, "conflicting single positioning in %s", l)
		}
		return nil
	case 2:
		return b.pairPositioning(s, ctx)
	}
	return errorAt(s.Pos, "positioning of %d glyphs needs marked glyphs", len(ctx.Input))
}

func (b *builder) pairPositioning(s *PosStatement, ctx Context) error {
	v1, err := b.valueRecord(s.Values[0])
	if err != nil {
		return err
	}
	v2, err := b.valueRecord(s.Values[1])
	if err != nil {
		return err
	}
	firsts, err := b.resolveSorted(ctx.Input[0])
	if err != nil {
		return err
	}
	seconds, err := b.resolveSorted(ctx.Input[1])
	if err != nil {
		return err
	}
	l, err := b.lookupFor(s.Pos, ot.TagGPOS, gposPair)
	if err != nil {
		return err
	}
	pp := l.current().(*pairPos)
	if s.Enumerate || ctx.Input[0].IsSingle() && ctx.Input[1].IsSingle() {
		for _, f := range firsts {
			for _, g := range seconds {
				pp.addGlyphPair(f, g, v1, v2)
			}
		}
		return nil
	}
	pp.addClassPair(firsts, seconds, v1, v2)
	return nil
}

// chainPositioning handles rules with marked glyphs. Value records given
// inline go to separate single positioning lookups.
func (b *builder) chainPositioning(s *PosStatement, ctx Context) error {
	l, err := b.lookupFor(s.Pos, ot.TagGPOS, gposChain)
	if err != nil {
		return err
	}
	rule, err := b.chainRule(ctx, ot.TagGPOS, s.Pos)
	if err != nil {
		return err
	}
	var inline []seqLookup
	for i, v := range s.Values {
		if v == nil {
			continue
		}
		if len(ctx.Lookups[i]) > 0 {
			return errorAt(s.Pos, "a glyph cannot have both lookup references and a value record")
		}
		vr, err := b.valueRecord(v)
		if err != nil {
			return err
		}
		gids := rule.input[i]
		sp := b.inlineLookup(l, gposSingle, func(st subtable) bool {
			return st.(*singlePos).add(gids, vr)
		})
		inline = append(inline, seqLookup{index: i, lookup: sp})
	}
	rule.lookups = append(rule.lookups, inline...)
	cc := l.current().(*chainContext)
	cc.rules = append(cc.rules, rule)
	return nil
}

func (b *builder) cursive(s *CursivePos) error {
	gids, err := b.resolve(s.Glyphs)
	if err != nil {
		return err
	}
	entry, err := b.anchor(s.Entry)
	if err != nil {
		return err
	}
	exit, err := b.anchor(s.Exit)
	if err != nil {
		return err
	}
	l, err := b.lookupFor(s.Pos, ot.TagGPOS, gposCursive)
	if err != nil {
		return err
	}
	cp := l.current().(*cursivePos)
	for _, g := range gids {
		cp.add(g, entry, exit)
	}
	return nil
}

// attach adds the mark classes of attachments to a subtable and sets the
// anchors of bases at component comp.
func (b *builder) attach(pos Pos, ma *markAttach, bases []uint16, comp int, marks []MarkAttachment) error {
	for _, m := range marks {
		a, err := b.anchor(m.Anchor)
		if err != nil {
			return err
		}
		if a == nil {
			continue
		}
		mc, ok := b.markClasses[m.Class]
		if !ok {
			return errorAt(pos, "unknown mark class @%s", m.Class)
		}
		mc.used = true
		class, g, ok := ma.addClass(mc)
		if !ok {
			return errorAt(pos, "glyph %d of mark class @%s is in another mark class of the same lookup", g, m.Class)
		}
		for _, base := range bases {
			ma.setAnchor(base, comp, class, a)
		}
	}
	return nil
}

func (b *builder) markAttachment(s *MarkPos) error {
	bases, err := b.resolve(s.Glyphs)
	if err != nil {
		return err
	}
	typ, class := uint16(gposMarkBase), uint16(classBase)
	if s.ToMark {
		typ, class = gposMarkMark, classMark
	}
	l, err := b.lookupFor(s.Pos, ot.TagGPOS, typ)
	if err != nil {
		return err
	}
	if err := b.attach(s.Pos, l.current().(*markAttach), bases, 0, s.Marks); err != nil {
		return err
	}
	b.infer(bases, class)
	return nil
}

func (b *builder) ligatureAttachment(s *LigaturePos) error {
	ligs, err := b.resolve(s.Glyphs)
	if err != nil {
		return err
	}
	l, err := b.lookupFor(s.Pos, ot.TagGPOS, gposMarkLig)
	if err != nil {
		return err
	}
	ma := l.current().(*markAttach)
	for _, g := range ligs {
		ma.addComponents(g, len(s.Components))
	}
	for i, marks := range s.Components {
		if err := b.attach(s.Pos, ma, ligs, i, marks); err != nil {
			return err
		}
	}
	b.infer(ligs, classLigature)
	return nil
}

// glyphClasses returns the explicit glyph classes, or else the inferred
// ones, with members of mark classes as marks.
func (b *builder) glyphClasses() map[uint16]uint16 {
	if b.gdef != nil {
		return b.gdef
	}
	classes := make(map[uint16]uint16, len(b.inferred))
	for g, c := range b.inferred {
		classes[g] = c
	}
	for _, mc := range b.markClasses {
		for _, g := range mc.glyphs {
			classes[g] = classMark
		}
	}
	return classes
}
