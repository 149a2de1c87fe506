package fea

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// maxIncludeDepth bounds nested include statements.
const maxIncludeDepth = 50

type blockKind int

const (
	topLevel blockKind = iota
	inFeature
	inLookup
)

type parser struct {
	toks     []token
	i        int
	includes int
}

// Parse reads feature file text. filename is used for error messages and
// to resolve include statements relative to it.
func Parse(text, filename string) (*File, error) {
	toks, err := lex(text, filename)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	f := &File{Name: filename}
	for {
		if err := p.include(); err != nil {
			return nil, err
		}
		if p.peek().kind == tokEOF {
			break
		}
		st, err := p.statement(topLevel)
		if err != nil {
			return nil, err
		}
		f.Statements = append(f.Statements, st)
	}
	tracer().Debugf("parsed %d top-level statements from %s", len(f.Statements), filename)
	return f, nil
}

func (p *parser) peek() token {
	return p.toks[p.i]
}

func (p *parser) peekAt(k int) token {
	if p.i+k >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+k]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) *Error {
	return errorAt(t.pos, format, args...)
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokClass:
		return "@" + t.text
	case tokString:
		return strconv.Quote(t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

func (p *parser) expect(sym string) (token, error) {
	t := p.next()
	if !t.is(sym) {
		return t, p.errorf(t, "expected %q, found %s", sym, describe(t))
	}
	return t, nil
}

func (p *parser) expectName(what string) (token, error) {
	t := p.next()
	if t.kind != tokName {
		return t, p.errorf(t, "expected %s, found %s", what, describe(t))
	}
	return t, nil
}

func (p *parser) expectTag(what string) (string, error) {
	t, err := p.expectName(what)
	if err != nil {
		return "", err
	}
	if len(t.text) > 4 {
		return "", p.errorf(t, "%s %q is longer than 4 characters", what, t.text)
	}
	return t.text, nil
}

func (p *parser) expectInt() (int, error) {
	t := p.next()
	if t.kind != tokNumber {
		return 0, p.errorf(t, "expected integer, found %s", describe(t))
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, p.errorf(t, "invalid integer %q", t.text)
	}
	return n, nil
}

// include splices the tokens of included files into the token stream.
func (p *parser) include() error {
	for p.peek().is("include") {
		t := p.next()
		path := p.next()
		if path.kind != tokPath {
			return p.errorf(path, "expected include path")
		}
		if p.peek().is(";") {
			p.next()
		}
		if p.includes++; p.includes > maxIncludeDepth {
			return p.errorf(t, "too many include statements")
		}
		file := path.text
		if !filepath.IsAbs(file) {
			file = filepath.Join(filepath.Dir(t.pos.File), file)
		}
		content, err := os.ReadFile(file)
		if err != nil {
			return p.errorf(t, "cannot include %s: %v", path.text, err)
		}
		toks, err := lex(string(content), file)
		if err != nil {
			return err
		}
		toks = toks[:len(toks)-1]
		rest := append(toks, p.toks[p.i:]...)
		p.toks = append(p.toks[:p.i:p.i], rest...)
		tracer().Debugf("included %s", file)
	}
	return nil
}

func (p *parser) statement(kind blockKind) (Statement, error) {
	t := p.peek()
	if t.kind == tokClass && p.peekAt(1).is("=") {
		return p.classDefinition()
	}
	if t.kind != tokName || t.escaped {
		return nil, p.errorf(t, "unexpected %s", describe(t))
	}
	switch t.text {
	case "languagesystem":
		if kind != topLevel {
			return nil, p.errorf(t, "languagesystem is only allowed at top level")
		}
		return p.languageSystem()
	case "markClass":
		return p.markClass()
	case "anchorDef":
		return p.anchorDef()
	case "lookup":
		return p.lookup(kind)
	case "feature":
		if kind != topLevel {
			if p.peekAt(2).is(";") {
				return nil, unsupportedAt(t.pos, "feature references")
			}
			return nil, p.errorf(t, "feature blocks cannot be nested")
		}
		return p.feature()
	case "table":
		if kind != topLevel {
			return nil, p.errorf(t, "table blocks are only allowed at top level")
		}
		return p.table()
	case "script":
		return p.script(kind)
	case "language":
		return p.language(kind)
	case "lookupflag":
		return p.lookupFlag()
	case "subtable":
		p.next()
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return &SubtableStatement{Pos: t.pos}, nil
	case "sub", "substitute":
		return p.substitute(false)
	case "rsub", "reversesub":
		return nil, unsupportedAt(t.pos, "reverse chaining substitution")
	case "pos", "position":
		return p.position(false, false)
	case "enum", "enumerate":
		p.next()
		if n := p.peek(); !n.is("pos") && !n.is("position") {
			return nil, p.errorf(n, "expected 'pos' after %s", t.text)
		}
		return p.position(false, true)
	case "ignore":
		p.next()
		switch n := p.peek(); {
		case n.is("sub") || n.is("substitute"):
			return p.substitute(true)
		case n.is("pos") || n.is("position"):
			return p.position(true, false)
		default:
			return nil, p.errorf(n, "expected 'sub' or 'pos' after ignore")
		}
	case "valueRecordDef", "featureNames", "parameters", "sizemenuname",
		"cvParameters", "conditionset", "variation", "nameid":
		return nil, unsupportedAt(t.pos, t.text)
	}
	return nil, p.errorf(t, "unexpected %s", describe(t))
}

func (p *parser) languageSystem() (Statement, error) {
	t := p.next()
	script, err := p.expectTag("script tag")
	if err != nil {
		return nil, err
	}
	lang, err := p.expectTag("language tag")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return &LanguageSystem{Pos: t.pos, Script: script, Language: lang}, nil
}

func (p *parser) classDefinition() (Statement, error) {
	t := p.next()
	p.next() // '='
	gs, err := p.glyphSet()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ClassDefinition{Pos: t.pos, Name: t.text, Glyphs: gs}, nil
}

func (p *parser) markClass() (Statement, error) {
	t := p.next()
	gs, err := p.glyphSet()
	if err != nil {
		return nil, err
	}
	a, err := p.anchor()
	if err != nil {
		return nil, err
	}
	cls := p.next()
	if cls.kind != tokClass {
		return nil, p.errorf(cls, "expected mark class name, found %s", describe(cls))
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return &MarkClassDefinition{Pos: t.pos, Glyphs: gs, Anchor: a, Class: cls.text}, nil
}

func (p *parser) anchorDef() (Statement, error) {
	t := p.next()
	def := &AnchorDefinition{Pos: t.pos}
	var err error
	if def.X, err = p.expectInt(); err != nil {
		return nil, err
	}
	if def.Y, err = p.expectInt(); err != nil {
		return nil, err
	}
	if p.peek().is("contourpoint") {
		p.next()
		if def.ContourPoint, err = p.expectInt(); err != nil {
			return nil, err
		}
		def.HasContour = true
	}
	name, err := p.expectName("anchor name")
	if err != nil {
		return nil, err
	}
	def.Name = name.text
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return def, nil
}

// block parses statements enclosed in braces, followed by the closing
// label and a semicolon.
func (p *parser) block(kind blockKind, label string) ([]Statement, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	var stmts []Statement
	for {
		if err := p.include(); err != nil {
			return nil, err
		}
		t := p.peek()
		if t.is("}") {
			break
		}
		if t.kind == tokEOF {
			return nil, p.errorf(t, "block %s is not closed", label)
		}
		st, err := p.statement(kind)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	p.next()
	end := p.next()
	if end.kind != tokName || end.text != label {
		return nil, p.errorf(end, "expected %q to close block, found %s", label, describe(end))
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) lookup(kind blockKind) (Statement, error) {
	t := p.next()
	name, err := p.expectName("lookup name")
	if err != nil {
		return nil, err
	}
	if p.peek().is(";") {
		p.next()
		if kind != inFeature {
			return nil, p.errorf(t, "lookup references are only allowed in feature blocks")
		}
		return &LookupReference{Pos: t.pos, Name: name.text}, nil
	}
	if kind == inLookup {
		return nil, p.errorf(t, "lookup blocks cannot be nested")
	}
	lb := &LookupBlock{Pos: t.pos, Name: name.text}
	if p.peek().is("useExtension") {
		p.next()
		lb.UseExtension = true
	}
	if lb.Statements, err = p.block(inLookup, name.text); err != nil {
		return nil, err
	}
	return lb, nil
}

func (p *parser) feature() (Statement, error) {
	t := p.next()
	tag, err := p.expectTag("feature tag")
	if err != nil {
		return nil, err
	}
	if p.peek().is("useExtension") {
		p.next()
	}
	fb := &FeatureBlock{Pos: t.pos, Tag: tag}
	if fb.Statements, err = p.block(inFeature, tag); err != nil {
		return nil, err
	}
	return fb, nil
}

func (p *parser) table() (Statement, error) {
	t := p.next()
	name, err := p.expectName("table tag")
	if err != nil {
		return nil, err
	}
	if name.text != "GDEF" {
		return nil, unsupportedAt(name.pos, "table "+name.text)
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	gdef := &GDEFBlock{Pos: t.pos}
	for !p.peek().is("}") {
		st := p.next()
		switch {
		case st.is("GlyphClassDef"):
			slots := []**GlyphSet{&gdef.Base, &gdef.Ligature, &gdef.Mark, &gdef.Component}
			for i, slot := range slots {
				if n := p.peek(); !n.is(",") && !n.is(";") {
					gs, err := p.glyphSet()
					if err != nil {
						return nil, err
					}
					*slot = &gs
				}
				if i < len(slots)-1 {
					if _, err := p.expect(","); err != nil {
						return nil, err
					}
				}
			}
			if _, err := p.expect(";"); err != nil {
				return nil, err
			}
		case st.kind == tokName:
			return nil, unsupportedAt(st.pos, "GDEF statement "+st.text)
		default:
			return nil, p.errorf(st, "unexpected %s in table GDEF", describe(st))
		}
	}
	p.next()
	end := p.next()
	if !end.is("GDEF") {
		return nil, p.errorf(end, "expected \"GDEF\" to close table, found %s", describe(end))
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return gdef, nil
}

func (p *parser) script(kind blockKind) (Statement, error) {
	t := p.next()
	if kind != inFeature {
		return nil, p.errorf(t, "script statements are only allowed in feature blocks")
	}
	tag, err := p.expectTag("script tag")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return &ScriptStatement{Pos: t.pos, Script: tag}, nil
}

func (p *parser) language(kind blockKind) (Statement, error) {
	t := p.next()
	if kind != inFeature {
		return nil, p.errorf(t, "language statements are only allowed in feature blocks")
	}
	tag, err := p.expectTag("language tag")
	if err != nil {
		return nil, err
	}
	ls := &LanguageStatement{Pos: t.pos, Language: tag, IncludeDefault: true}
	for !p.peek().is(";") {
		opt := p.next()
		switch {
		case opt.is("exclude_dflt") || opt.is("excludeDFLT"):
			ls.IncludeDefault = false
		case opt.is("include_dflt") || opt.is("includeDFLT"):
			ls.IncludeDefault = true
		case opt.is("required"):
			ls.Required = true
		default:
			return nil, p.errorf(opt, "unexpected %s in language statement", describe(opt))
		}
	}
	p.next()
	return ls, nil
}

var lookupFlagNames = map[string]uint16{
	"RightToLeft":      FlagRightToLeft,
	"IgnoreBaseGlyphs": FlagIgnoreBaseGlyphs,
	"IgnoreLigatures":  FlagIgnoreLigatures,
	"IgnoreMarks":      FlagIgnoreMarks,
}

func (p *parser) lookupFlag() (Statement, error) {
	t := p.next()
	lf := &LookupFlagStatement{Pos: t.pos}
	if n := p.peek(); n.kind == tokNumber {
		v, err := p.expectInt()
		if err != nil {
			return nil, err
		}
		if v < 0 || v > 0xffff {
			return nil, p.errorf(n, "lookup flag %d out of range", v)
		}
		if v&FlagUseMarkFilteringSet != 0 {
			return nil, unsupportedAt(n.pos, "numeric UseMarkFilteringSet")
		}
		lf.Flags = uint16(v)
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return lf, nil
	}
	for !p.peek().is(";") {
		f := p.next()
		if f.kind != tokName {
			return nil, p.errorf(f, "unexpected %s in lookupflag", describe(f))
		}
		if bit, ok := lookupFlagNames[f.text]; ok {
			lf.Flags |= bit
			continue
		}
		switch f.text {
		case "MarkAttachmentType":
			gs, err := p.glyphSet()
			if err != nil {
				return nil, err
			}
			lf.MarkAttachment = &gs
		case "UseMarkFilteringSet":
			gs, err := p.glyphSet()
			if err != nil {
				return nil, err
			}
			lf.MarkFiltering = &gs
			lf.Flags |= FlagUseMarkFilteringSet
		default:
			return nil, p.errorf(f, "unknown lookup flag %q", f.text)
		}
	}
	p.next()
	return lf, nil
}

// glyphSet parses a glyph name, a class reference or a bracketed list.
func (p *parser) glyphSet() (GlyphSet, error) {
	t := p.next()
	gs := GlyphSet{Pos: t.pos}
	switch {
	case t.kind == tokClass:
		gs.Items = []GlyphItem{{Class: t.text}}
	case t.kind == tokName:
		gs.Items = []GlyphItem{{Name: t.text}}
	case t.kind == tokCID:
		gs.Items = []GlyphItem{{CID: t.text}}
	case t.is("["):
		gs.Bracketed = true
		for {
			it := p.next()
			switch {
			case it.is("]"):
				return gs, nil
			case it.kind == tokClass:
				gs.Items = append(gs.Items, GlyphItem{Class: it.text})
			case it.kind == tokName:
				item := GlyphItem{Name: it.text}
				if p.peek().is("-") {
					p.next()
					last, err := p.expectName("end of glyph range")
					if err != nil {
						return gs, err
					}
					item.Last = last.text
				}
				gs.Items = append(gs.Items, item)
			case it.kind == tokCID:
				gs.Items = append(gs.Items, GlyphItem{CID: it.text})
			default:
				return gs, p.errorf(it, "unexpected %s in glyph class", describe(it))
			}
		}
	default:
		return gs, p.errorf(t, "expected glyph or glyph class, found %s", describe(t))
	}
	return gs, nil
}

func (p *parser) atGlyphSet() bool {
	t := p.peek()
	switch t.kind {
	case tokClass, tokCID:
		return true
	case tokName:
		return t.escaped || !(t.text == "by" || t.text == "from" || t.text == "lookup" || t.text == "NULL")
	}
	return t.is("[")
}

func (p *parser) atValueRecord() bool {
	t := p.peek()
	return t.kind == tokNumber || t.is("<") && !p.peekAt(1).is("anchor")
}

// anchor parses <anchor x y>, <anchor x y contourpoint n>, <anchor NULL>
// and <anchor NAME>.
func (p *parser) anchor() (Anchor, error) {
	t, err := p.expect("<")
	if err != nil {
		return Anchor{}, err
	}
	a := Anchor{Pos: t.pos}
	if _, err := p.expect("anchor"); err != nil {
		return a, err
	}
	switch n := p.peek(); {
	case n.is("NULL"):
		p.next()
		a.Null = true
	case n.kind == tokName:
		p.next()
		a.Name = n.text
	default:
		if a.X, err = p.expectInt(); err != nil {
			return a, err
		}
		if a.Y, err = p.expectInt(); err != nil {
			return a, err
		}
		if p.peek().is("contourpoint") {
			p.next()
			if a.ContourPoint, err = p.expectInt(); err != nil {
				return a, err
			}
			a.HasContour = true
		}
	}
	if n := p.peek(); n.is("<") {
		return a, unsupportedAt(n.pos, "device tables")
	}
	_, err = p.expect(">")
	return a, err
}

func (p *parser) valueRecord() (*ValueRecord, error) {
	t := p.peek()
	v := &ValueRecord{Pos: t.pos}
	var err error
	if t.kind == tokNumber {
		v.XAdvance, err = p.expectInt()
		return v, err
	}
	p.next() // '<'
	switch n := p.peek(); {
	case n.is("NULL"):
		p.next()
		v.Null = true
	case n.kind == tokName:
		return nil, unsupportedAt(n.pos, "named value records")
	default:
		var nums []int
		for p.peek().kind == tokNumber {
			x, _ := p.expectInt()
			nums = append(nums, x)
		}
		switch len(nums) {
		case 1:
			v.XAdvance = nums[0]
		case 4:
			v.XPlacement, v.YPlacement, v.XAdvance, v.YAdvance = nums[0], nums[1], nums[2], nums[3]
		default:
			return nil, p.errorf(n, "value record needs 1 or 4 numbers, found %d", len(nums))
		}
	}
	if n := p.peek(); n.is("<") {
		return nil, unsupportedAt(n.pos, "device tables")
	}
	if _, err := p.expect(">"); err != nil {
		return nil, err
	}
	return v, nil
}

type seqItem struct {
	set     GlyphSet
	marked  bool
	lookups []string
	values  []*ValueRecord
}

// sequence parses glyph sets, each optionally marked, followed by lookup
// references and, for positioning rules, value records.
func (p *parser) sequence(withValues bool) ([]seqItem, error) {
	var items []seqItem
	for p.atGlyphSet() {
		gs, err := p.glyphSet()
		if err != nil {
			return nil, err
		}
		item := seqItem{set: gs}
		if p.peek().is("'") {
			p.next()
			item.marked = true
		}
		for p.peek().is("lookup") {
			t := p.next()
			if !item.marked {
				return nil, p.errorf(t, "lookup references need a marked glyph")
			}
			name, err := p.expectName("lookup name")
			if err != nil {
				return nil, err
			}
			item.lookups = append(item.lookups, name.text)
		}
		for withValues && p.atValueRecord() {
			v, err := p.valueRecord()
			if err != nil {
				return nil, err
			}
			item.values = append(item.values, v)
		}
		items = append(items, item)
	}
	return items, nil
}

// splitContext splits a sequence at its marked glyphs. For an unmarked sequence
// all glyphs are input, unless firstOnly is set.
func splitContext(items []seqItem, pos Pos, firstOnly bool) (Context, error) {
	var ctx Context
	first, last := -1, -1
	for i, it := range items {
		if !it.marked {
			continue
		}
		if first < 0 {
			first = i
		} else if last != i-1 {
			return ctx, errorAt(pos, "marked glyphs must be contiguous")
		}
		last = i
	}
	if first < 0 {
		first, last = 0, len(items)-1
		if firstOnly {
			last = 0
		}
	} else {
		ctx.Marked = true
	}
	for i, it := range items {
		switch {
		case i < first:
			ctx.Prefix = append(ctx.Prefix, it.set)
		case i > last:
			ctx.Suffix = append(ctx.Suffix, it.set)
		default:
			ctx.Input = append(ctx.Input, it.set)
			ctx.Lookups = append(ctx.Lookups, it.lookups)
		}
	}
	return ctx, nil
}

func (p *parser) substitute(ignore bool) (Statement, error) {
	t := p.next()
	st := &SubstStatement{Pos: t.pos, Ignore: ignore}
	for {
		items, err := p.sequence(false)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, p.errorf(p.peek(), "expected glyph sequence, found %s", describe(p.peek()))
		}
		ctx, err := splitContext(items, t.pos, ignore)
		if err != nil {
			return nil, err
		}
		st.Contexts = append(st.Contexts, ctx)
		if !ignore || !p.peek().is(",") {
			break
		}
		p.next()
	}
	switch n := p.peek(); {
	case ignore:
	case n.is("by"):
		p.next()
		st.HasBy = true
		if p.peek().is("NULL") {
			p.next()
			break
		}
		for p.atGlyphSet() {
			gs, err := p.glyphSet()
			if err != nil {
				return nil, err
			}
			st.Replacement = append(st.Replacement, gs)
		}
		if len(st.Replacement) == 0 {
			return nil, p.errorf(p.peek(), "expected replacement glyphs, found %s", describe(p.peek()))
		}
	case n.is("from"):
		p.next()
		if st.Contexts[0].Marked {
			return nil, unsupportedAt(n.pos, "chained alternate substitution")
		}
		gs, err := p.glyphSet()
		if err != nil {
			return nil, err
		}
		st.Alternates = &gs
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return st, nil
}

func (p *parser) position(ignore, enumerate bool) (Statement, error) {
	t := p.next()
	if !ignore {
		switch n := p.peek(); {
		case n.is("cursive"):
			return p.cursive(t)
		case n.is("base"):
			return p.markPos(t, false)
		case n.is("mark"):
			return p.markPos(t, true)
		case n.is("ligature"):
			return p.ligaturePos(t)
		}
	}
	st := &PosStatement{Pos: t.pos, Ignore: ignore, Enumerate: enumerate}
	for {
		items, err := p.sequence(!ignore)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, p.errorf(p.peek(), "expected glyph sequence, found %s", describe(p.peek()))
		}
		ctx, err := splitContext(items, t.pos, ignore)
		if err != nil {
			return nil, err
		}
		st.Contexts = append(st.Contexts, ctx)
		if ignore {
			if !p.peek().is(",") {
				break
			}
			p.next()
			continue
		}
		if st.Values, err = distributeValues(items, ctx, t.pos); err != nil {
			return nil, err
		}
		break
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return st, nil
}

// distributeValues assigns value records to the input glyphs of a rule.
// In "pos a b <v1> <v2>" and "pos a b -80" the values following the last
// glyph belong to the pair in order.
func distributeValues(items []seqItem, ctx Context, pos Pos) ([]*ValueRecord, error) {
	if ctx.Marked {
		var values []*ValueRecord
		for _, it := range items {
			if !it.marked {
				if len(it.values) > 0 {
					return nil, errorAt(pos, "value records must follow marked glyphs")
				}
				continue
			}
			switch len(it.values) {
			case 0:
				values = append(values, nil)
			case 1:
				values = append(values, it.values[0])
			default:
				return nil, errorAt(pos, "more than one value record for a glyph")
			}
		}
		return values, nil
	}
	switch len(items) {
	case 1:
		if len(items[0].values) != 1 {
			return nil, errorAt(pos, "single positioning needs exactly one value record")
		}
		return []*ValueRecord{items[0].values[0]}, nil
	case 2:
		v0, v1 := items[0].values, items[1].values
		switch {
		case len(v0) == 0 && len(v1) == 1:
			return []*ValueRecord{v1[0], nil}, nil
		case len(v0) == 0 && len(v1) == 2:
			return []*ValueRecord{v1[0], v1[1]}, nil
		case len(v0) == 1 && len(v1) == 0:
			return []*ValueRecord{v0[0], nil}, nil
		case len(v0) == 1 && len(v1) == 1:
			return []*ValueRecord{v0[0], v1[0]}, nil
		}
		return nil, errorAt(pos, "pair positioning needs one or two value records")
	}
	return nil, errorAt(pos, "positioning of %d glyphs needs marked glyphs", len(items))
}

func (p *parser) cursive(t token) (Statement, error) {
	p.next()
	gs, err := p.glyphSet()
	if err != nil {
		return nil, err
	}
	cp := &CursivePos{Pos: t.pos, Glyphs: gs}
	if cp.Entry, err = p.anchor(); err != nil {
		return nil, err
	}
	if cp.Exit, err = p.anchor(); err != nil {
		return nil, err
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return cp, nil
}

// markAttachments parses "<anchor> mark @CLASS" pairs. A NULL anchor may
// stand alone.
func (p *parser) markAttachments() ([]MarkAttachment, error) {
	var marks []MarkAttachment
	for p.peek().is("<") {
		a, err := p.anchor()
		if err != nil {
			return nil, err
		}
		if a.Null && !p.peek().is("mark") {
			continue
		}
		if _, err := p.expect("mark"); err != nil {
			return nil, err
		}
		cls := p.next()
		if cls.kind != tokClass {
			return nil, p.errorf(cls, "expected mark class, found %s", describe(cls))
		}
		marks = append(marks, MarkAttachment{Anchor: a, Class: cls.text})
	}
	return marks, nil
}

func (p *parser) markPos(t token, toMark bool) (Statement, error) {
	p.next()
	gs, err := p.glyphSet()
	if err != nil {
		return nil, err
	}
	mp := &MarkPos{Pos: t.pos, ToMark: toMark, Glyphs: gs}
	if mp.Marks, err = p.markAttachments(); err != nil {
		return nil, err
	}
	if len(mp.Marks) == 0 {
		return nil, p.errorf(p.peek(), "expected anchor and mark class")
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return mp, nil
}

func (p *parser) ligaturePos(t token) (Statement, error) {
	p.next()
	gs, err := p.glyphSet()
	if err != nil {
		return nil, err
	}
	lp := &LigaturePos{Pos: t.pos, Glyphs: gs}
	for {
		marks, err := p.markAttachments()
		if err != nil {
			return nil, err
		}
		lp.Components = append(lp.Components, marks)
		if !p.peek().is("ligComponent") {
			break
		}
		p.next()
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return lp, nil
}
