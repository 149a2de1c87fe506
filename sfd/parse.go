package sfd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Open reads a font source. path may name a single-file source (*.sfd)
// or a directory source (*.sfdir).
func Open(path string) (*Font, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return openDir(path)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return parse(fh, path)
}

// Parse reads a single-file font source from r.
func Parse(r io.Reader) (*Font, error) {
	return parse(r, "")
}

func parse(r io.Reader, file string) (*Font, error) {
	p := newParser()
	if err := p.read(r, file); err != nil {
		return nil, err
	}
	return p.finish()
}

func openDir(dir string) (*Font, error) {
	p := newParser()
	props := filepath.Join(dir, "font.props")
	fh, err := os.Open(props)
	if err != nil {
		return nil, err
	}
	err = p.read(fh, props)
	fh.Close()
	if err != nil {
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.glyph"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	for _, name := range files {
		fh, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		err = p.read(fh, name)
		fh.Close()
		if err != nil {
			return nil, err
		}
	}
	tracer().Debugf("read %d glyph files from %s", len(files), dir)
	return p.finish()
}

type parser struct {
	font  *Font
	file  string
	sc    *bufio.Scanner
	line  int
	byGID map[int]*Glyph
}

func newParser() *parser {
	return &parser{font: newFont(), byGID: make(map[int]*Glyph)}
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ParseError{File: p.file, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) next() bool {
	if !p.sc.Scan() {
		return false
	}
	p.line++
	return true
}

func (p *parser) text() string {
	return p.sc.Text()
}

// skipUntil consumes lines up to and including the line starting with end.
func (p *parser) skipUntil(end string) error {
	start := p.line
	for p.next() {
		if strings.HasPrefix(strings.TrimSpace(p.text()), end) {
			return nil
		}
	}
	p.line = start
	return p.errorf("missing %s", end)
}

func (p *parser) read(r io.Reader, file string) error {
	p.file, p.line = file, 0
	p.sc = bufio.NewScanner(r)
	p.sc.Buffer(make([]byte, 64*1024), 16<<20)
	for p.next() {
		if err := p.headerLine(); err != nil {
			return err
		}
	}
	return p.sc.Err()
}

func (p *parser) headerLine() error {
	f := p.font
	key, val := splitKey(p.text())
	var err error
	switch key {
	case "":
	case "FontName":
		f.FontName = val
	case "FullName":
		f.FullName = val
	case "FamilyName":
		f.FamilyName = val
	case "Weight":
		f.Weight = val
	case "Copyright":
		f.Copyright = unescape(val)
	case "Version":
		f.Version = val
	case "ItalicAngle":
		f.ItalicAngle, err = atof(val)
	case "UnderlinePosition":
		f.UnderlinePosition, err = atof(val)
	case "UnderlineWidth":
		f.UnderlineWidth, err = atof(val)
	case "Ascent":
		f.Ascent, err = atof(val)
	case "Descent":
		f.Descent, err = atof(val)
	case "Encoding":
		f.Encoding = val
	case "Layer":
		err = p.parseLayerInfo(val)
	case "OS2Version":
		f.OS2.Version, err = atoi(val)
	case "TTFWeight":
		f.OS2.WeightClass, err = atoi(val)
	case "TTFWidth":
		f.OS2.WidthClass, err = atoi(val)
	case "FSType":
		f.OS2.FSType, err = atoi(val)
	case "OS2Vendor":
		f.OS2.Vendor = strings.Trim(val, "'")
	case "Panose":
		for i, fld := range strings.Fields(val) {
			if i >= len(f.OS2.Panose) {
				break
			}
			var n int
			if n, err = atoi(fld); err != nil {
				break
			}
			f.OS2.Panose[i] = byte(n)
		}
	case "OS2TypoAscent":
		f.OS2.TypoAscent.Value, err = atof(val)
	case "OS2TypoAOffset":
		f.OS2.TypoAscent.IsOffset = val == "1"
	case "OS2TypoDescent":
		f.OS2.TypoDescent.Value, err = atof(val)
	case "OS2TypoDOffset":
		f.OS2.TypoDescent.IsOffset = val == "1"
	case "OS2TypoLinegap":
		f.OS2.TypoLineGap, err = atof(val)
	case "OS2WinAscent":
		f.OS2.WinAscent.Value, err = atof(val)
	case "OS2WinAOffset":
		f.OS2.WinAscent.IsOffset = val == "1"
	case "OS2WinDescent":
		f.OS2.WinDescent.Value, err = atof(val)
	case "OS2WinDOffset":
		f.OS2.WinDescent.IsOffset = val == "1"
	case "HheadAscent":
		f.OS2.HHeadAscent.Value, err = atof(val)
	case "HheadAOffset":
		f.OS2.HHeadAscent.IsOffset = val == "1"
	case "HheadDescent":
		f.OS2.HHeadDesc.Value, err = atof(val)
	case "HheadDOffset":
		f.OS2.HHeadDesc.IsOffset = val == "1"
	case "HheadLineGap":
		f.OS2.HHeadLGap, err = atof(val)
	case "OS2CapHeight":
		f.OS2.CapHeight, err = atof(val)
	case "OS2XHeight":
		f.OS2.XHeight, err = atof(val)
	case "OS2_UseTypoMetrics":
		f.OS2.UseTypo = val == "1"
	case "LangName":
		err = p.parseLangName(val)
	case "Lookup":
		err = p.parseLookup(val)
	case "AnchorClass2":
		err = p.parseAnchorClasses(val)
	case "KernClass2":
		err = p.parseKernClass(val)
	case "MarkAttachClasses":
		f.MarkClasses, err = p.parseMarkClasses(val, 1)
	case "MarkAttachSets":
		f.MarkSets, err = p.parseMarkClasses(val, 0)
	case "StartChar":
		return p.parseGlyph(val)
	case "ChainSub2", "ChainPos2", "ContextSub2", "ContextPos2", "ReverseChain2":
		tracer().Infof("%s:%d: contextual %s rules are not supported, skipped", p.file, p.line, key)
		return p.skipUntil("EndFPST")
	case "BeginPrivate":
		return p.skipUntil("EndPrivate")
	case "TtTable", "TtfTable":
		return p.skipUntil("EndTTInstrs")
	case "ShortTable":
		return p.skipUntil("EndShort")
	case "Grid":
		return p.skipUntil("EndSplineSet")
	case "BeginOtherSubrs":
		return p.skipUntil("EndOtherSubrs")
	case "BitmapFont":
		return p.skipUntil("EndBitmapFont")
	case "Image", "Image2":
		return p.skipUntil("EndImage")
	}
	if err != nil {
		if _, ok := err.(*ParseError); ok {
			return err
		}
		return p.errorf("%s: %v", key, err)
	}
	return nil
}

// Layer: 2 0 "Marks" 0
func (p *parser) parseLayerInfo(val string) error {
	toks := tokenize(val)
	if len(toks) < 3 {
		return p.errorf("malformed layer %q", val)
	}
	i, err := atoi(toks[0].text)
	if err != nil || i < 0 || i > 255 {
		return p.errorf("malformed layer index %q", toks[0].text)
	}
	info := LayerInfo{Quadratic: toks[1].text == "1", Name: toks[2].text}
	if len(toks) > 3 {
		info.IsBack = toks[3].text == "1"
	}
	for len(p.font.Layers) <= i {
		p.font.Layers = append(p.font.Layers, LayerInfo{})
	}
	p.font.Layers[i] = info
	return nil
}

// LangName: 1033 "" "" "Regular" ...
func (p *parser) parseLangName(val string) error {
	toks := tokenize(val)
	if len(toks) == 0 {
		return p.errorf("empty LangName")
	}
	lang, err := atoi(toks[0].text)
	if err != nil {
		return p.errorf("malformed language id %q", toks[0].text)
	}
	for id, t := range toks[1:] {
		if t.kind != tokString || t.text == "" {
			continue
		}
		s, err := decodeUTF7(t.text)
		if err != nil {
			return p.errorf("name %d: %v", id, err)
		}
		p.font.AppendSFNTName(lang, id, s)
	}
	return nil
}

// Lookup: 260 0 0 "'mark' Mark to base" { "'mark' Mark to base-1" } ['mark' ('arab' <'dflt' > ) ]
func (p *parser) parseLookup(val string) error {
	toks := tokenize(val)
	if len(toks) < 4 || toks[3].kind != tokString {
		return p.errorf("malformed lookup %q", val)
	}
	typ, err1 := atoi(toks[0].text)
	flags, err2 := atoi(toks[1].text)
	if err1 != nil || err2 != nil {
		return p.errorf("malformed lookup header %q", val)
	}
	l := &Lookup{Type: LookupType(typ), Flags: flags, Name: toks[3].text}
	toks = toks[4:]
	if len(toks) > 0 && toks[0].is(tokPunct, "{") {
		toks = toks[1:]
		for len(toks) > 0 && !toks[0].is(tokPunct, "}") {
			switch {
			case toks[0].kind == tokString:
				l.Subtables = append(l.Subtables, toks[0].text)
				toks = toks[1:]
			case toks[0].is(tokPunct, "("):
				toks = skipGroup(toks, "(", ")")
			case toks[0].is(tokPunct, "["):
				toks = skipGroup(toks, "[", "]")
			default:
				toks = toks[1:]
			}
		}
		if len(toks) > 0 {
			toks = toks[1:]
		}
	}
	if len(toks) > 0 && toks[0].is(tokPunct, "[") {
		toks = toks[1:]
		for len(toks) > 0 && toks[0].kind == tokTag {
			fs := FeatureScript{Tag: toks[0].text}
			toks = toks[1:]
			if len(toks) == 0 || !toks[0].is(tokPunct, "(") {
				return p.errorf("lookup %q: feature %s without scripts", l.Name, fs.Tag)
			}
			toks = toks[1:]
			for len(toks) > 0 && toks[0].kind == tokTag {
				sl := ScriptLangs{Script: toks[0].text}
				toks = toks[1:]
				if len(toks) > 0 && toks[0].is(tokPunct, "<") {
					toks = toks[1:]
					for len(toks) > 0 && toks[0].kind == tokTag {
						sl.Langs = append(sl.Langs, toks[0].text)
						toks = toks[1:]
					}
					if len(toks) > 0 && toks[0].is(tokPunct, ">") {
						toks = toks[1:]
					}
				}
				fs.Scripts = append(fs.Scripts, sl)
			}
			if len(toks) > 0 && toks[0].is(tokPunct, ")") {
				toks = toks[1:]
			}
			l.Features = append(l.Features, fs)
		}
	}
	p.font.Lookups = append(p.font.Lookups, l)
	return nil
}

// skipGroup drops a bracketed group, nested groups included.
func skipGroup(toks []token, open, end string) []token {
	depth := 0
	for i, t := range toks {
		if t.is(tokPunct, open) {
			depth++
		} else if t.is(tokPunct, end) {
			depth--
			if depth == 0 {
				return toks[i+1:]
			}
		}
	}
	return nil
}

// AnchorClass2: "top" "mark-1" "bottom" "mark-1"
func (p *parser) parseAnchorClasses(val string) error {
	toks := tokenize(val)
	for i := 0; i+1 < len(toks); i += 2 {
		p.font.AnchorClasses = append(p.font.AnchorClasses, AnchorClass{Name: toks[i].text, Subtable: toks[i+1].text})
	}
	return nil
}

func classCount(s string) (int, bool, error) {
	zero := strings.HasSuffix(s, "+")
	n, err := atoi(strings.TrimSuffix(s, "+"))
	return n, zero, err
}

// KernClass2: 3+ 2 "kern-1"
//
//	 5 A Agrave
//	 ...
//	 0 {} -50 {} ...
func (p *parser) parseKernClass(val string) error {
	toks := tokenize(val)
	if len(toks) < 3 {
		return p.errorf("malformed kerning class %q", val)
	}
	n1, zero1, err1 := classCount(toks[0].text)
	n2, zero2, err2 := classCount(toks[1].text)
	if err1 != nil || err2 != nil || n1 <= 0 || n2 <= 0 {
		return p.errorf("malformed kerning class counts %q", val)
	}
	kc := &KernClass{Subtable: toks[2].text}
	var err error
	if kc.First, err = p.readClasses(n1, zero1); err != nil {
		return err
	}
	if kc.Second, err = p.readClasses(n2, zero2); err != nil {
		return err
	}
	for len(kc.Offsets) < n1*n2 {
		if !p.next() {
			return p.errorf("kerning class %q: missing offsets", kc.Subtable)
		}
		toks := tokenize(p.text())
		for len(toks) > 0 {
			if toks[0].is(tokPunct, "{") {
				toks = skipGroup(toks, "{", "}")
				continue
			}
			v, err := atof(toks[0].text)
			if err != nil {
				return p.errorf("kerning class %q: %v", kc.Subtable, err)
			}
			kc.Offsets = append(kc.Offsets, v)
			toks = toks[1:]
		}
	}
	p.font.KernClasses = append(p.font.KernClasses, kc)
	return nil
}

func (p *parser) readClasses(n int, withZero bool) ([][]string, error) {
	classes := make([][]string, n)
	start := 1
	if withZero {
		start = 0
	}
	for i := start; i < n; i++ {
		if !p.next() {
			return nil, p.errorf("missing kerning class line")
		}
		fields := strings.Fields(p.text())
		if len(fields) > 0 {
			classes[i] = fields[1:] // leading character count
		}
	}
	return classes, nil
}

// MarkAttachClasses: 3
// "Above" 20 acutecomb gravecomb
func (p *parser) parseMarkClasses(val string, first int) ([]MarkClass, error) {
	n, err := atoi(val)
	if err != nil {
		return nil, err
	}
	var mcs []MarkClass
	for i := first; i < n; i++ {
		if !p.next() {
			return nil, p.errorf("missing mark class line")
		}
		toks := tokenize(p.text())
		if len(toks) < 2 {
			return nil, p.errorf("malformed mark class %q", p.text())
		}
		mc := MarkClass{Name: toks[0].text}
		for _, t := range toks[2:] {
			mc.Glyphs = append(mc.Glyphs, t.text)
		}
		mcs = append(mcs, mc)
	}
	return mcs, nil
}

func (p *parser) parseGlyph(name string) error {
	g := newGlyph(p.font, name)
	cur := LayerFore
	for p.next() {
		key, val := splitKey(p.text())
		var err error
		switch key {
		case "EndChar":
			if p.font.Has(g.Name) {
				return p.errorf("duplicate glyph %q", g.Name)
			}
			p.font.addGlyph(g)
			if g.gid >= 0 {
				p.byGID[g.gid] = g
			}
			return nil
		case "Encoding":
			err = p.parseEncoding(g, val)
		case "AltUni2":
			for _, fld := range strings.Fields(val) {
				hex := strings.SplitN(fld, ".", 2)[0]
				var u uint64
				if u, err = strconv.ParseUint(hex, 16, 32); err != nil {
					break
				}
				g.AltUnicodes = append(g.AltUnicodes, int(u))
			}
		case "Width":
			g.Width, err = atof(val)
		case "GlyphClass":
			var c int
			c, err = atoi(val)
			g.Class = GlyphClass(c)
		case "Colour":
			var c uint64
			c, err = strconv.ParseUint(val, 16, 32)
			g.Color = int(c)
		case "Back":
			cur = LayerBack
		case "Fore":
			cur = LayerFore
		case "Layer":
			fields := strings.Fields(val)
			if len(fields) > 0 {
				cur, err = atoi(fields[0])
			}
		case "SplineSet":
			err = p.parseSplineSet(g.Layer(cur), p.quadratic(cur))
		case "Refer":
			err = p.parseRefer(g.Layer(cur), val)
		case "AnchorPoint":
			err = p.parseAnchor(g, val)
		case "Substitution2":
			err = p.parsePST(g, PSTSubstitution, val)
		case "AlternateSubs2":
			err = p.parsePST(g, PSTAlternate, val)
		case "MultipleSubs2":
			err = p.parsePST(g, PSTMultiple, val)
		case "Ligature2":
			err = p.parsePST(g, PSTLigature, val)
		case "Position2":
			err = p.parsePST(g, PSTPosition, val)
		case "PairPos2":
			err = p.parsePST(g, PSTPair, val)
		case "Kerns2":
			err = p.parseKerns(g, val)
		case "Image", "Image2":
			err = p.skipUntil("EndImage")
		case "TtInstrs":
			err = p.skipUntil("EndTTInstrs")
		}
		if err != nil {
			if _, ok := err.(*ParseError); ok {
				return err
			}
			return p.errorf("glyph %q: %s: %v", g.Name, key, err)
		}
	}
	return p.errorf("glyph %q: missing EndChar", g.Name)
}

func (p *parser) quadratic(layer int) bool {
	if layer < len(p.font.Layers) {
		return p.font.Layers[layer].Quadratic
	}
	return false
}

// Encoding: 1575 1575 12  (encoding slot, unicode, glyph id)
func (p *parser) parseEncoding(g *Glyph, val string) error {
	fields := strings.Fields(val)
	if len(fields) < 2 {
		return fmt.Errorf("malformed encoding %q", val)
	}
	u, err := atoi(fields[1])
	if err != nil {
		return err
	}
	g.Unicode = u
	if len(fields) > 2 {
		if g.gid, err = atoi(fields[2]); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseSplineSet(l *Layer, quadratic bool) error {
	var c *Contour
	flush := func() {
		if c != nil && len(c.Segments) > 0 {
			l.Contours = append(l.Contours, *c)
		}
		c = nil
	}
	for p.next() {
		line := strings.TrimSpace(p.text())
		switch {
		case line == "EndSplineSet":
			flush()
			return nil
		case line == "Spiro":
			if err := p.skipUntil("EndSpiro"); err != nil {
				return err
			}
			continue
		case line == "" || strings.HasPrefix(line, "Named"):
			continue
		}
		fields := strings.Fields(line)
		op := -1
		for i, f := range fields {
			if f == "m" || f == "l" || f == "c" {
				op = i
				break
			}
		}
		if op < 0 {
			return p.errorf("malformed spline %q", line)
		}
		nums := make([]float64, op)
		for i := 0; i < op; i++ {
			v, err := atof(fields[i])
			if err != nil {
				return p.errorf("malformed spline coordinate %q", fields[i])
			}
			nums[i] = v
		}
		switch fields[op] {
		case "m":
			if len(nums) != 2 {
				return p.errorf("moveto needs 2 coordinates: %q", line)
			}
			flush()
			c = &Contour{Start: Point{nums[0], nums[1]}}
		case "l":
			if len(nums) != 2 || c == nil {
				return p.errorf("malformed lineto %q", line)
			}
			c.Segments = append(c.Segments, Segment{Kind: SegLine, End: Point{nums[0], nums[1]}})
		case "c":
			if len(nums) != 6 || c == nil {
				return p.errorf("malformed curveto %q", line)
			}
			seg := Segment{Kind: SegCurve, C1: Point{nums[0], nums[1]}, C2: Point{nums[2], nums[3]}, End: Point{nums[4], nums[5]}}
			if quadratic {
				seg = elevate(c.last(), seg)
			}
			c.Segments = append(c.Segments, seg)
		}
	}
	return p.errorf("missing EndSplineSet")
}

// last returns the current end point of the contour.
func (c *Contour) last() Point {
	if n := len(c.Segments); n > 0 {
		return c.Segments[n-1].End
	}
	return c.Start
}

// elevate turns a quadratic segment, stored with both control points on
// the single off-curve point, into its cubic equivalent.
func elevate(from Point, s Segment) Segment {
	q := s.C1
	s.C1 = Point{from.X + 2*(q.X-from.X)/3, from.Y + 2*(q.Y-from.Y)/3}
	s.C2 = Point{s.End.X + 2*(q.X-s.End.X)/3, s.End.Y + 2*(q.Y-s.End.Y)/3}
	return s
}

// Refer: 5 66 N 1 0 0 1 120 0 2
func (p *parser) parseRefer(l *Layer, val string) error {
	fields := strings.Fields(val)
	if len(fields) < 9 {
		return fmt.Errorf("malformed reference %q", val)
	}
	gid, err := atoi(fields[0])
	if err != nil {
		return err
	}
	ref := Reference{gid: gid}
	for i := 0; i < 6; i++ {
		if ref.Matrix[i], err = atof(fields[3+i]); err != nil {
			return err
		}
	}
	l.Refs = append(l.Refs, ref)
	return nil
}

// AnchorPoint: "top" 250 700 basechar 0
func (p *parser) parseAnchor(g *Glyph, val string) error {
	toks := tokenize(val)
	if len(toks) < 4 {
		return fmt.Errorf("malformed anchor %q", val)
	}
	a := AnchorPoint{Class: toks[0].text, Type: toks[3].text}
	var err error
	if a.X, err = atof(toks[1].text); err != nil {
		return err
	}
	if a.Y, err = atof(toks[2].text); err != nil {
		return err
	}
	if len(toks) > 4 {
		a.LigIndex, _ = atoi(toks[4].text)
	}
	g.Anchors = append(g.Anchors, a)
	return nil
}

// parsePST reads the per-glyph lookup entries:
//
//	Substitution2: "sub-1" a.alt
//	Ligature2: "liga-1" f i
//	Position2: "pos-1" dx=0 dy=0 dh=20 dv=0
//	PairPos2: "pair-1" V dx=0 dy=0 dh=-40 dv=0 dx=0 dy=0 dh=0 dv=0
func (p *parser) parsePST(g *Glyph, kind PSTKind, val string) error {
	toks := tokenize(val)
	if len(toks) == 0 || toks[0].kind != tokString {
		return fmt.Errorf("malformed lookup entry %q", val)
	}
	pst := PST{Kind: kind, Subtable: toks[0].text}
	toks = toks[1:]
	var values []float64
	for len(toks) > 0 {
		t := toks[0]
		switch {
		case t.kind == tokPunct && (t.text == "[" || t.text == "{"):
			end := "]"
			if t.text == "{" {
				end = "}"
			}
			toks = skipGroup(toks, t.text, end)
			continue
		case t.kind == tokWord && strings.Contains(t.text, "=") && (kind == PSTPosition || kind == PSTPair):
			v := t.text[strings.IndexByte(t.text, '=')+1:]
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			f, err := atof(v)
			if err != nil {
				return err
			}
			values = append(values, f)
		default:
			pst.Glyphs = append(pst.Glyphs, t.text)
		}
		toks = toks[1:]
	}
	if kind == PSTPosition || kind == PSTPair {
		for len(values) < 8 {
			values = append(values, 0)
		}
		pst.Pos = ValueRecord{DX: values[0], DY: values[1], DH: values[2], DV: values[3]}
		pst.Pos2 = ValueRecord{DX: values[4], DY: values[5], DH: values[6], DV: values[7]}
	}
	g.PSTs = append(g.PSTs, pst)
	return nil
}

// Kerns2: 66 -50 "kern-1" 70 -20 "kern-1"
func (p *parser) parseKerns(g *Glyph, val string) error {
	toks := tokenize(val)
	for len(toks) > 0 {
		if toks[0].is(tokPunct, "{") {
			toks = skipGroup(toks, "{", "}")
			continue
		}
		if len(toks) < 3 {
			return fmt.Errorf("malformed kerning %q", val)
		}
		gid, err := atoi(toks[0].text)
		if err != nil {
			return err
		}
		off, err := atof(toks[1].text)
		if err != nil {
			return err
		}
		g.Kerns = append(g.Kerns, KernPair{gid: gid, Offset: off, Subtable: toks[2].text})
		toks = toks[3:]
	}
	return nil
}

// finish resolves glyph ids to names and puts glyphs in glyph id order.
func (p *parser) finish() (*Font, error) {
	f := p.font
	resolve := func(g *Glyph, gid int) (string, error) {
		target, ok := p.byGID[gid]
		if !ok {
			return "", fmt.Errorf("glyph %q: %w: glyph id %d", g.Name, ErrNoSuchGlyph, gid)
		}
		return target.Name, nil
	}
	for _, g := range f.glyphs {
		for _, l := range g.layers {
			for i := range l.Refs {
				if l.Refs[i].Name != "" {
					continue
				}
				name, err := resolve(g, l.Refs[i].gid)
				if err != nil {
					return nil, err
				}
				l.Refs[i].Name = name
			}
		}
		for i := range g.Kerns {
			name, err := resolve(g, g.Kerns[i].gid)
			if err != nil {
				return nil, err
			}
			g.Kerns[i].Second = name
		}
	}
	sort.SliceStable(f.glyphs, func(i, j int) bool {
		a, b := f.glyphs[i].gid, f.glyphs[j].gid
		if a < 0 || b < 0 {
			return a >= 0 && b < 0
		}
		return a < b
	})
	tracer().Debugf("font %s: %d glyphs, %d lookups", f.FontName, len(f.glyphs), len(f.Lookups))
	return f, nil
}
