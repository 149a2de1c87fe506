package fea

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/npillmayer/fontmerge/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

var testGlyphs = []string{
	".notdef", "a", "b", "c", "d", "f", "i", "f_i", "a.alt", "b.alt",
	"acute", "grave", "A", "V", "one", "two", "f_f_i", "c.alt", "d.alt",
}

func build(t *testing.T, src string) map[ot.Tag][]byte {
	t.Helper()
	f, err := Parse(src, "test.fea")
	if err != nil {
		t.Fatal(err)
	}
	tables, err := Build(f, testGlyphs)
	if err != nil {
		t.Fatal(err)
	}
	return tables
}

func buildError(t *testing.T, src string) error {
	t.Helper()
	f, err := Parse(src, "test.fea")
	if err != nil {
		t.Fatalf("unexpected syntax error: %v", err)
	}
	_, err = Build(f, testGlyphs)
	if err == nil {
		t.Errorf("expected error for %q", src)
	}
	return err
}

// --- Decoding helpers ------------------------------------------------------

func u16(b []byte, off int) int {
	return int(binary.BigEndian.Uint16(b[off:]))
}

func i16(b []byte, off int) int {
	return int(int16(binary.BigEndian.Uint16(b[off:])))
}

func u32(b []byte, off int) int {
	return int(binary.BigEndian.Uint32(b[off:]))
}

type decodedLookup struct {
	typ, flags int
	markSet    int
	subtables  [][]byte
}

func decodeLookups(table []byte) []decodedLookup {
	list := table[u16(table, 8):]
	var lookups []decodedLookup
	for i := 0; i < u16(list, 0); i++ {
		l := list[u16(list, 2+2*i):]
		d := decodedLookup{typ: u16(l, 0), flags: u16(l, 2), markSet: -1}
		n := u16(l, 4)
		for j := 0; j < n; j++ {
			d.subtables = append(d.subtables, l[u16(l, 6+2*j):])
		}
		if d.flags&FlagUseMarkFilteringSet != 0 {
			d.markSet = u16(l, 6+2*n)
		}
		lookups = append(lookups, d)
	}
	return lookups
}

func lookupTypes(lookups []decodedLookup) []int {
	types := make([]int, len(lookups))
	for i, l := range lookups {
		types[i] = l.typ
	}
	return types
}

// decodeFeatures returns the feature records as "tag:lookup,lookup".
func decodeFeatures(table []byte) []string {
	list := table[u16(table, 6):]
	var features []string
	for i := 0; i < u16(list, 0); i++ {
		rec := 2 + 6*i
		tag := ot.Tag(u32(list, rec)).String()
		f := list[u16(list, rec+4):]
		var indices []string
		for j := 0; j < u16(f, 2); j++ {
			indices = append(indices, fmt.Sprint(u16(f, 4+2*j)))
		}
		features = append(features, tag+":"+strings.Join(indices, ","))
	}
	return features
}

// decodeScripts maps "script/lang" to the feature indices of a language
// system. A required feature is prefixed with 'r'.
func decodeScripts(table []byte) map[string]string {
	list := table[u16(table, 4):]
	langSys := func(ls []byte) string {
		var indices []string
		if req := u16(ls, 2); req != 0xffff {
			indices = append(indices, fmt.Sprintf("r%d", req))
		}
		for j := 0; j < u16(ls, 4); j++ {
			indices = append(indices, fmt.Sprint(u16(ls, 6+2*j)))
		}
		return strings.Join(indices, ",")
	}
	scripts := make(map[string]string)
	for i := 0; i < u16(list, 0); i++ {
		rec := 2 + 6*i
		tag := ot.Tag(u32(list, rec)).String()
		s := list[u16(list, rec+4):]
		if off := u16(s, 0); off != 0 {
			scripts[tag+"/dflt"] = langSys(s[off:])
		}
		for j := 0; j < u16(s, 2); j++ {
			lrec := 4 + 6*j
			lang := strings.TrimSpace(ot.Tag(u32(s, lrec)).String())
			scripts[tag+"/"+lang] = langSys(s[u16(s, lrec+4):])
		}
	}
	return scripts
}

func coverageGlyphs(cov []byte) []int {
	var gids []int
	switch u16(cov, 0) {
	case 1:
		for i := 0; i < u16(cov, 2); i++ {
			gids = append(gids, u16(cov, 4+2*i))
		}
	case 2:
		for i := 0; i < u16(cov, 2); i++ {
			for g := u16(cov, 4+6*i); g <= u16(cov, 6+6*i); g++ {
				gids = append(gids, g)
			}
		}
	}
	return gids
}

func classDefGlyphs(def []byte) map[int]int {
	classes := make(map[int]int)
	for i := 0; i < u16(def, 2); i++ {
		rec := 4 + 6*i
		for g := u16(def, rec); g <= u16(def, rec+2); g++ {
			classes[g] = u16(def, rec+4)
		}
	}
	return classes
}

// --- Substitution ----------------------------------------------------------

func TestSingleSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	tables := build(t, "feature smcp { sub [a b] by [a.alt b.alt]; } smcp;")
	if _, ok := tables[ot.TagGPOS]; ok {
		t.Errorf("expected no GPOS table")
	}
	if _, ok := tables[ot.TagGDEF]; ok {
		t.Errorf("expected no GDEF table")
	}
	gsub := tables[ot.TagGSUB]
	if u32(gsub, 0) != 0x00010000 {
		t.Errorf("unexpected GSUB version %x", u32(gsub, 0))
	}
	lookups := decodeLookups(gsub)
	if len(lookups) != 1 || lookups[0].typ != gsubSingle || len(lookups[0].subtables) != 1 {
		t.Fatalf("expected one single substitution lookup, got %+v", lookups)
	}
	expected := []byte{0, 1, 0, 6, 0, 7, 0, 1, 0, 2, 0, 1, 0, 2}
	if sub := lookups[0].subtables[0]; !reflect.DeepEqual(sub[:len(expected)], expected) {
		t.Errorf("expected subtable % x, got % x", expected, sub[:len(expected)])
	}
	if f := decodeFeatures(gsub); !reflect.DeepEqual(f, []string{"smcp:0"}) {
		t.Errorf("unexpected features %v", f)
	}
	if s := decodeScripts(gsub); !reflect.DeepEqual(s, map[string]string{"DFLT/dflt": "0"}) {
		t.Errorf("unexpected scripts %v", s)
	}
}

func TestLookupOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gsub := build(t, `feature liga {
  sub a by a.alt;
  sub b by b.alt;
  sub f i by f_i;
  sub f f i by f_f_i;
  sub c by c.alt;
} liga;`)[ot.TagGSUB]
	lookups := decodeLookups(gsub)
	if types := lookupTypes(lookups); !reflect.DeepEqual(types, []int{1, 4, 1}) {
		t.Fatalf("expected lookup types [1 4 1], got %v", types)
	}
	if f := decodeFeatures(gsub); !reflect.DeepEqual(f, []string{"liga:0,1,2"}) {
		t.Errorf("unexpected features %v", f)
	}
	sub := lookups[1].subtables[0]
	if u16(sub, 4) != 1 {
		t.Fatalf("expected one ligature set, got %d", u16(sub, 4))
	}
	set := sub[u16(sub, 6):]
	if u16(set, 0) != 2 {
		t.Fatalf("expected two ligatures starting with f, got %d", u16(set, 0))
	}
	first := set[u16(set, 2):]
	if u16(first, 0) != 16 || u16(first, 2) != 3 {
		t.Errorf("expected f_f_i to be tried first, got glyph %d with %d components", u16(first, 0), u16(first, 2))
	}
}

func TestMultipleAndAlternateSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gsub := build(t, `feature ccmp { sub f_i by f i; sub acute by NULL; } ccmp;
feature aalt { sub a from [a.alt A]; } aalt;`)[ot.TagGSUB]
	lookups := decodeLookups(gsub)
	if types := lookupTypes(lookups); !reflect.DeepEqual(types, []int{2, 3}) {
		t.Fatalf("expected lookup types [2 3], got %v", types)
	}
	sub := lookups[0].subtables[0]
	if cov := coverageGlyphs(sub[u16(sub, 2):]); !reflect.DeepEqual(cov, []int{7, 10}) {
		t.Errorf("unexpected coverage %v", cov)
	}
	seq := sub[u16(sub, 6):]
	if u16(seq, 0) != 2 || u16(seq, 2) != 5 || u16(seq, 4) != 6 {
		t.Errorf("expected f_i to decompose into f i")
	}
	if del := sub[u16(sub, 8):]; u16(del, 0) != 0 {
		t.Errorf("expected empty sequence for deleted glyph")
	}
	alt := lookups[1].subtables[0]
	set := alt[u16(alt, 6):]
	if u16(set, 0) != 2 || u16(set, 2) != 8 || u16(set, 4) != 12 {
		t.Errorf("expected alternates in order of definition")
	}
	// features are sorted by tag
	if f := decodeFeatures(gsub); !reflect.DeepEqual(f, []string{"aalt:1", "ccmp:0"}) {
		t.Errorf("unexpected features %v", f)
	}
}

func TestNamedLookups(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gsub := build(t, `lookup ALT {
  sub a by a.alt;
} ALT;
feature salt { lookup ALT; } salt;
feature ss01 { lookup ALT; sub b by b.alt; } ss01;`)[ot.TagGSUB]
	if n := len(decodeLookups(gsub)); n != 2 {
		t.Errorf("expected 2 lookups, got %d", n)
	}
	if f := decodeFeatures(gsub); !reflect.DeepEqual(f, []string{"salt:0", "ss01:0,1"}) {
		t.Errorf("unexpected features %v", f)
	}
}

func TestLanguageInheritsDefault(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gsub := build(t, `languagesystem DFLT dflt;
languagesystem latn dflt;
feature liga {
  sub f i by f_i;
  script latn;
  language TRK;
  sub a by a.alt;
  language DEU exclude_dflt;
  sub b by b.alt;
  language NLD required;
  sub c by c.alt;
} liga;`)[ot.TagGSUB]
	if types := lookupTypes(decodeLookups(gsub)); !reflect.DeepEqual(types, []int{4, 1, 1, 1}) {
		t.Fatalf("unexpected lookup types %v", types)
	}
	features := decodeFeatures(gsub)
	expected := []string{"liga:0", "liga:0,1", "liga:2", "liga:0,3"}
	if !reflect.DeepEqual(features, expected) {
		t.Errorf("expected features %v, got %v", expected, features)
	}
	scripts := decodeScripts(gsub)
	expectedScripts := map[string]string{
		"DFLT/dflt": "0",
		"latn/dflt": "0",
		"latn/TRK":  "1",
		"latn/DEU":  "2",
		"latn/NLD":  "r3",
	}
	if !reflect.DeepEqual(scripts, expectedScripts) {
		t.Errorf("expected scripts %v, got %v", expectedScripts, scripts)
	}
}

func TestChainingSubstitution(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gsub := build(t, `lookup SWAP { sub b by b.alt; } SWAP;
feature calt {
  sub a' b by a.alt;
  sub [c d]' lookup SWAP a;
  ignore sub f a';
} calt;`)[ot.TagGSUB]
	lookups := decodeLookups(gsub)
	if types := lookupTypes(lookups); !reflect.DeepEqual(types, []int{1, 6, 1}) {
		t.Fatalf("expected lookup types [1 6 1], got %v", types)
	}
	if f := decodeFeatures(gsub); !reflect.DeepEqual(f, []string{"calt:1"}) {
		t.Errorf("inline lookups must not be registered: %v", f)
	}
	chain := lookups[1]
	if len(chain.subtables) != 3 {
		t.Fatalf("expected one subtable per rule, got %d", len(chain.subtables))
	}
	r := chain.subtables[0]
	if u16(r, 0) != 3 || u16(r, 2) != 0 || u16(r, 4) != 1 || u16(r, 8) != 1 || u16(r, 12) != 1 {
		t.Errorf("unexpected layout of first chaining rule % x", r[:14])
	}
	if u16(r, 14) != 0 || u16(r, 16) != 2 {
		t.Errorf("expected first rule to call inline lookup 2, got %d", u16(r, 16))
	}
	r = chain.subtables[1]
	if cov := coverageGlyphs(r[u16(r, 6):]); !reflect.DeepEqual(cov, []int{3, 4}) {
		t.Errorf("unexpected input coverage %v", cov)
	}
	if u16(r, 16) != 0 {
		t.Errorf("expected second rule to call lookup SWAP")
	}
	r = chain.subtables[2]
	if u16(r, 2) != 1 || u16(r, 6) != 1 || u16(r, 10) != 0 || u16(r, 12) != 0 {
		t.Errorf("unexpected layout of ignore rule % x", r[:14])
	}
	if cov := coverageGlyphs(r[u16(r, 4):]); !reflect.DeepEqual(cov, []int{5}) {
		t.Errorf("expected backtrack f, got %v", cov)
	}
}

func TestExtensionLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gsub := build(t, `lookup BIG useExtension { sub a by b; } BIG;
feature test { lookup BIG; } test;`)[ot.TagGSUB]
	lookups := decodeLookups(gsub)
	if len(lookups) != 1 || lookups[0].typ != gsubExtension {
		t.Fatalf("expected an extension lookup, got %+v", lookups)
	}
	ext := lookups[0].subtables[0]
	if u16(ext, 0) != 1 || u16(ext, 2) != gsubSingle {
		t.Errorf("unexpected extension subtable % x", ext[:8])
	}
	sub := ext[u32(ext, 4):]
	if u16(sub, 0) != 1 || u16(sub, 4) != 1 {
		t.Errorf("expected single substitution with delta 1, got % x", sub[:6])
	}
}

func TestExtensionOnOverflow(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	glyphs := make([]string, 8000)
	for i := range glyphs {
		glyphs[i] = fmt.Sprintf("g%04d", i)
	}
	var from, to []string
	for i := 0; i < 2000; i++ {
		from = append(from, glyphs[2*i])
		to = append(to, glyphs[7999-2*i])
	}
	var src strings.Builder
	src.WriteString("feature test {\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&src, "  lookup L%d { sub [%s] by [%s]; } L%d;\n", i,
			strings.Join(from, " "), strings.Join(to, " "), i)
	}
	src.WriteString("} test;\n")
	f, err := Parse(src.String(), "big.fea")
	if err != nil {
		t.Fatal(err)
	}
	tables, err := Build(f, glyphs)
	if err != nil {
		t.Fatal(err)
	}
	lookups := decodeLookups(tables[ot.TagGSUB])
	if len(lookups) != 10 {
		t.Fatalf("expected 10 lookups, got %d", len(lookups))
	}
	for i, l := range lookups {
		if l.typ != gsubExtension {
			t.Errorf("expected lookup %d to be promoted to an extension lookup, has type %d", i, l.typ)
		}
	}
	ext := lookups[9].subtables[0]
	sub := ext[u32(ext, 4):]
	if u16(sub, 0) != 2 || u16(sub, 4) != 2000 || u16(sub, 6) != 7999 {
		t.Errorf("unexpected subtable behind extension: format %d, count %d", u16(sub, 0), u16(sub, 4))
	}
}

// --- Positioning -----------------------------------------------------------

func TestScriptResetsLookupFlag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gpos := build(t, `languagesystem DFLT dflt;
languagesystem latn dflt;
feature kern {
  lookupflag IgnoreMarks;
  pos A V -80;
  script latn;
  pos A V -40;
} kern;`)[ot.TagGPOS]
	lookups := decodeLookups(gpos)
	if len(lookups) != 2 || lookups[0].flags != FlagIgnoreMarks || lookups[1].flags != 0 {
		t.Fatalf("expected flags [8 0], got %+v", lookups)
	}
	if f := decodeFeatures(gpos); !reflect.DeepEqual(f, []string{"kern:0", "kern:0,1"}) {
		t.Errorf("unexpected features %v", f)
	}
	expected := map[string]string{"DFLT/dflt": "0", "latn/dflt": "1"}
	if s := decodeScripts(gpos); !reflect.DeepEqual(s, expected) {
		t.Errorf("expected scripts %v, got %v", expected, s)
	}
}

func TestPairPositioning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gpos := build(t, `feature kern {
  pos A V -80;
  pos [A a] [V b] -30;
  enum pos [c d] V -10;
} kern;`)[ot.TagGPOS]
	lookups := decodeLookups(gpos)
	if len(lookups) != 1 || lookups[0].typ != gposPair || len(lookups[0].subtables) != 2 {
		t.Fatalf("expected one pair lookup with two subtables, got %+v", lookups)
	}
	glyphs := lookups[0].subtables[0]
	if u16(glyphs, 0) != 1 || u16(glyphs, 4) != valueXAdvance || u16(glyphs, 6) != 0 {
		t.Fatalf("unexpected header of glyph pairs % x", glyphs[:10])
	}
	if cov := coverageGlyphs(glyphs[u16(glyphs, 2):]); !reflect.DeepEqual(cov, []int{3, 4, 12}) {
		t.Errorf("unexpected first glyphs %v", cov)
	}
	set := glyphs[u16(glyphs, 10):]
	if u16(set, 0) != 1 || u16(set, 2) != 13 || i16(set, 4) != -10 {
		t.Errorf("unexpected pair set for c % x", set[:6])
	}
	classes := lookups[0].subtables[1]
	if u16(classes, 0) != 2 || u16(classes, 12) != 2 || u16(classes, 14) != 2 {
		t.Fatalf("unexpected header of class pairs % x", classes[:16])
	}
	if c := classDefGlyphs(classes[u16(classes, 8):]); !reflect.DeepEqual(c, map[int]int{1: 1, 12: 1}) {
		t.Errorf("unexpected first classes %v", c)
	}
	if i16(classes, 22) != -30 || i16(classes, 16) != 0 {
		t.Errorf("expected -30 for class pair 1/1 only")
	}
}

func TestChainingPositioning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gpos := build(t, "feature kern { pos a' 20 b' c; } kern;")[ot.TagGPOS]
	lookups := decodeLookups(gpos)
	if types := lookupTypes(lookups); !reflect.DeepEqual(types, []int{8, 1}) {
		t.Fatalf("expected lookup types [8 1], got %v", types)
	}
	r := lookups[0].subtables[0]
	if u16(r, 4) != 2 || u16(r, 10) != 1 || u16(r, 14) != 1 || u16(r, 16) != 0 || u16(r, 18) != 1 {
		t.Errorf("unexpected chaining rule % x", r[:20])
	}
	single := lookups[1].subtables[0]
	if u16(single, 0) != 1 || u16(single, 4) != valueXAdvance || i16(single, 6) != 20 {
		t.Errorf("unexpected single positioning % x", single[:8])
	}
}

func TestCursiveAttachment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	gpos := build(t, "feature curs { pos cursive a <anchor 100 0> <anchor NULL>; } curs;")[ot.TagGPOS]
	lookups := decodeLookups(gpos)
	if len(lookups) != 1 || lookups[0].typ != gposCursive {
		t.Fatalf("expected a cursive lookup, got %+v", lookups)
	}
	sub := lookups[0].subtables[0]
	if u16(sub, 4) != 1 || u16(sub, 6) == 0 || u16(sub, 8) != 0 {
		t.Fatalf("unexpected entry/exit record % x", sub[:10])
	}
	entry := sub[u16(sub, 6):]
	if u16(entry, 0) != 1 || i16(entry, 2) != 100 {
		t.Errorf("unexpected entry anchor % x", entry[:6])
	}
}

func TestMarkAttachmentInfersGlyphClasses(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	tables := build(t, `markClass [acute grave] <anchor 0 600> @TOP;
feature mark {
  pos base [a b] <anchor 250 650> mark @TOP;
} mark;
feature mkmk {
  pos mark acute <anchor 0 900> mark @TOP;
} mkmk;`)
	lookups := decodeLookups(tables[ot.TagGPOS])
	if types := lookupTypes(lookups); !reflect.DeepEqual(types, []int{4, 6}) {
		t.Fatalf("expected lookup types [4 6], got %v", types)
	}
	sub := lookups[0].subtables[0]
	if cov := coverageGlyphs(sub[u16(sub, 2):]); !reflect.DeepEqual(cov, []int{10, 11}) {
		t.Errorf("unexpected mark coverage %v", cov)
	}
	if cov := coverageGlyphs(sub[u16(sub, 4):]); !reflect.DeepEqual(cov, []int{1, 2}) {
		t.Errorf("unexpected base coverage %v", cov)
	}
	if u16(sub, 6) != 1 {
		t.Errorf("expected one mark class, got %d", u16(sub, 6))
	}
	marks := sub[u16(sub, 8):]
	if a := marks[u16(marks, 4):]; i16(a, 4) != 600 {
		t.Errorf("unexpected mark anchor % x", a[:6])
	}
	bases := sub[u16(sub, 10):]
	if a := bases[u16(bases, 4):]; u16(a, 0) != 1 || i16(a, 2) != 250 || i16(a, 4) != 650 {
		t.Errorf("unexpected base anchor % x", a[:6])
	}
	gdef := tables[ot.TagGDEF]
	if u32(gdef, 0) != 0x00010000 {
		t.Errorf("expected GDEF version 1.0, got %x", u32(gdef, 0))
	}
	classes := classDefGlyphs(gdef[u16(gdef, 4):])
	expected := map[int]int{1: classBase, 2: classBase, 10: classMark, 11: classMark}
	if !reflect.DeepEqual(classes, expected) {
		t.Errorf("expected glyph classes %v, got %v", expected, classes)
	}
}

func TestLigatureAttachment(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	tables := build(t, `markClass acute <anchor 0 0> @TOP;
feature mark {
  pos ligature f_i <anchor 100 700> mark @TOP ligComponent <anchor 400 700> mark @TOP;
} mark;`)
	lookups := decodeLookups(tables[ot.TagGPOS])
	if len(lookups) != 1 || lookups[0].typ != gposMarkLig {
		t.Fatalf("expected a mark-to-ligature lookup, got %+v", lookups)
	}
	sub := lookups[0].subtables[0]
	ligs := sub[u16(sub, 10):]
	attach := ligs[u16(ligs, 2):]
	if u16(attach, 0) != 2 {
		t.Fatalf("expected 2 components, got %d", u16(attach, 0))
	}
	if a := attach[u16(attach, 4):]; i16(a, 2) != 400 {
		t.Errorf("unexpected anchor of second component % x", a[:6])
	}
	classes := classDefGlyphs(tables[ot.TagGDEF][u16(tables[ot.TagGDEF], 4):])
	if !reflect.DeepEqual(classes, map[int]int{7: classLigature, 10: classMark}) {
		t.Errorf("unexpected glyph classes %v", classes)
	}
}

func TestExplicitGlyphClasses(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	tables := build(t, `@BASE = [a b];
table GDEF { GlyphClassDef @BASE, [f_i], [acute], ; } GDEF;
markClass grave <anchor 0 0> @TOP;
feature mark { pos base c <anchor 1 1> mark @TOP; } mark;`)
	gdef := tables[ot.TagGDEF]
	classes := classDefGlyphs(gdef[u16(gdef, 4):])
	expected := map[int]int{1: classBase, 2: classBase, 7: classLigature, 10: classMark}
	if !reflect.DeepEqual(classes, expected) {
		t.Errorf("expected glyph classes %v, got %v", expected, classes)
	}
}

func TestMarkFilteringSets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	tables := build(t, `feature mark {
  lookupflag UseMarkFilteringSet [acute];
  pos a 10;
  lookupflag MarkAttachmentType [grave];
  pos b 20;
} mark;`)
	lookups := decodeLookups(tables[ot.TagGPOS])
	if len(lookups) != 2 {
		t.Fatalf("expected 2 lookups, got %d", len(lookups))
	}
	if lookups[0].flags != FlagUseMarkFilteringSet || lookups[0].markSet != 0 {
		t.Errorf("unexpected flags of first lookup %+v", lookups[0])
	}
	if lookups[1].flags != 1<<8 {
		t.Errorf("expected mark attachment class 1, got flags %x", lookups[1].flags)
	}
	gdef := tables[ot.TagGDEF]
	if u32(gdef, 0) != 0x00010002 || u16(gdef, 4) != 0 {
		t.Fatalf("unexpected GDEF header % x", gdef[:14])
	}
	if c := classDefGlyphs(gdef[u16(gdef, 10):]); !reflect.DeepEqual(c, map[int]int{11: 1}) {
		t.Errorf("unexpected mark attachment classes %v", c)
	}
	sets := gdef[u16(gdef, 12):]
	if u16(sets, 0) != 1 || u16(sets, 2) != 1 {
		t.Fatalf("unexpected mark glyph sets % x", sets[:8])
	}
	if cov := coverageGlyphs(sets[u32(sets, 4):]); !reflect.DeepEqual(cov, []int{10}) {
		t.Errorf("unexpected mark filtering set %v", cov)
	}
}

// --- Glyph resolution and errors -------------------------------------------

func TestGlyphRanges(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	for _, x := range []struct {
		first, last string
		names       []string
	}{
		{"a", "d", []string{"a", "b", "c", "d"}},
		{"a.sc", "c.sc", []string{"a.sc", "b.sc", "c.sc"}},
		{"uni0030.x", "uni0032.x", []string{"uni0030.x", "uni0031.x", "uni0032.x"}},
		{"f08", "f11", []string{"f08", "f09", "f10", "f11"}},
	} {
		names, err := expandRange(x.first, x.last)
		if err != nil {
			t.Errorf("range %s-%s: %v", x.first, x.last, err)
			continue
		}
		if !reflect.DeepEqual(names, x.names) {
			t.Errorf("range %s-%s: expected %v, got %v", x.first, x.last, x.names, names)
		}
	}
	for _, bad := range [][2]string{{"a", "B"}, {"d", "a"}, {"ab", "cd"}, {"f1", "f10"}} {
		if _, err := expandRange(bad[0], bad[1]); err == nil {
			t.Errorf("expected error for range %s-%s", bad[0], bad[1])
		}
	}
	gsub := build(t, "@r = [a-d]; feature smcp { sub @r by A; } smcp;")[ot.TagGSUB]
	sub := decodeLookups(gsub)[0].subtables[0]
	if cov := coverageGlyphs(sub[u16(sub, 2):]); !reflect.DeepEqual(cov, []int{1, 2, 3, 4}) {
		t.Errorf("expected a-d to resolve as range, got %v", cov)
	}
}

func TestBuildErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	err := buildError(t, "feature liga {\n  sub x by a;\n} liga;")
	var e *Error
	if !errors.As(err, &e) || e.Line != 2 {
		t.Errorf("expected positioned error in line 2, got %v", err)
	}
	for _, src := range []string{
		"lookup L { sub a by b; sub f i by f_i; } L;",
		"feature test { sub a by b; sub a by c; } test;",
		"feature test { lookup NOPE; } test;",
		"feature mark { pos base a <anchor 0 0> mark @NOPE; } mark;",
		"markClass acute <anchor 0 0> @M; feature mark { pos base a <anchor 0 0> mark @M; } mark; markClass grave <anchor 0 0> @M;",
		"feature test { sub [a b c] by [a.alt b.alt]; } test;",
		"feature kern { pos a 10; pos a 20; } kern;",
		"lookup P { pos a 10; } P; feature calt { sub a' lookup P b; } calt;",
	} {
		buildError(t, src)
	}
	if err := buildError(t, "feature smcp { sub \\101 by a; } smcp;"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected CIDs to be unsupported, got %v", err)
	}
}
