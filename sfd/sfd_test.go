package sfd

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/fontmerge/internal/sfdtest"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type SFDTestEnviron struct {
	suite.Suite
	arabic, latin *Font
}

func TestSFDFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.sfd")
	defer teardown()
	suite.Run(t, new(SFDTestEnviron))
}

// parse fresh fonts for every test, tests modify them
func (env *SFDTestEnviron) SetupTest() {
	tracing.Select("fontmerge.sfd").SetTraceLevel(tracing.LevelError)
	var err error
	env.arabic, err = Parse(strings.NewReader(sfdtest.Arabic))
	env.Require().NoError(err, "cannot parse Arabic fixture")
	env.latin, err = Parse(strings.NewReader(sfdtest.Latin))
	env.Require().NoError(err, "cannot parse Latin fixture")
	tracing.Select("fontmerge.sfd").SetTraceLevel(tracing.LevelInfo)
}

func (env *SFDTestEnviron) glyph(f *Font, name string) *Glyph {
	g, err := f.Glyph(name)
	env.Require().NoError(err)
	return g
}

// --- Tests -----------------------------------------------------------------

func (env *SFDTestEnviron) TestHeader() {
	f := env.arabic
	env.Equal("FixtureArabic-Thin", f.FontName)
	env.Equal(1000, f.Em())
	env.Equal(100, f.OS2.WeightClass)
	env.Equal("PfEd", f.OS2.Vendor)
	env.True(f.OS2.TypoAscent.IsOffset)
	env.Equal(2, f.LayerIndex("Marks"))
	env.Equal(11, f.Len())
	v, ok := f.SFNTName(LangEnglishUS, NameVersion)
	env.True(ok)
	env.Equal("Version 0.1", v)
}

func (env *SFDTestEnviron) TestLangNameUTF7() {
	c, ok := env.latin.SFNTName(LangEnglishUS, NameCopyright)
	env.Require().True(ok, "expected copyright name entry")
	env.Equal("Copyright © Latin Fixture", c)
}

func (env *SFDTestEnviron) TestGlyphAttributes() {
	clone := env.glyph(env.arabic, "uni0628.alt")
	env.Equal(0xff00ff, clone.Color)
	env.Equal(-1, clone.Unicode)
	env.Require().Len(clone.References(), 1)
	env.Equal("uni0628", clone.References()[0].Name)

	dot := env.glyph(env.arabic, "dot")
	env.Equal(ClassMark, dot.Class)
	env.Equal(NoColor, dot.Color)

	beh := env.glyph(env.arabic, "uni0628")
	env.Equal(0x628, beh.Unicode)
	env.Empty(beh.References(), "mark references live in their own layer")
	refs := beh.LayerRefs("Marks")
	env.Require().Len(refs, 2)
	env.Equal("dot", refs[0].Name)
	env.Equal(300.0, refs[0].Matrix[4])
	env.Equal(-200.0, refs[0].Matrix[5])
	env.Equal("fatha", refs[1].Name)
	env.Empty(beh.LayerRefs("NoSuchLayer"))
}

func (env *SFDTestEnviron) TestGlyphOrder() {
	var names []string
	for _, g := range env.arabic.Glyphs() {
		names = append(names, g.Name)
	}
	env.Equal([]string{".notdef", "space", "colon", "comma", "semicolon", "question",
		"uni0628", "uni0628.alt", "uni0628.alt2", "dot", "fatha"}, names)
}

func (env *SFDTestEnviron) TestBoundingBoxCurves() {
	bb := env.glyph(env.arabic, "uni0628").BoundingBox()
	env.InDelta(50, bb.XMin, 1e-9)
	env.InDelta(-100, bb.YMin, 1e-9)
	env.InDelta(550, bb.XMax, 1e-9)
	env.InDelta(100, bb.YMax, 1e-9)
	// clone of clone resolves through two references
	env.Equal(bb, env.glyph(env.arabic, "uni0628.alt2").BoundingBox())

	round := env.glyph(env.latin, "colon.round").BoundingBox()
	env.InDelta(200, round.XMin, 1e-9)
	env.InDelta(-200, round.YMin, 1e-9)
	env.InDelta(200, round.YMax, 1e-9)
}

func (env *SFDTestEnviron) TestLookups() {
	ls := env.latin.Lookups
	env.Require().Len(ls, 2)
	env.Equal(GSUBSingle, ls[0].Type)
	env.Equal("smcp", ls[0].Features[0].Tag)
	env.Equal([]ScriptLangs{{Script: "latn", Langs: []string{"dflt"}}}, ls[0].Features[0].Scripts)
	env.Equal(GPOSPair, ls[1].Type)
	env.True(ls[1].Type.IsGPOS())
	env.Len(ls[1].Features[0].Scripts, 2)
	env.True(ls[1].HasSubtable("'kern' Horizontal Kerning in Latin lookup 0 subtable"))

	a := env.glyph(env.latin, "A")
	env.Require().Len(a.Kerns, 1)
	env.Equal("V", a.Kerns[0].Second)
	env.Equal(-160.0, a.Kerns[0].Offset)
	lower := env.glyph(env.latin, "a")
	env.Require().Len(lower.PSTs, 1)
	env.Equal(PSTSubstitution, lower.PSTs[0].Kind)
	env.Equal([]string{"a.sc"}, lower.PSTs[0].Glyphs)
}

func (env *SFDTestEnviron) TestSetEm() {
	f := env.latin
	f.SetEm(env.arabic.Em())
	env.Equal(1000, f.Em())
	env.Equal(800.0, f.Ascent)
	a := env.glyph(f, "A")
	env.Equal(600.0, a.Width)
	env.Equal(-80.0, a.Kerns[0].Offset)
	bb := env.glyph(f, "comma").BoundingBox()
	env.Equal(Rect{XMin: 50, YMin: -100, XMax: 150, YMax: 100}, bb)
	semi := env.glyph(f, "semicolon")
	env.Equal(400.0, semi.References()[0].Matrix[5], "reference offsets scale too")
	env.Equal(1.0, semi.References()[0].Matrix[0], "reference scaling stays")
}

func (env *SFDTestEnviron) TestRotatedReference() {
	f := env.arabic
	g, err := f.CreateChar(0x060C, "uni060C")
	env.Require().NoError(err)
	env.Equal(1000.0, g.Width, "new glyphs are one em wide")
	env.Require().NoError(g.AddReference("comma", Rotate(math.Pi)))
	bb := g.BoundingBox()
	env.InDelta(-200, bb.XMin, 1e-9)
	env.InDelta(-100, bb.YMin, 1e-9)
	env.InDelta(-80, bb.XMax, 1e-9)
	env.InDelta(100, bb.YMax, 1e-9)

	g.Transform(Translate(0, 100))
	env.InDelta(0, g.BoundingBox().YMin, 1e-9)
	g.SetLeftSideBearing(100)
	env.InDelta(100, g.LeftSideBearing(), 1e-9)
	g.SetRightSideBearing(80)
	env.InDelta(80, g.RightSideBearing(), 1e-9)
	env.InDelta(300, g.Width, 1e-9)

	again, err := f.CreateChar(0x060C, "whatever")
	env.NoError(err)
	env.Same(g, again, "CreateChar returns the glyph already encoded")
	env.ErrorIs(g.AddReference("nosuchglyph", Identity), ErrNoSuchGlyph)
}

func (env *SFDTestEnviron) TestMirroredOutline() {
	f := env.arabic
	g, err := f.CreateChar(0x061F, "uni061F")
	env.Require().NoError(err)
	env.Require().NoError(g.AddReference("question", Scale(-1, 1)))
	out := g.Outline()
	env.Require().Len(out, 1)
	q := env.glyph(f, "question").Outline()[0]
	// a mirrored contour is reversed to keep its orientation
	env.Equal(signedArea(q) > 0, signedArea(out[0]) > 0)
}

func signedArea(c Contour) float64 {
	a := 0.0
	prev := c.Start
	for _, s := range c.Segments {
		a += prev.X*s.End.Y - s.End.X*prev.Y
		prev = s.End
	}
	return a / 2
}

func (env *SFDTestEnviron) TestRenameAndMerge() {
	ar, la := env.arabic, env.latin
	comma := env.glyph(la, "comma")
	env.Require().NoError(la.RenameGlyph(comma, "comma.latin"))
	env.False(la.Has("comma"))
	env.Equal("comma.latin", env.glyph(la, "semicolon").References()[0].Name)
	env.Error(la.RenameGlyph(env.glyph(la, "A"), "V"), "renaming onto an existing name must fail")
	env.Require().NoError(la.RenameGlyph(env.glyph(la, "semicolon"), "semicolon.latin"))

	ar.MergeFonts(la)
	env.True(ar.Has("comma.latin"))
	env.Equal(0x3a, env.glyph(ar, "colon").Unicode)
	env.Equal(-1, env.glyph(ar, "colon.round").Unicode, "duplicate code point is dropped")
	env.Equal(0x41, env.glyph(ar, "A").Unicode)
	env.Len(ar.Lookups, 2)
	// merged glyphs resolve references in their new font
	bb := env.glyph(ar, "semicolon.latin").BoundingBox()
	env.Equal(1000.0, bb.YMax)
}

func (env *SFDTestEnviron) TestFeatureString() {
	fea := env.latin.FeatureString()
	env.T().Logf("features:\n%s", fea)
	env.Contains(fea, "lookup smcp_Lowercase_to_Small_Capitals_lookup_1 {")
	env.Contains(fea, "sub a by a.sc;")
	env.Contains(fea, "pos A V -160;")
	env.Contains(fea, "feature kern {")
	env.Contains(fea, "script DFLT;")
	env.Contains(fea, "script latn;")
	env.NotContains(fea, "languagesystem")
	env.Less(strings.Index(fea, "lookup smcp"), strings.Index(fea, "lookup kern"))
	env.Less(strings.Index(fea, "} kern_Horizontal_Kerning_in_Latin_lookup_0;"), strings.Index(fea, "feature smcp {"))
}

// --- Plain tests -----------------------------------------------------------

func TestParseError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.sfd")
	defer teardown()
	//
	src := "SplineFontDB: 3.0\nAscent: 800\nStartChar: a\nEncoding: 97 97 0\nWidth: wide\nEndChar\n"
	_, err := Parse(strings.NewReader(src))
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Line != 5 {
		t.Errorf("expected error on line 5, got %v", err)
	}
}

func TestUnknownReference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.sfd")
	defer teardown()
	//
	src := "StartChar: a\nEncoding: 97 97 0\nFore\nRefer: 7 -1 N 1 0 0 1 0 0 2\nEndChar\n"
	_, err := Parse(strings.NewReader(src))
	if !errors.Is(err, ErrNoSuchGlyph) {
		t.Errorf("expected unresolved reference to fail with ErrNoSuchGlyph, got %v", err)
	}
}

func TestDirectorySource(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.sfd")
	defer teardown()
	//
	dir := filepath.Join(t.TempDir(), "Test.sfdir")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"font.props": "SplineFontDB: 3.0\nFontName: Test\nAscent: 750\nDescent: 250\n",
		"b.glyph":    "StartChar: b\nEncoding: 98 98 1\nWidth: 400\nFore\nRefer: 0 97 N 1 0 0 1 10 0 2\nEndChar\n",
		"a.glyph":    "StartChar: a\nEncoding: 97 97 0\nWidth: 500\nFore\nSplineSet\n0 0 m 1\n 100 0 l 1\n 100 100 l 1\n 0 0 l 1\nEndSplineSet\nEndChar\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	f, err := Open(dir)
	if err != nil {
		t.Fatalf("cannot open directory source: %v", err)
	}
	if f.FontName != "Test" || f.Em() != 1000 || f.Len() != 2 {
		t.Fatalf("unexpected font header: %s, em %d, %d glyphs", f.FontName, f.Em(), f.Len())
	}
	if f.Glyphs()[0].Name != "a" {
		t.Errorf("expected glyphs in glyph id order, first is %q", f.Glyphs()[0].Name)
	}
	b, _ := f.Glyph("b")
	if bb := b.BoundingBox(); bb.XMin != 10 || bb.XMax != 110 {
		t.Errorf("expected reference to a shifted by 10, bbox is %v", bb)
	}
}

func TestDecodeUTF7(t *testing.T) {
	for in, want := range map[string]string{
		"plain":      "plain",
		"a+-b":       "a+b",
		"+AKk- 2015": "© 2015",
		"+BjkGRA-":   "عل",
	} {
		got, err := decodeUTF7(in)
		if err != nil || got != want {
			t.Errorf("decodeUTF7(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
