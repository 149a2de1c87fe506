package fea

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/npillmayer/fontmerge/fontgen"
	"github.com/npillmayer/fontmerge/internal/sfdtest"
	"github.com/npillmayer/fontmerge/ot"
	"github.com/npillmayer/fontmerge/otquery"
	"github.com/npillmayer/fontmerge/sfd"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/math/fixed"
)

// --- Test Suite Preparation ------------------------------------------------

type CompileTestEnviron struct {
	suite.Suite
	otf *ot.Font
}

func TestCompileFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	suite.Run(t, new(CompileTestEnviron))
}

func (env *CompileTestEnviron) SetupTest() {
	tracing.Select("fontmerge.sfd").SetTraceLevel(tracing.LevelError)
	tracing.Select("fontmerge.gen").SetTraceLevel(tracing.LevelError)
	arabic, err := sfd.Parse(strings.NewReader(sfdtest.Arabic))
	env.Require().NoError(err, "cannot parse Arabic fixture")
	data, err := fontgen.Encode(arabic, fontgen.DefaultFlags)
	env.Require().NoError(err, "cannot encode Arabic fixture")
	env.otf, err = ot.Parse(data)
	env.Require().NoError(err)
}

// shape compiles features into the fixture font and shapes text with
// go-text at a size of one unit per em unit.
func (env *CompileTestEnviron) shape(features, text string) []shaping.Glyph {
	env.Require().NoError(Compile(env.otf, features, "fixture.fea"))
	data, err := env.otf.Bytes()
	env.Require().NoError(err)
	face, err := font.ParseTTF(bytes.NewReader(data))
	env.Require().NoError(err, "go-text cannot load compiled font")
	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      face,
		Size:      fixed.I(int(face.Upem())),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	}
	return (&shaping.HarfbuzzShaper{}).Shape(input).Glyphs
}

// --- Tests -----------------------------------------------------------------

func (env *CompileTestEnviron) TestCompileStoresTables() {
	err := Compile(env.otf, sfdtest.Features, "fixture.fea")
	env.Require().NoError(err)
	env.Equal([]string{"GSUB"}, otquery.LayoutTables(env.otf))
	data, err := env.otf.Bytes()
	env.Require().NoError(err)
	reparsed, err := ot.Parse(data)
	env.Require().NoError(err)
	env.Empty(reparsed.Warnings(), "expected valid checksums after compiling")
	env.True(reparsed.HasTable(ot.TagGSUB))
}

func (env *CompileTestEnviron) TestLigatureAndKerning() {
	glyphs := env.shape(`languagesystem DFLT dflt;
feature liga { sub colon comma by question; } liga;
feature kern { pos semicolon question -100; } kern;
`, ":,;?")
	env.Require().Len(glyphs, 3)
	var gids []font.GID
	var advances []fixed.Int26_6
	for _, g := range glyphs {
		gids = append(gids, g.GlyphID)
		advances = append(advances, g.Advance)
	}
	env.Equal([]font.GID{5, 4, 5}, gids)
	env.Equal([]fixed.Int26_6{fixed.I(500), fixed.I(200), fixed.I(500)}, advances)
}

func (env *CompileTestEnviron) TestDecompositionAndMarkAttachment() {
	glyphs := env.shape(`languagesystem DFLT dflt;
markClass fatha <anchor 0 0> @TOP;
feature ccmp { sub question by uni0628 fatha; } ccmp;
feature mark { pos base uni0628 <anchor 300 700> mark @TOP; } mark;
`, "?")
	env.Require().Len(glyphs, 2)
	env.Equal(font.GID(6), glyphs[0].GlyphID)
	env.Equal(font.GID(10), glyphs[1].GlyphID)
	env.Equal(fixed.I(0), glyphs[1].Advance, "marks do not advance")
	env.Equal(fixed.I(300-600), glyphs[1].XOffset, "mark is attached to the base anchor")
	env.NotEqual(fixed.I(0), glyphs[1].YOffset)
}

func (env *CompileTestEnviron) TestCompileErrors() {
	err := Compile(env.otf, "feature liga { sub nosuchglyph by colon; } liga;", "broken.fea")
	var e *Error
	env.Require().True(errors.As(err, &e), "expected *Error, got %v", err)
	env.Equal("broken.fea", e.File)
	env.Equal(1, e.Line)
	env.Empty(otquery.LayoutTables(env.otf), "failed compile must not store tables")
	err = Compile(env.otf, "feature rlig { rsub a' b by c; } rlig;", "broken.fea")
	env.True(errors.Is(err, ErrUnsupported))
}
