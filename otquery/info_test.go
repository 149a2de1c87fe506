package otquery_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/fontmerge/fontgen"
	"github.com/npillmayer/fontmerge/internal/sfdtest"
	"github.com/npillmayer/fontmerge/ot"
	"github.com/npillmayer/fontmerge/otquery"
	"github.com/npillmayer/fontmerge/sfd"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/sfnt"
)

// --- Test Suite Preparation ------------------------------------------------

type InfoTestEnviron struct {
	suite.Suite
	otf *ot.Font
}

// listen for 'go test' command --> run test methods
func TestInfoFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.ot")
	defer teardown()
	suite.Run(t, new(InfoTestEnviron))
}

// run before each test, tests may patch the font
func (env *InfoTestEnviron) SetupTest() {
	tracing.Select("fontmerge.ot").SetTraceLevel(tracing.LevelError)
	src, err := sfd.Parse(strings.NewReader(sfdtest.Latin))
	env.Require().NoError(err)
	data, err := fontgen.Encode(src, fontgen.DefaultFlags)
	env.Require().NoError(err)
	env.otf, err = ot.Parse(data)
	env.Require().NoError(err)
	tracing.Select("fontmerge.ot").SetTraceLevel(tracing.LevelInfo)
}

// --- Tests -----------------------------------------------------------------

func (env *InfoTestEnviron) TestGeneralInfo() {
	info := otquery.NameInfo(env.otf)
	env.T().Logf("info = %v", info)
	fam, ok := info[sfnt.NameIDFamily]
	env.Require().True(ok, "font family identifier not found in font info")
	env.Equal("Fixture Latin", fam, "expected font family name 'Fixture Latin'")
	env.Equal("Copyright © Latin Fixture", info[sfnt.NameIDCopyright], "expected explicit name entry to win")
}

func (env *InfoTestEnviron) TestHeadInfo() {
	h, ok := otquery.HeadInfo(env.otf)
	env.Require().True(ok, "expected to decode table 'head'")
	env.Equal(uint16(2000), h.UnitsPerEm, "expected matching UnitsPerEm")
	env.Equal(uint32(0x5F0F3CF5), h.MagicNumber, "expected OpenType head magic number")
	env.Equal(uint32(0x00020000), h.FontRevision, "expected revision 2.0")
	env.NotZero(h.CheckSumAdjustment)
	env.Equal(h.Created, h.Modified)
}

func (env *InfoTestEnviron) TestMaxPInfo() {
	m, ok := otquery.MaxPInfo(env.otf)
	env.Require().True(ok, "expected to decode table 'maxp'")
	env.Equal(uint16(11), m.NumGlyphs, "expected matching numGlyphs")
}

func (env *InfoTestEnviron) TestWeightClass() {
	w, ok := otquery.WeightClass(env.otf)
	env.Require().True(ok)
	env.Equal(otquery.WeightRegular, w)
	env.Require().NoError(otquery.SetWeightClass(env.otf, 250))
	w, _ = otquery.WeightClass(env.otf)
	env.Equal(250, w)
	env.Error(otquery.SetWeightClass(env.otf, 0))
}

func (env *InfoTestEnviron) TestGlyphOrder() {
	order, err := otquery.GlyphOrder(env.otf)
	env.Require().NoError(err)
	env.Len(order, 11)
	env.Equal(".notdef", order[0])
	env.Equal("A", order[5])
	env.Equal("a.sc", order[8])
	env.Equal("Q.ss01", order[10])
}

func (env *InfoTestEnviron) TestGlyphOrderNeedsPostNames() {
	post := append([]byte(nil), env.otf.Table(ot.TagPost)[:32]...)
	post[0], post[1] = 0, 3 // version 3.0
	env.otf.SetTable(ot.TagPost, post)
	_, err := otquery.GlyphOrder(env.otf)
	env.True(errors.Is(err, otquery.ErrNoGlyphNames))
}

func (env *InfoTestEnviron) TestLayoutInfo() {
	env.Empty(otquery.LayoutTables(env.otf))
	env.otf.SetTable(ot.TagGSUB, []byte{0, 1, 0, 0})
	env.Equal([]string{"GSUB"}, otquery.LayoutTables(env.otf))
}

func (env *InfoTestEnviron) TestGlyphMetrics() {
	gm, ok := otquery.GlyphMetrics(env.otf, 5) // A
	env.Require().True(ok)
	env.Equal(sfnt.Units(1200), gm.Advance)
	_, ok = otquery.GlyphMetrics(env.otf, 100)
	env.False(ok)
}
