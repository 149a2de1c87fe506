package postproc

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/fontmerge/fea"
	"github.com/npillmayer/fontmerge/fontgen"
	"github.com/npillmayer/fontmerge/internal/sfdtest"
	"github.com/npillmayer/fontmerge/ot"
	"github.com/npillmayer/fontmerge/otquery"
	"github.com/npillmayer/fontmerge/sfd"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type PostprocTestEnviron struct {
	suite.Suite
	dir     string
	outFile string
}

func TestPostprocFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge")
	defer teardown()
	suite.Run(t, new(PostprocTestEnviron))
}

func (env *PostprocTestEnviron) SetupTest() {
	tracing.Select("fontmerge.sfd").SetTraceLevel(tracing.LevelError)
	tracing.Select("fontmerge.gen").SetTraceLevel(tracing.LevelError)
	env.dir = env.T().TempDir()
	env.outFile = filepath.Join(env.dir, "Fixture.otf")
	arabic, err := sfd.Parse(strings.NewReader(sfdtest.Arabic))
	env.Require().NoError(err)
	env.Require().NoError(fontgen.Generate(arabic, env.outFile, fontgen.DefaultFlags))
}

// --- Tests -----------------------------------------------------------------

func (env *PostprocTestEnviron) TestProcess() {
	err := Process(env.outFile, sfdtest.Features, filepath.Join(env.dir, "Arabic.fea"))
	env.Require().NoError(err)
	otf, err := ot.Open(env.outFile)
	env.Require().NoError(err)
	w, ok := otquery.WeightClass(otf)
	env.True(ok)
	env.Equal(250, w, "thin weight is raised")
	env.Equal([]string{"GSUB"}, otquery.LayoutTables(otf))
	env.Empty(otf.Warnings())
}

func (env *PostprocTestEnviron) TestProcessTwice() {
	feaFile := filepath.Join(env.dir, "Arabic.fea")
	env.Require().NoError(Process(env.outFile, sfdtest.Features, feaFile))
	err := Process(env.outFile, sfdtest.Features, feaFile)
	env.True(errors.Is(err, ErrLayoutTablesPresent), "expected ErrLayoutTablesPresent, got %v", err)
	_, err = os.Stat(env.outFile)
	env.NoError(err, "font must survive a rejected second run")
}

func (env *PostprocTestEnviron) TestFailureRemovesOutput() {
	tmp := env.T().TempDir()
	env.T().Setenv("TMPDIR", tmp)
	var msg bytes.Buffer
	pterm.SetDefaultOutput(&msg)
	defer pterm.SetDefaultOutput(os.Stdout)
	broken := "feature liga {\n  sub nosuchglyph by colon;\n} liga;\n"
	err := Process(env.outFile, broken, filepath.Join(env.dir, "Arabic.fea"))
	var e *fea.Error
	env.Require().True(errors.As(err, &e), "expected compile error, got %v", err)
	env.Equal(2, e.Line)
	_, err = os.Stat(env.outFile)
	env.True(os.IsNotExist(err), "output font must be removed")
	dumps, err := filepath.Glob(filepath.Join(tmp, "fontmerge-*.fea"))
	env.Require().NoError(err)
	env.Require().Len(dumps, 1, "expected one feature dump")
	text, err := os.ReadFile(dumps[0])
	env.Require().NoError(err)
	env.Equal(broken, string(text))
	env.Contains(msg.String(), "Failed to apply features, saved to "+dumps[0])
}

func (env *PostprocTestEnviron) TestMissingFont() {
	err := Process(filepath.Join(env.dir, "missing.otf"), sfdtest.Features, "Arabic.fea")
	env.True(errors.Is(err, ot.ErrNoSuchFile), "expected ErrNoSuchFile, got %v", err)
}
