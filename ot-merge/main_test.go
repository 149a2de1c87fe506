package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npillmayer/fontmerge/internal/sfdtest"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge")
	defer teardown()
	//
	opts, level, err := parseArgs([]string{
		"--out-file", "out.otf", "Arabic.sfd",
		"--feature-file=Arabic.fea", "Latin.sfd",
		"--version", "3.1", "--trace", "Debug",
	}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "Arabic.sfd", opts.ArabicFile)
	assert.Equal(t, "Latin.sfd", opts.LatinFile)
	assert.Equal(t, "out.otf", opts.OutFile)
	assert.Equal(t, "Arabic.fea", opts.FeatureFile)
	assert.Equal(t, "3.1", opts.Version)
	assert.Empty(t, opts.DumpFeatures)
	assert.Equal(t, tracing.LevelDebug, level)
	//
	_, level, err = parseArgs([]string{"a.sfd", "b.sfd", "--out-file", "o.otf",
		"--feature-file", "a.fea", "--version", "1", "--dump-features", "all.fea"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, tracing.LevelError, level, "default trace level")
}

func TestParseArgsErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge")
	defer teardown()
	//
	full := []string{"--out-file", "o.otf", "--feature-file", "a.fea", "--version", "1"}
	for _, args := range [][]string{
		append([]string{"a.sfd"}, full...),
		append([]string{"a.sfd", "b.sfd", "c.sfd"}, full...),
		{"a.sfd", "b.sfd", "--out-file", "o.otf", "--version", "1"},
		{"a.sfd", "b.sfd", "--feature-file", "a.fea", "--version", "1"},
		{"a.sfd", "b.sfd", "--out-file", "o.otf", "--feature-file", "a.fea"},
		append([]string{"a.sfd", "b.sfd", "--trace", "Verbose"}, full...),
	} {
		_, _, err := parseArgs(args, io.Discard)
		assert.True(t, errors.Is(err, errUsage), "expected usage error for %v, got %v", args, err)
	}
	_, _, err := parseArgs([]string{"--no-such-flag", "a.sfd", "b.sfd"}, io.Discard)
	assert.Error(t, err)
}

func TestParseArgsTerminator(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge")
	defer teardown()
	//
	full := []string{"--out-file", "o.otf", "--feature-file", "a.fea", "--version", "1"}
	opts, _, err := parseArgs(append(full, "--", "a.sfd", "-b.sfd"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "a.sfd", opts.ArabicFile)
	assert.Equal(t, "-b.sfd", opts.LatinFile, "arguments after -- are not flags")
	//
	opts, _, err = parseArgs(append(full, "a.sfd", "--", "-b.sfd"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "-b.sfd", opts.LatinFile)
	//
	opts, _, err = parseArgs([]string{"a.sfd", "b.sfd", "--out-file", "o.otf",
		"--feature-file", "a.fea", "--version", "--"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "--", opts.Version, "-- as a flag value")
	assert.Equal(t, "b.sfd", opts.LatinFile)
}

func TestRequiredFlagsInOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge")
	defer teardown()
	//
	for i := 0; i < 10; i++ {
		_, _, err := parseArgs([]string{"a.sfd", "b.sfd"}, io.Discard)
		require.Error(t, err)
		assert.True(t, strings.HasSuffix(err.Error(), "flag --out-file is required"), "have %v", err)
	}
	_, _, err := parseArgs([]string{"a.sfd", "b.sfd", "--out-file", "o.otf"}, io.Discard)
	require.Error(t, err)
	assert.True(t, strings.HasSuffix(err.Error(), "flag --feature-file is required"), "have %v", err)
}

func TestRunExitCodes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge")
	defer teardown()
	//
	dir := t.TempDir()
	arabic, latin, fea := sfdtest.Write(t, dir)
	out := filepath.Join(dir, "Merged.otf")
	assert.Equal(t, exitUsage, run([]string{arabic, "--out-file", out}, io.Discard))
	//
	flags := []string{"--out-file", out, "--feature-file", fea, "--version", "1.0"}
	missing := filepath.Join(dir, "missing.sfd")
	assert.Equal(t, exitBuild, run(append([]string{arabic, missing}, flags...), io.Discard))
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "no font for a failed build")
	//
	assert.Equal(t, 0, run(append([]string{arabic, latin}, flags...), io.Discard))
	_, err = os.Stat(out)
	assert.NoError(t, err, "expected font to be written")
}
