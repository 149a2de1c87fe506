package fea

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestLexTokens(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	src := "sub a-z by @lc; # comment\npos \\sub -80 [a - d]' <1 2 3 4>;\n\\1234 \"str\" 0.5"
	toks, err := lex(src, "test.fea")
	if err != nil {
		t.Fatal(err)
	}
	expected := []struct {
		kind tokKind
		text string
	}{
		{tokName, "sub"}, {tokName, "a-z"}, {tokName, "by"}, {tokClass, "lc"}, {tokSymbol, ";"},
		{tokName, "pos"}, {tokName, "sub"}, {tokNumber, "-80"},
		{tokSymbol, "["}, {tokName, "a"}, {tokSymbol, "-"}, {tokName, "d"}, {tokSymbol, "]"}, {tokSymbol, "'"},
		{tokSymbol, "<"}, {tokNumber, "1"}, {tokNumber, "2"}, {tokNumber, "3"}, {tokNumber, "4"}, {tokSymbol, ">"},
		{tokSymbol, ";"},
		{tokCID, "1234"}, {tokString, "str"}, {tokFloat, "0.5"},
		{tokEOF, ""},
	}
	if len(toks) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(toks), toks)
	}
	for i, x := range expected {
		if toks[i].kind != x.kind || toks[i].text != x.text {
			t.Errorf("token %d: expected %d %q, got %d %q", i, x.kind, x.text, toks[i].kind, toks[i].text)
		}
	}
	if toks[6].is("sub") {
		t.Errorf("escaped name must not match keyword")
	}
	if !toks[6].escaped {
		t.Errorf("expected token 6 to be escaped")
	}
	if p := toks[5].pos; p.Line != 2 || p.Column != 1 {
		t.Errorf("expected 'pos' at 2:1, got %s", p)
	}
}

func TestLexInclude(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	toks, err := lex("include( ../common/marks.fea );", "x.fea")
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 4 || toks[1].kind != tokPath || toks[1].text != "../common/marks.fea" {
		t.Errorf("unexpected tokens for include: %v", toks)
	}
	if _, err = lex("include(a.fea", "x.fea"); err == nil {
		t.Errorf("expected error for unterminated include path")
	}
}

func TestLexErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	for _, src := range []string{"\"open", "@ ;", "a $ b", "\\ x"} {
		_, err := lex(src, "bad.fea")
		if err == nil {
			t.Errorf("expected error for %q", src)
			continue
		}
		e, ok := err.(*Error)
		if !ok || e.File != "bad.fea" || e.Line != 1 {
			t.Errorf("expected positioned error for %q, got %v", src, err)
		}
	}
}
