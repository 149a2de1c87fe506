package fea

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestParseGeneratedFeatures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	src := `languagesystem DFLT dflt;
languagesystem arab dflt;
markClass [fatha] <anchor 0 500> @TOP;
feature mark {
  position base [uni0628 uni0628.alt] <anchor 300 700> mark @TOP;
} mark;
feature locl {
  script latn;
  lookupflag IgnoreMarks;
  sub colon by colon.latin;
} locl;
`
	f, err := Parse(src, "gen.fea")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Statements) != 5 {
		t.Fatalf("expected 5 top-level statements, got %d", len(f.Statements))
	}
	mc, ok := f.Statements[2].(*MarkClassDefinition)
	if !ok || mc.Class != "TOP" || mc.Anchor.Y != 500 || mc.Glyphs.Items[0].Name != "fatha" {
		t.Errorf("unexpected mark class definition %+v", f.Statements[2])
	}
	mark := f.Statements[3].(*FeatureBlock)
	mp, ok := mark.Statements[0].(*MarkPos)
	if !ok || mp.ToMark || len(mp.Marks) != 1 || mp.Marks[0].Class != "TOP" {
		t.Fatalf("unexpected mark attachment %+v", mark.Statements[0])
	}
	if mp.Marks[0].Anchor.X != 300 || len(mp.Glyphs.Items) != 2 {
		t.Errorf("unexpected anchor or bases in %+v", mp)
	}
	locl := f.Statements[4].(*FeatureBlock)
	if len(locl.Statements) != 3 {
		t.Fatalf("expected 3 statements in locl, got %d", len(locl.Statements))
	}
	if lf := locl.Statements[1].(*LookupFlagStatement); lf.Flags != FlagIgnoreMarks {
		t.Errorf("expected IgnoreMarks, got %d", lf.Flags)
	}
	sub := locl.Statements[2].(*SubstStatement)
	if !sub.HasBy || len(sub.Contexts[0].Input) != 1 || sub.Replacement[0].Items[0].Name != "colon.latin" {
		t.Errorf("unexpected substitution %+v", sub)
	}
	if p := sub.Position(); p.Line != 10 || p.Column != 3 {
		t.Errorf("expected substitution at 10:3, got %s", p)
	}
}

func TestParseContexts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	src := `feature calt {
  sub [a b] c' lookup L1 lookup L2 d' e by x;
  ignore sub a c' d, b c';
  pos a' 20 b' <1 2 3 4> c;
  pos A V -80;
  enum pos [A B] V <0 0 -40 0>;
} calt;`
	f, err := Parse(src, "ctx.fea")
	if err != nil {
		t.Fatal(err)
	}
	sts := f.Statements[0].(*FeatureBlock).Statements
	sub := sts[0].(*SubstStatement)
	ctx := sub.Contexts[0]
	if !ctx.Marked || len(ctx.Prefix) != 1 || len(ctx.Input) != 2 || len(ctx.Suffix) != 1 {
		t.Errorf("unexpected context split %+v", ctx)
	}
	if len(ctx.Lookups) != 2 || len(ctx.Lookups[0]) != 2 || ctx.Lookups[0][1] != "L2" || len(ctx.Lookups[1]) != 0 {
		t.Errorf("unexpected lookup references %v", ctx.Lookups)
	}
	ign := sts[1].(*SubstStatement)
	if !ign.Ignore || len(ign.Contexts) != 2 || len(ign.Contexts[1].Prefix) != 1 {
		t.Errorf("unexpected ignore statement %+v", ign)
	}
	pos := sts[2].(*PosStatement)
	if len(pos.Values) != 2 || pos.Values[0].XAdvance != 20 || pos.Values[1].XPlacement != 1 {
		t.Errorf("unexpected contextual values %+v", pos.Values)
	}
	kern := sts[3].(*PosStatement)
	if kern.Values[0].XAdvance != -80 || kern.Values[1] != nil {
		t.Errorf("expected value on first glyph of pair, got %+v", kern.Values)
	}
	enum := sts[4].(*PosStatement)
	if !enum.Enumerate || enum.Values[0].XAdvance != -40 {
		t.Errorf("unexpected enumerated pair %+v", enum)
	}
}

func TestParseInclude(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "inc"), 0o755); err != nil {
		t.Fatal(err)
	}
	classes := "@lc = [a b c];\n"
	if err := os.WriteFile(filepath.Join(dir, "inc", "classes.fea"), []byte(classes), 0o644); err != nil {
		t.Fatal(err)
	}
	main := "include(inc/classes.fea);\nfeature smcp { sub @lc by A; } smcp;\n"
	f, err := Parse(main, filepath.Join(dir, "main.fea"))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(f.Statements))
	}
	cd, ok := f.Statements[0].(*ClassDefinition)
	if !ok || cd.Name != "lc" || len(cd.Glyphs.Items) != 3 {
		t.Errorf("unexpected included class %+v", f.Statements[0])
	}
	if filepath.Base(cd.Pos.File) != "classes.fea" {
		t.Errorf("expected position in included file, got %s", cd.Pos)
	}
	_, err = Parse("include(missing.fea);", filepath.Join(dir, "main.fea"))
	if err == nil {
		t.Errorf("expected error for missing include")
	}
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontmerge.fea")
	defer teardown()
	//
	unsupported := []string{
		"feature rlig { rsub a b' by c; } rlig;",
		"table head { FontRevision 1.1; } head;",
		"valueRecordDef <1 2 3 4> KERN;",
		"feature kern { pos a <0 0 0 0 <device 11 -1> <device NULL> <device NULL> <device NULL>>; } kern;",
		"feature aalt { feature salt; } aalt;",
	}
	for _, src := range unsupported {
		_, err := Parse(src, "u.fea")
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("expected ErrUnsupported for %q, got %v", src, err)
		}
	}
	malformed := []struct {
		src       string
		line, col int
	}{
		{"feature liga { sub f i by f_i } liga;", 1, 31},
		{"languagesystem DFLT;", 1, 20},
		{"feature liga {\n  sub f i by f_i;\n} kern;", 3, 3},
		{"lookup L { script latn; } L;", 1, 12},
		{"feature liga {\n  languagesystem DFLT dflt;\n} liga;", 2, 3},
	}
	for _, m := range malformed {
		_, err := Parse(m.src, "m.fea")
		var e *Error
		if !errors.As(err, &e) {
			t.Errorf("expected *Error for %q, got %v", m.src, err)
			continue
		}
		if e.Line != m.line || e.Column != m.col {
			t.Errorf("expected error at %d:%d for %q, got %v", m.line, m.col, m.src, e)
		}
		if errors.Is(err, ErrUnsupported) {
			t.Errorf("malformed input %q reported as unsupported", m.src)
		}
	}
}
