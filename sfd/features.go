package sfd

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// FeatureString renders the font's lookups as feature file text: glyph
// class definitions, mark classes, one named lookup block per lookup and
// one feature block per feature tag. Lookups without rules are left out.
//
// No languagesystem statements are written; every feature block names its
// scripts and languages explicitly, so the text can be appended to other
// feature code.
func (f *Font) FeatureString() string {
	w := &feaWriter{font: f, names: make(map[*Lookup]string), used: make(map[string]bool)}
	return w.write()
}

type feaWriter struct {
	font  *Font
	b     strings.Builder
	names map[*Lookup]string
	used  map[string]bool
	// anchor class name -> mark class name in feature text
	markClasses map[string]string
	attach      []string
	filter      []string
}

func (w *feaWriter) printf(format string, args ...interface{}) {
	fmt.Fprintf(&w.b, format, args...)
}

func (w *feaWriter) write() string {
	f := w.font
	w.classDefs()
	w.markClassDefs()
	var emitted []*Lookup
	for _, l := range f.Lookups {
		body := w.rules(l)
		if body == "" {
			tracer().Debugf("lookup %q has no rules, not written", l.Name)
			continue
		}
		name := w.lookupName(l)
		w.printf("\nlookup %s {\n", name)
		if flags := w.flagString(l.Flags); flags != "" {
			w.printf("  lookupflag %s;\n", flags)
		}
		w.b.WriteString(body)
		w.printf("} %s;\n", name)
		emitted = append(emitted, l)
	}
	w.features(emitted)
	return w.b.String()
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_.]+`)

// ident turns a FontForge name ("'kern' Horizontal Kerning lookup 0") into
// a feature file identifier.
func ident(s string) string {
	id := strings.Trim(nonIdent.ReplaceAllString(s, "_"), "_")
	if id == "" || !(id[0] == '_' || id[0] >= 'A' && id[0] <= 'Z' || id[0] >= 'a' && id[0] <= 'z') {
		id = "l" + id
	}
	if len(id) > 60 {
		id = id[:60]
	}
	return id
}

func (w *feaWriter) unique(base string) string {
	name := base
	for i := 1; w.used[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	w.used[name] = true
	return name
}

func (w *feaWriter) lookupName(l *Lookup) string {
	if n, ok := w.names[l]; ok {
		return n
	}
	n := w.unique(ident(l.Name))
	w.names[l] = n
	return n
}

func (w *feaWriter) classDefs() {
	for _, mc := range w.font.MarkClasses {
		name := w.unique("attach_" + ident(mc.Name))
		w.attach = append(w.attach, name)
		w.printf("@%s = [%s];\n", name, glyphList(mc.Glyphs))
	}
	for _, mc := range w.font.MarkSets {
		name := w.unique("filter_" + ident(mc.Name))
		w.filter = append(w.filter, name)
		w.printf("@%s = [%s];\n", name, glyphList(mc.Glyphs))
	}
}

func (w *feaWriter) flagString(flags int) string {
	var parts []string
	if flags&FlagRightToLeft != 0 {
		parts = append(parts, "RightToLeft")
	}
	if flags&FlagIgnoreBaseGlyphs != 0 {
		parts = append(parts, "IgnoreBaseGlyphs")
	}
	if flags&FlagIgnoreLigatures != 0 {
		parts = append(parts, "IgnoreLigatures")
	}
	if flags&FlagIgnoreMarks != 0 {
		parts = append(parts, "IgnoreMarks")
	}
	if cls := (flags & FlagMarkAttachmentType) >> 8; cls > 0 && cls <= len(w.attach) {
		parts = append(parts, "MarkAttachmentType @"+w.attach[cls-1])
	}
	if flags&FlagUseMarkFilteringSet != 0 {
		if set := flags >> 16; set < len(w.filter) {
			parts = append(parts, "UseMarkFilteringSet @"+w.filter[set])
		}
	}
	return strings.Join(parts, " ")
}

// markClassDefs writes one markClass statement per mark glyph and anchor
// class.
func (w *feaWriter) markClassDefs() {
	w.markClasses = make(map[string]string)
	for _, ac := range w.font.AnchorClasses {
		if _, ok := w.markClasses[ac.Name]; !ok {
			w.markClasses[ac.Name] = w.unique("anchor_" + ident(ac.Name))
		}
	}
	for _, g := range w.font.glyphs {
		for _, a := range g.Anchors {
			if a.Type != "mark" {
				continue
			}
			cls, ok := w.markClasses[a.Class]
			if !ok {
				continue
			}
			w.printf("markClass %s %s @%s;\n", glyphName(g.Name), anchor(a.X, a.Y), cls)
		}
	}
}

func (w *feaWriter) rules(l *Lookup) string {
	var b strings.Builder
	f := w.font
	switch l.Type {
	case GSUBSingle, GSUBMultiple, GSUBAlternate, GSUBLigature, GPOSSingle, GPOSPair:
		for _, sub := range l.Subtables {
			n := b.Len()
			for _, g := range f.glyphs {
				for _, pst := range g.PSTs {
					if pst.Subtable == sub {
						writePST(&b, g.Name, pst)
					}
				}
				if l.Type == GPOSPair {
					for _, k := range g.Kerns {
						if k.Subtable == sub {
							fmt.Fprintf(&b, "  pos %s %s %d;\n", glyphName(g.Name), glyphName(k.Second), round(k.Offset))
						}
					}
				}
			}
			if l.Type == GPOSPair {
				w.kernClassRules(&b, sub)
			}
			if b.Len() > n && sub != l.Subtables[len(l.Subtables)-1] {
				b.WriteString("  subtable;\n")
			}
		}
	case GPOSCursive:
		w.cursiveRules(&b, l)
	case GPOSMarkToBase, GPOSMarkToMark:
		kind, atype := "base", "basechar"
		if l.Type == GPOSMarkToMark {
			kind, atype = "mark", "basemark"
		}
		for _, g := range f.glyphs {
			var parts []string
			for _, a := range g.Anchors {
				if a.Type != atype || !w.inLookup(l, a.Class) {
					continue
				}
				parts = append(parts, fmt.Sprintf("%s mark @%s", anchor(a.X, a.Y), w.markClasses[a.Class]))
			}
			if len(parts) > 0 {
				fmt.Fprintf(&b, "  pos %s %s %s;\n", kind, glyphName(g.Name), strings.Join(parts, " "))
			}
		}
	case GPOSMarkToLig:
		for _, g := range f.glyphs {
			comps := map[int][]string{}
			last := -1
			for _, a := range g.Anchors {
				if a.Type != "baselig" || !w.inLookup(l, a.Class) {
					continue
				}
				comps[a.LigIndex] = append(comps[a.LigIndex], fmt.Sprintf("%s mark @%s", anchor(a.X, a.Y), w.markClasses[a.Class]))
				if a.LigIndex > last {
					last = a.LigIndex
				}
			}
			if last < 0 {
				continue
			}
			parts := make([]string, last+1)
			for i := range parts {
				if c, ok := comps[i]; ok {
					parts[i] = strings.Join(c, " ")
				} else {
					parts[i] = "<anchor NULL>"
				}
			}
			fmt.Fprintf(&b, "  pos ligature %s %s;\n", glyphName(g.Name), strings.Join(parts, " ligComponent "))
		}
	default:
		tracer().Infof("lookup %q: type %#x not written", l.Name, int(l.Type))
	}
	return b.String()
}

func (w *feaWriter) inLookup(l *Lookup, class string) bool {
	if _, ok := w.markClasses[class]; !ok {
		return false
	}
	return w.inLookupClass(l, class)
}

func (w *feaWriter) cursiveRules(b *strings.Builder, l *Lookup) {
	for _, g := range w.font.glyphs {
		entry, exit := "<anchor NULL>", "<anchor NULL>"
		found := false
		for _, a := range g.Anchors {
			if !w.inLookupClass(l, a.Class) {
				continue
			}
			switch a.Type {
			case "entry":
				entry, found = anchor(a.X, a.Y), true
			case "exit":
				exit, found = anchor(a.X, a.Y), true
			}
		}
		if found {
			fmt.Fprintf(b, "  pos cursive %s %s %s;\n", glyphName(g.Name), entry, exit)
		}
	}
}

func (w *feaWriter) inLookupClass(l *Lookup, class string) bool {
	for _, ac := range w.font.AnchorClasses {
		if ac.Name == class && l.HasSubtable(ac.Subtable) {
			return true
		}
	}
	return false
}

func (w *feaWriter) kernClassRules(b *strings.Builder, sub string) {
	for _, kc := range w.font.KernClasses {
		if kc.Subtable != sub {
			continue
		}
		base := w.unique("kc_" + ident(sub))
		for i := 1; i < len(kc.First); i++ {
			fmt.Fprintf(b, "  @%s_1_%d = [%s];\n", base, i, glyphList(kc.First[i]))
		}
		for j := 1; j < len(kc.Second); j++ {
			fmt.Fprintf(b, "  @%s_2_%d = [%s];\n", base, j, glyphList(kc.Second[j]))
		}
		for i := 1; i < len(kc.First); i++ {
			for j := 1; j < len(kc.Second); j++ {
				v := round(kc.Offset(i, j))
				if v == 0 || len(kc.First[i]) == 0 || len(kc.Second[j]) == 0 {
					continue
				}
				fmt.Fprintf(b, "  pos @%s_1_%d @%s_2_%d %d;\n", base, i, base, j, v)
			}
		}
	}
}

func writePST(b *strings.Builder, glyph string, pst PST) {
	g := glyphName(glyph)
	switch pst.Kind {
	case PSTSubstitution:
		if len(pst.Glyphs) > 0 {
			fmt.Fprintf(b, "  sub %s by %s;\n", g, glyphName(pst.Glyphs[0]))
		}
	case PSTMultiple:
		fmt.Fprintf(b, "  sub %s by %s;\n", g, glyphList(pst.Glyphs))
	case PSTAlternate:
		fmt.Fprintf(b, "  sub %s from [%s];\n", g, glyphList(pst.Glyphs))
	case PSTLigature:
		fmt.Fprintf(b, "  sub %s by %s;\n", glyphList(pst.Glyphs), g)
	case PSTPosition:
		fmt.Fprintf(b, "  pos %s %s;\n", g, valueRecord(pst.Pos))
	case PSTPair:
		if len(pst.Glyphs) > 0 {
			fmt.Fprintf(b, "  pos %s %s %s %s;\n", g, glyphName(pst.Glyphs[0]), valueRecord(pst.Pos), valueRecord(pst.Pos2))
		}
	}
}

// features writes one block per feature tag, in order of first use.
func (w *feaWriter) features(lookups []*Lookup) {
	type langKey struct{ script, lang string }
	var tags []string
	scripts := map[string][]string{}
	langs := map[string]map[string][]string{}
	refs := map[string]map[langKey][]*Lookup{}
	for _, l := range lookups {
		for _, fs := range l.Features {
			tag := strings.TrimRight(fs.Tag, " ")
			if refs[tag] == nil {
				tags = append(tags, tag)
				refs[tag] = map[langKey][]*Lookup{}
				langs[tag] = map[string][]string{}
			}
			for _, sl := range fs.Scripts {
				script := strings.TrimRight(sl.Script, " ")
				if _, ok := langs[tag][script]; !ok {
					scripts[tag] = append(scripts[tag], script)
					langs[tag][script] = nil
				}
				for _, lang := range sl.Langs {
					lang = strings.TrimRight(lang, " ")
					k := langKey{script, lang}
					if _, ok := refs[tag][k]; !ok {
						langs[tag][script] = append(langs[tag][script], lang)
					}
					refs[tag][k] = append(refs[tag][k], l)
				}
			}
		}
	}
	for _, tag := range tags {
		w.printf("\nfeature %s {\n", tag)
		for _, script := range scripts[tag] {
			w.printf("  script %s;\n", script)
			ls := langs[tag][script]
			// dflt first, it is what "script" selects
			sort.SliceStable(ls, func(i, j int) bool { return ls[i] == "dflt" && ls[j] != "dflt" })
			for _, lang := range ls {
				if lang == "dflt" {
					w.printf("    language dflt;\n")
				} else {
					w.printf("    language %s exclude_dflt;\n", lang)
				}
				for _, l := range refs[tag][langKey{script, lang}] {
					w.printf("      lookup %s;\n", w.names[l])
				}
			}
		}
		w.printf("} %s;\n", tag)
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func anchor(x, y float64) string {
	return fmt.Sprintf("<anchor %d %d>", round(x), round(y))
}

func valueRecord(v ValueRecord) string {
	return fmt.Sprintf("<%d %d %d %d>", round(v.DX), round(v.DY), round(v.DH), round(v.DV))
}

var feaKeywords = map[string]bool{
	"anchor": true, "anchorDef": true, "by": true, "contourpoint": true, "cursive": true,
	"device": true, "enum": true, "enumerate": true, "exclude_dflt": true, "feature": true,
	"from": true, "ignore": true, "include": true, "include_dflt": true, "language": true,
	"languagesystem": true, "lookup": true, "lookupflag": true, "mark": true, "markClass": true,
	"nameid": true, "NULL": true, "parameters": true, "pos": true, "position": true,
	"required": true, "rsub": true, "script": true, "sub": true, "substitute": true,
	"subtable": true, "table": true, "useExtension": true, "valueRecordDef": true,
	"base": true, "ligature": true, "ligComponent": true,
}

// glyphName escapes glyph names that collide with keywords.
func glyphName(name string) string {
	if feaKeywords[name] {
		return `\` + name
	}
	return name
}

func glyphList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = glyphName(n)
	}
	return strings.Join(out, " ")
}
