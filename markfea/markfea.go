/*
Package markfea generates feature file text for mark attachment.

Mark positions are not taken from anchor points. Instead, every base or
mark glyph carries references to its marks in a layer named "Marks"; the
offset of such a reference is the attachment point on the glyph. Marks
themselves attach at their origin.

Glyphs coloured magenta are clones: their first reference names the glyph
they copy, and they share that glyph's attachment points.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package markfea

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/fontmerge/sfd"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmerge'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge")
}

// Colours used as glyph flags in the sources.
const (
	CloneColor   = 0xff00ff
	ExcludeColor = 0xff0000
)

// MarksLayer is the name of the layer holding mark references.
const MarksLayer = "Marks"

// ErrCloneWithoutReference flags a clone-coloured glyph without references.
var ErrCloneWithoutReference = errors.New("clone glyph without reference")

// ErrUnknownMark flags a mark reference to a glyph which is not a mark.
var ErrUnknownMark = errors.New("reference to unknown mark")

// FindClones returns the names of all clone glyphs whose first reference
// names glyph name, in font order.
func FindClones(font *sfd.Font, name string) ([]string, error) {
	var clones []string
	for _, g := range font.Glyphs() {
		if g.Color != CloneColor {
			continue
		}
		refs := g.References()
		if len(refs) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrCloneWithoutReference, g.Name)
		}
		if refs[0].Name == name {
			clones = append(clones, g.Name)
		}
	}
	return clones, nil
}

// IsMark reports whether g is of glyph class mark.
func IsMark(g *sfd.Glyph) bool {
	return g.Class == sfd.ClassMark
}

// GenerateAnchor returns the positioning rules for the mark references of
// glyph g, one rule per reference. marks holds the names of all mark glyphs.
func GenerateAnchor(font *sfd.Font, g *sfd.Glyph, marks map[string]bool) (string, error) {
	var b strings.Builder
	for _, ref := range g.LayerRefs(MarksLayer) {
		if !marks[ref.Name] {
			return "", fmt.Errorf("%w: %s in glyph %s", ErrUnknownMark, ref.Name, g.Name)
		}
		x, y := int(ref.Matrix[4]), int(ref.Matrix[5])
		bases := []string{g.Name}
		clones, err := FindClones(font, g.Name)
		if err != nil {
			return "", err
		}
		for _, clone := range clones {
			bases = append(bases, clone)
			more, err := FindClones(font, clone)
			if err != nil {
				return "", err
			}
			bases = append(bases, more...)
		}
		kind := "base"
		if IsMark(g) {
			kind = "mark"
		}
		fmt.Fprintf(&b, "position %s [%s] <anchor %d %d> mark @%s;",
			kind, strings.Join(bases, " "), x, y, strings.ToUpper(ref.Name))
	}
	return b.String(), nil
}

// GenerateAnchors returns mark class definitions for all mark glyphs,
// followed by a "mark" feature for base glyphs and a "mkmk" feature for
// mark glyphs.
func GenerateAnchors(font *sfd.Font) (string, error) {
	marks := make(map[string]bool)
	var b strings.Builder
	for _, g := range font.Glyphs() {
		if IsMark(g) {
			marks[g.Name] = true
			fmt.Fprintf(&b, "markClass [%s] <anchor 0 0> @%s;", g.Name, strings.ToUpper(g.Name))
		}
	}
	tracer().Debugf("%d mark classes", len(marks))
	for _, feature := range []struct {
		tag   string
		marks bool
	}{{"mark", false}, {"mkmk", true}} {
		fmt.Fprintf(&b, "feature %s {", feature.tag)
		for _, g := range font.Glyphs() {
			if IsMark(g) != feature.marks {
				continue
			}
			rules, err := GenerateAnchor(font, g, marks)
			if err != nil {
				return "", err
			}
			b.WriteString(rules)
		}
		fmt.Fprintf(&b, "} %s;", feature.tag)
	}
	return b.String(), nil
}

// GenerateArabicFeatures returns the content of the feature file at
// feaPath followed by the generated mark features.
func GenerateArabicFeatures(font *sfd.Font, feaPath string) (string, error) {
	content, err := os.ReadFile(feaPath)
	if err != nil {
		return "", err
	}
	anchors, err := GenerateAnchors(font)
	if err != nil {
		return "", err
	}
	return string(content) + anchors, nil
}

// GenerateLocl returns a "locl" feature substituting every glyph name in
// pairs[i][0] by pairs[i][1] for the Latin script, ignoring marks.
// It returns the empty string if there are no pairs.
func GenerateLocl(pairs [][2]string) string {
	if len(pairs) == 0 {
		return ""
	}
	var b strings.Builder
	// "script" resets the lookup flag, so it has to come first
	b.WriteString("feature locl {script latn;lookupflag IgnoreMarks;")
	for _, p := range pairs {
		fmt.Fprintf(&b, "sub %s by %s;", p[0], p[1])
	}
	b.WriteString("} locl;")
	return b.String()
}
