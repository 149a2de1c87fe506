/*
Package merge combines a Latin font source into an Arabic one.

Latin glyphs whose names are taken in the Arabic font are renamed with a
".latin" suffix, lose their code point, and are reached through a "locl"
substitution for the Latin script instead. The Arabic font then receives
the Latin glyphs, three synthesized Arabic punctuation glyphs built from
references to their Latin counterparts, and the release metadata.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package merge

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/npillmayer/fontmerge/markfea"
	"github.com/npillmayer/fontmerge/sfd"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmerge'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge")
}

// LatinSuffix is appended to the names of colliding Latin glyphs.
const LatinSuffix = ".latin"

// Options are the inputs of a merge.
type Options struct {
	ArabicFile  string // Arabic font source
	LatinFile   string // Latin font source
	FeatureFile string // feature file of the Arabic font
	Version     string // version of the merged font
	Now         func() time.Time
	Metadata    *Metadata // nil means DefaultMetadata
}

// Metadata holds the naming table texts of the merged font. Copyright is a
// format string receiving the current year.
type Metadata struct {
	Copyright  string
	Designer   string
	LicenseURL string
	License    string
	Descriptor string
	SampleText string
}

// DefaultMetadata are the texts of the Mada project.
var DefaultMetadata = Metadata{
	Copyright:  `Copyright © 2015-%d The Mada Project Authors, with Reserved Font Name "Source". Source is a trademark of Adobe Systems Incorporated in the United States and/or other countries.`,
	Designer:   "Khaled Hosny",
	LicenseURL: "http://scripts.sil.org/OFL",
	License:    "This Font Software is licensed under the SIL Open Font License, Version 1.1. This license is available with a FAQ at: http://scripts.sil.org/OFL",
	Descriptor: "Mada is a geometric, unmodulted Arabic display typeface inspired by Cairo road signage.",
	SampleText: "صف خلق خود كمثل ٱلشمس إذ بزغت يحظى ٱلضجيع بها نجلاء معطار.",
}

// Merge opens both fonts, merges the Latin font into the Arabic one and
// returns the merged font together with the feature text for it: the
// Arabic feature file, the generated mark features, the Latin font's own
// features and the Latin "locl" feature, in this order.
func Merge(opts Options) (*sfd.Font, string, error) {
	arabic, err := sfd.Open(opts.ArabicFile)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open Arabic font: %w", err)
	}
	arabic.SetEncodingUnicode()
	latin, err := sfd.Open(opts.LatinFile)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open Latin font: %w", err)
	}
	latin.SetEncodingUnicode()
	latin.SetEm(arabic.Em())

	locl, err := renameCollisions(arabic, latin)
	if err != nil {
		return nil, "", err
	}
	fea, err := markfea.GenerateArabicFeatures(arabic, opts.FeatureFile)
	if err != nil {
		return nil, "", err
	}
	fea += latin.FeatureString()
	fea += markfea.GenerateLocl(locl)

	arabic.MergeFonts(latin)
	tracer().Infof("merged %s into %s, %d glyphs", latin.FontName, arabic.FontName, arabic.Len())

	if err = addPunctuation(arabic); err != nil {
		return nil, "", err
	}
	meta := DefaultMetadata
	if opts.Metadata != nil {
		meta = *opts.Metadata
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	setMetadata(arabic, opts.Version, meta, now())
	return arabic, fea, nil
}

// renameCollisions renames Latin glyphs which exist in the Arabic font and
// returns the substitution pairs for "locl".
func renameCollisions(arabic, latin *sfd.Font) ([][2]string, error) {
	var pairs [][2]string
	for _, g := range latin.Glyphs() {
		if g.Color == markfea.ExcludeColor {
			// removal is disabled: the glyph stays, but is not renamed
			tracer().Debugf("glyph %s is marked for exclusion", g.Name)
			continue
		}
		if !arabic.Has(g.Name) {
			continue
		}
		name := g.Name
		g.Unicode = -1
		if err := latin.RenameGlyph(g, name+LatinSuffix); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{name, g.Name})
	}
	tracer().Debugf("%d Latin glyphs renamed", len(pairs))
	return pairs, nil
}

// addPunctuation creates the Arabic comma and semicolon as Latin ones
// turned upside down and sitting on the colon's baseline, and the Arabic
// question mark as a mirrored Latin one. Side bearings are swapped.
func addPunctuation(font *sfd.Font) error {
	colon, err := font.Glyph("colon")
	if err != nil {
		return err
	}
	for _, p := range []struct {
		r   rune
		src string
	}{{0x060C, "comma"}, {0x061B, "semicolon"}} {
		en, err := font.Glyph(p.src)
		if err != nil {
			return err
		}
		ar, err := font.CreateChar(p.r, NameFromUnicode(p.r))
		if err != nil {
			return err
		}
		if err = ar.AddReference(en.Name, sfd.Rotate(math.Pi)); err != nil {
			return err
		}
		delta := colon.BoundingBox().YMin - ar.BoundingBox().YMin
		ar.Transform(sfd.Translate(0, delta))
		ar.SetLeftSideBearing(en.RightSideBearing())
		ar.SetRightSideBearing(en.LeftSideBearing())
	}
	question, err := font.Glyph("question")
	if err != nil {
		return err
	}
	ar, err := font.CreateChar(0x061F, "uni061F")
	if err != nil {
		return err
	}
	if err = ar.AddReference(question.Name, sfd.Scale(-1, 1)); err != nil {
		return err
	}
	ar.SetLeftSideBearing(question.RightSideBearing())
	ar.SetRightSideBearing(question.LeftSideBearing())
	return nil
}

// NameFromUnicode returns the "uniXXXX" or "uXXXXX" name of a code point.
func NameFromUnicode(r rune) string {
	if r > 0xffff {
		return fmt.Sprintf("u%05X", r)
	}
	return fmt.Sprintf("uni%04X", r)
}

func setMetadata(font *sfd.Font, version string, meta Metadata, now time.Time) {
	font.Version = version
	copyright := meta.Copyright
	if strings.Contains(copyright, "%d") {
		copyright = fmt.Sprintf(copyright, now.Year())
	}
	font.Copyright = strings.ReplaceAll(copyright, "©", "(c)")
	en := sfd.LangEnglishUS
	font.AppendSFNTName(en, sfd.NameCopyright, copyright)
	font.AppendSFNTName(en, sfd.NameDesigner, meta.Designer)
	font.AppendSFNTName(en, sfd.NameLicenseURL, meta.LicenseURL)
	font.AppendSFNTName(en, sfd.NameLicense, meta.License)
	font.AppendSFNTName(en, sfd.NameDescriptor, meta.Descriptor)
	font.AppendSFNTName(en, sfd.NameSampleText, meta.SampleText)
}
