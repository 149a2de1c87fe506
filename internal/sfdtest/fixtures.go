/*
Package sfdtest provides small font sources for tests.

The Arabic source has units per em 1000, a "Marks" layer carrying mark
references, two clone-coloured glyphs and two mark glyphs. The Latin
source has units per em 2000, shares the glyph names .notdef, space,
comma, semicolon and question with the Arabic source, and carries a
kerning and a small-caps lookup.
*/
package sfdtest

import (
	"os"
	"path/filepath"
	"testing"
)

// Arabic is a single-file Arabic source.
const Arabic = `SplineFontDB: 3.0
FontName: FixtureArabic-Thin
FullName: Fixture Arabic Thin
FamilyName: Fixture Arabic
Weight: Thin
Copyright: Copyright (c) The Fixture Authors
Version: 0.1
ItalicAngle: 0
UnderlinePosition: -100
UnderlineWidth: 50
Ascent: 800
Descent: 200
LayerCount: 3
Layer: 0 0 "Back" 1
Layer: 1 0 "Fore" 0
Layer: 2 0 "Marks" 0
OS2Version: 0
TTFWeight: 100
TTFWidth: 5
FSType: 0
OS2TypoAscent: 0
OS2TypoAOffset: 1
OS2TypoDescent: 0
OS2TypoDOffset: 1
OS2TypoLinegap: 90
OS2WinAscent: 0
OS2WinAOffset: 1
OS2WinDescent: 0
OS2WinDOffset: 1
HheadAscent: 0
HheadAOffset: 1
HheadDescent: 0
HheadDOffset: 1
OS2Vendor: 'PfEd'
LangName: 1033 "" "" "Thin" "" "" "Version 0.1"
Encoding: UnicodeBmp
BeginChars: 65536 11

StartChar: .notdef
Encoding: 65536 -1 0
Width: 500
LayerCount: 3
EndChar

StartChar: space
Encoding: 32 32 1
Width: 250
GlyphClass: 2
LayerCount: 3
EndChar

StartChar: colon
Encoding: 58 58 2
Width: 300
GlyphClass: 2
LayerCount: 3
Fore
SplineSet
100 0 m 1
 200 0 l 1
 200 100 l 1
 100 100 l 1
 100 0 l 1
100 400 m 1
 200 400 l 1
 200 500 l 1
 100 500 l 1
 100 400 l 1
EndSplineSet
EndChar

StartChar: comma
Encoding: 44 44 3
Width: 300
GlyphClass: 2
LayerCount: 3
Fore
SplineSet
80 -100 m 1
 200 -100 l 1
 200 100 l 1
 80 100 l 1
 80 -100 l 1
EndSplineSet
EndChar

StartChar: semicolon
Encoding: 59 59 4
Width: 300
GlyphClass: 2
LayerCount: 3
Fore
SplineSet
80 -100 m 1
 200 -100 l 1
 200 100 l 1
 80 100 l 1
 80 -100 l 1
80 400 m 1
 200 400 l 1
 200 500 l 1
 80 500 l 1
 80 400 l 1
EndSplineSet
EndChar

StartChar: question
Encoding: 63 63 5
Width: 500
GlyphClass: 2
LayerCount: 3
Fore
SplineSet
50 0 m 1
 400 0 l 1
 225 700 l 1
 50 0 l 1
EndSplineSet
EndChar

StartChar: uni0628
Encoding: 1576 1576 6
Width: 600
GlyphClass: 2
LayerCount: 3
Fore
SplineSet
50 100 m 1
 50 -50 150 -100 300 -100 c 0
 450 -100 550 -50 550 100 c 0
 50 100 l 1
EndSplineSet
Layer: 2
Refer: 9 -1 N 1 0 0 1 300 -200 2
Refer: 10 -1 N 1 0 0 1 300 600 2
EndChar

StartChar: uni0628.alt
Encoding: 65537 -1 7
Width: 600
GlyphClass: 2
Colour: ff00ff
LayerCount: 3
Fore
Refer: 6 1576 N 1 0 0 1 0 0 2
EndChar

StartChar: uni0628.alt2
Encoding: 65538 -1 8
Width: 600
GlyphClass: 2
Colour: ff00ff
LayerCount: 3
Fore
Refer: 7 -1 N 1 0 0 1 0 0 2
EndChar

StartChar: dot
Encoding: 65539 -1 9
Width: 0
GlyphClass: 4
LayerCount: 3
Fore
SplineSet
-50 -50 m 1
 50 -50 l 1
 50 50 l 1
 -50 50 l 1
 -50 -50 l 1
EndSplineSet
EndChar

StartChar: fatha
Encoding: 65540 -1 10
Width: 0
GlyphClass: 4
LayerCount: 3
Fore
SplineSet
-100 0 m 1
 100 40 l 1
 100 80 l 1
 -100 40 l 1
 -100 0 l 1
EndSplineSet
Layer: 2
Refer: 9 -1 N 1 0 0 1 0 250 2
EndChar
EndChars
EndSplineFont
`

// Latin is a single-file Latin source.
const Latin = `SplineFontDB: 3.0
FontName: FixtureLatin-Regular
FullName: Fixture Latin Regular
FamilyName: Fixture Latin
Weight: Regular
Copyright: Copyright (c) The Latin Fixture Authors
Version: 2.0
ItalicAngle: 0
UnderlinePosition: -200
UnderlineWidth: 100
Ascent: 1600
Descent: 400
LayerCount: 2
Layer: 0 0 "Back" 1
Layer: 1 0 "Fore" 0
TTFWeight: 400
TTFWidth: 5
LangName: 1033 "Copyright +AKk- Latin Fixture" "" "Regular"
Encoding: UnicodeBmp
Lookup: 1 0 0 "'smcp' Lowercase to Small Capitals lookup 1" { "'smcp' Lowercase to Small Capitals lookup 1 subtable"  } ['smcp' ('latn' <'dflt' > ) ]
Lookup: 258 0 0 "'kern' Horizontal Kerning in Latin lookup 0" { "'kern' Horizontal Kerning in Latin lookup 0 subtable"  } ['kern' ('DFLT' <'dflt' > 'latn' <'dflt' > ) ]
BeginChars: 65536 10

StartChar: .notdef
Encoding: 65536 -1 0
Width: 1000
LayerCount: 2
EndChar

StartChar: space
Encoding: 32 32 1
Width: 500
GlyphClass: 2
LayerCount: 2
EndChar

StartChar: comma
Encoding: 44 44 2
Width: 500
GlyphClass: 2
LayerCount: 2
Fore
SplineSet
100 -200 m 1
 300 -200 l 1
 300 200 l 1
 100 200 l 1
 100 -200 l 1
EndSplineSet
EndChar

StartChar: semicolon
Encoding: 59 59 3
Width: 500
GlyphClass: 2
LayerCount: 2
Fore
SplineSet
100 -200 m 1
 300 -200 l 1
 300 200 l 1
 100 200 l 1
 100 -200 l 1
EndSplineSet
Refer: 2 44 N 1 0 0 1 0 800 2
EndChar

StartChar: question
Encoding: 63 63 4
Width: 900
GlyphClass: 2
LayerCount: 2
Fore
SplineSet
100 0 m 1
 800 0 l 1
 450 1400 l 1
 100 0 l 1
EndSplineSet
EndChar

StartChar: A
Encoding: 65 65 5
Width: 1200
GlyphClass: 2
LayerCount: 2
Fore
SplineSet
0 0 m 1
 1200 0 l 1
 600 1400 l 1
 0 0 l 1
EndSplineSet
Kerns2: 6 -160 "'kern' Horizontal Kerning in Latin lookup 0 subtable"
EndChar

StartChar: V
Encoding: 86 86 6
Width: 1200
GlyphClass: 2
LayerCount: 2
Fore
SplineSet
0 1400 m 1
 600 0 l 1
 1200 1400 l 1
 0 1400 l 1
EndSplineSet
EndChar

StartChar: a
Encoding: 97 97 7
Width: 1000
GlyphClass: 2
LayerCount: 2
Fore
SplineSet
100 0 m 1
 900 0 l 1
 900 1000 l 1
 100 1000 l 1
 100 0 l 1
EndSplineSet
Substitution2: "'smcp' Lowercase to Small Capitals lookup 1 subtable" a.sc
EndChar

StartChar: a.sc
Encoding: 65537 -1 8
Width: 900
GlyphClass: 2
LayerCount: 2
Fore
SplineSet
100 0 m 1
 800 0 l 1
 800 800 l 1
 100 800 l 1
 100 0 l 1
EndSplineSet
EndChar

StartChar: colon.round
Encoding: 58 58 9
Width: 600
GlyphClass: 2
LayerCount: 2
Fore
SplineSet
200 0 m 1
 200 -110 290 -200 400 -200 c 0
 510 -200 600 -110 600 0 c 0
 600 110 510 200 400 200 c 0
 290 200 200 110 200 0 c 0
EndSplineSet
EndChar

StartChar: Q.ss01
Encoding: 65538 -1 10
Width: 1300
GlyphClass: 2
Colour: ff0000
LayerCount: 2
Fore
SplineSet
100 0 m 1
 1200 0 l 1
 1200 1400 l 1
 100 1400 l 1
 100 0 l 1
EndSplineSet
EndChar
EndChars
EndSplineFont
`

// Features is a feature file to go with Arabic.
const Features = `# language systems for all generated features
languagesystem DFLT dflt;
languagesystem arab dflt;
languagesystem latn dflt;

lookup alt {
  sub uni0628 by uni0628.alt;
} alt;

feature salt {
  lookup alt;
} salt;
`

// Write stores the fixtures in dir and returns the paths of the Arabic
// source, the Latin source and the feature file.
func Write(t testing.TB, dir string) (arabic, latin, fea string) {
	t.Helper()
	arabic = filepath.Join(dir, "Arabic.sfd")
	latin = filepath.Join(dir, "Latin.sfd")
	fea = filepath.Join(dir, "Arabic.fea")
	for path, content := range map[string]string{arabic: Arabic, latin: Latin, fea: Features} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("cannot write fixture %s: %v", path, err)
		}
	}
	return
}
