package otquery

import (
	"errors"
	"fmt"

	"github.com/npillmayer/fontmerge/ot"
)

// ErrNoGlyphNames is returned if a font does not carry glyph names in a
// post table of format 2.0.
var ErrNoGlyphNames = errors.New("font has no glyph names")

// GlyphOrder returns the names of all glyphs of a font, indexed by glyph ID.
// Names are taken from table 'post', which has to be of format 2.0.
func GlyphOrder(otf *ot.Font) ([]string, error) {
	post := otf.Table(ot.TagPost)
	if len(post) < 34 {
		return nil, fmt.Errorf("%w: post table missing or too short", ErrNoGlyphNames)
	}
	if v := u32(post); v != 0x00020000 {
		return nil, fmt.Errorf("%w: post table version %#08x", ErrNoGlyphNames, v)
	}
	n := int(u16(post[32:]))
	if m, ok := MaxPInfo(otf); ok && int(m.NumGlyphs) != n {
		tracer().Infof("post table has %d glyphs, maxp %d", n, m.NumGlyphs)
	}
	indexEnd := 34 + 2*n
	if indexEnd > len(post) {
		return nil, fmt.Errorf("%w: post glyph index out of bounds", ErrNoGlyphNames)
	}
	var custom []string
	for p := indexEnd; p < len(post); {
		l := int(post[p])
		if p+1+l > len(post) {
			break
		}
		custom = append(custom, string(post[p+1:p+1+l]))
		p += 1 + l
	}
	names := make([]string, n)
	for i := range n {
		ix := int(u16(post[34+2*i:]))
		switch {
		case ix < len(MacGlyphNames):
			names[i] = MacGlyphNames[ix]
		case ix-len(MacGlyphNames) < len(custom):
			names[i] = custom[ix-len(MacGlyphNames)]
		default:
			return nil, fmt.Errorf("%w: glyph %d has name index %d out of range", ErrNoGlyphNames, i, ix)
		}
	}
	return names, nil
}

// MacGlyphNames are the 258 glyph names of the standard Macintosh ordering,
// which post table format 2.0 refers to by index.
var MacGlyphNames = [258]string{
	".notdef", ".null", "nonmarkingreturn", "space", "exclam", "quotedbl",
	"numbersign", "dollar", "percent", "ampersand", "quotesingle", "parenleft",
	"parenright", "asterisk", "plus", "comma", "hyphen", "period",
	"slash", "zero", "one", "two", "three", "four",
	"five", "six", "seven", "eight", "nine", "colon",
	"semicolon", "less", "equal", "greater", "question", "at",
	"A", "B", "C", "D", "E", "F",
	"G", "H", "I", "J", "K", "L",
	"M", "N", "O", "P", "Q", "R",
	"S", "T", "U", "V", "W", "X",
	"Y", "Z", "bracketleft", "backslash", "bracketright", "asciicircum",
	"underscore", "grave", "a", "b", "c", "d",
	"e", "f", "g", "h", "i", "j",
	"k", "l", "m", "n", "o", "p",
	"q", "r", "s", "t", "u", "v",
	"w", "x", "y", "z", "braceleft", "bar",
	"braceright", "asciitilde", "Adieresis", "Aring", "Ccedilla", "Eacute",
	"Ntilde", "Odieresis", "Udieresis", "aacute", "agrave", "acircumflex",
	"adieresis", "atilde", "aring", "ccedilla", "eacute", "egrave",
	"ecircumflex", "edieresis", "iacute", "igrave", "icircumflex", "idieresis",
	"ntilde", "oacute", "ograve", "ocircumflex", "odieresis", "otilde",
	"uacute", "ugrave", "ucircumflex", "udieresis", "dagger", "degree",
	"cent", "sterling", "section", "bullet", "paragraph", "germandbls",
	"registered", "copyright", "trademark", "acute", "dieresis", "notequal",
	"AE", "Oslash", "infinity", "plusminus", "lessequal", "greaterequal",
	"yen", "mu", "partialdiff", "summation", "product", "pi",
	"integral", "ordfeminine", "ordmasculine", "Omega", "ae", "oslash",
	"questiondown", "exclamdown", "logicalnot", "radical", "florin", "approxequal",
	"Delta", "guillemotleft", "guillemotright", "ellipsis", "nonbreakingspace", "Agrave",
	"Atilde", "Otilde", "OE", "oe", "endash", "emdash",
	"quotedblleft", "quotedblright", "quoteleft", "quoteright", "divide", "lozenge",
	"ydieresis", "Ydieresis", "fraction", "currency", "guilsinglleft", "guilsinglright",
	"fi", "fl", "daggerdbl", "periodcentered", "quotesinglbase", "quotedblbase",
	"perthousand", "Acircumflex", "Ecircumflex", "Aacute", "Edieresis", "Egrave",
	"Iacute", "Icircumflex", "Idieresis", "Igrave", "Oacute", "Ocircumflex",
	"apple", "Ograve", "Uacute", "Ucircumflex", "Ugrave", "dotlessi",
	"circumflex", "tilde", "macron", "breve", "dotaccent", "ring",
	"cedilla", "hungarumlaut", "ogonek", "caron", "Lslash", "lslash",
	"Scaron", "scaron", "Zcaron", "zcaron", "brokenbar", "Eth",
	"eth", "Yacute", "yacute", "Thorn", "thorn", "minus",
	"multiply", "onesuperior", "twosuperior", "threesuperior", "onehalf", "onequarter",
	"threequarters", "franc", "Gbreve", "gbreve", "Idotaccent", "Scedilla",
	"scedilla", "Cacute", "cacute", "Ccaron", "ccaron", "dcroat",
}
