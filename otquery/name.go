package otquery

import (
	"fmt"
	"iter"

	"github.com/npillmayer/fontmerge/ot"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/unicode"
)

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

// nameKey identifies a NameRecord entry in OpenType table 'name'.
// The key follows the OpenType NameRecord fields directly.
type nameKey struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     sfnt.NameID // see https://pkg.go.dev/golang.org/x/image/font/sfnt#NameID
}

type PlatformID uint16

const (
	PlatformIDUnicode   PlatformID = 0
	PlatformIDMacintosh PlatformID = 1 // not supported
	PlatformIDWindows   PlatformID = 3
)

type EncodingID uint16

const (
	EncodingIDUnicodeBMP    EncodingID = 3
	EncodingIDWindowsSymbol EncodingID = 0 // for now we will not support symbol fonts
	EncodingIDWindowsBMP    EncodingID = 1
)

// LanguageEnglishUS is the Windows language ID for English (US).
const LanguageEnglishUS = 0x409

// NamesRange yields decoded `(nameID, value)` pairs from a font's OpenType
// `name` table, in record order.
//
// Only currently supported encodings are yielded (Unicode BMP and Windows BMP),
// and malformed or out-of-bounds records are skipped.
func NamesRange(otf *ot.Font) iter.Seq2[sfnt.NameID, string] {
	names := checkNameTableSafe(otf)
	return func(yield func(sfnt.NameID, string) bool) {
		if names == nil {
			return
		}
		count := int(u16(names[2:4]))
		storage := int(u16(names[4:6]))
		for i := range count {
			rec := names[nameHeaderSize+i*nameRecordSize : nameHeaderSize+(i+1)*nameRecordSize]
			key := nameKey{
				Platform: PlatformID(u16(rec[0:2])),
				Encoding: EncodingID(u16(rec[2:4])),
				Language: u16(rec[4:6]),
				Name:     sfnt.NameID(u16(rec[6:8])),
			}
			if !isSupportedNameEncoding(key) {
				continue
			}
			strLen := int(u16(rec[8:10]))
			start := storage + int(u16(rec[10:12]))
			end := start + strLen
			if end > len(names) {
				continue
			}
			value, err := decodeNameUTF16(names[start:end])
			if err != nil || value == "" {
				continue
			}
			if !yield(key.Name, value) {
				return
			}
		}
	}
}

// NameInfo collects the decoded strings of table 'name', keyed by name ID.
// If a name ID occurs more than once, the first record wins.
func NameInfo(otf *ot.Font) map[sfnt.NameID]string {
	info := make(map[sfnt.NameID]string)
	for id, value := range NamesRange(otf) {
		if _, ok := info[id]; !ok {
			info[id] = value
		}
	}
	return info
}

// checkNameTableSafe checks if the name table is safe to use, i.e. no out-of-bounds access,
// no empty tables, etc.
func checkNameTableSafe(otf *ot.Font) []byte {
	if otf == nil {
		return nil
	}
	b := otf.Table(ot.TagName)
	if b == nil {
		tracer().Debugf("no name table found in font")
		return nil
	}
	if len(b) < nameHeaderSize {
		tracer().Debugf("name table too short: %d", len(b))
		return nil
	}
	count := int(u16(b[2:4]))
	strOff := int(u16(b[4:6]))
	if strOff > len(b) {
		tracer().Debugf("name table invalid string offset: %d", strOff)
		return nil
	}
	if nameHeaderSize+count*nameRecordSize > len(b) {
		tracer().Debugf("name table record section out of bounds: count=%d", count)
		return nil
	}
	return b
}

func isSupportedNameEncoding(key nameKey) bool {
	return (key.Platform == PlatformIDUnicode && key.Encoding == EncodingIDUnicodeBMP) ||
		(key.Platform == PlatformIDWindows && key.Encoding == EncodingIDWindowsBMP)
}

func decodeNameUTF16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	s, err := enc.NewDecoder().Bytes(str)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}
