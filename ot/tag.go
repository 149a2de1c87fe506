package ot

// Tag is defined by the OpenType specification as:
// Array of four uint8s (length = 32 bits) used to identify a table,
// design-variation axis, script, language system, feature, or baseline.
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
// If b is shorter or longer, it will be silently extended or cut as appropriate
//
//	MakeTag([]byte("cmap"))
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// Table tags used throughout this module.
var (
	TagCFF  = T("CFF ")
	TagCmap = T("cmap")
	TagGDEF = T("GDEF")
	TagGPOS = T("GPOS")
	TagGSUB = T("GSUB")
	TagHead = T("head")
	TagHhea = T("hhea")
	TagHmtx = T("hmtx")
	TagMaxp = T("maxp")
	TagName = T("name")
	TagOS2  = T("OS/2")
	TagPost = T("post")
)

// Font types, i.e. the sfnt version at the start of a font file.
const (
	TypeTrueType Tag = 0x00010000
	TypeCFF      Tag = 0x4F54544F // 'OTTO'
)
