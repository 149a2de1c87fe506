package otquery

import (
	"github.com/npillmayer/fontmerge/ot"
)

// MaxPTableInfo is a typed query view over OpenType table 'maxp'.
// CFF fonts carry version 0.5 tables, which hold nothing but the glyph count.
type MaxPTableInfo struct {
	VersionFixed uint32
	NumGlyphs    uint16
}

// MaxPInfo decodes table 'maxp'.
func MaxPInfo(otf *ot.Font) (MaxPTableInfo, bool) {
	var info MaxPTableInfo
	if otf == nil {
		return info, false
	}
	b := otf.Table(ot.TagMaxp)
	if len(b) < 6 {
		return info, false
	}
	info.VersionFixed = u32(b[0:])
	info.NumGlyphs = u16(b[4:])
	return info, true
}
