package fontgen

import (
	"encoding/binary"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/fontmerge/otquery"
	"github.com/npillmayer/fontmerge/sfd"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// secondsFrom1904 is the offset between the Unix epoch and the epoch of
// OpenType date fields.
const secondsFrom1904 = 2082844800

type tableWriter struct {
	buf []byte
}

func (w *tableWriter) u16(v int) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
}

func (w *tableWriter) u32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *tableWriter) i64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

func (w *tableWriter) fixed(v float64) {
	w.u32(uint32(int32(math.Round(v * 65536))))
}

func round(v float64) int {
	return int(math.Round(v))
}

// --- head ------------------------------------------------------------------

func (fd *fontData) buildHead() []byte {
	src := fd.src
	var w tableWriter
	w.u16(1)
	w.u16(0)
	w.fixed(fontRevision(src.Version))
	w.u32(0) // checkSumAdjustment, set when the font is assembled
	w.u32(0x5F0F3CF5)
	w.u16(0x000B) // baseline at y=0, lsb at x=0, integer scaling
	w.u16(fd.em)
	t := fd.time.Unix() + secondsFrom1904
	w.i64(t)
	w.i64(t)
	for _, v := range fd.bbox {
		w.u16(v)
	}
	w.u16(fd.macStyle())
	w.u16(8)  // lowestRecPPEM
	w.u16(2)  // fontDirectionHint
	w.u16(0)  // indexToLocFormat
	w.u16(0)  // glyphDataFormat
	return w.buf
}

// fontRevision reads the leading number of a version string, e.g. 1.2 from
// "1.2 beta".
func fontRevision(version string) float64 {
	version = strings.TrimPrefix(strings.TrimSpace(version), "Version ")
	end := 0
	for end < len(version) && (version[end] >= '0' && version[end] <= '9' || version[end] == '.') {
		end++
	}
	v, err := strconv.ParseFloat(strings.TrimRight(version[:end], "."), 64)
	if err != nil {
		return 1
	}
	return v
}

func (fd *fontData) macStyle() int {
	style := 0
	if fd.src.OS2.WeightClass >= 700 {
		style |= 1
	}
	if fd.src.ItalicAngle != 0 {
		style |= 2
	}
	return style
}

// --- hhea, hmtx, maxp ------------------------------------------------------

// vertical resolves a vertical metric which may be stored relative to base.
func vertical(m sfd.VMetric, base float64) int {
	if m.IsOffset {
		return round(base + m.Value)
	}
	return round(m.Value)
}

func (fd *fontData) numberOfHMetrics() int {
	n := len(fd.glyphs)
	for n > 1 && fd.glyphs[n-1].width == fd.glyphs[n-2].width {
		n--
	}
	return n
}

func (fd *fontData) buildHhea() []byte {
	os2 := fd.src.OS2
	advMax, minLSB, minRSB, maxExtent := 0, math.MaxInt16, math.MaxInt16, math.MinInt16
	for _, g := range fd.glyphs {
		advMax = max(advMax, g.width)
		if g.bbox.Empty {
			continue
		}
		xmin, xmax := g.lsb(), int(math.Ceil(g.bbox.XMax))
		minLSB = min(minLSB, xmin)
		minRSB = min(minRSB, g.width-xmax)
		maxExtent = max(maxExtent, xmax)
	}
	if maxExtent == math.MinInt16 {
		minLSB, minRSB, maxExtent = 0, 0, 0
	}
	var w tableWriter
	w.u32(0x00010000)
	w.u16(vertical(os2.HHeadAscent, float64(fd.bbox[3])))
	w.u16(vertical(os2.HHeadDesc, float64(fd.bbox[1])))
	w.u16(round(os2.HHeadLGap))
	w.u16(advMax)
	w.u16(minLSB)
	w.u16(minRSB)
	w.u16(maxExtent)
	w.u16(1) // caretSlopeRise
	w.u16(0) // caretSlopeRun
	w.u16(0) // caretOffset
	for range 4 {
		w.u16(0)
	}
	w.u16(0) // metricDataFormat
	w.u16(fd.numberOfHMetrics())
	return w.buf
}

func (fd *fontData) buildHmtx() []byte {
	n := fd.numberOfHMetrics()
	var w tableWriter
	for i, g := range fd.glyphs {
		if i < n {
			w.u16(g.width)
		}
		w.u16(g.lsb())
	}
	return w.buf
}

func (fd *fontData) buildMaxp() []byte {
	var w tableWriter
	w.u32(0x00005000)
	w.u16(len(fd.glyphs))
	return w.buf
}

// --- OS/2 ------------------------------------------------------------------

// Unicode ranges and code pages flagged in OS/2 for the scripts we expect.
var unicodeRanges = []struct {
	bit      int
	from, to int
}{
	{0, 0x0000, 0x007f},
	{1, 0x0080, 0x00ff},
	{13, 0x0600, 0x06ff},
	{31, 0x2000, 0x206f},
	{63, 0xfb50, 0xfdff},
	{67, 0xfe70, 0xfeff},
}

func (fd *fontData) buildOS2() []byte {
	src := fd.src
	os2 := src.OS2
	em := float64(fd.em)
	var ranges [4]uint32
	var codePages uint32
	first, last := 0xffff, 0
	widthSum, widthCount := 0, 0
	for _, g := range fd.glyphs {
		if g.width > 0 {
			widthSum += g.width
			widthCount++
		}
		for _, c := range g.codes {
			first, last = min(first, c), max(last, c)
			for _, r := range unicodeRanges {
				if c >= r.from && c <= r.to {
					ranges[r.bit/32] |= 1 << (r.bit % 32)
				}
			}
		}
	}
	if ranges[0]&1 != 0 {
		codePages |= 1 // Latin 1
	}
	if ranges[0]&(1<<13) != 0 {
		codePages |= 1 << 6 // Arabic
	}
	avg := 0
	if widthCount > 0 {
		avg = round(float64(widthSum) / float64(widthCount))
	}
	fsSelection := 0
	if src.ItalicAngle != 0 {
		fsSelection |= 1
	}
	if os2.WeightClass >= 700 {
		fsSelection |= 1 << 5
	}
	if fsSelection == 0 {
		fsSelection |= 1 << 6
	}
	if os2.UseTypo {
		fsSelection |= 1 << 7
	}
	weight := os2.WeightClass
	if weight == 0 {
		weight = otquery.WeightRegular
	}
	widthClass := os2.WidthClass
	if widthClass == 0 {
		widthClass = 5
	}
	var w tableWriter
	w.u16(4)
	w.u16(avg)
	w.u16(weight)
	w.u16(widthClass)
	w.u16(os2.FSType)
	w.u16(round(em * 0.65))  // ySubscriptXSize
	w.u16(round(em * 0.699)) // ySubscriptYSize
	w.u16(0)
	w.u16(round(em * 0.14))
	w.u16(round(em * 0.65)) // ySuperscriptXSize
	w.u16(round(em * 0.699))
	w.u16(0)
	w.u16(round(em * 0.479))
	w.u16(round(src.UnderlineWidth)) // yStrikeoutSize
	w.u16(round(em * 0.258))
	w.u16(0) // sFamilyClass
	w.buf = append(w.buf, os2.Panose[:]...)
	for _, r := range ranges {
		w.u32(r)
	}
	w.buf = append(w.buf, vendorID(os2.Vendor)...)
	w.u16(fsSelection)
	w.u16(min(first, 0xffff))
	w.u16(min(last, 0xffff))
	w.u16(vertical(os2.TypoAscent, src.Ascent))
	w.u16(vertical(os2.TypoDescent, -src.Descent))
	w.u16(round(os2.TypoLineGap))
	w.u16(max(0, vertical(os2.WinAscent, float64(fd.bbox[3]))))
	w.u16(max(0, vertical(os2.WinDescent, float64(-fd.bbox[1]))))
	w.u32(codePages)
	w.u32(0)
	w.u16(fd.heightOf(os2.XHeight, "x"))
	w.u16(fd.heightOf(os2.CapHeight, "H"))
	w.u16(0)  // usDefaultChar
	w.u16(32) // usBreakChar
	w.u16(0)  // usMaxContext
	return w.buf
}

func vendorID(v string) []byte {
	id := []byte((v + "    ")[:4])
	for i, c := range id {
		if c < 0x20 || c > 0x7e {
			id[i] = ' '
		}
	}
	return id
}

// heightOf returns h, or, if h is not set, the height of the named glyph.
func (fd *fontData) heightOf(h float64, name string) int {
	if h != 0 {
		return round(h)
	}
	for _, g := range fd.glyphs {
		if g.name == name && !g.bbox.Empty {
			return int(math.Ceil(g.bbox.YMax))
		}
	}
	return 0
}

// --- name ------------------------------------------------------------------

type nameRecord struct {
	platform, encoding, lang, id int
	value                        []byte
}

// names collects the name entries of the font: defaults derived from the
// font header, overridden by explicit entries of the source.
func (fd *fontData) names() []sfd.SFNTName {
	src := fd.src
	subfamily := src.Weight
	if subfamily == "" {
		subfamily = "Regular"
	}
	defaults := map[int]string{
		sfd.NameCopyright:  src.Copyright,
		sfd.NameFamily:     src.FamilyName,
		sfd.NameSubfamily:  subfamily,
		sfd.NameUniqueID:   "fontmerge : " + src.FullName + " : " + fd.time.Format("2-1-2006"),
		sfd.NameFullName:   src.FullName,
		sfd.NameVersion:    "Version " + src.Version,
		sfd.NamePostScript: src.FontName,
	}
	var names []sfd.SFNTName
	for id, v := range defaults {
		if _, ok := src.SFNTName(sfd.LangEnglishUS, id); !ok && v != "" {
			names = append(names, sfd.SFNTName{Lang: sfd.LangEnglishUS, ID: id, Value: v})
		}
	}
	for _, n := range src.Names {
		if n.Value != "" {
			names = append(names, n)
		}
	}
	return names
}

func (fd *fontData) buildName() []byte {
	utf16 := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	macRoman := charmap.Macintosh.NewEncoder()
	var records []nameRecord
	for _, n := range fd.names() {
		if v, err := utf16.Bytes([]byte(n.Value)); err == nil {
			records = append(records, nameRecord{3, 1, n.Lang, n.ID, v})
		} else {
			tracer().Errorf("cannot encode name %d: %v", n.ID, err)
		}
		if !fd.flags.NoMacNames && n.Lang == sfd.LangEnglishUS {
			if v, err := macRoman.Bytes([]byte(n.Value)); err == nil {
				records = append(records, nameRecord{1, 0, 0, n.ID, v})
			}
		}
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.platform != b.platform {
			return a.platform < b.platform
		}
		if a.encoding != b.encoding {
			return a.encoding < b.encoding
		}
		if a.lang != b.lang {
			return a.lang < b.lang
		}
		return a.id < b.id
	})
	var w tableWriter
	w.u16(0)
	w.u16(len(records))
	w.u16(6 + 12*len(records))
	var storage []byte
	for _, r := range records {
		w.u16(r.platform)
		w.u16(r.encoding)
		w.u16(r.lang)
		w.u16(r.id)
		w.u16(len(r.value))
		w.u16(len(storage))
		storage = append(storage, r.value...)
	}
	return append(w.buf, storage...)
}

// --- cmap ------------------------------------------------------------------

type cmapEntry struct {
	code, gid int
}

func (fd *fontData) cmapEntries() []cmapEntry {
	seen := make(map[int]bool)
	var entries []cmapEntry
	for gid, g := range fd.glyphs {
		for _, c := range g.codes {
			if seen[c] || c < 0 || c > 0x10ffff {
				continue
			}
			seen[c] = true
			entries = append(entries, cmapEntry{c, gid})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].code < entries[j].code })
	return entries
}

func (fd *fontData) buildCmap() []byte {
	entries := fd.cmapEntries()
	var bmp []cmapEntry
	for _, e := range entries {
		if e.code < 0xffff {
			bmp = append(bmp, e)
		}
	}
	format4 := buildCmap4(bmp)
	var format12 []byte
	if len(bmp) < len(entries) {
		format12 = buildCmap12(entries)
	}
	type record struct {
		platform, encoding int
		subtable           []byte
	}
	records := []record{{0, 3, format4}}
	if format12 != nil {
		records = append(records, record{0, 4, format12})
	}
	records = append(records, record{3, 1, format4})
	if format12 != nil {
		records = append(records, record{3, 10, format12})
	}
	var w tableWriter
	w.u16(0)
	w.u16(len(records))
	offset4 := 4 + 8*len(records)
	offset12 := offset4 + len(format4)
	for _, r := range records {
		w.u16(r.platform)
		w.u16(r.encoding)
		if len(r.subtable) > 0 && r.subtable[1] == 12 {
			w.u32(uint32(offset12))
		} else {
			w.u32(uint32(offset4))
		}
	}
	w.buf = append(w.buf, format4...)
	return append(w.buf, format12...)
}

type cmapSegment struct {
	start, end, delta int
}

// buildCmap4 writes a format 4 subtable with one segment per run of
// consecutive code points mapping to consecutive glyphs.
func buildCmap4(entries []cmapEntry) []byte {
	var segs []cmapSegment
	for _, e := range entries {
		if n := len(segs); n > 0 && segs[n-1].end+1 == e.code && segs[n-1].delta == e.gid-e.code {
			segs[n-1].end = e.code
			continue
		}
		segs = append(segs, cmapSegment{e.code, e.code, e.gid - e.code})
	}
	segs = append(segs, cmapSegment{0xffff, 0xffff, 1})
	segCount := len(segs)
	searchRange, entrySelector := 1, 0
	for searchRange*2 <= segCount {
		searchRange *= 2
		entrySelector++
	}
	searchRange *= 2
	var w tableWriter
	w.u16(4)
	w.u16(16 + 8*segCount)
	w.u16(0) // language
	w.u16(2 * segCount)
	w.u16(searchRange)
	w.u16(entrySelector)
	w.u16(2*segCount - searchRange)
	for _, s := range segs {
		w.u16(s.end)
	}
	w.u16(0) // reservedPad
	for _, s := range segs {
		w.u16(s.start)
	}
	for _, s := range segs {
		w.u16(s.delta & 0xffff)
	}
	for range segs {
		w.u16(0) // idRangeOffset
	}
	return w.buf
}

func buildCmap12(entries []cmapEntry) []byte {
	type group struct{ start, end, gid int }
	var groups []group
	for _, e := range entries {
		if n := len(groups); n > 0 && groups[n-1].end+1 == e.code &&
			groups[n-1].gid+e.code-groups[n-1].start == e.gid {
			groups[n-1].end = e.code
			continue
		}
		groups = append(groups, group{e.code, e.code, e.gid})
	}
	var w tableWriter
	w.u16(12)
	w.u16(0)
	w.u32(uint32(16 + 12*len(groups)))
	w.u32(0) // language
	w.u32(uint32(len(groups)))
	for _, g := range groups {
		w.u32(uint32(g.start))
		w.u32(uint32(g.end))
		w.u32(uint32(g.gid))
	}
	return w.buf
}

// --- post ------------------------------------------------------------------

func (fd *fontData) buildPost() []byte {
	src := fd.src
	var w tableWriter
	w.u32(0x00020000)
	w.fixed(src.ItalicAngle)
	w.u16(round(src.UnderlinePosition))
	w.u16(round(src.UnderlineWidth))
	fixedPitch := uint32(1)
	for _, g := range fd.glyphs[1:] {
		if g.width != fd.glyphs[0].width && g.width != 0 {
			fixedPitch = 0
			break
		}
	}
	w.u32(fixedPitch)
	for range 4 {
		w.u32(0) // memory usage hints
	}
	w.u16(len(fd.glyphs))
	var custom []byte
	ncustom := 0
	for _, g := range fd.glyphs {
		if ix, ok := macIndex[g.name]; ok {
			w.u16(ix)
			continue
		}
		name := g.name
		if len(name) > 255 {
			name = name[:255]
		}
		w.u16(len(otquery.MacGlyphNames) + ncustom)
		custom = append(custom, byte(len(name)))
		custom = append(custom, name...)
		ncustom++
	}
	return append(w.buf, custom...)
}
