package fontgen

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/npillmayer/fontmerge/sfd"
)

// CFF DICT operators. Two-byte operators are encoded as 0x0c00|op.
const (
	opVersion            = 0
	opNotice             = 1
	opFullName           = 2
	opFamilyName         = 3
	opWeight             = 4
	opFontBBox           = 5
	opCharset            = 15
	opCharStrings        = 17
	opPrivate            = 18
	opDefaultWidthX      = 20
	opNominalWidthX      = 21
	opItalicAngle        = 0x0c02
	opUnderlinePosition  = 0x0c03
	opUnderlineThickness = 0x0c04
	opFontMatrix         = 0x0c07
)

// Type 2 charstring operators.
const (
	csRLineTo   = 5
	csRRCurveTo = 8
	csEndChar   = 14
	csRMoveTo   = 21
)

// stringTable hands out CFF string IDs, using the predefined standard
// strings where possible.
type stringTable struct {
	custom []string
	index  map[string]int
}

func (st *stringTable) sid(s string) int {
	if sid, ok := standardSID[s]; ok {
		return sid
	}
	if st.index == nil {
		st.index = make(map[string]int)
	}
	if sid, ok := st.index[s]; ok {
		return sid
	}
	sid := len(standardStrings) + len(st.custom)
	st.custom = append(st.custom, s)
	st.index[s] = sid
	return sid
}

// dict collects the operands and operators of a CFF DICT.
type dict struct {
	bytes.Buffer
}

func (d *dict) op(op int) {
	if op > 0xff {
		d.WriteByte(12)
	}
	d.WriteByte(byte(op))
}

func (d *dict) ints(op int, vals ...int) {
	for _, v := range vals {
		d.Write(encodeCFFInt(v))
	}
	d.op(op)
}

// offset writes an offset operand of fixed size, so that the size of a DICT
// does not depend on the offsets it holds.
func (d *dict) offset(op int, vals ...int) {
	for _, v := range vals {
		d.WriteByte(29)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		d.Write(b[:])
	}
	d.op(op)
}

func (d *dict) reals(op int, vals ...float64) {
	for _, v := range vals {
		if v == math.Trunc(v) && math.Abs(v) < 1<<30 {
			d.Write(encodeCFFInt(int(v)))
		} else {
			d.Write(encodeCFFReal(v))
		}
	}
	d.op(op)
}

func encodeCFFInt(v int) []byte {
	if v >= -107 && v <= 107 {
		return []byte{byte(v + 139)}
	}
	if v >= 108 && v <= 1131 {
		v -= 108
		return []byte{byte(v/256 + 247), byte(v % 256)}
	}
	if v >= -1131 && v <= -108 {
		v = -v - 108
		return []byte{byte(v/256 + 251), byte(v % 256)}
	}
	if v >= -32768 && v <= 32767 {
		return []byte{28, byte(v >> 8), byte(v)}
	}
	return []byte{29, byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// encodeCFFReal encodes a real number operand as a sequence of nibbles.
func encodeCFFReal(v float64) []byte {
	s := strconv.FormatFloat(v, 'g', 8, 64)
	var nibbles []byte
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			nibbles = append(nibbles, c-'0')
		case c == '.':
			nibbles = append(nibbles, 0xa)
		case c == '-':
			nibbles = append(nibbles, 0xe)
		case c == 'e' || c == 'E':
			if i+1 < len(s) && s[i+1] == '-' {
				nibbles = append(nibbles, 0xc)
				i++
			} else {
				nibbles = append(nibbles, 0xb)
				if i+1 < len(s) && s[i+1] == '+' {
					i++
				}
			}
		}
	}
	nibbles = append(nibbles, 0xf)
	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, 0xf)
	}
	out := []byte{30}
	for i := 0; i < len(nibbles); i += 2 {
		out = append(out, nibbles[i]<<4|nibbles[i+1])
	}
	return out
}

// buildINDEX creates a CFF INDEX structure.
func buildINDEX(data [][]byte) []byte {
	count := len(data)
	if count == 0 {
		return []byte{0, 0}
	}
	total := 0
	for _, d := range data {
		total += len(d)
	}
	offSize := 1
	switch {
	case total+1 > 0xffffff:
		offSize = 4
	case total+1 > 0xffff:
		offSize = 3
	case total+1 > 0xff:
		offSize = 2
	}
	buf := make([]byte, 3+(count+1)*offSize+total)
	binary.BigEndian.PutUint16(buf[0:], uint16(count))
	buf[2] = byte(offSize)
	offset := 1
	for i := 0; i <= count; i++ {
		writeOffset(buf[3+i*offSize:], offset, offSize)
		if i < count {
			offset += len(data[i])
		}
	}
	pos := 3 + (count+1)*offSize
	for _, d := range data {
		pos += copy(buf[pos:], d)
	}
	return buf
}

func writeOffset(buf []byte, offset, size int) {
	for i := size - 1; i >= 0; i-- {
		buf[i] = byte(offset)
		offset >>= 8
	}
}

// --- Charstrings -----------------------------------------------------------

type charStringWriter struct {
	bytes.Buffer
}

func (cs *charStringWriter) num(v float64) {
	if v == math.Trunc(v) && v >= -32768 && v <= 32767 {
		n := int(v)
		switch {
		case n >= -107 && n <= 107:
			cs.WriteByte(byte(n + 139))
		case n >= 108 && n <= 1131:
			n -= 108
			cs.Write([]byte{byte(n/256 + 247), byte(n % 256)})
		case n >= -1131 && n <= -108:
			n = -n - 108
			cs.Write([]byte{byte(n/256 + 251), byte(n % 256)})
		default:
			cs.Write([]byte{28, byte(n >> 8), byte(n)})
		}
		return
	}
	fixed := int32(math.Round(v * 65536))
	cs.WriteByte(255)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(fixed))
	cs.Write(b[:])
}

// charString encodes the outline of a glyph as a Type 2 charstring. The
// advance width is emitted as the first operand if it differs from the
// default width.
func charString(g *glyph, defaultWidth, nominalWidth int) []byte {
	var cs charStringWriter
	first := true
	width := func() {
		if first && g.width != defaultWidth {
			cs.num(float64(g.width - nominalWidth))
		}
		first = false
	}
	var cur sfd.Point
	for _, c := range g.outline {
		segs := c.Segments
		if n := len(segs); n > 0 && segs[n-1].Kind == sfd.SegLine && segs[n-1].End == c.Start {
			segs = segs[:n-1] // closepath is implicit
		}
		if len(segs) == 0 {
			continue
		}
		width()
		cs.num(c.Start.X - cur.X)
		cs.num(c.Start.Y - cur.Y)
		cs.WriteByte(csRMoveTo)
		cur = c.Start
		for _, s := range segs {
			if s.Kind == sfd.SegCurve {
				cs.num(s.C1.X - cur.X)
				cs.num(s.C1.Y - cur.Y)
				cs.num(s.C2.X - s.C1.X)
				cs.num(s.C2.Y - s.C1.Y)
				cs.num(s.End.X - s.C2.X)
				cs.num(s.End.Y - s.C2.Y)
				cs.WriteByte(csRRCurveTo)
			} else {
				cs.num(s.End.X - cur.X)
				cs.num(s.End.Y - cur.Y)
				cs.WriteByte(csRLineTo)
			}
			cur = s.End
		}
	}
	if first {
		width()
	}
	cs.WriteByte(csEndChar)
	return cs.Bytes()
}

// --- CFF table -------------------------------------------------------------

// buildCFF serializes the CFF table: header, Name INDEX, Top DICT INDEX,
// String INDEX, an empty Global Subr INDEX, charset, CharStrings INDEX and
// the Private DICT.
func (fd *fontData) buildCFF() []byte {
	src := fd.src
	var strs stringTable
	charset := []byte{0} // format 0
	charStrings := make([][]byte, len(fd.glyphs))
	defaultWidth := fd.commonWidth()
	for i, g := range fd.glyphs {
		if i > 0 {
			sid := strs.sid(g.name)
			charset = append(charset, byte(sid>>8), byte(sid))
		}
		charStrings[i] = charString(g, defaultWidth, defaultWidth)
	}
	var private dict
	private.ints(opDefaultWidthX, defaultWidth)
	private.ints(opNominalWidthX, defaultWidth)

	topDict := func(charsetOff, charStringsOff, privateOff int) []byte {
		var d dict
		if src.Version != "" {
			d.ints(opVersion, strs.sid(src.Version))
		}
		if src.Copyright != "" {
			d.ints(opNotice, strs.sid(src.Copyright))
		}
		if src.FullName != "" {
			d.ints(opFullName, strs.sid(src.FullName))
		}
		if src.FamilyName != "" {
			d.ints(opFamilyName, strs.sid(src.FamilyName))
		}
		if src.Weight != "" {
			d.ints(opWeight, strs.sid(src.Weight))
		}
		d.ints(opFontBBox, fd.bbox[0], fd.bbox[1], fd.bbox[2], fd.bbox[3])
		if src.ItalicAngle != 0 {
			d.reals(opItalicAngle, src.ItalicAngle)
		}
		d.reals(opUnderlinePosition, math.Round(src.UnderlinePosition))
		d.reals(opUnderlineThickness, math.Round(src.UnderlineWidth))
		if fd.em != 1000 {
			s := 1 / float64(fd.em)
			d.reals(opFontMatrix, s, 0, 0, s, 0, 0)
		}
		d.offset(opCharset, charsetOff)
		d.offset(opCharStrings, charStringsOff)
		d.offset(opPrivate, private.Len(), privateOff)
		return d.Bytes()
	}
	// the top DICT registers its strings on the first call, so its size is
	// known before the String INDEX is built
	top := topDict(0, 0, 0)
	customStrings := make([][]byte, len(strs.custom))
	for i, s := range strs.custom {
		customStrings[i] = []byte(s)
	}
	nameINDEX := buildINDEX([][]byte{[]byte(src.FontName)})
	stringINDEX := buildINDEX(customStrings)
	globalSubrINDEX := buildINDEX(nil)
	charStringsINDEX := buildINDEX(charStrings)

	topINDEXSize := len(buildINDEX([][]byte{top}))
	offset := 4 + len(nameINDEX) + topINDEXSize + len(stringINDEX) + len(globalSubrINDEX)
	charsetOff := offset
	charStringsOff := charsetOff + len(charset)
	privateOff := charStringsOff + len(charStringsINDEX)
	top = topDict(charsetOff, charStringsOff, privateOff)

	var out bytes.Buffer
	out.Write([]byte{1, 0, 4, 4}) // major, minor, hdrSize, offSize
	out.Write(nameINDEX)
	out.Write(buildINDEX([][]byte{top}))
	out.Write(stringINDEX)
	out.Write(globalSubrINDEX)
	out.Write(charset)
	out.Write(charStringsINDEX)
	out.Write(private.Bytes())
	tracer().Debugf("CFF: %d glyphs, %d custom strings, %d bytes", len(fd.glyphs), len(strs.custom), out.Len())
	return out.Bytes()
}
