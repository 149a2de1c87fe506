package fea

import (
	"encoding/binary"
	"errors"
	"sort"
)

// errOffsetOverflow is returned if a child table lies beyond the reach of
// a 16-bit offset.
var errOffsetOverflow = errors.New("offset overflow")

// otWriter builds an OpenType table whose children are referenced by 16-bit
// offsets from the start of the table. Children are appended after the
// table header in the order they were referenced, identical children are
// stored once.
type otWriter struct {
	buf   []byte
	links []otLink
}

type otLink struct {
	at    int
	child []byte
}

func (w *otWriter) u16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *otWriter) i16(v int16) {
	w.u16(uint16(v))
}

func (w *otWriter) u32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *otWriter) gids(gids []uint16) {
	for _, g := range gids {
		w.u16(g)
	}
}

// offset writes a placeholder for a child table. A nil child is written as
// a NULL offset.
func (w *otWriter) offset(child []byte) {
	if child != nil {
		w.links = append(w.links, otLink{at: len(w.buf), child: child})
	}
	w.u16(0)
}

func (w *otWriter) bytes() ([]byte, error) {
	out := append([]byte(nil), w.buf...)
	placed := make(map[string]int)
	for _, l := range w.links {
		key := string(l.child)
		pos, ok := placed[key]
		if !ok {
			pos = len(out)
			out = append(out, l.child...)
			placed[key] = pos
		}
		if pos > 0xffff {
			return nil, errOffsetOverflow
		}
		binary.BigEndian.PutUint16(out[l.at:], uint16(pos))
	}
	return out, nil
}

// sortedGlyphs returns the distinct glyph IDs of gids in ascending order.
func sortedGlyphs(gids []uint16) []uint16 {
	out := append([]uint16(nil), gids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, g := range out {
		if i == 0 || g != out[n-1] {
			out[n] = g
			n++
		}
	}
	return out[:n]
}

// glyphRanges splits sorted glyph IDs into runs of consecutive IDs.
func glyphRanges(sorted []uint16) [][2]uint16 {
	var ranges [][2]uint16
	for _, g := range sorted {
		if n := len(ranges); n > 0 && ranges[n-1][1]+1 == g {
			ranges[n-1][1] = g
			continue
		}
		ranges = append(ranges, [2]uint16{g, g})
	}
	return ranges
}

// coverage encodes a coverage table for sorted, distinct glyph IDs, in
// whichever format is smaller.
func coverage(sorted []uint16) []byte {
	var w otWriter
	ranges := glyphRanges(sorted)
	if 3*len(ranges) < len(sorted) {
		w.u16(2)
		w.u16(uint16(len(ranges)))
		index := 0
		for _, r := range ranges {
			w.u16(r[0])
			w.u16(r[1])
			w.u16(uint16(index))
			index += int(r[1]-r[0]) + 1
		}
	} else {
		w.u16(1)
		w.u16(uint16(len(sorted)))
		w.gids(sorted)
	}
	return w.buf
}

// classDef encodes a class definition table of format 2. Glyphs of class 0
// are left out.
func classDef(classes map[uint16]uint16) []byte {
	gids := make([]uint16, 0, len(classes))
	for g, c := range classes {
		if c != 0 {
			gids = append(gids, g)
		}
	}
	gids = sortedGlyphs(gids)
	type classRange struct{ first, last, class uint16 }
	var ranges []classRange
	for _, g := range gids {
		c := classes[g]
		if n := len(ranges); n > 0 && ranges[n-1].last+1 == g && ranges[n-1].class == c {
			ranges[n-1].last = g
			continue
		}
		ranges = append(ranges, classRange{g, g, c})
	}
	var w otWriter
	w.u16(2)
	w.u16(uint16(len(ranges)))
	for _, r := range ranges {
		w.u16(r.first)
		w.u16(r.last)
		w.u16(r.class)
	}
	return w.buf
}

// Value format bits.
const (
	valueXPlacement = 0x0001
	valueYPlacement = 0x0002
	valueXAdvance   = 0x0004
	valueYAdvance   = 0x0008
)

type valueRecord struct {
	xPlacement, yPlacement int16
	xAdvance, yAdvance     int16
}

func (v valueRecord) format() uint16 {
	var f uint16
	if v.xPlacement != 0 {
		f |= valueXPlacement
	}
	if v.yPlacement != 0 {
		f |= valueYPlacement
	}
	if v.xAdvance != 0 {
		f |= valueXAdvance
	}
	if v.yAdvance != 0 {
		f |= valueYAdvance
	}
	return f
}

func (w *otWriter) value(v valueRecord, format uint16) {
	if format&valueXPlacement != 0 {
		w.i16(v.xPlacement)
	}
	if format&valueYPlacement != 0 {
		w.i16(v.yPlacement)
	}
	if format&valueXAdvance != 0 {
		w.i16(v.xAdvance)
	}
	if format&valueYAdvance != 0 {
		w.i16(v.yAdvance)
	}
}

type anchor struct {
	x, y       int16
	point      uint16
	hasContour bool
}

// encode returns an anchor table of format 1, or format 2 if the anchor
// names a contour point.
func (a *anchor) encode() []byte {
	if a == nil {
		return nil
	}
	var w otWriter
	if a.hasContour {
		w.u16(2)
		w.i16(a.x)
		w.i16(a.y)
		w.u16(a.point)
	} else {
		w.u16(1)
		w.i16(a.x)
		w.i16(a.y)
	}
	return w.buf
}
