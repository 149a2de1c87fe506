package ot

import (
	"sort"
)

// checkSumMagic is the constant head.checkSumAdjustment is computed against.
const checkSumMagic = 0xB1B0AFBA

// Builder assembles a font binary from a set of tables.
type Builder struct {
	sfntVersion Tag
	tables      map[Tag][]byte
}

// NewBuilder creates a Builder for a font of the given type (TypeCFF or TypeTrueType).
func NewBuilder(sfntVersion Tag) *Builder {
	return &Builder{
		sfntVersion: sfntVersion,
		tables:      make(map[Tag][]byte),
	}
}

// AddTable adds or replaces a table in the font.
func (b *Builder) AddTable(tag Tag, data []byte) {
	b.tables[tag] = data
}

// HasTable returns true if the table exists.
func (b *Builder) HasTable(tag Tag) bool {
	_, ok := b.tables[tag]
	return ok
}

// Build produces the final font binary. Tables are written in tag order, each
// padded to a 4-byte boundary. If a head table is present, its
// checkSumAdjustment is recomputed for the whole file.
func (b *Builder) Build() ([]byte, error) {
	if len(b.tables) == 0 {
		return nil, ErrNoTables
	}
	tags := make([]Tag, 0, len(b.tables))
	for tag := range b.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	numTables := len(tags)
	searchRange, entrySelector, rangeShift := searchParams(numTables)
	headerSize := 12 + numTables*16
	size := headerSize
	for _, tag := range tags {
		size += pad4(len(b.tables[tag]))
	}
	out := make([]byte, size)

	putU32(out[0:], uint32(b.sfntVersion))
	putU16(out[4:], uint16(numTables))
	putU16(out[6:], searchRange)
	putU16(out[8:], entrySelector)
	putU16(out[10:], rangeShift)

	headOffset := -1
	offset := headerSize
	for i, tag := range tags {
		data := b.tables[tag]
		copy(out[offset:], data)
		if tag == TagHead && len(data) >= 12 {
			headOffset = offset
			putU32(out[offset+8:], 0)
		}
		rec := 12 + i*16
		putU32(out[rec:], uint32(tag))
		putU32(out[rec+4:], Checksum(out[offset:offset+len(data)]))
		putU32(out[rec+8:], uint32(offset))
		putU32(out[rec+12:], uint32(len(data)))
		offset += pad4(len(data))
	}
	if headOffset >= 0 {
		adj := uint32(checkSumMagic) - Checksum(out)
		putU32(out[headOffset+8:], adj)
	}
	tracer().Debugf("assembled font with %d tables, %d bytes", numTables, len(out))
	return out, nil
}

func searchParams(numTables int) (searchRange, entrySelector, rangeShift uint16) {
	power := 1
	for power*2 <= numTables {
		power *= 2
		entrySelector++
	}
	searchRange = uint16(power * 16)
	rangeShift = uint16(numTables*16) - searchRange
	return
}
