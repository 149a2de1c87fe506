package ot

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/go-text/typesetting/font/opentype"
)

// Font is an OpenType font held as a set of raw tables.
//
// Tables are copied out of the font binary when the font is opened, so clients
// may replace or patch them freely. Nothing is written to disk until Save is called.
type Font struct {
	Type     Tag // sfnt version: TypeTrueType or TypeCFF
	tables   map[Tag][]byte
	warnings []FontWarning
}

// Open reads and parses a font file.
func Open(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSuchFile, err)
	}
	otf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return otf, nil
}

// Parse reads a font from its binary representation. Table checksums are
// verified; mismatches are recorded as warnings, not errors.
func Parse(data []byte) (*Font, error) {
	ld, err := opentype.NewLoader(bytes.NewReader(data))
	if err != nil {
		return nil, FontError{
			Section:  "directory",
			Issue:    err.Error(),
			Severity: SeverityCritical,
		}
	}
	otf := &Font{
		Type:   Tag(u32(data)),
		tables: make(map[Tag][]byte),
	}
	for _, t := range directoryTags(data) {
		raw, err := ld.RawTable(opentype.Tag(t))
		if err != nil {
			return nil, FontError{
				Table:    t,
				Section:  "record",
				Issue:    err.Error(),
				Severity: SeverityCritical,
			}
		}
		otf.tables[t] = raw
	}
	otf.warnings = verifyChecksums(data)
	for _, w := range otf.warnings {
		tracer().Infof("%s", w)
	}
	tracer().Debugf("font has %d tables", len(otf.tables))
	return otf, nil
}

// directoryTags lists the tags of the table records of a font binary which
// has already passed the loader.
func directoryTags(data []byte) []Tag {
	n := int(u16(data[4:]))
	tags := make([]Tag, 0, n)
	for i := 0; i < n && 12+i*16+16 <= len(data); i++ {
		tags = append(tags, Tag(u32(data[12+i*16:])))
	}
	return tags
}

// verifyChecksums walks the table directory of data and compares the stored
// checksums against the table contents.
func verifyChecksums(data []byte) []FontWarning {
	if len(data) < 12 {
		return nil
	}
	var warnings []FontWarning
	n := int(u16(data[4:]))
	for i := 0; i < n; i++ {
		rec := 12 + i*16
		if rec+16 > len(data) {
			break
		}
		tag := Tag(u32(data[rec:]))
		sum := u32(data[rec+4:])
		off, size := int(u32(data[rec+8:])), int(u32(data[rec+12:]))
		if off+size > len(data) || off < 0 {
			continue // the loader would have complained already
		}
		table := data[off : off+size]
		if tag == TagHead && size >= 12 {
			table = append([]byte(nil), table...)
			putU32(table[8:], 0)
		}
		if got := Checksum(table); got != sum {
			warnings = append(warnings, FontWarning{
				Table:    tag,
				Issue:    fmt.Sprintf("checksum mismatch: recorded %#08x, computed %#08x", sum, got),
				Severity: SeverityMinor,
				Offset:   uint32(off),
			})
		}
		if tag == TagHead && size >= 12 {
			if w, ok := verifyAdjustment(data, off); !ok {
				warnings = append(warnings, w)
			}
		}
	}
	return warnings
}

// verifyAdjustment checks the checkSumAdjustment field of table head, which
// starts at offset head in data.
func verifyAdjustment(data []byte, head int) (FontWarning, bool) {
	whole := append([]byte(nil), data...)
	putU32(whole[head+8:], 0)
	recorded, want := u32(data[head+8:]), uint32(checkSumMagic)-Checksum(whole)
	if recorded == want {
		return FontWarning{}, true
	}
	return FontWarning{
		Table:    TagHead,
		Issue:    fmt.Sprintf("checksum adjustment mismatch: recorded %#08x, computed %#08x", recorded, want),
		Severity: SeverityMajor,
		Offset:   uint32(head + 8),
	}, false
}

// Warnings returns the issues found when the font was opened.
func (otf *Font) Warnings() []FontWarning {
	return otf.warnings
}

// Table returns the binary of the table for a given tag. If the font does not
// contain the table, nil is returned.
//
// Table tag names are case-sensitive, following the names in the OpenType specification,
// e.g. T("OS/2") or T("CFF ").
func (otf *Font) Table(tag Tag) []byte {
	return otf.tables[tag]
}

// HasTable returns true if the font contains a table for tag.
func (otf *Font) HasTable(tag Tag) bool {
	_, ok := otf.tables[tag]
	return ok
}

// SetTable adds or replaces a table.
func (otf *Font) SetTable(tag Tag, data []byte) {
	if otf.tables == nil {
		otf.tables = make(map[Tag][]byte)
	}
	otf.tables[tag] = data
}

// RemoveTable drops a table from the font, if present.
func (otf *Font) RemoveTable(tag Tag) {
	delete(otf.tables, tag)
}

// TableTags returns a sorted list of tags, one for each table contained in the font.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Bytes assembles the font binary from the current set of tables.
func (otf *Font) Bytes() ([]byte, error) {
	b := NewBuilder(otf.Type)
	for tag, data := range otf.tables {
		b.AddTable(tag, data)
	}
	return b.Build()
}

// Save writes the font to path, replacing an existing file.
func (otf *Font) Save(path string) error {
	data, err := otf.Bytes()
	if err != nil {
		return err
	}
	tracer().Debugf("writing %d bytes to %s", len(data), path)
	return os.WriteFile(path, data, 0o644)
}
