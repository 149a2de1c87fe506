package fea

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/npillmayer/fontmerge/ot"
)

// featureRecord is a feature of a layout table. Language systems with an
// identical list of lookups for a feature tag share a record.
type featureRecord struct {
	tag     string
	lookups []uint16
}

// buildLayout encodes table GSUB or GPOS. It returns nil if the feature
// file has no lookups for the table.
func (b *builder) buildLayout(table ot.Tag) ([]byte, error) {
	var lookups []*lookup
	for _, l := range b.lookups {
		if l.table == table {
			l.index = len(lookups)
			lookups = append(lookups, l)
		}
	}
	if len(lookups) == 0 {
		return nil, nil
	}
	records, index := b.featureRecords(table)
	scripts := b.scriptList(table, records, index)
	var features otWriter
	features.u16(uint16(len(records)))
	for _, r := range records {
		features.u32(uint32(ot.T(r.tag)))
		var f otWriter
		f.u16(0) // feature params
		f.u16(uint16(len(r.lookups)))
		f.gids(r.lookups)
		features.offset(f.buf)
	}
	featureList, err := features.bytes()
	if err != nil {
		return nil, err
	}
	extType := uint16(gsubExtension)
	if table == ot.TagGPOS {
		extType = gposExtension
	}
	lookupList, err := encodeLookupList(lookups, extType, false)
	if errors.Is(err, errOffsetOverflow) {
		tracer().Infof("%s: lookups exceed 16-bit offsets, using extension lookups", table)
		lookupList, err = encodeLookupList(lookups, extType, true)
	}
	if err != nil {
		return nil, err
	}
	var w otWriter
	w.u32(0x00010000)
	w.offset(scripts)
	w.offset(featureList)
	w.offset(lookupList)
	return w.bytes()
}

// featureRecords collects the feature records of a table, sorted by tag.
// index maps a feature of a language system to its record.
func (b *builder) featureRecords(table ot.Tag) ([]featureRecord, map[featureKey]int) {
	type entry struct {
		key featureKey
		rec featureRecord
	}
	var entries []entry
	for _, key := range b.featureKeys {
		var indices []uint16
		for _, l := range b.features[key] {
			if l.table == table {
				indices = append(indices, uint16(l.index))
			}
		}
		if len(indices) == 0 {
			continue
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
		entries = append(entries, entry{key, featureRecord{key.tag, indices}})
	}
	var records []featureRecord
	recordOf := make(map[featureKey]int)
	for _, e := range entries {
		found := -1
		for i, r := range records {
			if r.tag == e.rec.tag && equalGlyphs(r.lookups, e.rec.lookups) {
				found = i
				break
			}
		}
		if found < 0 {
			found = len(records)
			records = append(records, e.rec)
		}
		recordOf[e.key] = found
	}
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return records[order[i]].tag < records[order[j]].tag
	})
	sorted := make([]featureRecord, len(records))
	newIndex := make([]int, len(records))
	for i, o := range order {
		sorted[i] = records[o]
		newIndex[o] = i
	}
	index := make(map[featureKey]int, len(recordOf))
	for key, i := range recordOf {
		index[key] = newIndex[i]
	}
	return sorted, index
}

// scriptList encodes the scripts and language systems referring to the
// feature records of a table.
func (b *builder) scriptList(table ot.Tag, records []featureRecord, index map[featureKey]int) []byte {
	langs := make(map[string]map[string][]uint16)
	reqs := make(map[langKey]int)
	for key, i := range index {
		if langs[key.script] == nil {
			langs[key.script] = make(map[string][]uint16)
		}
		lk := key.langKey
		if b.required[lk] == key.tag {
			reqs[lk] = i
			if _, ok := langs[key.script][key.lang]; !ok {
				langs[key.script][key.lang] = nil
			}
			continue
		}
		langs[key.script][key.lang] = append(langs[key.script][key.lang], uint16(i))
	}
	scripts := make([]string, 0, len(langs))
	for s := range langs {
		scripts = append(scripts, s)
	}
	sort.Strings(scripts)
	langSys := func(lk langKey) []byte {
		indices := langs[lk.script][lk.lang]
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
		var w otWriter
		w.u16(0) // lookup order
		if i, ok := reqs[lk]; ok {
			w.u16(uint16(i))
		} else {
			w.u16(0xffff)
		}
		w.u16(uint16(len(indices)))
		w.gids(indices)
		return w.buf
	}
	var list otWriter
	list.u16(uint16(len(scripts)))
	for _, s := range scripts {
		list.u32(uint32(ot.T(s)))
		var tags []string
		for l := range langs[s] {
			if l != "dflt" {
				tags = append(tags, l)
			}
		}
		sort.Strings(tags)
		var script otWriter
		if _, ok := langs[s]["dflt"]; ok {
			script.offset(langSys(langKey{s, "dflt"}))
		} else {
			script.offset(nil)
		}
		script.u16(uint16(len(tags)))
		for _, l := range tags {
			script.u32(uint32(ot.T(l)))
			script.offset(langSys(langKey{s, l}))
		}
		data, _ := script.bytes()
		list.offset(data)
	}
	data, _ := list.bytes()
	tracer().Debugf("%s: %d scripts, %d features", table, len(scripts), len(records))
	return data
}

// encodeLookupList lays out a lookup list. Every lookup table is followed
// by its subtables. Subtables of extension lookups are placed after the
// whole list and referenced by 32-bit offsets, so with allExt set the
// list is small enough for 16-bit offsets.
func encodeLookupList(lookups []*lookup, extType uint16, allExt bool) ([]byte, error) {
	type extRef struct {
		at  int
		sub []byte
	}
	var refs []extRef
	out := make([]byte, 2+2*len(lookups))
	binary.BigEndian.PutUint16(out, uint16(len(lookups)))
	for i, l := range lookups {
		subtables, err := l.encode()
		if err != nil {
			return nil, err
		}
		pos := len(out)
		if pos > 0xffff {
			return nil, errOffsetOverflow
		}
		binary.BigEndian.PutUint16(out[2+2*i:], uint16(pos))
		ext := allExt || l.extension
		flags := l.flags
		size := 6 + 2*len(subtables)
		if l.markSet >= 0 {
			flags |= FlagUseMarkFilteringSet
			size += 2
		}
		typ := l.typ
		if ext {
			typ = extType
		}
		out = append(out, make([]byte, size)...)
		binary.BigEndian.PutUint16(out[pos:], typ)
		binary.BigEndian.PutUint16(out[pos+2:], flags)
		binary.BigEndian.PutUint16(out[pos+4:], uint16(len(subtables)))
		if l.markSet >= 0 {
			binary.BigEndian.PutUint16(out[pos+size-2:], uint16(l.markSet))
		}
		for j, sub := range subtables {
			at := len(out)
			if at-pos > 0xffff {
				return nil, errOffsetOverflow
			}
			binary.BigEndian.PutUint16(out[pos+6+2*j:], uint16(at-pos))
			if !ext {
				out = append(out, sub...)
				continue
			}
			refs = append(refs, extRef{at: at, sub: sub})
			out = binary.BigEndian.AppendUint16(out, 1)
			out = binary.BigEndian.AppendUint16(out, l.typ)
			out = binary.BigEndian.AppendUint32(out, 0)
		}
	}
	placed := make(map[string]int)
	for _, r := range refs {
		pos, ok := placed[string(r.sub)]
		if !ok {
			pos = len(out)
			out = append(out, r.sub...)
			placed[string(r.sub)] = pos
		}
		binary.BigEndian.PutUint32(out[r.at+4:], uint32(pos-r.at))
	}
	return out, nil
}

// buildGDEF encodes glyph classes, mark attachment classes and mark
// filtering sets. It returns nil if there are none.
func (b *builder) buildGDEF() ([]byte, error) {
	classes := b.glyphClasses()
	if len(classes) == 0 && len(b.attachClasses) == 0 && len(b.filters) == 0 {
		return nil, nil
	}
	var w otWriter
	if len(b.filters) > 0 {
		w.u32(0x00010002)
	} else {
		w.u32(0x00010000)
	}
	if len(classes) > 0 {
		w.offset(classDef(classes))
	} else {
		w.offset(nil)
	}
	w.offset(nil) // attachment point list
	w.offset(nil) // ligature caret list
	if len(b.attachClasses) > 0 {
		attach := make(map[uint16]uint16)
		for i, set := range b.attachClasses {
			for _, g := range set {
				attach[g] = uint16(i + 1)
			}
		}
		w.offset(classDef(attach))
	} else {
		w.offset(nil)
	}
	if len(b.filters) > 0 {
		w.offset(markGlyphSets(b.filters))
	}
	return w.bytes()
}

func markGlyphSets(sets [][]uint16) []byte {
	head := 4 + 4*len(sets)
	out := make([]byte, head)
	binary.BigEndian.PutUint16(out, 1)
	binary.BigEndian.PutUint16(out[2:], uint16(len(sets)))
	for i, set := range sets {
		binary.BigEndian.PutUint32(out[4+4*i:], uint32(len(out)))
		out = append(out, coverage(set)...)
	}
	return out
}
