package fea

import (
	"fmt"

	"github.com/npillmayer/fontmerge/ot"
	"github.com/npillmayer/fontmerge/otquery"
)

// Compile parses feature text, resolves it against the glyph names of font
// and stores the resulting layout tables in font. filename is used for
// error positions and as the base of relative include paths.
//
// Tables already present in font are replaced.
func Compile(font *ot.Font, text, filename string) error {
	glyphOrder, err := otquery.GlyphOrder(font)
	if err != nil {
		return fmt.Errorf("cannot compile features: %w", err)
	}
	file, err := Parse(text, filename)
	if err != nil {
		return err
	}
	tables, err := Build(file, glyphOrder)
	if err != nil {
		return err
	}
	for _, tag := range []ot.Tag{ot.TagGDEF, ot.TagGSUB, ot.TagGPOS} {
		if data, ok := tables[tag]; ok {
			tracer().Debugf("storing table %s with %d bytes", tag, len(data))
			font.SetTable(tag, data)
		}
	}
	return nil
}
