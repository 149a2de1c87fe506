/*
Package fontgen writes an OpenType font with CFF outlines from a font source.

The generated font carries the tables needed to install and render it: `CFF `,
`head`, `hhea`, `hmtx`, `maxp`, `OS/2`, `name`, `cmap` and `post`. Layout tables
(GDEF, GSUB, GPOS) are not written; they are compiled into the font in a
separate step from feature text.

Glyph references are flattened into plain outlines, as CFF has no notion of
composite glyphs. No hinting information is generated.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontgen

import (
	"errors"
	"time"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmerge.gen'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge.gen")
}

// ErrNoGlyphs is returned for a font without any glyphs.
var ErrNoGlyphs = errors.New("font has no glyphs")

// Flags control font generation.
type Flags struct {
	Round      bool      // round outline coordinates to integers
	NoMacNames bool      // omit Macintosh platform name records
	Timestamp  time.Time // creation and modification time; zero means now
}

// DefaultFlags round coordinates and write Windows names only.
var DefaultFlags = Flags{Round: true, NoMacNames: true}
