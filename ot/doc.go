/*
Package ot provides table-level access to OpenType font files.

A Font is a bag of raw tables keyed by tag. Package `ot` will not interpret
tables; clients read, patch or replace the binary of a table and write the
font back to disk. Interpretation of individual tables is homed in sister
packages (`otquery` for the few header values this module needs, `fea` for
building layout tables).

Fonts are opened through the loader of github.com/go-text/typesetting, which
validates the table directory. Writing a font assembles a fresh table
directory, pads every table to a 4-byte boundary and recomputes table
checksums as well as `head.checkSumAdjustment`.

No font collections nor variable fonts are supported.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmerge.ot'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge.ot")
}
