/*
Package otquery decodes selected values of OpenType tables.

Functions in this package work on the raw tables of an `ot.Font` and never
fail hard on malformed input: a missing or truncated table yields a zero
value and `false` (or an error where the caller cannot sensibly continue).

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmerge.ot'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge.ot")
}
