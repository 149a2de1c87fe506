/*
Package fea compiles feature files into OpenType layout tables.

Feature files use the syntax of the Adobe feature file specification. Only
the subset needed for glyph substitution, glyph positioning and glyph
classes is understood: language systems, glyph and mark classes, named
anchors, feature and lookup blocks with script, language and lookupflag
statements, GSUB lookup types 1 to 4 and 6, GPOS lookup types 1 to 6 and 8,
and the glyph class definitions of table GDEF. Everything else is reported
as an error wrapping ErrUnsupported.

Compilation runs in two steps. Parse turns feature text into a syntax tree,
resolving include statements on the way. Build resolves glyph names against
the glyph order of a font and produces the binaries of tables GDEF, GSUB
and GPOS. Compile combines both and stores the tables in a font.

Lookups are numbered in the order they are defined. A script statement
resets the lookup flag of the enclosing feature. If no GlyphClassDef is
given, glyph classes are inferred from mark classes and mark attachment
rules.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package fea

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmerge.fea'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge.fea")
}

// ErrUnsupported flags feature file constructs this package does not
// implement.
var ErrUnsupported = errors.New("unsupported feature file construct")

// Pos is a position in a feature file.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Error is a syntax or semantic error in a feature file.
type Error struct {
	File   string
	Line   int
	Column int
	Msg    string
	Err    error // ErrUnsupported or nil
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorAt(pos Pos, format string, args ...interface{}) *Error {
	return &Error{
		File:   pos.File,
		Line:   pos.Line,
		Column: pos.Column,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func unsupportedAt(pos Pos, what string) *Error {
	e := errorAt(pos, "%s: %s", ErrUnsupported.Error(), what)
	e.Err = ErrUnsupported
	return e
}
