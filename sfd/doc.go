/*
Package sfd reads FontForge "Spline Font Database" sources and offers the
handful of glyph-level edits a build script needs: renaming, re-encoding,
adding transformed references, adjusting side bearings, scaling to a new
em size and merging glyph sets.

Both the single-file format (*.sfd) and the directory format (*.sfdir, a
font.props file plus one *.glyph file per glyph) are understood. Writing
SFD is not supported; binary fonts are produced by package fontgen.

Only the parts of the format relevant to building a binary font are kept:
font-level naming and metrics, layers, lookups with their features, anchor
and kerning classes, and per glyph the encoding, width, class, colour,
outlines, references, anchors, kerning and positioning/substitution
entries. Everything else is skipped.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package sfd

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmerge.sfd'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge.sfd")
}

// ErrNoSuchGlyph is returned (wrapped) when a glyph name cannot be resolved.
var ErrNoSuchGlyph = errors.New("no such glyph")

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("sfd syntax error")

// ParseError reports a malformed line in a source file.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Unwrap makes ParseError match ErrSyntax with errors.Is.
func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

func noSuchGlyph(name string) error {
	return fmt.Errorf("%w: %q", ErrNoSuchGlyph, name)
}
