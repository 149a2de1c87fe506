/*
Package postproc finishes a generated font: it patches the OS/2 weight class
and compiles feature text into the layout tables of the font.

A font is post-processed exactly once. Fonts which already carry one of the
tables GDEF, GSUB or GPOS are rejected.

If feature compilation fails, the feature text is kept in a temporary file
for inspection and the output font is removed, so no half-finished font is
left behind.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package postproc

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/fontmerge/fea"
	"github.com/npillmayer/fontmerge/ot"
	"github.com/npillmayer/fontmerge/otquery"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pterm/pterm"
)

// tracer writes to trace with key 'fontmerge'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge")
}

// ErrLayoutTablesPresent is returned for fonts which already have layout
// tables.
var ErrLayoutTablesPresent = errors.New("font already has layout tables")

// Some renderers on Windows display ultra-light weights badly. Fonts
// declaring weight class 100 are raised to 250.
const (
	thinWeight     = otquery.WeightThin
	replacedWeight = 250
)

// Process reopens the font at outFile, patches it and compiles featureText
// into it. featureFile names the feature source for error messages and
// include statements.
func Process(outFile, featureText, featureFile string) error {
	otf, err := ot.Open(outFile)
	if err != nil {
		return fmt.Errorf("cannot reopen generated font: %w", err)
	}
	if w, ok := otquery.WeightClass(otf); ok && w == thinWeight {
		tracer().Infof("raising weight class %d to %d", w, replacedWeight)
		if err = otquery.SetWeightClass(otf, replacedWeight); err != nil {
			return err
		}
	}
	if tables := otquery.LayoutTables(otf); len(tables) > 0 {
		return fmt.Errorf("%s: %w: %s", outFile, ErrLayoutTablesPresent, strings.Join(tables, ", "))
	}
	if err = fea.Compile(otf, featureText, featureFile); err != nil {
		discard(outFile, featureText)
		return err
	}
	tracer().Infof("layout tables: %s", strings.Join(otquery.LayoutTables(otf), ", "))
	return otf.Save(outFile)
}

// discard saves the feature text to a temporary file and removes the
// output font.
func discard(outFile, featureText string) {
	if f, err := os.CreateTemp("", "fontmerge-*.fea"); err != nil {
		tracer().Errorf("cannot save feature text: %v", err)
	} else {
		_, err = f.WriteString(featureText)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			tracer().Errorf("cannot save feature text: %v", err)
		} else {
			pterm.Error.Printf("Failed to apply features, saved to %s\n", f.Name())
		}
	}
	if err := os.Remove(outFile); err != nil {
		tracer().Errorf("cannot remove %s: %v", outFile, err)
	}
}
