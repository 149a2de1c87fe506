/*
Package fontmerge builds a bilingual font from an Arabic and a Latin font
source.

The build is a linear pipeline:

▪︎ both FontForge sources are read and brought to the same units per em,

▪︎ mark attachment features for the Arabic font are generated from its
anchors, and the Latin font's own lookups are carried over as feature text,

▪︎ the Latin glyphs are merged into the Arabic font (see package merge),

▪︎ the merged font is written as a CFF-flavoured OpenType font (see package
fontgen),

▪︎ the font is post-processed, which compiles all feature text into the
layout tables GDEF, GSUB and GPOS (see packages postproc and fea).

Every stage works on the output of the previous one; there is no
concurrency. A failing stage aborts the run. If feature compilation fails,
the output font is removed again.

# Links

OpenType explained:
https://docs.microsoft.com/en-us/typography/opentype/

Feature file syntax:
https://adobe-type-tools.github.io/afdko/OpenTypeFeatureFileSpecification.html

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontmerge

import (
	"fmt"
	"os"
	"time"

	"github.com/npillmayer/fontmerge/fontgen"
	"github.com/npillmayer/fontmerge/internal/fontload"
	"github.com/npillmayer/fontmerge/merge"
	"github.com/npillmayer/fontmerge/postproc"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontmerge'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge")
}

// Options configure a build.
type Options struct {
	ArabicFile   string // Arabic font source (.sfd)
	LatinFile    string // Latin font source (.sfd)
	OutFile      string // OpenType font to write
	FeatureFile  string // feature file of the Arabic font
	Version      string // version string of the font
	DumpFeatures string // if set, the feature text is written here as well
	Now          func() time.Time
	Metadata     *merge.Metadata
}

// Run builds the font described by opts.
func Run(opts Options) error {
	if opts.OutFile == "" {
		return fmt.Errorf("no output file given")
	}
	font, features, err := merge.Merge(merge.Options{
		ArabicFile:  opts.ArabicFile,
		LatinFile:   opts.LatinFile,
		FeatureFile: opts.FeatureFile,
		Version:     opts.Version,
		Now:         opts.Now,
		Metadata:    opts.Metadata,
	})
	if err != nil {
		return err
	}
	flags := fontgen.DefaultFlags
	if opts.Now != nil {
		flags.Timestamp = opts.Now()
	}
	if err = fontgen.Generate(font, opts.OutFile, flags); err != nil {
		return err
	}
	sf, err := fontload.LoadOpenTypeFont(opts.OutFile)
	if err != nil {
		return fmt.Errorf("generated font cannot be read back: %w", err)
	}
	tracer().Infof("generated %s with %d glyphs", sf.Fontname, sf.SFNT.NumGlyphs())
	if err = postproc.Process(opts.OutFile, features, opts.FeatureFile); err != nil {
		return err
	}
	if opts.DumpFeatures != "" {
		if err = os.WriteFile(opts.DumpFeatures, []byte(features), 0o644); err != nil {
			return fmt.Errorf("cannot write feature text: %w", err)
		}
	}
	return nil
}
