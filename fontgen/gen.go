package fontgen

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/npillmayer/fontmerge/internal/fontload"
	"github.com/npillmayer/fontmerge/ot"
	"github.com/npillmayer/fontmerge/sfd"
)

// glyph is a glyph prepared for output: references flattened, coordinates
// rounded if requested.
type glyph struct {
	name    string
	codes   []int
	width   int
	outline []sfd.Contour
	bbox    sfd.Rect
}

// fontData is the font as it is about to be serialized.
type fontData struct {
	src    *sfd.Font
	flags  Flags
	em     int
	glyphs []*glyph
	bbox   [4]int // xMin, yMin, xMax, yMax over all glyphs
	time   time.Time
}

// Generate writes font to path as an OpenType font with CFF outlines. The
// binary is loaded back before it is written, to catch structural errors early.
func Generate(font *sfd.Font, path string, flags Flags) error {
	data, err := Encode(font, flags)
	if err != nil {
		return err
	}
	sf, err := fontload.ParseOpenTypeFont(data)
	if err != nil {
		return fmt.Errorf("generated font %s is not loadable: %w", font.FontName, err)
	}
	tracer().Infof("generated font %q with %d glyphs", sf.Fontname, sf.SFNT.NumGlyphs())
	return os.WriteFile(path, data, 0o644)
}

// Encode serializes font to an OpenType binary.
func Encode(font *sfd.Font, flags Flags) ([]byte, error) {
	fd, err := prepare(font, flags)
	if err != nil {
		return nil, err
	}
	b := ot.NewBuilder(ot.TypeCFF)
	b.AddTable(ot.TagCFF, fd.buildCFF())
	b.AddTable(ot.TagHead, fd.buildHead())
	b.AddTable(ot.TagHhea, fd.buildHhea())
	b.AddTable(ot.TagHmtx, fd.buildHmtx())
	b.AddTable(ot.TagMaxp, fd.buildMaxp())
	b.AddTable(ot.TagOS2, fd.buildOS2())
	b.AddTable(ot.TagName, fd.buildName())
	b.AddTable(ot.TagCmap, fd.buildCmap())
	b.AddTable(ot.TagPost, fd.buildPost())
	return b.Build()
}

func prepare(font *sfd.Font, flags Flags) (*fontData, error) {
	if font.Len() == 0 {
		return nil, ErrNoGlyphs
	}
	fd := &fontData{src: font, flags: flags, em: font.Em(), time: flags.Timestamp}
	if fd.time.IsZero() {
		fd.time = time.Now()
	}
	if g, err := font.Glyph(".notdef"); err == nil {
		fd.glyphs = append(fd.glyphs, fd.prepareGlyph(g))
	} else {
		tracer().Debugf("font %s has no .notdef, adding an empty one", font.FontName)
		fd.glyphs = append(fd.glyphs, &glyph{
			name:  ".notdef",
			width: fd.em / 2,
			bbox:  sfd.Rect{Empty: true},
		})
	}
	for _, g := range font.Glyphs() {
		if g.Name == ".notdef" {
			continue
		}
		fd.glyphs = append(fd.glyphs, fd.prepareGlyph(g))
	}
	if len(fd.glyphs) > 0xffff {
		return nil, fmt.Errorf("font %s has too many glyphs: %d", font.FontName, len(fd.glyphs))
	}
	bbox := sfd.Rect{Empty: true}
	for _, g := range fd.glyphs {
		bbox = bbox.Union(g.bbox)
	}
	if !bbox.Empty {
		fd.bbox = [4]int{
			int(math.Floor(bbox.XMin)), int(math.Floor(bbox.YMin)),
			int(math.Ceil(bbox.XMax)), int(math.Ceil(bbox.YMax)),
		}
	}
	tracer().Debugf("prepared %d glyphs, font bbox %v", len(fd.glyphs), fd.bbox)
	return fd, nil
}

func (fd *fontData) prepareGlyph(g *sfd.Glyph) *glyph {
	out := &glyph{
		name:  g.Name,
		width: int(math.Round(g.Width)),
		bbox:  sfd.Rect{Empty: true},
	}
	if g.Unicode >= 0 {
		out.codes = append(out.codes, g.Unicode)
	}
	out.codes = append(out.codes, g.AltUnicodes...)
	for _, c := range g.Outline() {
		if fd.flags.Round {
			c = roundContour(c)
		}
		out.outline = append(out.outline, c)
		out.bbox = out.bbox.Union(c.Bounds())
	}
	return out
}

func roundContour(c sfd.Contour) sfd.Contour {
	r := func(p sfd.Point) sfd.Point {
		return sfd.Point{X: math.Round(p.X), Y: math.Round(p.Y)}
	}
	out := sfd.Contour{Start: r(c.Start), Segments: make([]sfd.Segment, len(c.Segments))}
	for i, s := range c.Segments {
		out.Segments[i] = sfd.Segment{Kind: s.Kind, C1: r(s.C1), C2: r(s.C2), End: r(s.End)}
	}
	return out
}

// commonWidth returns the most frequent advance width.
func (fd *fontData) commonWidth() int {
	count := make(map[int]int)
	best, n := 0, 0
	for _, g := range fd.glyphs {
		count[g.width]++
		if c := count[g.width]; c > n || c == n && g.width < best {
			best, n = g.width, c
		}
	}
	return best
}

// lsb returns the left side bearing of a glyph as written to 'hmtx'.
func (g *glyph) lsb() int {
	if g.bbox.Empty {
		return 0
	}
	return int(math.Floor(g.bbox.XMin))
}
