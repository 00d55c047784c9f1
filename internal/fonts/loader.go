// loader.go parses font files into [Font] values and caches them by path.

package fonts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/freetype/truetype"
	cache "github.com/patrickmn/go-cache"
	tdfont "github.com/tdewolff/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Rasterizer names accepted by [Options.Rasterizer].
const (
	RasterizerOpenType = "opentype"
	RasterizerFreeType = "freetype"
)

// DefaultCacheTTL is how long a parsed font stays cached.
const DefaultCacheTTL = 5 * time.Minute

// Options configures a [Loader].
type Options struct {
	// Rasterizer selects the glyph rasterizer: "opentype" (default) or
	// "freetype". Both read the first font of a collection. Fonts freetype
	// cannot parse, such as CFF outlines, are drawn with opentype.
	Rasterizer string
	// DPI for face creation. Zero means 72, so a face's size is in pixels.
	DPI float64
	// CacheTTL bounds how long parsed fonts are reused. Zero means
	// [DefaultCacheTTL].
	CacheTTL time.Duration
	// Logger receives debug messages about rasterizer fallbacks.
	Logger *slog.Logger
}

// Loader parses font files on demand. It is safe for concurrent use.
type Loader struct {
	opts  Options
	fonts *cache.Cache
	log   *slog.Logger
}

// NewLoader returns a Loader with defaults applied to opts.
func NewLoader(opts Options) *Loader {
	if opts.Rasterizer == "" {
		opts.Rasterizer = RasterizerOpenType
	}
	if opts.DPI <= 0 {
		opts.DPI = 72
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		opts:  opts,
		fonts: cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		log:   log,
	}
}

// Load returns the parsed font at path. [NoFont] yields
// [ErrFontUnavailable].
func (l *Loader) Load(path string) (*Font, error) {
	if path == NoFont {
		return nil, ErrFontUnavailable
	}
	if v, ok := l.fonts.Get(path); ok {
		return v.(*Font), nil
	}
	f, err := l.parse(path)
	if err != nil {
		return nil, err
	}
	l.fonts.SetDefault(path, f)
	return f, nil
}

// Forget drops every cached font.
func (l *Loader) Forget() {
	l.fonts.Flush()
}

func (l *Loader) parse(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}

	if isWOFF(path, data) {
		data, err = tdfont.ToSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("convert %s to sfnt: %w", path, err)
		}
	}

	f := &Font{Path: path, dpi: l.opts.DPI}
	if isCollection(data) {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse font collection %s: %w", path, err)
		}
		if f.sfnt, err = coll.Font(0); err != nil {
			return nil, fmt.Errorf("open first face of %s: %w", path, err)
		}
	} else if f.sfnt, err = opentype.Parse(data); err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}

	if l.opts.Rasterizer == RasterizerFreeType {
		tt, err := truetype.Parse(data)
		if err != nil {
			l.log.Debug("freetype cannot read font, using opentype", "path", path, "error", err)
		} else {
			f.tt = tt
		}
	}
	return f, nil
}

// isWOFF checks whether font data is WOFF or WOFF2 by extension or magic bytes.
func isWOFF(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".woff", ".woff2":
		return true
	}
	return len(data) >= 4 && (string(data[:4]) == "wOF2" || string(data[:4]) == "wOFF")
}

func isCollection(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "ttcf"
}

// ///////////////////////////////////////////////
// Font
// ///////////////////////////////////////////////

// Font is a parsed font file from which faces of any size can be made.
// Faces are not safe for concurrent use; create one per goroutine.
type Font struct {
	// Path the font was loaded from; empty for [Fallback].
	Path string

	sfnt *opentype.Font
	tt   *truetype.Font
	dpi  float64
}

// Fallback returns the built-in bitmap font used when no font file is
// usable. Its faces have a fixed 7×13 size and cover Latin-1 only.
func Fallback() *Font {
	return &Font{}
}

// IsFallback reports whether f is the built-in bitmap font.
func (f *Font) IsFallback() bool {
	return f.sfnt == nil
}

// Face returns a face rendering f at size pixels.
func (f *Font) Face(size float64) (font.Face, error) {
	if f.IsFallback() {
		return basicfont.Face7x13, nil
	}
	if f.tt != nil {
		return truetype.NewFace(f.tt, &truetype.Options{
			Size:    size,
			DPI:     f.dpi,
			Hinting: font.HintingFull,
		}), nil
	}
	face, err := opentype.NewFace(f.sfnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     f.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %gpx face for %s: %w", size, f.Path, err)
	}
	return face, nil
}

// Missing returns the distinct runes of text that f has no glyph for, in
// order of first appearance. Whitespace is ignored.
func (f *Font) Missing(text string) []rune {
	var (
		buf     sfnt.Buffer
		missing []rune
		seen    = map[rune]bool{}
	)
	for _, r := range text {
		if seen[r] || r == ' ' || r == '\t' || r == '\n' {
			continue
		}
		seen[r] = true
		if !f.covers(&buf, r) {
			missing = append(missing, r)
		}
	}
	return missing
}

func (f *Font) covers(buf *sfnt.Buffer, r rune) bool {
	if f.IsFallback() {
		for _, rng := range basicfont.Face7x13.Ranges {
			if rng.Low <= r && r < rng.High {
				return true
			}
		}
		return false
	}
	idx, err := f.sfnt.GlyphIndex(buf, r)
	return err == nil && idx != 0
}
