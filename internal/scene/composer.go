// composer.go paints a plan onto a fresh canvas.

package scene

import (
	"fmt"
	"image/color"
	"image/draw"
	"log/slog"
	"math"

	"golang.org/x/image/font"

	"tools.zach/dev/sharecard/internal/fonts"
	"tools.zach/dev/sharecard/internal/glyph"
	"tools.zach/dev/sharecard/internal/paint"
)

// Composer renders scenes. Its fields are read-only after construction, so
// one Composer may render several scenes concurrently.
type Composer struct {
	// Candidates are font paths in preference order.
	Candidates []string
	// Exists checks a candidate path. Nil means [fonts.FileExists].
	Exists func(string) bool
	// Fonts parses and caches the resolved font file.
	Fonts *fonts.Loader
	// Drawer overrides glyph placement. Nil means [glyph.CenteredDrawer].
	Drawer glyph.Drawer
	// Logger receives font fallback warnings.
	Logger *slog.Logger
}

// NewComposer returns a Composer resolving fonts from candidates.
func NewComposer(candidates []string, loader *fonts.Loader, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if loader == nil {
		loader = fonts.NewLoader(fonts.Options{Logger: logger})
	}
	return &Composer{
		Candidates: candidates,
		Fonts:      loader,
		Logger:     logger,
	}
}

// Compose renders s and returns the finished opaque canvas. It performs no
// file I/O beyond reading the font. A missing font degrades to the built-in
// bitmap face and is only logged.
func (c *Composer) Compose(s Spec) (*paint.Canvas, error) {
	plan, err := BuildPlan(s)
	if err != nil {
		return nil, err
	}

	canvas := paint.NewCanvas(plan.Width, plan.Height)
	paint.Gradient(canvas, plan.Top, plan.Bottom)
	if len(plan.Grid) > 0 {
		paint.CompositeLines(canvas, plan.Grid)
	}
	if len(plan.Halos) > 0 {
		paint.CompositeHalos(canvas, plan.Halos)
	}

	f := c.font(plan)
	faces := make(map[string]font.Face, len(plan.Sizes))
	for role, size := range plan.Sizes {
		face, err := f.Face(size)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", plan.Name, err)
		}
		defer face.Close()
		faces[role] = face
	}

	r := glyph.NewRenderer(plan.Layered)
	if c.Drawer != nil {
		r.Drawer = c.Drawer
	}
	for _, b := range plan.Blocks {
		r.Render(canvas, glyph.Block{
			Content: b.Content,
			Anchor:  b.Anchor,
			Face:    faces[b.Font],
			Color:   b.Color,
			Shadow:  b.Shadow,
		})
	}

	for _, l := range plan.Lines {
		canvas.Ink(l.Color, plan.Layered, func(dst draw.Image, ink color.NRGBA) {
			l.Color = ink
			paint.DrawLine(dst, l)
		})
	}

	if b := plan.Badge; b != nil {
		level, err := paint.QRLevel(b.Level)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", plan.Name, err)
		}
		img, err := paint.QRCode(b.Payload, b.Size, level, b.Foreground, b.Background)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", plan.Name, err)
		}
		canvas.Stamp(img, int(math.Round(b.Center.X)), int(math.Round(b.Center.Y)))
	}
	return canvas, nil
}

// font resolves and loads the scene font, falling back to the bitmap font.
func (c *Composer) font(plan *Plan) *fonts.Font {
	exists := c.Exists
	if exists == nil {
		exists = fonts.FileExists
	}
	path := fonts.Resolve(c.Candidates, exists)
	if path == fonts.NoFont {
		c.Logger.Warn("font unavailable, using built-in bitmap font",
			"scene", plan.Name, "candidates", len(c.Candidates), "error", fonts.ErrFontUnavailable)
		return fonts.Fallback()
	}

	f, err := c.Fonts.Load(path)
	if err != nil {
		c.Logger.Warn("font unreadable, using built-in bitmap font", "scene", plan.Name, "error", err)
		return fonts.Fallback()
	}
	if missing := f.Missing(plan.Text()); len(missing) > 0 {
		c.Logger.Warn("font lacks glyphs, they will render as placeholders",
			"scene", plan.Name, "font", path, "missing", string(missing))
	}
	c.Logger.Debug("font resolved", "scene", plan.Name, "font", path)
	return f
}
