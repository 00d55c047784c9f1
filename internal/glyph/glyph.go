// Package glyph draws anchored text blocks with a drop shadow onto a
// [paint.Canvas].
//
// A block is always drawn in two passes: the shadow, offset from the anchor,
// then the foreground at the anchor. The foreground is never issued first.
package glyph

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"tools.zach/dev/sharecard/internal/layout"
	"tools.zach/dev/sharecard/internal/paint"
)

// Drawer places text on an image. at is the point the text is anchored on.
type Drawer interface {
	DrawText(dst draw.Image, face font.Face, text string, at layout.Point, c color.Color)
}

// CenteredDrawer centers the ink bounding box of the text on the anchor,
// horizontally and vertically.
type CenteredDrawer struct{}

// DrawText implements [Drawer].
func (CenteredDrawer) DrawText(dst draw.Image, face font.Face, text string, at layout.Point, c color.Color) {
	// BoundString is relative to the dot; shift the dot so the middle of
	// the box lands on the anchor.
	bounds, _ := font.BoundString(face, text)
	midX := (bounds.Min.X + bounds.Max.X) / 2
	midY := (bounds.Min.Y + bounds.Max.Y) / 2

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed(at.X) - midX, Y: toFixed(at.Y) - midY},
	}
	d.DrawString(text)
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// ///////////////////////////////////////////////
// Blocks
// ///////////////////////////////////////////////

// Shadow is the offset copy drawn beneath a block.
type Shadow struct {
	Offset layout.Point
	Color  color.NRGBA
}

// Block is a run of text anchored at a single point.
type Block struct {
	Content string
	Anchor  layout.Point
	Face    font.Face
	Color   color.NRGBA
	// Shadow is nil for blocks drawn without one.
	Shadow *Shadow
}

// Renderer draws blocks onto a canvas.
type Renderer struct {
	// Drawer performs the actual glyph placement.
	Drawer Drawer
	// Layered composites translucent colors instead of drawing them opaque.
	// See [paint.Canvas.Ink].
	Layered bool
}

// NewRenderer returns a Renderer using [CenteredDrawer].
func NewRenderer(layered bool) *Renderer {
	return &Renderer{Drawer: CenteredDrawer{}, Layered: layered}
}

// Render draws b onto c: shadow first, then foreground.
func (r *Renderer) Render(c *paint.Canvas, b Block) {
	if b.Shadow != nil {
		r.pass(c, b, b.Anchor.Add(b.Shadow.Offset), b.Shadow.Color)
	}
	r.pass(c, b, b.Anchor, b.Color)
}

func (r *Renderer) pass(c *paint.Canvas, b Block, at layout.Point, col color.NRGBA) {
	c.Ink(col, r.Layered, func(dst draw.Image, ink color.NRGBA) {
		r.Drawer.DrawText(dst, b.Face, b.Content, at, ink)
	})
}
