// canvas.go defines [Canvas], the opaque pixel buffer every scene is painted
// on, and the two ways ink reaches it: directly or through a transparent
// layer that is composited and flattened.

package paint

import (
	"image"
	"image/color"
	"image/draw"
)

// Canvas is a fixed-size RGB image. Every exported operation leaves all
// pixels with A=255, so the encoded PNG carries no alpha channel.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas returns a black canvas of the given dimensions.
func NewCanvas(width, height int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)
	return &Canvas{img: img}
}

// Image exposes the backing image. Callers that draw on it directly must
// keep it opaque.
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

func (c *Canvas) Width() int { return c.img.Bounds().Dx() }

func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// At returns the canvas color at (x, y) without alpha.
func (c *Canvas) At(x, y int) color.NRGBA {
	i := c.img.PixOffset(x, y)
	p := c.img.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Overlay hands fn a fully transparent layer the size of the canvas,
// composites whatever fn drew over the canvas, then flattens the result.
func (c *Canvas) Overlay(fn func(layer *image.RGBA)) {
	b := c.img.Bounds()
	layer := image.NewRGBA(b)
	fn(layer)
	draw.Draw(c.img, b, layer, b.Min, draw.Over)
	c.Flatten()
}

// Ink draws col onto the canvas through fn. Opaque colors, and any color
// when layered is false, are drawn straight onto the canvas with alpha
// forced to 255. A translucent color in layered mode is drawn on a
// transparent layer via [Canvas.Overlay] so it blends with what is below.
func (c *Canvas) Ink(col color.NRGBA, layered bool, fn func(dst draw.Image, ink color.NRGBA)) {
	if !layered || col.A == 0xff {
		fn(c.img, Opaque(col))
		return
	}
	c.Overlay(func(layer *image.RGBA) { fn(layer, col) })
}

// Flatten discards any alpha left on the canvas.
func (c *Canvas) Flatten() {
	pix := c.img.Pix
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xff
	}
}

// Stamp draws img centered on (cx, cy).
func (c *Canvas) Stamp(img image.Image, cx, cy int) {
	sb := img.Bounds()
	r := image.Rect(0, 0, sb.Dx(), sb.Dy()).Add(image.Pt(cx-sb.Dx()/2, cy-sb.Dy()/2))
	draw.Draw(c.img, r, img, sb.Min, draw.Over)
	c.Flatten()
}
