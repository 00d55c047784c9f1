// gradient.go implements the vertical background gradient.

package paint

import "image/color"

// Gradient paints every row of c with the color [GradientAt] yields for
// that row. There is no horizontal variation and no dithering.
func Gradient(c *Canvas, top, bottom color.NRGBA) {
	b := c.img.Bounds()
	h := b.Dy()
	for y := 0; y < h; y++ {
		col := GradientAt(top, bottom, y, h)
		row := c.img.Pix[c.img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			p := row[4*x : 4*x+4 : 4*x+4]
			p[0], p[1], p[2], p[3] = col.R, col.G, col.B, 0xff
		}
	}
}

// GradientAt returns the color of row y on a canvas of the given height.
// Each channel is top - (top-bottom)*y/height truncated toward zero, so row
// 0 is exactly top and the last row falls just short of bottom.
func GradientAt(top, bottom color.NRGBA, y, height int) color.NRGBA {
	ratio := float64(y) / float64(height)
	return color.NRGBA{
		R: lerp(top.R, bottom.R, ratio),
		G: lerp(top.G, bottom.G, ratio),
		B: lerp(top.B, bottom.B, ratio),
		A: 0xff,
	}
}

func lerp(top, bottom uint8, ratio float64) uint8 {
	t := float64(top)
	return uint8(t - (t-float64(bottom))*ratio)
}
