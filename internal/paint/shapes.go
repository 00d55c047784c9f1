// shapes.go rasterizes the anti-aliased halo rings and decorative rules.

package paint

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"tools.zach/dev/sharecard/internal/layout"
)

// circleSegments is the number of edges used to approximate a circle.
const circleSegments = 256

// ///////////////////////////////////////////////
// Halos
// ///////////////////////////////////////////////

// Ring is one halo outline.
type Ring struct {
	// Center of the ring in canvas pixels.
	Center layout.Point
	// Radius is measured to the middle of the outline.
	Radius float64
	// Width of the outline in pixels. Zero means 2.
	Width float64
	// Color of the outline. Its alpha controls how strongly the ring
	// shows through; the canvas stays opaque either way.
	Color color.NRGBA
}

// CompositeHalos draws rings in order. Each ring goes on its own transparent
// layer which is composited over the canvas and flattened before the next
// ring, so every ring blends against the opaque result of the previous one.
func CompositeHalos(c *Canvas, rings []Ring) {
	for _, ring := range rings {
		c.Overlay(func(layer *image.RGBA) { DrawRing(layer, ring) })
	}
}

// DrawRing rasterizes the annulus described by r onto dst.
func DrawRing(dst draw.Image, r Ring) {
	w := r.Width
	if w <= 0 {
		w = 2
	}
	outer := r.Radius + w/2
	inner := r.Radius - w/2
	box := image.Rect(
		int(math.Floor(r.Center.X-outer))-1, int(math.Floor(r.Center.Y-outer))-1,
		int(math.Ceil(r.Center.X+outer))+1, int(math.Ceil(r.Center.Y+outer))+1,
	)
	fill(dst, box, r.Color, func(z *vector.Rasterizer, o layout.Point) {
		circle(z, r.Center.X-o.X, r.Center.Y-o.Y, outer, 1)
		if inner > 0 {
			// Opposite winding cuts the hole.
			circle(z, r.Center.X-o.X, r.Center.Y-o.Y, inner, -1)
		}
	})
}

func circle(z *vector.Rasterizer, cx, cy, radius, dir float64) {
	z.MoveTo(float32(cx+radius), float32(cy))
	for i := 1; i < circleSegments; i++ {
		a := dir * 2 * math.Pi * float64(i) / circleSegments
		z.LineTo(float32(cx+radius*math.Cos(a)), float32(cy+radius*math.Sin(a)))
	}
	z.ClosePath()
}

// ///////////////////////////////////////////////
// Lines
// ///////////////////////////////////////////////

// Line is a straight stroke between two points.
type Line struct {
	From  layout.Point
	To    layout.Point
	Width float64
	Color color.NRGBA
}

// DrawLine strokes l onto dst with butt caps. A horizontal line of width w
// on row y covers the pixel rows from y-w/2 to y+w/2.
func DrawLine(dst draw.Image, l Line) {
	w := l.Width
	if w <= 0 {
		w = 1
	}
	dx, dy := l.To.X-l.From.X, l.To.Y-l.From.Y
	n := math.Hypot(dx, dy)
	if n == 0 {
		return
	}
	// Unit normal scaled to half the stroke width.
	nx, ny := -dy/n*w/2, dx/n*w/2
	quad := [4]layout.Point{
		{X: l.From.X + nx, Y: l.From.Y + ny},
		{X: l.To.X + nx, Y: l.To.Y + ny},
		{X: l.To.X - nx, Y: l.To.Y - ny},
		{X: l.From.X - nx, Y: l.From.Y - ny},
	}
	minX, minY, maxX, maxY := quad[0].X, quad[0].Y, quad[0].X, quad[0].Y
	for _, p := range quad[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	fill(dst, box, l.Color, func(z *vector.Rasterizer, o layout.Point) {
		z.MoveTo(float32(quad[0].X-o.X), float32(quad[0].Y-o.Y))
		for _, p := range quad[1:] {
			z.LineTo(float32(p.X-o.X), float32(p.Y-o.Y))
		}
		z.ClosePath()
	})
}

// CompositeLines draws lines on one transparent layer and composites it
// over the canvas, so translucent colors blend even though the canvas is
// opaque. Crossing lines add up where they overlap.
func CompositeLines(c *Canvas, lines []Line) {
	c.Overlay(func(layer *image.RGBA) {
		for _, l := range lines {
			DrawLine(layer, l)
		}
	})
}

// fill rasterizes the path built by path, clipped to box, in col. path
// receives the box origin and must emit coordinates relative to it.
func fill(dst draw.Image, box image.Rectangle, col color.NRGBA, path func(z *vector.Rasterizer, origin layout.Point)) {
	box = box.Intersect(dst.Bounds())
	if box.Empty() {
		return
	}
	z := vector.NewRasterizer(box.Dx(), box.Dy())
	path(z, layout.Pt(float64(box.Min.X), float64(box.Min.Y)))
	z.Draw(dst, box, image.NewUniform(col), image.Point{})
}
