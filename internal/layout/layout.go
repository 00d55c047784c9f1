// Package layout computes anchor points for characters placed on a share
// card. Every function is pure arithmetic over configured spacing constants;
// glyph metrics are never consulted, so the spacing is not validated against
// the font size.
package layout

import "unicode/utf8"

// Point is a position on the canvas in pixels. Anchors are always the
// visual center of the glyph drawn there.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// ///////////////////////////////////////////////
// Arrangements
// ///////////////////////////////////////////////

// Pair places two characters symmetrically around midX on row y, spacing
// pixels apart.
func Pair(midX, y, spacing float64) (left, right Point) {
	half := spacing / 2
	return Point{X: midX - half, Y: y}, Point{X: midX + half, Y: y}
}

// Row centers n characters of width charW horizontally on a canvas of
// canvasW pixels. The i-th anchor sits at startX + i*charW where startX is
// the center of the first cell.
func Row(canvasW float64, n int, charW, y float64) []Point {
	if n <= 0 {
		return nil
	}
	startX := (canvasW-charW*float64(n))/2 + charW/2
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: startX + float64(i)*charW, Y: y}
	}
	return pts
}

// Column stacks n characters downward from startY, charH pixels apart.
func Column(centerX float64, n int, startY, charH float64) []Point {
	if n <= 0 {
		return nil
	}
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: centerX, Y: startY + float64(i)*charH}
	}
	return pts
}

// Chars splits s into one string per rune so each character can be drawn
// at its own anchor.
func Chars(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
