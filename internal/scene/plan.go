// plan.go expands a [Spec] into absolute draw instructions.

package scene

import (
	"image/color"
	"strings"

	"tools.zach/dev/sharecard/internal/glyph"
	"tools.zach/dev/sharecard/internal/layout"
	"tools.zach/dev/sharecard/internal/paint"
)

// Plan is a scene with every position computed and every color parsed.
// It is derived from a Spec alone, before any pixel is drawn.
type Plan struct {
	Name    string
	Width   int
	Height  int
	Top     color.NRGBA
	Bottom  color.NRGBA
	Layered bool
	// Font sizes keyed by role.
	Sizes map[string]float64
	// Grid rules, composited together on one layer.
	Grid   []paint.Line
	Halos  []paint.Ring
	Blocks []TextBlock
	Lines  []paint.Line
	Badge  *Badge
}

// TextBlock is one anchored run of text in a plan.
type TextBlock struct {
	Content string
	Anchor  layout.Point
	// Font is the role the block is drawn with.
	Font   string
	Color  color.NRGBA
	Shadow *glyph.Shadow
}

// Badge is a resolved QR code placement.
type Badge struct {
	Payload    string
	Size       int
	Center     layout.Point
	Level      string
	Foreground color.NRGBA
	Background color.NRGBA
}

// Text returns the content of every block, for glyph coverage checks.
func (p *Plan) Text() string {
	var b strings.Builder
	for _, blk := range p.Blocks {
		b.WriteString(blk.Content)
	}
	return b.String()
}

// BuildPlan validates s and computes its plan.
func BuildPlan(s Spec) (*Plan, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s = s.WithDefaults()
	w, h := float64(s.Width), float64(s.Height)

	p := &Plan{
		Name:    s.Name,
		Width:   s.Width,
		Height:  s.Height,
		Top:     colorOr(s.Gradient.Top, ""),
		Bottom:  colorOr(s.Gradient.Bottom, ""),
		Layered: s.TranslucentShadows,
		Sizes:   map[string]float64{FontMain: s.Fonts.Main, FontSubtitle: s.Fonts.Subtitle},
	}

	if g := s.Grid; g != nil {
		p.Grid = grid(*g, w, h)
	}

	for _, hs := range s.Halos {
		c := colorOr(hs.Color, "#FFFFFF")
		c.A = uint8(hs.Alpha)
		width := hs.Width
		if width == 0 {
			width = DefaultHaloWidth
		}
		p.Halos = append(p.Halos, paint.Ring{
			Center: layout.Pt(orDefault(hs.X, w/2), orDefault(hs.Y, h/2)),
			Radius: hs.Radius,
			Width:  width,
			Color:  c,
		})
	}

	shadow := &glyph.Shadow{
		Offset: layout.Pt(s.Shadow.DX, s.Shadow.DY),
		Color:  colorOr(s.Shadow.Color, ""),
	}
	for _, t := range s.Text {
		p.Blocks = append(p.Blocks, expand(t, s, w, shadow)...)
	}

	for _, ls := range s.Lines {
		width := ls.Width
		if width == 0 {
			width = DefaultLineWidth
		}
		p.Lines = append(p.Lines, paint.Line{
			From:  layout.Pt(ls.X1, ls.Y1),
			To:    layout.Pt(ls.X2, ls.Y2),
			Width: width,
			Color: colorOr(ls.Color, s.Foreground),
		})
	}

	if q := s.QR; q != nil {
		size := q.Size
		if size == 0 {
			size = DefaultQRSize
		}
		p.Badge = &Badge{
			Payload:    q.Payload,
			Size:       size,
			Center:     layout.Pt(orDefault(q.X, w/2), q.Y),
			Level:      q.Level,
			Foreground: colorOr(q.Foreground, "#000000"),
			Background: colorOr(q.Background, "#FFFFFF"),
		}
	}
	return p, nil
}

// grid returns the vertical rules left to right, then the horizontal rules
// top to bottom, of g on a w×h canvas.
func grid(g GridSpec, w, h float64) []paint.Line {
	spacing := g.Spacing
	if spacing == 0 {
		spacing = DefaultGridSpacing
	}
	width := g.Width
	if width == 0 {
		width = 1
	}
	col := colorOr(g.Color, DefaultGridColor)

	var lines []paint.Line
	for x := 0.0; x < w; x += spacing {
		lines = append(lines, paint.Line{From: layout.Pt(x, 0), To: layout.Pt(x, h), Width: width, Color: col})
	}
	for y := 0.0; y < h; y += spacing {
		lines = append(lines, paint.Line{From: layout.Pt(0, y), To: layout.Pt(w, y), Width: width, Color: col})
	}
	return lines
}

// expand lays out the characters of t.
func expand(t TextSpec, s Spec, canvasW float64, shadow *glyph.Shadow) []TextBlock {
	role := t.Font
	if role == "" {
		role = FontMain
	}
	base := TextBlock{
		Font:  role,
		Color: colorOr(t.Color, s.Foreground),
	}
	if !t.NoShadow {
		base.Shadow = shadow
	}
	x := orDefault(t.X, canvasW/2)

	var anchors []layout.Point
	chars := layout.Chars(t.Content)
	switch t.Kind {
	case KindPair:
		l, r := layout.Pair(x, t.Y, t.Spacing)
		anchors = []layout.Point{l, r}
	case KindRow:
		anchors = layout.Row(canvasW, len(chars), t.Spacing, t.Y)
	case KindColumn:
		anchors = layout.Column(x, len(chars), t.Y, t.Spacing)
	default:
		blk := base
		blk.Content = t.Content
		blk.Anchor = layout.Pt(x, t.Y)
		return []TextBlock{blk}
	}

	blocks := make([]TextBlock, len(chars))
	for i, ch := range chars {
		blocks[i] = base
		blocks[i].Content = ch
		blocks[i].Anchor = anchors[i]
	}
	return blocks
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// colorOr parses a color Validate already accepted, using def when value
// is empty.
func colorOr(value, def string) color.NRGBA {
	if value == "" {
		value = def
	}
	c, _ := paint.ParseHexColor(value)
	return c
}
