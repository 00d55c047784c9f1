// Package scene turns a declarative scene description into a finished share
// card canvas.
//
// A [Spec] is what the configuration file holds. [BuildPlan] expands it into
// a [Plan] of absolute positions and parsed colors without touching any
// pixels, and [Composer.Compose] paints a plan in a fixed order: gradient,
// grid, halos, text, lines, badge. Scenes differ only in their parameters.
package scene

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"tools.zach/dev/sharecard/internal/paint"
)

// Dimensions used when a scene leaves them unset.
const (
	DefaultSize         = 1080
	DefaultMainSize     = 220
	DefaultSubtitleSize = 38
	DefaultForeground   = "#FFFFFF"
	DefaultShadowColor  = "#00000064"
	DefaultLineWidth    = 2
	DefaultHaloWidth    = 2
	DefaultQRSize       = 160
	DefaultGridSpacing  = 40
	DefaultGridColor    = "#FFFFFF08"
)

// Text kinds.
const (
	// KindSingle draws the whole content as one block.
	KindSingle = "single"
	// KindPair splits exactly two characters around the anchor x.
	KindPair = "pair"
	// KindRow centers the characters in a horizontal row across the canvas.
	KindRow = "row"
	// KindColumn stacks the characters downward from y.
	KindColumn = "column"
)

// Font roles.
const (
	FontMain     = "main"
	FontSubtitle = "subtitle"
)

// ///////////////////////////////////////////////
// Spec Types
// ///////////////////////////////////////////////

// Spec describes one share card.
type Spec struct {
	// Name identifies the scene on the command line.
	Name string `toml:"name" yaml:"name"`
	// Output is the file name written under the output directory.
	Output string `toml:"output" yaml:"output"`
	// Width of the canvas in pixels. Zero means [DefaultSize].
	Width int `toml:"width,omitempty" yaml:"width,omitempty"`
	// Height of the canvas in pixels. Zero means [DefaultSize].
	Height int `toml:"height,omitempty" yaml:"height,omitempty"`
	// Foreground is the default text color.
	Foreground string `toml:"foreground,omitempty" yaml:"foreground,omitempty"`
	// TranslucentShadows blends translucent text and line colors with the
	// background instead of drawing them opaque.
	TranslucentShadows bool `toml:"translucent_shadows,omitempty" yaml:"translucent_shadows,omitempty"`
	// Gradient is the vertical background.
	Gradient GradientSpec `toml:"gradient" yaml:"gradient"`
	// Fonts holds the pixel sizes of the two font roles.
	Fonts FontSizes `toml:"fonts" yaml:"fonts"`
	// Shadow applies to every text entry that does not opt out.
	Shadow ShadowSpec `toml:"shadow" yaml:"shadow"`
	// Grid is an optional texture drawn over the gradient.
	Grid *GridSpec `toml:"grid,omitempty" yaml:"grid,omitempty"`
	// Halos are drawn in order, before any text.
	Halos []HaloSpec `toml:"halos,omitempty" yaml:"halos,omitempty"`
	// Text entries are drawn in order.
	Text []TextSpec `toml:"text" yaml:"text"`
	// Lines are drawn after all text.
	Lines []LineSpec `toml:"lines,omitempty" yaml:"lines,omitempty"`
	// QR is an optional badge drawn last.
	QR *QRSpec `toml:"qr,omitempty" yaml:"qr,omitempty"`
}

// GradientSpec holds the top and bottom gradient colors.
type GradientSpec struct {
	Top    string `toml:"top" yaml:"top"`
	Bottom string `toml:"bottom" yaml:"bottom"`
}

// FontSizes holds pixel sizes per font role.
type FontSizes struct {
	Main     float64 `toml:"main" yaml:"main"`
	Subtitle float64 `toml:"subtitle" yaml:"subtitle"`
}

// ShadowSpec is the drop shadow offset and color.
type ShadowSpec struct {
	DX    float64 `toml:"dx" yaml:"dx"`
	DY    float64 `toml:"dy" yaml:"dy"`
	Color string  `toml:"color,omitempty" yaml:"color,omitempty"`
}

// GridSpec is a faint texture of vertical and horizontal rules. It always
// blends with the background, whatever TranslucentShadows says.
type GridSpec struct {
	// Spacing between rules, the first at 0. Zero means [DefaultGridSpacing].
	Spacing float64 `toml:"spacing,omitempty" yaml:"spacing,omitempty"`
	// Width of each rule. Zero means 1.
	Width float64 `toml:"width,omitempty" yaml:"width,omitempty"`
	// Color of the rules; its alpha sets how faint they are. Empty means
	// [DefaultGridColor].
	Color string `toml:"color,omitempty" yaml:"color,omitempty"`
}

// HaloSpec is one translucent ring.
type HaloSpec struct {
	// Radius to the middle of the outline.
	Radius float64 `toml:"radius" yaml:"radius"`
	// Alpha in 0..255.
	Alpha int `toml:"alpha" yaml:"alpha"`
	// Width of the outline. Zero means [DefaultHaloWidth].
	Width float64 `toml:"width,omitempty" yaml:"width,omitempty"`
	// Color of the ring, alpha ignored. Empty means white.
	Color string `toml:"color,omitempty" yaml:"color,omitempty"`
	// X and Y of the center. Nil means the canvas center.
	X *float64 `toml:"x,omitempty" yaml:"x,omitempty"`
	Y *float64 `toml:"y,omitempty" yaml:"y,omitempty"`
}

// TextSpec is one piece of text and how its characters are arranged.
type TextSpec struct {
	// Kind is one of single, pair, row or column. Empty means single.
	Kind string `toml:"kind,omitempty" yaml:"kind,omitempty"`
	// Content is the literal text.
	Content string `toml:"content" yaml:"content"`
	// X is the anchor x (pair midpoint, column axis). Nil means the
	// canvas center. Rows are always centered.
	X *float64 `toml:"x,omitempty" yaml:"x,omitempty"`
	// Y is the anchor row; for columns, the first character's row.
	Y float64 `toml:"y" yaml:"y"`
	// Spacing between character anchors for pair, row and column.
	Spacing float64 `toml:"spacing,omitempty" yaml:"spacing,omitempty"`
	// Font role: main (default) or subtitle.
	Font string `toml:"font,omitempty" yaml:"font,omitempty"`
	// Color overrides the scene foreground.
	Color string `toml:"color,omitempty" yaml:"color,omitempty"`
	// NoShadow skips the shadow pass.
	NoShadow bool `toml:"no_shadow,omitempty" yaml:"no_shadow,omitempty"`
}

// LineSpec is a straight decorative rule.
type LineSpec struct {
	X1    float64 `toml:"x1" yaml:"x1"`
	Y1    float64 `toml:"y1" yaml:"y1"`
	X2    float64 `toml:"x2" yaml:"x2"`
	Y2    float64 `toml:"y2" yaml:"y2"`
	Width float64 `toml:"width,omitempty" yaml:"width,omitempty"`
	Color string  `toml:"color,omitempty" yaml:"color,omitempty"`
}

// QRSpec places a QR code centered on (X, Y).
type QRSpec struct {
	Payload string `toml:"payload" yaml:"payload"`
	// Size in pixels. Zero means [DefaultQRSize].
	Size int `toml:"size,omitempty" yaml:"size,omitempty"`
	// X nil means the canvas center.
	X *float64 `toml:"x,omitempty" yaml:"x,omitempty"`
	Y float64  `toml:"y" yaml:"y"`
	// Level is the error recovery level: low, medium, high or highest.
	Level      string `toml:"level,omitempty" yaml:"level,omitempty"`
	Foreground string `toml:"foreground,omitempty" yaml:"foreground,omitempty"`
	Background string `toml:"background,omitempty" yaml:"background,omitempty"`
}

// ///////////////////////////////////////////////
// Defaults
// ///////////////////////////////////////////////

// WithDefaults returns a copy of s with unset sizes and colors filled in.
func (s Spec) WithDefaults() Spec {
	if s.Width == 0 {
		s.Width = DefaultSize
	}
	if s.Height == 0 {
		s.Height = DefaultSize
	}
	if s.Foreground == "" {
		s.Foreground = DefaultForeground
	}
	if s.Fonts.Main == 0 {
		s.Fonts.Main = DefaultMainSize
	}
	if s.Fonts.Subtitle == 0 {
		s.Fonts.Subtitle = DefaultSubtitleSize
	}
	if s.Shadow.Color == "" {
		s.Shadow.Color = DefaultShadowColor
	}
	return s
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// Validate checks s after defaults are applied. The error names the scene
// and the offending field.
func (s Spec) Validate() error {
	if err := s.WithDefaults().validate(); err != nil {
		if s.Name == "" {
			return err
		}
		return fmt.Errorf("scene %q: %w", s.Name, err)
	}
	return nil
}

func (s Spec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if err := validOutput(s.Output); err != nil {
		return err
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("size %dx%d must be positive", s.Width, s.Height)
	}
	if s.Fonts.Main <= 0 || s.Fonts.Subtitle <= 0 {
		return fmt.Errorf("font sizes must be > 0, got main=%g subtitle=%g", s.Fonts.Main, s.Fonts.Subtitle)
	}

	for _, c := range [...]struct{ field, value string }{
		{"foreground", s.Foreground},
		{"gradient.top", s.Gradient.Top},
		{"gradient.bottom", s.Gradient.Bottom},
		{"shadow.color", s.Shadow.Color},
	} {
		if _, err := paint.ParseHexColor(c.value); err != nil {
			return fmt.Errorf("%s: %w", c.field, err)
		}
	}

	if g := s.Grid; g != nil {
		if g.Spacing != 0 && g.Spacing < 1 {
			return fmt.Errorf("grid.spacing must be >= 1, got %g", g.Spacing)
		}
		if g.Width < 0 {
			return fmt.Errorf("grid.width must be >= 0, got %g", g.Width)
		}
		if err := optionalColor(g.Color); err != nil {
			return fmt.Errorf("grid.color: %w", err)
		}
	}

	for i, h := range s.Halos {
		if h.Radius <= 0 {
			return fmt.Errorf("halos[%d]: radius must be > 0, got %g", i, h.Radius)
		}
		if h.Alpha < 0 || h.Alpha > 255 {
			return fmt.Errorf("halos[%d]: alpha must be in 0..255, got %d", i, h.Alpha)
		}
		if err := optionalColor(h.Color); err != nil {
			return fmt.Errorf("halos[%d].color: %w", i, err)
		}
	}

	if len(s.Text) == 0 {
		return fmt.Errorf("text must have at least one entry")
	}
	for i, t := range s.Text {
		if err := t.validate(); err != nil {
			return fmt.Errorf("text[%d]: %w", i, err)
		}
	}

	for i, l := range s.Lines {
		if l.Width < 0 {
			return fmt.Errorf("lines[%d]: width must be >= 0, got %g", i, l.Width)
		}
		if err := optionalColor(l.Color); err != nil {
			return fmt.Errorf("lines[%d].color: %w", i, err)
		}
	}

	if q := s.QR; q != nil {
		if q.Payload == "" {
			return fmt.Errorf("qr.payload must not be empty")
		}
		if q.Size < 0 {
			return fmt.Errorf("qr.size must be >= 0, got %d", q.Size)
		}
		if _, err := paint.QRLevel(q.Level); err != nil {
			return fmt.Errorf("qr: %w", err)
		}
		if err := optionalColor(q.Foreground); err != nil {
			return fmt.Errorf("qr.foreground: %w", err)
		}
		if err := optionalColor(q.Background); err != nil {
			return fmt.Errorf("qr.background: %w", err)
		}
	}
	return nil
}

func (t TextSpec) validate() error {
	if t.Content == "" {
		return fmt.Errorf("content must not be empty")
	}
	switch t.Kind {
	case "", KindSingle, KindRow, KindColumn:
	case KindPair:
		if n := utf8.RuneCountInString(t.Content); n != 2 {
			return fmt.Errorf("pair content %q must be exactly 2 characters, got %d", t.Content, n)
		}
	default:
		return fmt.Errorf("invalid kind %q: must be single, pair, row, or column", t.Kind)
	}
	switch t.Font {
	case "", FontMain, FontSubtitle:
	default:
		return fmt.Errorf("invalid font %q: must be main or subtitle", t.Font)
	}
	if t.Spacing < 0 {
		return fmt.Errorf("spacing must be >= 0, got %g", t.Spacing)
	}
	return optionalColor(t.Color)
}

func validOutput(name string) error {
	if name == "" {
		return fmt.Errorf("output must not be empty")
	}
	if !strings.EqualFold(path.Ext(name), ".png") {
		return fmt.Errorf("output %q must end in .png", name)
	}
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) || strings.Contains(name, "..") {
		return fmt.Errorf("output %q must be a relative path inside the output directory", name)
	}
	return nil
}

func optionalColor(value string) error {
	if value == "" {
		return nil
	}
	_, err := paint.ParseHexColor(value)
	return err
}
