// fonts_test.go tests candidate resolution order, loading and caching of
// font files in each supported container, and glyph coverage reporting.
package fonts

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// ///////////////////////////////////////////////
// Resolve
// ///////////////////////////////////////////////

func TestResolve(t *testing.T) {
	candidates := []string{"/a.ttc", "/b.ttc", "/c.ttf"}
	tests := []struct {
		name    string
		present []string
		want    string
	}{
		{"first wins", []string{"/a.ttc", "/b.ttc", "/c.ttf"}, "/a.ttc"},
		{"skips missing", []string{"/b.ttc", "/c.ttf"}, "/b.ttc"},
		{"last only", []string{"/c.ttf"}, "/c.ttf"},
		{"none", nil, NoFont},
		{"unlisted ignored", []string{"/z.ttf"}, NoFont},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists := func(p string) bool { return slices.Contains(tt.present, p) }
			if got := Resolve(candidates, exists); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_EmptyCandidates(t *testing.T) {
	if got := Resolve(nil, func(string) bool { return true }); got != NoFont {
		t.Errorf("Resolve(nil) = %q, want NoFont", got)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "font.ttf")
	if err := os.WriteFile(file, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(file) {
		t.Errorf("FileExists(%q) = false", file)
	}
	if FileExists(dir) {
		t.Error("FileExists(dir) = true, want false")
	}
	if FileExists(filepath.Join(dir, "missing.ttf")) {
		t.Error("FileExists(missing) = true")
	}
}

// ///////////////////////////////////////////////
// Loader
// ///////////////////////////////////////////////

func writeFont(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	for _, rast := range []string{RasterizerOpenType, RasterizerFreeType} {
		t.Run(rast, func(t *testing.T) {
			path := writeFont(t, "goregular.ttf", goregular.TTF)
			l := NewLoader(Options{Rasterizer: rast})

			f, err := l.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if f.IsFallback() {
				t.Fatal("loaded font reports fallback")
			}
			face, err := f.Face(64)
			if err != nil {
				t.Fatalf("Face: %v", err)
			}
			defer face.Close()

			if h := face.Metrics().Height.Ceil(); h < 48 || h > 96 {
				t.Errorf("face height = %d, want about 64", h)
			}
		})
	}
}

// sfntTable is one table of an SFNT font file.
type sfntTable struct {
	tag  string
	data []byte
}

// tablesOf splits an SFNT file into its tables, sorted by tag.
func tablesOf(t *testing.T, ttf []byte) []sfntTable {
	t.Helper()
	n := int(binary.BigEndian.Uint16(ttf[4:]))
	tables := make([]sfntTable, n)
	for i := range tables {
		rec := ttf[12+16*i:]
		off := binary.BigEndian.Uint32(rec[8:])
		length := binary.BigEndian.Uint32(rec[12:])
		tables[i] = sfntTable{tag: string(rec[:4]), data: ttf[off : off+length]}
	}
	slices.SortFunc(tables, func(a, b sfntTable) int { return strings.Compare(a.tag, b.tag) })
	return tables
}

// collectionOf wraps a single font in a one-font TTC.
func collectionOf(ttf []byte) []byte {
	const header = 16
	out := make([]byte, header, header+len(ttf))
	copy(out, "ttcf")
	binary.BigEndian.PutUint32(out[4:], 0x00010000)
	binary.BigEndian.PutUint32(out[8:], 1)
	binary.BigEndian.PutUint32(out[12:], header)
	out = append(out, ttf...)

	// Table offsets in a collection are relative to the start of the file.
	n := int(binary.BigEndian.Uint16(ttf[4:]))
	for i := 0; i < n; i++ {
		field := out[header+12+16*i+8:]
		binary.BigEndian.PutUint32(field, binary.BigEndian.Uint32(field)+header)
	}
	return out
}

// woffOf packs an SFNT file as WOFF 1.0 with uncompressed tables.
func woffOf(t *testing.T, ttf []byte) []byte {
	t.Helper()
	tables := tablesOf(t, ttf)
	n := len(tables)
	front := 44 + 20*n

	var dir, body []byte
	sfntSize := 12 + 16*n
	for _, tb := range tables {
		padded := append(slices.Clone(tb.data), make([]byte, (4-len(tb.data)%4)%4)...)
		summed := slices.Clone(padded)
		if tb.tag == "head" {
			clear(summed[8:12])
		}
		var sum uint32
		for i := 0; i < len(summed); i += 4 {
			sum += binary.BigEndian.Uint32(summed[i:])
		}

		dir = append(dir, tb.tag...)
		dir = binary.BigEndian.AppendUint32(dir, uint32(front+len(body)))
		dir = binary.BigEndian.AppendUint32(dir, uint32(len(tb.data)))
		dir = binary.BigEndian.AppendUint32(dir, uint32(len(tb.data)))
		dir = binary.BigEndian.AppendUint32(dir, sum)
		body = append(body, padded...)
		sfntSize += len(padded)
	}

	header := make([]byte, 44)
	copy(header, "wOFF")
	copy(header[4:], ttf[:4])
	binary.BigEndian.PutUint32(header[8:], uint32(front+len(body)))
	binary.BigEndian.PutUint16(header[12:], uint16(n))
	binary.BigEndian.PutUint32(header[16:], uint32(sfntSize))
	binary.BigEndian.PutUint16(header[20:], 1)

	out := append(header, dir...)
	return append(out, body...)
}

func TestLoader_Formats(t *testing.T) {
	woff := woffOf(t, goregular.TTF)
	formats := []struct {
		name string
		file string
		data []byte
	}{
		{"single", "goregular.ttf", goregular.TTF},
		{"collection", "goregular.ttc", collectionOf(goregular.TTF)},
		{"woff", "goregular.woff", woff},
		{"woff by signature", "goregular.bin", woff},
	}
	for _, ff := range formats {
		for _, rast := range []string{RasterizerOpenType, RasterizerFreeType} {
			t.Run(ff.name+"/"+rast, func(t *testing.T) {
				path := writeFont(t, ff.file, ff.data)
				f, err := NewLoader(Options{Rasterizer: rast}).Load(path)
				if err != nil {
					t.Fatalf("Load: %v", err)
				}
				if f.IsFallback() {
					t.Fatal("loaded font reports fallback")
				}
				if want := rast == RasterizerFreeType; (f.tt != nil) != want {
					t.Errorf("freetype font set = %v, want %v", f.tt != nil, want)
				}
				if got := f.Missing("Share card"); len(got) != 0 {
					t.Errorf("Missing = %q, want none", got)
				}

				face, err := f.Face(48)
				if err != nil {
					t.Fatalf("Face: %v", err)
				}
				defer face.Close()
				if _, ok := face.GlyphAdvance('S'); !ok {
					t.Error("face has no advance for 'S'")
				}
			})
		}
	}
}

func TestLoader_Cached(t *testing.T) {
	path := writeFont(t, "goregular.ttf", goregular.TTF)
	l := NewLoader(Options{})

	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := l.Load(path)
	if err != nil {
		t.Fatalf("cached Load: %v", err)
	}
	if first != second {
		t.Error("second Load returned a different *Font")
	}

	l.Forget()
	if _, err := l.Load(path); err == nil {
		t.Error("Load after Forget of a removed file expected error")
	}
}

func TestLoader_NoFont(t *testing.T) {
	_, err := NewLoader(Options{}).Load(NoFont)
	if !errors.Is(err, ErrFontUnavailable) {
		t.Errorf("Load(NoFont) error = %v, want ErrFontUnavailable", err)
	}
}

func TestLoader_Corrupt(t *testing.T) {
	path := writeFont(t, "broken.ttf", []byte("definitely not a font"))
	if _, err := NewLoader(Options{}).Load(path); err == nil {
		t.Error("Load(corrupt) expected error")
	}
}

// ///////////////////////////////////////////////
// Coverage
// ///////////////////////////////////////////////

func TestFont_Missing(t *testing.T) {
	path := writeFont(t, "goregular.ttf", goregular.TTF)
	f, err := NewLoader(Options{}).Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := f.Missing("Share 小凡 card 小")
	want := []rune{'小', '凡'}
	if !slices.Equal(got, want) {
		t.Errorf("Missing = %q, want %q", got, want)
	}
	if got := f.Missing("plain ascii"); len(got) != 0 {
		t.Errorf("Missing(ascii) = %q, want none", got)
	}
}

func TestFallback(t *testing.T) {
	f := Fallback()
	if !f.IsFallback() {
		t.Fatal("Fallback().IsFallback() = false")
	}
	face, err := f.Face(220)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	if face != basicfont.Face7x13 {
		t.Error("fallback face is not basicfont.Face7x13")
	}
	if got := f.Missing("Ab看"); !slices.Equal(got, []rune{'看'}) {
		t.Errorf("fallback Missing = %q, want [看]", got)
	}
}
