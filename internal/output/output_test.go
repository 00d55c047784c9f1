// output_test.go tests atomic writes, PNG encoding of opaque canvases,
// temp file cleanup on failure, and the output directory lock.
package output

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"tools.zach/dev/sharecard/internal/paths"
)

func opaqueImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 91, G: 159, B: 227, A: 255})
		}
	}
	return img
}

// ///////////////////////////////////////////////
// WriteFile
// ///////////////////////////////////////////////

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sharecard.toml")
	if err := WriteFile(path, []byte("version = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "version = 1\n" {
		t.Errorf("got %q", got)
	}
}

func TestWriteFile_Concurrent(t *testing.T) {
	dir := t.TempDir()
	const n = 16

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			path := filepath.Join(dir, "card-"+string(rune('A'+i))+".txt")
			if err := WriteFile(path, []byte{byte('A' + i)}, 0o644); err != nil {
				t.Errorf("WriteFile %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != n {
		t.Errorf("found %d files, want %d", len(entries), n)
	}
}

func TestWrite_CleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "share-insight.png")
	boom := errors.New("encode failed")

	err := write(path, 0o644, func(io.Writer) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("write error = %v, want %v", err, boom)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		t.Errorf("leftover file %q", e.Name())
	}
}

// ///////////////////////////////////////////////
// WritePNG
// ///////////////////////////////////////////////

func TestWritePNG(t *testing.T) {
	root := filepath.Join(t.TempDir(), "miniprogram", "assets", "images")
	w := NewWriter(root)

	got, err := w.WritePNG("share-insight.png", opaqueImage(64, 32))
	if err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if got.Path != filepath.Join(root, "share-insight.png") {
		t.Errorf("path = %q", got.Path)
	}
	info, err := os.Stat(got.Path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got.Size != info.Size() || got.Size == 0 {
		t.Errorf("size = %d, file is %d", got.Size, info.Size())
	}

	f, err := os.Open(got.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 32 {
		t.Errorf("decoded size = %dx%d, want 64x32", cfg.Width, cfg.Height)
	}
	// Opaque RGBA input encodes as 8-bit truecolor without alpha.
	if cfg.ColorModel != color.RGBAModel {
		t.Errorf("color model = %v, want RGBA (truecolor)", cfg.ColorModel)
	}
}

func TestWritePNG_Nested(t *testing.T) {
	w := NewWriter(t.TempDir())
	got, err := w.WritePNG("cards/share-default.png", opaqueImage(4, 4))
	if err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if !strings.HasSuffix(filepath.ToSlash(got.Path), "cards/share-default.png") {
		t.Errorf("path = %q", got.Path)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name string
		want png.CompressionLevel
	}{
		{"", png.DefaultCompression},
		{"default", png.DefaultCompression},
		{"none", png.NoCompression},
		{"Speed", png.BestSpeed},
		{"best", png.BestCompression},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseCompression(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
	if _, err := ParseCompression("max"); err == nil {
		t.Error("ParseCompression(max) expected error")
	}
}

// ///////////////////////////////////////////////
// Lock
// ///////////////////////////////////////////////

func TestAcquire(t *testing.T) {
	dir := paths.OutputDir{Root: filepath.Join(t.TempDir(), "images")}

	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := Acquire(dir); !errors.Is(err, ErrLocked) {
		t.Errorf("second Acquire error = %v, want ErrLocked", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(dir.Lock()); runtime.GOOS != "windows" && !os.IsNotExist(err) {
		t.Errorf("lock file still present after Release: %v", err)
	}

	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
	again.Release()
}

func TestAcquire_StaleHandleAfterRelease(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open files cannot be removed on windows")
	}
	dir := paths.OutputDir{Root: t.TempDir()}

	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	// Another run opened the lock file but has not locked it yet.
	stale, err := os.OpenFile(dir.Lock(), os.O_RDWR, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer stale.Close()
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if err := lockFile(stale); err != nil {
		t.Fatalf("locking the removed file: %v", err)
	}
	if current(stale, dir.Lock()) {
		t.Fatal("current() = true for a handle to the removed lock file")
	}

	// The orphaned lock must not block or count as the directory lock.
	next, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire with a stale handle locked: %v", err)
	}
	defer next.Release()
	if _, err := Acquire(dir); !errors.Is(err, ErrLocked) {
		t.Errorf("Acquire while held error = %v, want ErrLocked", err)
	}
}

func TestCurrent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("open files cannot be removed on windows")
	}
	tests := []struct {
		name   string
		change func(path string) error
		want   bool
	}{
		{"unchanged", func(string) error { return nil }, true},
		{"removed", os.Remove, false},
		{"replaced", func(path string) error {
			tmp := path + ".new"
			if err := os.WriteFile(tmp, nil, 0o644); err != nil {
				return err
			}
			return os.Rename(tmp, path)
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), paths.LockFile)
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			if err := tt.change(path); err != nil {
				t.Fatal(err)
			}
			if got := current(f, path); got != tt.want {
				t.Errorf("current() = %v, want %v", got, tt.want)
			}
		})
	}
}
