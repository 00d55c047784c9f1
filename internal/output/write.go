// Package output writes finished share cards to disk.
//
// Every write goes through a temporary file in the target directory that is
// synced and renamed over the destination, so a crash or encode failure
// never leaves a truncated image behind.
package output

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tools.zach/dev/sharecard/internal/paths"
)

// ///////////////////////////////////////////////
// Atomic Writes
// ///////////////////////////////////////////////

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return write(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// write creates a temp file next to path, fills it through fill, syncs,
// sets perm and renames it over path. The temp file is removed on any
// failure.
func write(path string, perm os.FileMode, fill func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := f.Name()
	var success bool
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	success = true
	return nil
}

// ///////////////////////////////////////////////
// PNG Writer
// ///////////////////////////////////////////////

// Written describes one file produced by [Writer.WritePNG].
type Written struct {
	// Path is the full path of the written file.
	Path string
	// Size is the file size in bytes.
	Size int64
}

// SizeKB returns the size in kilobytes for reporting.
func (w Written) SizeKB() float64 { return float64(w.Size) / 1024 }

// Writer encodes images as PNG under an output directory.
type Writer struct {
	// Dir is created on first write if missing.
	Dir paths.OutputDir
	// Perm of written files.
	Perm os.FileMode
	// Compression is the zlib level used by the PNG encoder.
	Compression png.CompressionLevel
}

// NewWriter returns a Writer rooted at dir with default compression.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: paths.OutputDir{Root: dir}, Perm: 0o644, Compression: png.DefaultCompression}
}

// ParseCompression maps a configured compression name to a PNG level.
// An empty name selects the default level.
func ParseCompression(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	default:
		return 0, fmt.Errorf("invalid compression %q: must be default, none, speed, or best", name)
	}
}

// WritePNG encodes img to the file name under the writer's directory,
// creating intermediate directories as needed.
func (w *Writer) WritePNG(name string, img image.Image) (Written, error) {
	path := w.Dir.File(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Written{}, fmt.Errorf("create output dir: %w", err)
	}

	enc := png.Encoder{CompressionLevel: w.Compression}
	if err := write(path, w.Perm, func(out io.Writer) error { return enc.Encode(out, img) }); err != nil {
		return Written{}, fmt.Errorf("write %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Written{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Written{Path: path, Size: info.Size()}, nil
}
