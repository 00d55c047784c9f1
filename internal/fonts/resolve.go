// Package fonts resolves, loads and measures the fonts a share card is drawn
// with.
//
// Resolution walks a static ordered list of candidate paths and takes the
// first one that exists. When none exists, or the chosen file cannot be
// parsed, rendering continues with a built-in bitmap face ([Fallback]); a
// missing font is never fatal.
package fonts

import (
	"errors"
	"os"
)

// NoFont is the resolved path when no candidate exists.
const NoFont = ""

// ErrFontUnavailable reports that no usable font file was found. It is only
// ever logged; callers fall back to [Fallback].
var ErrFontUnavailable = errors.New("no candidate font file is available")

// DefaultCandidates lists CJK-capable system fonts in preference order: the
// macOS system fonts first, then common Linux Noto and WenQuanYi installs.
var DefaultCandidates = []string{
	"/System/Library/Fonts/PingFang.ttc",
	"/System/Library/Fonts/STHeiti Light.ttc",
	"/System/Library/Fonts/STHeiti Medium.ttc",
	"/Library/Fonts/SimHei.ttf",
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Bold.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Bold.ttc",
	"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
}

// Resolve returns the first candidate for which exists reports true, or
// [NoFont]. Candidate order is never changed.
func Resolve(candidates []string, exists func(string) bool) string {
	for _, path := range candidates {
		if path != "" && exists(path) {
			return path
		}
	}
	return NoFont
}

// FileExists reports whether path names something other than a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
