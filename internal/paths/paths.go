// Package paths centralizes the file and directory names sharecard reads and
// writes. Every name is defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Project-relative defaults.
const (
	// AssetsDir is where the mini-program loads share images from.
	AssetsDir = "miniprogram/assets/images"
	// ConfigFile is the scene configuration looked up in the working directory.
	ConfigFile = "sharecard.toml"
	// LockFile guards an output directory against concurrent generator runs.
	LockFile = ".sharecard.lock"
	// BinaryName is used in usage and version output.
	BinaryName = "sharecard"
)

// ConfigCandidates lists the config file names tried, in order, when no
// -config flag is given.
var ConfigCandidates = []string{ConfigFile, "sharecard.yaml", "sharecard.yml"}

// ///////////////////////////////////////////////
// OutputDir
// ///////////////////////////////////////////////

// OutputDir provides path construction rooted at an output directory.
type OutputDir struct {
	Root string
}

// File returns the full path of an output file name.
func (d OutputDir) File(name string) string { return filepath.Join(d.Root, filepath.FromSlash(name)) }

// Lock returns the full path of the directory's lock file.
func (d OutputDir) Lock() string { return filepath.Join(d.Root, LockFile) }
