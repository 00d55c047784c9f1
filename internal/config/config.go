// Package config provides configuration loading and defaults for the
// sharecard generator.
//
// Configuration is read from a TOML file (sharecard.toml) or, by extension,
// a YAML file. Anything the file leaves out keeps the embedded default from
// scenes.default.toml, including the built-in scenes when the file defines
// none of its own.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"tools.zach/dev/sharecard"
	"tools.zach/dev/sharecard/internal/fonts"
	"tools.zach/dev/sharecard/internal/logger"
	"tools.zach/dev/sharecard/internal/output"
	"tools.zach/dev/sharecard/internal/paths"
	"tools.zach/dev/sharecard/internal/scene"
)

// CurrentVersion is the config schema version this build understands.
const CurrentVersion = 1

// ///////////////////////////////////////////////
// Config Types
// ///////////////////////////////////////////////

// Config represents the top-level generator configuration.
type Config struct {
	// Version is the config schema version.
	Version int `toml:"version" yaml:"version"`
	// Output holds where and how images are written.
	Output OutputConfig `toml:"output" yaml:"output"`
	// Fonts holds font resolution settings.
	Fonts FontsConfig `toml:"fonts" yaml:"fonts"`
	// Render holds batch rendering settings.
	Render RenderConfig `toml:"render" yaml:"render"`
	// Log holds logging settings.
	Log LogConfig `toml:"log" yaml:"log"`
	// Scenes lists every share card the generator knows about.
	Scenes []scene.Spec `toml:"scenes" yaml:"scenes"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	// Dir is the directory images are written to, relative to the working
	// directory.
	Dir string `toml:"dir" yaml:"dir"`
	// Compression is the PNG compression: default, none, speed, or best.
	Compression string `toml:"compression" yaml:"compression"`
}

// FontsConfig holds font settings.
type FontsConfig struct {
	// Candidates are font paths tried in order. Empty means the built-in
	// list of macOS and Linux CJK fonts.
	Candidates []string `toml:"candidates,omitempty" yaml:"candidates,omitempty"`
	// Rasterizer is opentype or freetype.
	Rasterizer string `toml:"rasterizer" yaml:"rasterizer"`
	// DPI used to size faces. 72 makes sizes pixels.
	DPI float64 `toml:"dpi" yaml:"dpi"`
}

// RenderConfig holds batch settings.
type RenderConfig struct {
	// Workers is the number of scenes rendered at once. 0 means one per CPU.
	Workers int `toml:"workers" yaml:"workers"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level" yaml:"level"`
	// File is an optional rotating log file. Console logging is always on.
	File string `toml:"file,omitempty" yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb" yaml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Defaults
// ///////////////////////////////////////////////

// DefaultConfig returns the configuration embedded in scenes.default.toml.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := toml.Unmarshal(sharecard.DefaultScenesTOML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded scenes.default.toml: %v", err))
	}
	return cfg
}

// FontCandidates returns the configured candidates or the built-in list.
func (c *Config) FontCandidates() []string {
	if len(c.Fonts.Candidates) > 0 {
		return c.Fonts.Candidates
	}
	return fonts.DefaultCandidates
}

// WorkerCount resolves Render.Workers, mapping 0 to the CPU count.
func (c *Config) WorkerCount() int {
	if c.Render.Workers > 0 {
		return c.Render.Workers
	}
	return runtime.NumCPU()
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Find returns the first of [paths.ConfigCandidates] present in dir, or ""
// when there is none.
func Find(dir string) string {
	for _, name := range paths.ConfigCandidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads and validates the configuration at path. An empty path or a
// missing file yields DefaultConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the given format ("toml" or "yaml") over the
// defaults and validates the result.
func Parse(data []byte, format string) (*Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.Scenes
	// Decoders reuse existing slice elements, which would merge user
	// scenes into the built-in ones.
	cfg.Scenes = nil

	switch format {
	case "toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if len(cfg.Scenes) == 0 {
		cfg.Scenes = defaults
	}
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save writes the config atomically, as YAML for .yaml/.yml paths and TOML
// otherwise.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	switch formatOf(path) {
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
	default:
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
	}
	return output.WriteFile(path, buf.Bytes(), 0o644)
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Version > CurrentVersion {
		return fmt.Errorf("config version %d is newer than supported version %d", c.Version, CurrentVersion)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if _, err := output.ParseCompression(c.Output.Compression); err != nil {
		return fmt.Errorf("output.compression: %w", err)
	}
	switch c.Fonts.Rasterizer {
	case "", fonts.RasterizerOpenType, fonts.RasterizerFreeType:
	default:
		return fmt.Errorf("invalid fonts.rasterizer %q: must be opentype or freetype", c.Fonts.Rasterizer)
	}
	if c.Fonts.DPI < 0 {
		return fmt.Errorf("fonts.dpi must be >= 0, got %g", c.Fonts.DPI)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("render.workers must be >= 0, got %d", c.Render.Workers)
	}
	if _, ok := logger.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	if len(c.Scenes) == 0 {
		return fmt.Errorf("at least one scene is required")
	}
	names := map[string]bool{}
	outputs := map[string]string{}
	for i, s := range c.Scenes {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("scenes[%d]: %w", i, err)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate scene name %q", s.Name)
		}
		names[s.Name] = true
		out := strings.ToLower(filepath.ToSlash(filepath.Clean(s.Output)))
		if prev, ok := outputs[out]; ok {
			return fmt.Errorf("scenes %q and %q both write %s", prev, s.Name, s.Output)
		}
		outputs[out] = s.Name
	}
	return nil
}

// ///////////////////////////////////////////////
// Scene Selection
// ///////////////////////////////////////////////

// Select returns the scenes whose names match any of patterns (doublestar
// globs), in configuration order. No patterns selects every scene.
func (c *Config) Select(patterns []string) ([]scene.Spec, error) {
	if len(patterns) == 0 {
		return c.Scenes, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid scene pattern %q", p)
		}
	}

	var selected []scene.Spec
	for _, s := range c.Scenes {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, s.Name); ok {
				selected = append(selected, s)
				break
			}
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no scene matches %s", strings.Join(patterns, ", "))
	}
	return selected, nil
}
