// Package sharecard provides embedded assets for the sharecard generator.
//
// The root package exists solely to embed [scenes.default.toml] via
// [DefaultScenesTOML]. The config package decodes it to build the default
// configuration and `sharecard -init` copies it next to the project.
package sharecard

import _ "embed"

// DefaultScenesTOML holds the raw bytes of scenes.default.toml, embedded at
// build time.
//
//go:embed scenes.default.toml
var DefaultScenesTOML []byte
