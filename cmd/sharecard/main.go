// Package main implements sharecard, which renders the mini-program's
// promotional share images from declarative scene descriptions.
//
// Usage:
//
//	sharecard                      render every configured scene
//	sharecard -scenes 'ins*'       render scenes matching doublestar globs
//	sharecard -watch               re-render when the config or font changes
//	sharecard -init                write the default sharecard.toml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"runtime/debug"
	"strings"

	"tools.zach/dev/sharecard"
	"tools.zach/dev/sharecard/internal/config"
	"tools.zach/dev/sharecard/internal/fonts"
	"tools.zach/dev/sharecard/internal/generate"
	"tools.zach/dev/sharecard/internal/logger"
	"tools.zach/dev/sharecard/internal/output"
	"tools.zach/dev/sharecard/internal/paths"
	"tools.zach/dev/sharecard/internal/scene"
	"tools.zach/dev/sharecard/internal/watch"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via ldflags (-X main.version=...). When it
// is not, resolveVersion falls back to the VCS info the Go toolchain embeds.
var version = "dev"

// resolveVersion returns the ldflags version, or "dev+<hash>" built from the
// embedded VCS revision and dirty state.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Flags
// ///////////////////////////////////////////////

// options holds parsed command-line flags. Empty or zero values leave the
// configuration untouched.
type options struct {
	configPath  string
	outDir      string
	scenes      []string
	workers     int
	watch       bool
	logLevel    string
	logFile     string
	initConfig  bool
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	var scenes string

	fs := flag.NewFlagSet(paths.BinaryName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "config file (default: ./sharecard.toml, .yaml or .yml if present)")
	fs.StringVar(&opts.outDir, "out", "", "output directory (overrides output.dir, normally "+paths.AssetsDir+")")
	fs.StringVar(&scenes, "scenes", "", "comma-separated scene name globs to render (default: all)")
	fs.IntVar(&opts.workers, "workers", 0, "scenes rendered at once (overrides render.workers)")
	fs.BoolVar(&opts.watch, "watch", false, "re-render when the config or font file changes")
	fs.StringVar(&opts.logLevel, "log-level", "", "trace, debug, info, warn, or error (overrides log.level)")
	fs.StringVar(&opts.logFile, "log-file", "", "also log to this rotating file (overrides log.file)")
	fs.BoolVar(&opts.initConfig, "init", false, "write the default configuration to -config (default sharecard.toml) and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	for _, p := range strings.Split(scenes, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.scenes = append(opts.scenes, p)
		}
	}
	return opts, nil
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code: 0 on
// success, 1 on failure, 2 on bad usage.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "%s %s\n", paths.BinaryName, resolveVersion())
		return 0
	}
	if opts.initConfig {
		if err := writeDefaultConfig(opts.configPath, stdout); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		// A missing file loads the defaults; watch mode then picks it up once created.
		if cfgPath = config.Find("."); cfgPath == "" {
			cfgPath = paths.ConfigFile
		}
	}
	cfg, err := loadConfig(cfgPath, opts)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log, closer := logger.New(logger.Options{
		Level:     level,
		Console:   stderr,
		File:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})
	defer closer.Close()

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	a := &app{opts: opts, cfgPath: cfgPath, log: log, stdout: stdout}
	if err := a.generate(ctx, cfg); err != nil {
		logger.Fail(log, "generation failed", "error", err)
		if !opts.watch {
			return 1
		}
	}
	if !opts.watch {
		return 0
	}
	if err := a.watch(ctx, cfg); err != nil {
		logger.Fail(log, "watch failed", "error", err)
		return 1
	}
	return 0
}

// loadConfig loads path and applies flag overrides.
func loadConfig(path string, opts *options) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.workers > 0 {
		cfg.Render.Workers = opts.workers
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// writeDefaultConfig writes the embedded defaults to path, refusing to
// overwrite an existing file. YAML paths get the defaults re-encoded.
func writeDefaultConfig(path string, stdout io.Writer) error {
	if path == "" {
		path = paths.ConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		err = config.DefaultConfig().Save(path)
	} else {
		err = output.WriteFile(path, sharecard.DefaultScenesTOML, 0o644)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}

// ///////////////////////////////////////////////
// Generation
// ///////////////////////////////////////////////

// app carries state shared across watch-mode regenerations.
type app struct {
	opts    *options
	cfgPath string
	log     *slog.Logger
	stdout  io.Writer

	// loader is kept between runs while the font settings are unchanged.
	loader   *fonts.Loader
	fontsCfg config.FontsConfig
}

// fontLoader returns a loader for cfg, reusing the previous one when the
// font settings did not change.
func (a *app) fontLoader(cfg *config.Config) *fonts.Loader {
	if a.loader == nil || !reflect.DeepEqual(a.fontsCfg, cfg.Fonts) {
		a.loader = fonts.NewLoader(fonts.Options{
			Rasterizer: cfg.Fonts.Rasterizer,
			DPI:        cfg.Fonts.DPI,
			Logger:     a.log,
		})
		a.fontsCfg = cfg.Fonts
	}
	return a.loader
}

// generate renders the selected scenes of cfg while holding the output
// directory lock, and prints one line per written image.
func (a *app) generate(ctx context.Context, cfg *config.Config) error {
	specs, err := cfg.Select(a.opts.scenes)
	if err != nil {
		return err
	}
	compression, err := output.ParseCompression(cfg.Output.Compression)
	if err != nil {
		return err
	}

	dir := paths.OutputDir{Root: cfg.Output.Dir}
	lock, err := output.Acquire(dir)
	if err != nil {
		return err
	}
	defer lock.Release()

	writer := output.NewWriter(dir.Root)
	writer.Compression = compression
	g := &generate.Generator{
		Composer: scene.NewComposer(cfg.FontCandidates(), a.fontLoader(cfg), a.log),
		Writer:   writer,
		Workers:  cfg.WorkerCount(),
		Logger:   a.log,
	}

	results, err := g.Run(ctx, specs)
	for _, r := range results {
		if r.Scene == "" {
			continue
		}
		fmt.Fprintf(a.stdout, "%s  %dx%d  %.2f KB\n", r.File.Path, r.Width, r.Height, r.File.SizeKB())
	}
	return err
}

// ///////////////////////////////////////////////
// Watch Mode
// ///////////////////////////////////////////////

// watchedFiles lists the config file and the font the composer resolves.
func (a *app) watchedFiles(cfg *config.Config) []string {
	files := []string{a.cfgPath}
	if font := fonts.Resolve(cfg.FontCandidates(), fonts.FileExists); font != fonts.NoFont {
		files = append(files, font)
	}
	return files
}

// watch re-renders whenever a watched file changes, until ctx is done. A
// config that fails to load or render is logged and the previous watch set
// is kept.
func (a *app) watch(ctx context.Context, cfg *config.Config) error {
	for {
		files := a.watchedFiles(cfg)
		w, err := watch.New(files, a.log)
		if err != nil {
			return err
		}
		a.log.Info("watching for changes", "files", strings.Join(files, ", "), "polling", w.Polling())

		select {
		case <-ctx.Done():
			w.Close()
			return nil
		case <-w.Events():
		}
		w.Close()

		next, err := loadConfig(a.cfgPath, a.opts)
		if err != nil {
			a.log.Error("reload failed, keeping previous config", "error", err)
			continue
		}
		cfg = next
		if a.loader != nil {
			a.loader.Forget()
		}
		if err := a.generate(ctx, cfg); err != nil {
			a.log.Error("regeneration failed", "error", err)
		}
	}
}
