// Package generate renders a batch of scenes and hands each finished canvas
// to the output writer.
//
// Scenes render concurrently up to a worker limit. Each goroutine owns its
// canvas and font faces; only the composer's read-only settings and the
// parsed font cache are shared.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tools.zach/dev/sharecard/internal/logger"
	"tools.zach/dev/sharecard/internal/output"
	"tools.zach/dev/sharecard/internal/scene"
)

// Result reports one rendered scene.
type Result struct {
	// Scene is the scene name.
	Scene string
	// File is what the writer produced.
	File output.Written
	// Width and Height of the rendered image in pixels.
	Width  int
	Height int
	// Elapsed covers composing and writing.
	Elapsed time.Duration
}

// Generator renders scenes and writes them out.
type Generator struct {
	Composer *scene.Composer
	Writer   *output.Writer
	// Workers bounds concurrent scenes. Values below 1 mean 1.
	Workers int
	Logger  *slog.Logger
}

// Run renders specs and returns results in spec order. The first failure
// cancels scenes not yet started and is returned; results of scenes that
// finished stay in the slice, failed or skipped entries are zero.
func (g *Generator) Run(ctx context.Context, specs []scene.Spec) ([]Result, error) {
	log := g.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	workers := g.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(specs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, spec := range specs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			logger.Trace(log, "rendering scene", "scene", spec.Name)

			canvas, err := g.Composer.Compose(spec)
			if err != nil {
				return fmt.Errorf("render %s: %w", spec.Name, err)
			}
			written, err := g.Writer.WritePNG(spec.Output, canvas.Image())
			if err != nil {
				return fmt.Errorf("render %s: %w", spec.Name, err)
			}

			results[i] = Result{
				Scene:   spec.Name,
				File:    written,
				Width:   canvas.Width(),
				Height:  canvas.Height(),
				Elapsed: time.Since(start),
			}
			log.Info("share image generated",
				"scene", spec.Name,
				"path", written.Path,
				"size_kb", fmt.Sprintf("%.2f", written.SizeKB()),
				"elapsed", results[i].Elapsed.Round(time.Millisecond))
			return nil
		})
	}
	return results, eg.Wait()
}
