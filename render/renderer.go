// Package render casts one primary ray per pixel through the camera's view
// plane and composites the shaded nearest hits into an 8-bit image.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/echoflaresat/raycast/colors"
	"github.com/echoflaresat/raycast/scene"
)

// Renderer composites a scene into an image. The scene is shared read-only
// by all workers.
type Renderer struct {
	Scene    *scene.Scene
	Shader   Shader // nil means Flat
	Workers  int    // <= 0 means runtime.GOMAXPROCS(0)
	Progress bool   // log a line every 10% of rows
	Logger   *slog.Logger
}

// Render casts width×height rays and returns the image. Scan row y is stored
// in image row height-1-y, so the bottom of the view plane ends up at the
// bottom of the image. Rows are computed in parallel; each worker writes only
// its own row and the image is returned after all of them finished.
func (r *Renderer) Render(ctx context.Context, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d: dimensions must be positive", width, height)
	}
	if r.Scene == nil {
		return nil, errors.New("render: no scene")
	}

	shader := r.Shader
	if shader == nil {
		shader = Flat{}
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("render start",
		"width", width, "height", height,
		"surfaces", len(r.Scene.Surfaces), "lights", len(r.Scene.Lights),
		"workers", workers)

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	prog := newProgress(logger, height, r.Progress)
	cam := r.Scene.Camera

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for y := 0; y < height; y++ {
		if gctx.Err() != nil {
			break
		}
		y := y // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rc := NewRayContext(r.Scene)
			row := height - 1 - y
			for x := 0; x < width; x++ {
				rc.SetRayDirection(ViewRay(cam, x, y, width, height))
				c := colors.Black()
				if rc.Hit() {
					c = shader.Shade(rc)
				}
				img.SetNRGBA(x, row, c.ToNRGBA())
			}
			prog.rowDone()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("render done", "width", width, "height", height)
	return img, nil
}

// progress logs every 10% milestone of completed rows. Rows finish out of
// order, so only the count matters.
type progress struct {
	logger  *slog.Logger
	total   int64
	done    atomic.Int64
	enabled bool
}

func newProgress(logger *slog.Logger, total int, enabled bool) *progress {
	return &progress{logger: logger, total: int64(total), enabled: enabled}
}

func (p *progress) rowDone() {
	n := p.done.Add(1)
	if !p.enabled {
		return
	}
	prev := (n - 1) * 10 / p.total
	cur := n * 10 / p.total
	if cur > prev {
		p.logger.Info("render progress", "percent", cur*10)
	}
}
