package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/echoflaresat/raycast/imagefile"
	"github.com/echoflaresat/raycast/render"
	"github.com/echoflaresat/raycast/scene"
)

// job is one frame: render the scene in input at width×height into output.
type job struct {
	width, height int
	input, output string
}

func parseDimension(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, usagef("%s must be an integer, got %q", name, raw)
	}
	if n <= 0 {
		return 0, usagef("%s must be greater than 0, got %d", name, n)
	}
	return n, nil
}

func parseJob(args []string) (job, error) {
	if len(args) != 4 {
		return job{}, usagef("expected 4 arguments, got %d", len(args))
	}
	width, err := parseDimension("width", args[0])
	if err != nil {
		return job{}, err
	}
	height, err := parseDimension("height", args[1])
	if err != nil {
		return job{}, err
	}
	return job{width: width, height: height, input: args[2], output: args[3]}, nil
}

func (r *runner) renderCommand(c *cli.Context) error {
	j, err := parseJob(c.Args())
	if err != nil {
		return err
	}
	opts, err := r.cfg.SceneOptions()
	if err != nil {
		return err
	}
	return r.run(j, func(path string) (*scene.Scene, error) {
		return scene.LoadFile(path, opts)
	})
}

// run loads, renders and writes one job. Nothing is written unless the
// scene loaded and rendered without error.
func (r *runner) run(j job, load func(string) (*scene.Scene, error)) error {
	s, err := load(j.input)
	if err != nil {
		return err
	}
	if r.dump {
		if err := scene.Dump(r.stdout, s); err != nil {
			return err
		}
	}

	shader, err := r.cfg.Shader()
	if err != nil {
		return err
	}
	renderer := &render.Renderer{
		Scene:    s,
		Shader:   shader,
		Workers:  r.cfg.Workers,
		Progress: r.cfg.Progress,
		Logger:   r.logger,
	}
	img, err := renderer.Render(r.ctx, j.width, j.height)
	if err != nil {
		return err
	}

	if err := imagefile.Write(j.output, img); err != nil {
		return err
	}
	format, comp := imagefile.Detect(j.output)
	r.logger.Debug("image written",
		"path", j.output, "format", format, "compression", comp,
		"width", j.width, "height", j.height)
	return nil
}

func (r *runner) inspectCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return usagef("inspect expects 1 argument, got %d", c.NArg())
	}
	opts, err := r.cfg.SceneOptions()
	if err != nil {
		return err
	}
	s, err := scene.LoadFile(c.Args().First(), opts)
	if err != nil {
		return err
	}

	switch format := c.String("format"); format {
	case "dump":
		return scene.Dump(r.stdout, s)
	case "scene":
		return scene.Write(r.stdout, s)
	default:
		return usagef("unknown inspect format %q (want dump or scene)", format)
	}
}

func (r *runner) batchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return usagef("batch expects 1 argument, got %d", c.NArg())
	}
	manifest := c.Args().First()

	jobs, err := readManifest(manifest)
	if err != nil {
		return err
	}

	opts, err := r.cfg.SceneOptions()
	if err != nil {
		return err
	}
	cache, err := scene.NewCache(r.cfg.SceneCache, opts)
	if err != nil {
		return err
	}

	for _, mj := range jobs {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		if err := r.run(mj.job, cache.Load); err != nil {
			return fmt.Errorf("%s:%d: %w", manifest, mj.line, err)
		}
		r.logger.Info("rendered", "scene", mj.input, "output", mj.output, "line", mj.line)
	}
	r.logger.Info("batch complete", "jobs", len(jobs), "cached_scenes", cache.Len())
	return nil
}

type manifestJob struct {
	job
	line int
}

// readManifest parses all lines up front so a malformed manifest fails
// before any image is rendered.
func readManifest(path string) ([]manifestJob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open manifest: %w", err)
	}
	defer f.Close()

	var jobs []manifestJob
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		j, err := parseJob(strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		jobs = append(jobs, manifestJob{job: j, line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return jobs, nil
}
