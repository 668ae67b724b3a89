package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	"github.com/echoflaresat/raycast/config"
	"github.com/echoflaresat/raycast/logging"
)

const usageLine = "raycast [flags] <width> <height> <input-scene> <output-image>"

// usageError reports a malformed command line.
type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// runner holds what the command actions share: the merged configuration,
// the output streams and the logger installed by the Before hook.
type runner struct {
	ctx    context.Context
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	dump   bool
}

func newApp(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) *cli.App {
	r := &runner{ctx: ctx, cfg: cfg, stdout: stdout, stderr: stderr, logger: slog.Default()}

	app := cli.NewApp()
	app.Name = "raycast"
	app.Usage = "render a scene description into an image by casting one ray per pixel"
	app.UsageText = usageLine + "\n   raycast [flags] inspect [--format dump|scene] <scene>\n   raycast [flags] batch <manifest>"
	app.HideVersion = true
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "workers, w",
			Value: cfg.Workers,
			Usage: "number of rows rendered in parallel (0 = one per CPU)",
		},
		cli.StringFlag{
			Name:  "shading",
			Value: cfg.Shading,
			Usage: "shading mode: flat or diffuse",
		},
		cli.BoolFlag{
			Name:  "spotlights",
			Usage: "apply angular attenuation to lights with a direction (diffuse shading only)",
		},
		cli.StringFlag{
			Name:  "color-policy",
			Value: cfg.ColorPolicy,
			Usage: "out of range colors: strict rejects them, clamp clamps them at output",
		},
		cli.IntFlag{
			Name:  "max-objects",
			Value: cfg.MaxObjects,
			Usage: "maximum number of surfaces and of lights per scene",
		},
		cli.IntFlag{
			Name:  "scene-cache",
			Value: cfg.SceneCache,
			Usage: "number of parsed scenes kept in batch mode",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: cfg.LogLevel,
			Usage: "debug, info, warn or error",
		},
		cli.BoolFlag{
			Name:  "progress",
			Usage: "log render progress every 10%",
		},
		cli.BoolFlag{
			Name:  "dump",
			Usage: "print the parsed scene before rendering",
		},
	}
	app.Before = r.configure
	app.Action = r.renderCommand
	app.Commands = []cli.Command{
		{
			Name:      "inspect",
			Usage:     "parse a scene and print it",
			ArgsUsage: "<scene>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "format, f",
					Value: "dump",
					Usage: "dump (readable listing) or scene (normalized scene file)",
				},
			},
			Action: r.inspectCommand,
		},
		{
			Name:  "batch",
			Usage: "render every job listed in a manifest",
			Description: `Each non-blank line of the manifest that does not start with '#' holds
<width> <height> <input-scene> <output-image>. Scenes are parsed once and
reused while they stay unchanged on disk. Rendering stops at the first error.`,
			ArgsUsage: "<manifest>",
			Action:    r.batchCommand,
		},
	}
	return app
}

// configure merges the flags that were set into the configuration and
// installs the logger.
func (r *runner) configure(c *cli.Context) error {
	cfg := r.cfg
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("shading") {
		cfg.Shading = c.String("shading")
	}
	if c.IsSet("spotlights") {
		cfg.Spotlights = c.Bool("spotlights")
	}
	if c.IsSet("color-policy") {
		cfg.ColorPolicy = c.String("color-policy")
	}
	if c.IsSet("max-objects") {
		cfg.MaxObjects = c.Int("max-objects")
	}
	if c.IsSet("scene-cache") {
		cfg.SceneCache = c.Int("scene-cache")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("progress") {
		cfg.Progress = c.Bool("progress")
	}
	r.dump = c.Bool("dump")

	if err := cfg.Validate(); err != nil {
		return usagef("%v", err)
	}

	logger, err := logging.New(r.stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	r.logger = logger
	return nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newApp(ctx, cfg, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "Usage: %s\n", usageLine)
		}
		stop()
		os.Exit(1)
	}
}
