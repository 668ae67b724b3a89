// Command convert re-encodes rendered images between the supported formats
// and compressions, optionally assembling several equally sized tiles into
// one image.
package main

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/urfave/cli"

	"github.com/echoflaresat/raycast/imagefile"
	"github.com/echoflaresat/raycast/logging"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "convert"
	app.Usage = "convert images between ppm, png, tiff and bmp with optional gz, zst or sz compression"
	app.UsageText = "convert [--grid CxR] [--resize WxH] <input>... <output>"
	app.HideVersion = true
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "grid, g",
			Value: "1x1",
			Usage: "tile layout as <cols>x<rows>; inputs fill the grid row by row",
		},
		cli.StringFlag{
			Name:  "resize",
			Usage: "scale the assembled image to <width>x<height>; a 0 keeps the aspect ratio",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "info",
			Usage: "debug, info, warn or error",
		},
	}
	app.Action = func(c *cli.Context) error {
		logger, err := logging.New(stderr, c.String("log-level"))
		if err != nil {
			return err
		}

		cols, rows, err := parsePair("grid", c.String("grid"), 1)
		if err != nil {
			return err
		}
		var resizeW, resizeH int
		if raw := c.String("resize"); raw != "" {
			if resizeW, resizeH, err = parsePair("resize", raw, 0); err != nil {
				return err
			}
			if resizeW == 0 && resizeH == 0 {
				return fmt.Errorf("invalid resize %q: both dimensions are 0", raw)
			}
		}
		args := c.Args()
		if len(args) < 2 {
			return fmt.Errorf("expected at least one input and an output, got %d arguments", len(args))
		}
		inputs, output := args[:len(args)-1], args[len(args)-1]
		if len(inputs) != cols*rows {
			return fmt.Errorf("expected %d input files for a %dx%d grid, got %d", cols*rows, cols, rows, len(inputs))
		}

		canvas, err := assemble(logger, inputs, cols)
		if err != nil {
			return err
		}
		if resizeW != 0 || resizeH != 0 {
			canvas = imaging.Resize(canvas, resizeW, resizeH, imaging.Lanczos)
		}
		if err := imagefile.Write(output, canvas); err != nil {
			return err
		}
		format, comp := imagefile.Detect(output)
		logger.Info("image written", "path", output, "format", format, "compression", comp,
			"width", canvas.Bounds().Dx(), "height", canvas.Bounds().Dy())
		return nil
	}
	return app
}

// parsePair reads "<a>x<b>" where both values are at least min.
func parsePair(name, raw string, min int) (a, b int, err error) {
	parts := strings.Split(strings.ToLower(raw), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid %s %q (expected <a>x<b>)", name, raw)
	}
	a, err = strconv.Atoi(parts[0])
	if err != nil || a < min {
		return 0, 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	b, err = strconv.Atoi(parts[1])
	if err != nil || b < min {
		return 0, 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return a, b, nil
}

// assemble draws each input into its grid cell. All tiles must share the
// size of the first one.
func assemble(logger *slog.Logger, inputs []string, cols int) (*image.NRGBA, error) {
	var canvas *image.NRGBA
	var tileW, tileH int
	rows := len(inputs) / cols

	for idx, path := range inputs {
		logger.Debug("reading tile", "path", path, "index", idx)
		tile, err := imagefile.Read(path)
		if err != nil {
			return nil, fmt.Errorf("could not load input file %q: %w", path, err)
		}

		if canvas == nil {
			tileW = tile.Bounds().Dx()
			tileH = tile.Bounds().Dy()
			canvas = image.NewNRGBA(image.Rect(0, 0, cols*tileW, rows*tileH))
		} else if tileW != tile.Bounds().Dx() || tileH != tile.Bounds().Dy() {
			return nil, fmt.Errorf("tile size mismatch for %q: expected %dx%d, got %dx%d",
				path, tileW, tileH, tile.Bounds().Dx(), tile.Bounds().Dy())
		}

		x := (idx % cols) * tileW
		y := (idx / cols) * tileH
		draw.Draw(canvas, image.Rect(x, y, x+tileW, y+tileH), tile, tile.Bounds().Min, draw.Src)
	}
	return canvas, nil
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
