package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/echoflaresat/raycast/config"
	"github.com/echoflaresat/raycast/imagefile"
	"github.com/echoflaresat/raycast/scene"
)

const redSphereScene = `[
  {"type": "camera", "width": 1, "height": 1},
  {"type": "sphere", "color": [1, 0, 0], "position": [0, 0, 5], "radius": 1}
]`

const litScene = `[
  {"type": "camera", "width": 1.5, "height": 1},
  {"type": "plane", "color": [0.9, 0.9, 0.9], "position": [0, -1, 0], "normal": [0, 1, 0]},
  {"type": "sphere", "color": [1, 0.2, 0.2], "position": [-0.6, 0, 5], "radius": 1},
  {"type": "sphere", "color": [0.2, 0.2, 1], "position": [1, 0.3, 7], "radius": 1.2},
  {"type": "light", "color": [1, 1, 1], "position": [-3, 5, 0], "radial-a0": 1, "radial-a2": 0.002},
  {"type": "light", "color": [0.4, 0.4, 0.3], "position": [4, 4, 2], "direction": [-1, -1, 1], "angular-a0": 3}
]`

type cliResult struct {
	stdout, stderr bytes.Buffer
	err            error
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) *cliResult {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	res := &cliResult{}
	app := newApp(context.Background(), cfg, &res.stdout, &res.stderr)
	res.err = app.Run(append([]string{"raycast"}, args...))
	return res
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func readImage(t *testing.T, path string) image.Image {
	t.Helper()
	img, err := imagefile.Read(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return img
}

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

// imagesEqual compares pixels after conversion to NRGBA, so images decoded
// from different formats compare equal when they show the same thing.
func imagesEqual(a, b image.Image) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Size() != bb.Size() {
		return false
	}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			if pixel(a, ab.Min.X+x, ab.Min.Y+y) != pixel(b, bb.Min.X+x, bb.Min.Y+y) {
				return false
			}
		}
	}
	return true
}

func TestRenderRedSphere(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "scene.json", redSphereScene)
	output := filepath.Join(dir, "out.ppm")

	res := runCLI(t, nil, "3", "3", input, output)
	if res.err != nil {
		t.Fatalf("run failed: %v\nstderr: %s", res.err, res.stderr.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("P6\n#")) || !bytes.Contains(data, []byte("\n3 3\n255\n")) {
		t.Fatalf("unexpected header %q", data[:min(len(data), 40)])
	}

	img := readImage(t, output)
	if got := pixel(img, 1, 1); got != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("center = %v, want red", got)
	}
	for _, p := range []image.Point{{0, 0}, {2, 0}, {0, 2}, {2, 2}} {
		if got := pixel(img, p.X, p.Y); got != (color.NRGBA{A: 255}) {
			t.Fatalf("corner %v = %v, want black", p, got)
		}
	}
}

func TestRenderFormatsAndFlags(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "scene.json", litScene)

	ppmOut := filepath.Join(dir, "lit.ppm")
	if res := runCLI(t, nil, "--shading", "diffuse", "--spotlights", "--workers", "1", "48", "32", input, ppmOut); res.err != nil {
		t.Fatalf("ppm render: %v", res.err)
	}
	pngOut := filepath.Join(dir, "lit.png.zst")
	if res := runCLI(t, nil, "--shading", "diffuse", "--spotlights", "-w", "5", "48", "32", input, pngOut); res.err != nil {
		t.Fatalf("png render: %v", res.err)
	}

	if !imagesEqual(readImage(t, ppmOut), readImage(t, pngOut)) {
		t.Fatal("parallel compressed PNG differs from sequential PPM")
	}

	flatOut := filepath.Join(dir, "flat.ppm")
	if res := runCLI(t, nil, "48", "32", input, flatOut); res.err != nil {
		t.Fatalf("flat render: %v", res.err)
	}
	if imagesEqual(readImage(t, ppmOut), readImage(t, flatOut)) {
		t.Fatal("diffuse and flat shading produced the same image")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "scene.json", redSphereScene)
	output := filepath.Join(dir, "out.bmp")

	cfg := config.Default()
	cfg.Shading = "diffuse"
	if res := runCLI(t, cfg, "--shading", "flat", "3", "3", input, output); res.err != nil {
		t.Fatalf("run failed: %v", res.err)
	}
	if got := pixel(readImage(t, output), 1, 1); got.R != 255 {
		t.Fatalf("flag did not override configured shading, center = %v", got)
	}

	cfg = config.Default()
	cfg.Shading = "diffuse"
	if res := runCLI(t, cfg, "3", "3", input, output); res.err != nil {
		t.Fatalf("run failed: %v", res.err)
	}
	if got := pixel(readImage(t, output), 1, 1); got != (color.NRGBA{A: 255}) {
		t.Fatalf("diffuse without lights must be black, center = %v", got)
	}
}

func TestColorPolicyFlag(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "scene.json", `[{"type": "camera", "width": 1, "height": 1},
	{"type": "plane", "color": [3, 0.5, -2], "position": [0, 0, 2], "normal": [0, 0, 1]}]`)
	output := filepath.Join(dir, "out.ppm")

	res := runCLI(t, nil, "1", "1", input, output)
	if !errors.Is(res.err, scene.ErrOutOfRange) {
		t.Fatalf("strict policy: expected ErrOutOfRange, got %v", res.err)
	}
	if res := runCLI(t, nil, "--color-policy", "clamp", "1", "1", input, output); res.err != nil {
		t.Fatalf("clamp policy: %v", res.err)
	}
	if got := pixel(readImage(t, output), 0, 0); got != (color.NRGBA{R: 255, G: 127, B: 0, A: 255}) {
		t.Fatalf("clamped pixel = %v", got)
	}
}

func TestSceneErrorsLeaveNoOutput(t *testing.T) {
	cases := []struct {
		name  string
		scene string
		want  error
		line  string
	}{
		{"missing camera", `[{"type": "sphere", "radius": 1}]`, scene.ErrMissingCamera, "line 1"},
		{"unknown field", "[\n{\"type\": \"camera\", \"width\": 1, \"height\": 1},\n{\"type\": \"sphere\", \"colour\": [1, 0, 0]}]", scene.ErrUnknownField, "line 3"},
		{"too many objects", "", scene.ErrTooManyObjects, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			body := c.scene
			if body == "" {
				var b strings.Builder
				b.WriteString(`[{"type": "camera", "width": 1, "height": 1}`)
				for i := 0; i < 3; i++ {
					b.WriteString(`, {"type": "sphere", "radius": 1}`)
				}
				b.WriteString("]")
				body = b.String()
			}
			input := writeFile(t, dir, "scene.json", body)
			output := filepath.Join(dir, "out.ppm")

			res := runCLI(t, nil, "--max-objects", "2", "4", "4", input, output)
			if !errors.Is(res.err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, res.err)
			}
			if c.line != "" && !strings.HasPrefix(res.err.Error(), c.line+":") {
				t.Fatalf("error %q does not name %s", res.err, c.line)
			}
			if _, err := os.Stat(output); !os.IsNotExist(err) {
				t.Fatalf("output file exists after failure")
			}
		})
	}
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "scene.json", redSphereScene)
	output := filepath.Join(dir, "out.ppm")

	cases := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"too few", []string{"3", "3", input}},
		{"too many", []string{"3", "3", input, output, "extra"}},
		{"zero width", []string{"0", "3", input, output}},
		{"negative height", []string{"3", "-1", input, output}},
		{"non numeric", []string{"wide", "3", input, output}},
		{"bad shading", []string{"--shading", "toon", "3", "3", input, output}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := runCLI(t, nil, c.args...)
			var usage usageError
			if !errors.As(res.err, &usage) {
				t.Fatalf("expected usage error, got %v", res.err)
			}
			if _, err := os.Stat(output); !os.IsNotExist(err) {
				t.Fatalf("output file written on usage error")
			}
		})
	}
}

func TestMissingInputFile(t *testing.T) {
	dir := t.TempDir()
	res := runCLI(t, nil, "2", "2", filepath.Join(dir, "nope.json"), filepath.Join(dir, "out.ppm"))
	if scene.KindOf(res.err) != scene.KindIO {
		t.Fatalf("expected io error, got %v", res.err)
	}
}

func TestDumpFlag(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "scene.json", redSphereScene)
	res := runCLI(t, nil, "--dump", "2", "2", input, filepath.Join(dir, "out.ppm"))
	if res.err != nil {
		t.Fatalf("run failed: %v", res.err)
	}
	if !strings.Contains(res.stdout.String(), "Sphere:") {
		t.Fatalf("dump missing from stdout: %q", res.stdout.String())
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "scene.json", litScene)

	res := runCLI(t, nil, "inspect", input)
	if res.err != nil {
		t.Fatalf("inspect: %v", res.err)
	}
	if out := res.stdout.String(); !strings.Contains(out, "Camera:") || strings.Count(out, "Light:") != 2 {
		t.Fatalf("unexpected dump:\n%s", out)
	}

	res = runCLI(t, nil, "inspect", "--format", "scene", input)
	if res.err != nil {
		t.Fatalf("inspect scene: %v", res.err)
	}
	reread, err := scene.Read(strings.NewReader(res.stdout.String()), scene.DefaultOptions())
	if err != nil {
		t.Fatalf("normalized scene does not parse: %v\n%s", err, res.stdout.String())
	}
	if len(reread.Surfaces) != 3 || len(reread.Lights) != 2 {
		t.Fatalf("normalized scene lost entities: %+v", reread)
	}

	if res := runCLI(t, nil, "inspect", "--format", "yaml", input); res.err == nil {
		t.Fatal("expected error for unknown format")
	}
	if res := runCLI(t, nil, "inspect"); res.err == nil {
		t.Fatal("expected usage error without a scene")
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	red := writeFile(t, dir, "red.json", redSphereScene)
	lit := writeFile(t, dir, "lit.json", litScene)
	manifest := writeFile(t, dir, "jobs.txt", strings.Join([]string{
		"# width height scene output",
		"3 3 " + red + " " + filepath.Join(dir, "a.ppm"),
		"",
		"   9 9 " + red + " " + filepath.Join(dir, "b.png"),
		"16 12 " + lit + " " + filepath.Join(dir, "c.tif.gz"),
	}, "\n"))

	res := runCLI(t, nil, "--shading", "diffuse", "batch", manifest)
	if res.err != nil {
		t.Fatalf("batch failed: %v\nstderr: %s", res.err, res.stderr.String())
	}
	for name, size := range map[string]int{"a.ppm": 3, "b.png": 9, "c.tif.gz": 16} {
		img := readImage(t, filepath.Join(dir, name))
		if img.Bounds().Dx() != size {
			t.Fatalf("%s width = %d, want %d", name, img.Bounds().Dx(), size)
		}
	}
	if !strings.Contains(res.stderr.String(), "cached_scenes=2") {
		t.Fatalf("expected two cached scenes in log:\n%s", res.stderr.String())
	}
}

func TestBatchErrorsNameManifestLine(t *testing.T) {
	dir := t.TempDir()
	red := writeFile(t, dir, "red.json", redSphereScene)

	malformed := writeFile(t, dir, "bad.txt", "3 3 "+red+" "+filepath.Join(dir, "a.ppm")+"\n0 3 "+red+" x.ppm\n")
	res := runCLI(t, nil, "batch", malformed)
	if res.err == nil || !strings.Contains(res.err.Error(), "bad.txt:2:") {
		t.Fatalf("expected error naming line 2, got %v", res.err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.ppm")); !os.IsNotExist(err) {
		t.Fatal("malformed manifest rendered jobs before failing")
	}

	broken := writeFile(t, dir, "broken.json", "[]")
	failing := writeFile(t, dir, "fail.txt", "# header\n2 2 "+broken+" "+filepath.Join(dir, "b.ppm")+"\n")
	res = runCLI(t, nil, "batch", failing)
	if !errors.Is(res.err, scene.ErrEmptyScene) || !strings.Contains(res.err.Error(), "fail.txt:2:") {
		t.Fatalf("expected empty scene error on line 2, got %v", res.err)
	}
}
