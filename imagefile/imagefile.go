// Package imagefile picks an image encoding and an optional compression
// stream from a file name and reads or writes whole images.
package imagefile

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/echoflaresat/raycast/ppm"
)

type Format int

const (
	PPM Format = iota
	PNG
	TIFF
	BMP
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case TIFF:
		return "tiff"
	case BMP:
		return "bmp"
	default:
		return "ppm"
	}
}

type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	Snappy
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case Snappy:
		return "snappy"
	default:
		return "none"
	}
}

var compressions = map[string]Compression{
	".gz":  Gzip,
	".zst": Zstd,
	".sz":  Snappy,
}

var formats = map[string]Format{
	".ppm":  PPM,
	".png":  PNG,
	".tif":  TIFF,
	".tiff": TIFF,
	".bmp":  BMP,
}

// Detect derives the encoding from the file extension after stripping a
// compression suffix. Unknown extensions are PPM.
func Detect(path string) (Format, Compression) {
	name := strings.ToLower(filepath.Base(path))
	comp := None
	if c, ok := compressions[filepath.Ext(name)]; ok {
		comp = c
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return formats[filepath.Ext(name)], comp
}

// Encode writes img in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		return bmp.Encode(w, img)
	default:
		return ppm.Encode(w, img)
	}
}

// Decode reads an image in format f.
func Decode(r io.Reader, f Format) (image.Image, error) {
	switch f {
	case PNG:
		return png.Decode(r)
	case TIFF:
		return tiff.Decode(r)
	case BMP:
		return bmp.Decode(r)
	default:
		return ppm.Decode(r)
	}
}

// Write encodes img to path. The data goes to a temporary file in the same
// directory that is renamed over path only once everything was written, so
// a failure never leaves a partial image behind.
func Write(path string, img image.Image) (err error) {
	format, comp := Detect(path)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create output file for %q: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	stream, err := compressWriter(tmp, comp)
	if err != nil {
		return err
	}
	if err = Encode(stream, img, format); err != nil {
		stream.Close()
		return fmt.Errorf("encode %s: %w", format, err)
	}
	if err = stream.Close(); err != nil {
		return fmt.Errorf("finish %s stream: %w", comp, err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Read opens path and decodes it according to its extension.
func Read(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	format, comp := Detect(path)
	stream, err := decompressReader(file, comp)
	if err != nil {
		return nil, fmt.Errorf("open %s stream %q: %w", comp, path, err)
	}
	defer stream.Close()

	img, err := Decode(stream, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", format, path, err)
	}
	return img, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w; closing the result flushes the compressor but
// leaves w open.
func compressWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

func decompressReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}
