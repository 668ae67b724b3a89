// Package ppm reads and writes binary (P6) portable pixmaps with a maximum
// channel value of 255.
package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
)

// Comment is written on the second header line.
const Comment = "Created by raycast"

const maxValue = 255

var ErrFormat = errors.New("ppm: invalid format")

func init() {
	image.RegisterFormat("ppm", "P6", Decode, DecodeConfig)
}

// Encode writes img as P6: the magic, a comment line, "width height",
// the maximum value and then raw RGB triples row by row. Alpha is dropped.
func Encode(w io.Writer, img image.Image) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n# %s\n%d %d\n%d\n", Comment, b.Dx(), b.Dy(), maxValue); err != nil {
		return err
	}

	row := make([]byte, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if nrgba, ok := img.(*image.NRGBA); ok {
			pix := nrgba.Pix[nrgba.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				copy(row[3*x:3*x+3], pix[4*x:4*x+3])
			}
		} else {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, y)).(color.NRGBA)
				row[3*x], row[3*x+1], row[3*x+2] = c.R, c.G, c.B
			}
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type header struct {
	width, height int
}

func readHeader(br *bufio.Reader) (header, error) {
	magic, err := token(br)
	if err != nil {
		return header{}, err
	}
	if magic != "P6" {
		return header{}, fmt.Errorf("%w: magic %q", ErrFormat, magic)
	}

	var vals [3]int
	for i := range vals {
		tok, err := token(br)
		if err != nil {
			return header{}, err
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			return header{}, fmt.Errorf("%w: bad header value %q", ErrFormat, tok)
		}
		vals[i] = n
	}
	if vals[2] != maxValue {
		return header{}, fmt.Errorf("%w: unsupported maximum value %d", ErrFormat, vals[2])
	}
	// Exactly one whitespace byte separates the header from the raster.
	if _, err := br.ReadByte(); err != nil {
		return header{}, err
	}
	return header{width: vals[0], height: vals[1]}, nil
}

// token returns the next whitespace separated header token, skipping
// comments that run from '#' to the end of the line.
func token(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return string(buf), nil
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		switch {
		case c == '#' && len(buf) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", err
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if len(buf) > 0 {
				return string(buf), br.UnreadByte()
			}
		default:
			buf = append(buf, c)
		}
	}
}

func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: h.width, Height: h.height}, nil
}

// Decode reads a P6 image into an opaque *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, h.width, h.height))
	row := make([]byte, 3*h.width)
	for y := 0; y < h.height; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, fmt.Errorf("ppm: reading row %d: %w", y, err)
		}
		pix := img.Pix[img.PixOffset(0, y):]
		for x := 0; x < h.width; x++ {
			pix[4*x], pix[4*x+1], pix[4*x+2], pix[4*x+3] = row[3*x], row[3*x+1], row[3*x+2], 0xff
		}
	}
	return img, nil
}
