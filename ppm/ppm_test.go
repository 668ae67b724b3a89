package ppm

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	return img
}

func TestEncodeLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "P6\n# Created by raycast\n2 2\n255\n" +
		"\xff\x00\x00" + "\x00\xff\x00" +
		"\x00\x00\xff" + "\x01\x02\x03"
	if buf.String() != want {
		t.Fatalf("encoded bytes\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestEncodeGenericImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(3, 4, 5, 5))
	img.Set(3, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(4, 4, color.RGBA{R: 40, G: 50, B: 60, A: 255})

	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "2 1\n255\n\x0a\x14\x1e\x28\x32\x3c") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got.(*image.NRGBA).Pix, sample().Pix) {
		t.Fatalf("decoded pixels differ")
	}
}

func TestDecodeHeaderComments(t *testing.T) {
	src := "P6 # magic\n# a comment line\n1\t2\r\n# another\n255\n\x01\x02\x03\x04\x05\x06"
	img, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	nrgba := img.(*image.NRGBA)
	if nrgba.Bounds() != image.Rect(0, 0, 1, 2) {
		t.Fatalf("bounds = %v", nrgba.Bounds())
	}
	if got := nrgba.NRGBAAt(0, 1); got != (color.NRGBA{R: 4, G: 5, B: 6, A: 255}) {
		t.Fatalf("pixel = %v", got)
	}
}

func TestRegisteredWithImagePackage(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil || format != "ppm" || cfg.Width != 2 || cfg.Height != 2 {
		t.Fatalf("DecodeConfig = %+v %q %v", cfg, format, err)
	}
	if _, format, err := image.Decode(bytes.NewReader(buf.Bytes())); err != nil || format != "ppm" {
		t.Fatalf("image.Decode = %q %v", format, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		format bool
	}{
		{"ascii magic", "P3\n1 1\n255\n0 0 0\n", true},
		{"sixteen bit", "P6\n1 1\n65535\n\x00\x00\x00\x00\x00\x00", true},
		{"zero width", "P6\n0 1\n255\n", true},
		{"garbage size", "P6\nx 1\n255\n", true},
		{"truncated header", "P6\n1", false},
		{"truncated raster", "P6\n2 1\n255\n\x00\x00\x00", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(c.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if c.format && !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
			if !c.format && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
				t.Fatalf("expected EOF error, got %v", err)
			}
		})
	}
}
