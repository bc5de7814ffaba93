package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/achilleasa/lumen/asset"
	"golang.org/x/image/bmp"
)

func TestProbe(t *testing.T) {
	type spec struct {
		name   string
		img    image.Image
		encode func(*bytes.Buffer, image.Image) error
		codec  string
		format Format
	}

	pngEncode := func(buf *bytes.Buffer, img image.Image) error { return png.Encode(buf, img) }
	bmpEncode := func(buf *bytes.Buffer, img image.Image) error { return bmp.Encode(buf, img) }

	specs := []spec{
		{"gray.png", image.NewGray(image.Rect(0, 0, 4, 2)), pngEncode, "png", Luminance8},
		{"gray16.png", image.NewGray16(image.Rect(0, 0, 4, 2)), pngEncode, "png", Luminance32F},
		{"rgba.png", image.NewNRGBA(image.Rect(0, 0, 4, 2)), pngEncode, "png", Rgba8},
		{"rgba64.png", image.NewNRGBA64(image.Rect(0, 0, 4, 2)), pngEncode, "png", Rgba32F},
		{"rgba.bmp", image.NewRGBA(image.Rect(0, 0, 4, 2)), bmpEncode, "bmp", Rgba8},
	}

	for idx, s := range specs {
		if rgba, ok := s.img.(*image.RGBA); ok {
			rgba.Set(0, 0, color.RGBA{255, 0, 0, 255})
		}

		var buf bytes.Buffer
		if err := s.encode(&buf, s.img); err != nil {
			t.Fatal(err)
		}

		info, err := Probe(asset.NewResourceFromStream(s.name, &buf))
		if err != nil {
			t.Fatalf("[spec %d] %v", idx, err)
		}
		if info.Codec != s.codec || info.Format != s.format {
			t.Fatalf("[spec %d] expected %s/%s; got %s/%s", idx, s.codec, s.format, info.Codec, info.Format)
		}
		if info.Width != 4 || info.Height != 2 {
			t.Fatalf("[spec %d] expected 4x2 image; got %dx%d", idx, info.Width, info.Height)
		}
	}
}

func TestProbeUnknownFormat(t *testing.T) {
	_, err := Probe(asset.NewResourceFromStream("foo.png", strings.NewReader("not an image")))
	if err == nil || !strings.Contains(err.Error(), "could not read image header from foo.png") {
		t.Fatalf("expected a header error; got %v", err)
	}
}
