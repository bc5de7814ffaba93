package texture

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/achilleasa/lumen/asset"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Format uint32

const (
	Luminance8 Format = iota
	Luminance32F
	Rgba8
	Rgba32F
)

func (f Format) String() string {
	switch f {
	case Luminance8:
		return "L8"
	case Luminance32F:
		return "L32F"
	case Rgba8:
		return "RGBA8"
	case Rgba32F:
		return "RGBA32F"
	}
	return "unknown"
}

// Texture image metadata.
type Info struct {
	// Image codec name (png, jpeg, bmp, ...).
	Codec  string
	Format Format

	Width  uint32
	Height uint32
}

// Read the image header of a texture resource without decoding pixel data.
func Probe(res *asset.Resource) (*Info, error) {
	cfg, codec, err := image.DecodeConfig(res)
	if err != nil {
		return nil, fmt.Errorf("texture: could not read image header from %s: %s", res.Path(), err.Error())
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("texture: invalid dimensions %dx%d while loading %s", cfg.Width, cfg.Height, res.Path())
	}

	return &Info{
		Codec:  codec,
		Format: formatOf(cfg.ColorModel),
		Width:  uint32(cfg.Width),
		Height: uint32(cfg.Height),
	}, nil
}

// Select the texture format for an image color model. High depth images
// map to the float formats.
func formatOf(model color.Model) Format {
	switch model {
	case color.GrayModel:
		return Luminance8
	case color.Gray16Model:
		return Luminance32F
	case color.RGBA64Model, color.NRGBA64Model:
		return Rgba32F
	}
	return Rgba8
}
