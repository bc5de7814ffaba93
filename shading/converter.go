package shading

import (
	"time"

	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/scene"
)

// The Converter interface is implemented by shading model converters. A
// converter returns a new scene graph; the input graph is never modified.
type Converter interface {
	Convert(root scene.Node, shadows Technique) (scene.Node, error)
}

// Name of the shading model assigned by PerPixelConverter.
const PerPixelModel = "per-pixel"

// PerPixelConverter produces a copy of the scene with a per-pixel lighting
// model and the requested shadow technique attached to its root.
type PerPixelConverter struct {
	logger log.Logger
}

// Create a new per-pixel converter.
func NewPerPixelConverter() *PerPixelConverter {
	return &PerPixelConverter{logger: log.New("shading")}
}

func (c *PerPixelConverter) Convert(root scene.Node, shadows Technique) (scene.Node, error) {
	start := time.Now()

	shaded := scene.Clone(root)
	ss := shaded.StateSet()
	if ss == nil {
		ss = scene.NewStateSet()
		shaded.SetStateSet(ss)
	}
	ss.SetAttribute(&scene.Shading{Model: PerPixelModel, Shadows: shadows.String()})

	c.logger.Infof("converted scene to %s shading with %s shadows in %d ms", PerPixelModel, shadows, time.Since(start).Nanoseconds()/1e6)
	return shaded, nil
}
