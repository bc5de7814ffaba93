package loader

import (
	"fmt"
	"time"

	"github.com/achilleasa/lumen/asset/reader"
	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/scene/bvh"
)

// LoadError reports a failed scene codec invocation.
type LoadError struct {
	Path    string
	Elapsed time.Duration
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loader: could not load %q after %d ms: %v", e.Path, e.Elapsed.Nanoseconds()/1e6, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// The Codecs interface is implemented by scene codec registries.
type Codecs interface {
	ReadScene(filename string) (*scene.Group, error)
	Supports(pathToFile string) bool
}

// Loader reads scene files and indexes their geometry.
type Loader struct {
	logger log.Logger

	Codecs Codecs

	// Triangles per spatial index leaf.
	MinLeafTriangles int

	// Read the image header of referenced textures.
	ProbeTextures bool
}

// Create a loader that uses the supplied codec registry.
func New(codecs Codecs) *Loader {
	return &Loader{
		logger:           log.New("loader"),
		Codecs:           codecs,
		MinLeafTriangles: bvh.DefaultMinLeafTriangles,
		ProbeTextures:    true,
	}
}

// Create a loader backed by the built-in codecs.
func NewDefault() *Loader {
	return New(reader.DefaultRegistry())
}

// Load a scene file and build the spatial index of its geometry. Every
// returned scene is fully indexed.
func (l *Loader) Load(modelPath string) (root *scene.Group, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			root = nil
			err = &LoadError{Path: modelPath, Elapsed: time.Since(start), Err: fmt.Errorf("codec panic: %v", r)}
		}
		if err != nil {
			l.logger.Errorf("%v", err)
		}
	}()

	root, err = l.Codecs.ReadScene(modelPath)
	if err != nil {
		return nil, &LoadError{Path: modelPath, Elapsed: time.Since(start), Err: err}
	}
	l.logger.Noticef("loaded %q in %d ms", modelPath, time.Since(start).Nanoseconds()/1e6)

	indexStart := time.Now()
	indexed := bvh.BuildIndex(root, l.MinLeafTriangles)
	l.logger.Noticef("built spatial index for %d geometries in %d ms", indexed, time.Since(indexStart).Nanoseconds()/1e6)

	if l.ProbeTextures {
		probed, missing := l.probeTextures(root, modelPath)
		l.logger.Infof("read %d texture headers; %d textures unavailable", probed, missing)
	}

	return root, nil
}
