package writer

import (
	"archive/zip"
	"encoding/gob"
	"os"
	"time"

	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/scene"
)

const (
	// Name of the zip entry holding the encoded graph.
	DataFile = "scene.bin"
)

// The Writer interface is implemented by all scene writers.
type Writer interface {
	// Write scene graph.
	Write(scene.Node) error
}

// Envelope wraps the root node so the graph can be gob-encoded through the
// Node interface.
type Envelope struct {
	Root scene.Node
}

func init() {
	gob.Register(&scene.Group{})
	gob.Register(&scene.Leaf{})
	gob.Register(&scene.Geometry{})
	gob.Register(&scene.Texture{})
	gob.Register(&scene.TexEnv{})
	gob.Register(&scene.Material{})
	gob.Register(&scene.Shading{})
}

// Write a scene graph to a compressed file.
func WriteScene(root scene.Node, filename string) error {
	writer := newZipSceneWriter(filename)
	return writer.Write(root)
}

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write scene graph to zip file.
func (w *zipSceneWriter) Write(root scene.Node) (err error) {
	w.logger.Infof(`writing compressed scene to "%s"`, w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := zipFile.Close(); err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(zipFile)
	cw, err := zw.Create(DataFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(&Envelope{Root: root}); err != nil {
		return err
	}
	if err = zw.Close(); err != nil {
		return err
	}

	w.logger.Infof("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}
