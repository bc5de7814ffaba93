package document

import (
	"github.com/achilleasa/lumen/postprocess"
	"github.com/achilleasa/lumen/scene"
)

// LoadState describes the outcome of the most recent load.
type LoadState uint8

const (
	Idle LoadState = iota
	Loading
	Ready
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Document holds the state of an open scene file.
type Document struct {
	// Path of the opened file; empty if no document is open.
	FilePath string

	PrimaryScene *scene.Group

	// The shaded variant or nil if shading conversion was skipped.
	ConvertedScene scene.Node

	// Extraction directory of archive-backed documents.
	TempExtractionDir string

	LoadState LoadState

	// Texture unit usage observed while post-processing.
	TextureUnits *postprocess.TextureUnitUsage

	// Set when LoadState is Failed.
	Err error
}

// Returns true if a scene is loaded.
func (d *Document) IsOpen() bool {
	return d.LoadState == Ready && d.PrimaryScene != nil
}

// The Presenter interface is implemented by the presentation layer.
// Presenter methods are always invoked on the goroutine that owns the
// controller.
type Presenter interface {
	// A document finished loading in the background.
	Present(doc Document, resetView bool)

	// The visible scene was replaced following a change of the document file.
	SceneChanged(doc Document)
}
