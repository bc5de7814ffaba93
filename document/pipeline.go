package document

import (
	"github.com/achilleasa/lumen/archive"
	"github.com/achilleasa/lumen/asset/reader"
	"github.com/achilleasa/lumen/loader"
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/shading"
)

// The ModelLoader interface is implemented by objects that read scene files
// and build their spatial index.
type ModelLoader interface {
	Load(modelPath string) (*scene.Group, error)
}

// The ArchiveExtractor interface is implemented by objects that unpack
// archives and locate the scene file inside them.
type ArchiveExtractor interface {
	Extract(archivePath, password string) (*archive.Result, error)
}

// Pipeline bundles the collaborators used by open operations.
type Pipeline struct {
	Loader    ModelLoader
	Extractor ArchiveExtractor
	Converter shading.Converter

	// Decides whether a path is routed through the extractor.
	IsArchive func(path string) bool
}

// Create the default pipeline for the given options.
func NewPipeline(opts Options) *Pipeline {
	codecs := reader.DefaultRegistry()

	extractor := archive.NewExtractor(opts.AppName, codecs)
	extractor.StrictDiscovery = opts.StrictArchiveDiscovery
	if opts.TempRoot != "" {
		extractor.TempRoot = opts.TempRoot
	}

	return &Pipeline{
		Loader:    loader.New(codecs),
		Extractor: extractor,
		Converter: shading.NewPerPixelConverter(),
		IsArchive: archive.IsArchive,
	}
}
