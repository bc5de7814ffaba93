package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/achilleasa/lumen/archive"
	"github.com/achilleasa/lumen/asset/writer"
	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/postprocess"
	"github.com/achilleasa/lumen/scene"
)

// File names used by the debug scene export.
const (
	OriginalSceneFile = "originalScene.zip"
	ShadedSceneFile   = "shadedScene.zip"
)

var ErrAlreadyRun = errors.New("document: open operation has already run")

// OpState is the state of an open operation.
type OpState uint8

const (
	OpCreated OpState = iota
	OpRunning
	OpSucceeded
	OpFailed
)

func (s OpState) String() string {
	switch s {
	case OpCreated:
		return "created"
	case OpRunning:
		return "running"
	case OpSucceeded:
		return "succeeded"
	case OpFailed:
		return "failed"
	}
	return "unknown"
}

// OpenOperation performs a single load attempt: archive extraction when
// required, model loading, post-processing and optional shading conversion.
// An operation runs once; its results are read after Run returns.
type OpenOperation struct {
	logger   log.Logger
	pipeline *Pipeline
	opts     Options

	state OpState
	err   error

	requestedPath     string
	resolvedModelPath string
	extractionDir     string

	primaryScene   *scene.Group
	convertedScene scene.Node
	textureUnits   *postprocess.TextureUnitUsage

	elapsed time.Duration
}

// Create an operation that opens path.
func NewOpenOperation(path string, pipeline *Pipeline, opts Options) *OpenOperation {
	return &OpenOperation{
		logger:        log.New("document"),
		pipeline:      pipeline,
		opts:          opts,
		requestedPath: path,
	}
}

// Execute the operation. Failures are recorded and returned; they are also
// available through Err once Run returns.
func (op *OpenOperation) Run() error {
	if op.state != OpCreated {
		return ErrAlreadyRun
	}

	op.state = OpRunning
	start := time.Now()
	err := op.runSafe()
	op.elapsed = time.Since(start)

	if err != nil {
		op.state = OpFailed
		op.err = err
		op.primaryScene = nil
		op.convertedScene = nil
		op.logger.Errorf("failed to open %q after %d ms: %v", op.requestedPath, op.elapsed.Nanoseconds()/1e6, err)
		return err
	}

	op.state = OpSucceeded
	op.logger.Noticef("opened %q in %d ms", op.requestedPath, op.elapsed.Nanoseconds()/1e6)
	return nil
}

// Convert panics raised by any stage into a failure.
func (op *OpenOperation) runSafe() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("document: unexpected failure while opening %q: %v", op.requestedPath, r)
		}
	}()
	return op.run()
}

func (op *OpenOperation) run() error {
	op.resolvedModelPath = op.requestedPath
	if op.pipeline.IsArchive != nil && op.pipeline.IsArchive(op.requestedPath) {
		if err := op.extract(); err != nil {
			return err
		}
	}

	root, err := op.pipeline.Loader.Load(op.resolvedModelPath)
	if err != nil {
		return err
	} else if root == nil {
		return fmt.Errorf("document: loader returned no scene for %q", op.resolvedModelPath)
	}

	anisotropy := op.opts.Anisotropy
	if anisotropy <= 0 {
		anisotropy = postprocess.DefaultAnisotropy
	}
	op.textureUnits = postprocess.Normalize(root, anisotropy)
	op.primaryScene = root

	if !op.opts.SkipShadingConversion && op.pipeline.Converter != nil {
		op.convertedScene, err = op.pipeline.Converter.Convert(root, op.opts.Shadows())
		if err != nil {
			return fmt.Errorf("document: shading conversion failed: %w", err)
		}
	}

	if op.opts.DebugExportScene {
		op.exportScenes()
	}
	return nil
}

func (op *OpenOperation) extract() error {
	if op.pipeline.Extractor == nil {
		return fmt.Errorf("document: no archive extractor available for %q", op.requestedPath)
	}

	res, err := op.pipeline.Extractor.Extract(op.requestedPath, op.opts.Password)
	if res != nil {
		op.extractionDir = res.Dir
	}
	if err != nil {
		return err
	}
	if res.ModelPath == "" {
		return fmt.Errorf("%w: %q", archive.ErrNoModel, op.requestedPath)
	}

	op.resolvedModelPath = res.ModelPath
	return nil
}

// Write both scene variants for offline inspection. Export failures are
// logged and do not fail the operation.
func (op *OpenOperation) exportScenes() {
	targets := []struct {
		file string
		root scene.Node
	}{
		{OriginalSceneFile, op.primaryScene},
		{ShadedSceneFile, op.convertedScene},
	}

	for _, target := range targets {
		if target.root == nil {
			continue
		}
		path := filepath.Join(op.opts.DebugExportDir, target.file)
		if err := writer.WriteScene(target.root, path); err != nil {
			op.logger.Warningf("could not export scene to %q: %v", path, err)
		}
	}
}

// Get the operation state.
func (op *OpenOperation) State() OpState { return op.state }

// Get the recorded failure.
func (op *OpenOperation) Err() error { return op.err }

// Returns true if the operation completed successfully.
func (op *OpenOperation) Succeeded() bool { return op.state == OpSucceeded }

// Path passed to the operation.
func (op *OpenOperation) RequestedPath() string { return op.requestedPath }

// Scene file that was loaded; same as the requested path unless it is an archive.
func (op *OpenOperation) ResolvedModelPath() string { return op.resolvedModelPath }

// Extraction directory of archive-backed opens; set even if extraction failed.
func (op *OpenOperation) ExtractionDir() string { return op.extractionDir }

func (op *OpenOperation) PrimaryScene() *scene.Group { return op.primaryScene }

func (op *OpenOperation) ConvertedScene() scene.Node { return op.convertedScene }

func (op *OpenOperation) TextureUnits() *postprocess.TextureUnitUsage { return op.textureUnits }

// Time spent in Run.
func (op *OpenOperation) Elapsed() time.Duration { return op.elapsed }
