package document

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/achilleasa/lumen/archive"
	"github.com/achilleasa/lumen/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panickingLoader struct{}

func (panickingLoader) Load(string) (*scene.Group, error) { panic("boom") }

type failingExtractor struct {
	dir string
}

func (e failingExtractor) Extract(archivePath, _ string) (*archive.Result, error) {
	return &archive.Result{Dir: e.dir}, &archive.ExtractError{Kind: archive.KindOpenArchive, Archive: archivePath, Err: errors.New("bad header")}
}

func TestOpenOperationStates(t *testing.T) {
	op := NewOpenOperation("model.obj", fakePipeline(&fakeLoader{}, &fakeExtractor{}), testOptions(t))
	assert.Equal(t, OpCreated, op.State())

	require.NoError(t, op.Run())
	assert.Equal(t, OpSucceeded, op.State())
	assert.Equal(t, "model.obj", op.ResolvedModelPath())
	assert.NotNil(t, op.PrimaryScene())
	assert.NotNil(t, op.TextureUnits())

	assert.ErrorIs(t, op.Run(), ErrAlreadyRun)
	assert.Equal(t, OpSucceeded, op.State())
}

func TestOpenOperationResolvesArchiveModel(t *testing.T) {
	extractor := &fakeExtractor{}
	op := NewOpenOperation("bundle.zip", fakePipeline(&fakeLoader{}, extractor), testOptions(t))

	require.NoError(t, op.Run())
	assert.Equal(t, "bundle.zip", op.RequestedPath())
	assert.Equal(t, "bundle.zip.obj", op.ResolvedModelPath())
}

func TestOpenOperationFailures(t *testing.T) {
	opts := testOptions(t)
	extractDir := filepath.Join(t.TempDir(), "partial")

	specs := []struct {
		name     string
		path     string
		pipeline *Pipeline
		expDir   string
	}{
		{"loader error", "model.obj", fakePipeline(&fakeLoader{fail: true}, &fakeExtractor{}), ""},
		{"loader panic", "model.obj", &Pipeline{Loader: panickingLoader{}, IsArchive: archive.IsArchive}, ""},
		{"extraction error", "bundle.zip", &Pipeline{Loader: &fakeLoader{}, Extractor: failingExtractor{dir: extractDir}, IsArchive: archive.IsArchive}, extractDir},
		{"no extractor", "bundle.zip", &Pipeline{Loader: &fakeLoader{}, IsArchive: archive.IsArchive}, ""},
	}

	for _, s := range specs {
		op := NewOpenOperation(s.path, s.pipeline, opts)
		err := op.Run()
		require.Error(t, err, s.name)
		assert.Equal(t, OpFailed, op.State(), s.name)
		assert.Equal(t, err, op.Err(), s.name)
		assert.Nil(t, op.PrimaryScene(), s.name)
		assert.Nil(t, op.ConvertedScene(), s.name)
		assert.Equal(t, s.expDir, op.ExtractionDir(), s.name)
	}
}
