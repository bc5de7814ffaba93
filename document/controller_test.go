package document

import (
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/achilleasa/lumen/archive"
	"github.com/achilleasa/lumen/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, opts Options, pipeline *Pipeline, presenter Presenter) *Controller {
	t.Helper()
	c, err := NewController(opts, pipeline, presenter)
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown() })
	return c
}

func TestCloseOnEmptyIsNoop(t *testing.T) {
	c := newTestController(t, testOptions(t), fakePipeline(&fakeLoader{}, &fakeExtractor{}), nil)

	c.Close()
	c.Close()
	assert.Equal(t, Empty, c.State())
	assert.Equal(t, Document{}, c.Document())
	assert.False(t, c.IsOpenInProgress())
	assert.False(t, c.WaitForOpenCompleted())
}

func TestOpenModel(t *testing.T) {
	opts := testOptions(t)
	modelPath := writeFile(t, filepath.Join(t.TempDir(), "model.obj"), triangleObj)

	c := newTestController(t, opts, NewPipeline(opts), nil)
	require.NoError(t, c.Open(modelPath))

	doc := c.Document()
	assert.Equal(t, Open, c.State())
	assert.Equal(t, Ready, doc.LoadState)
	assert.Equal(t, modelPath, doc.FilePath)
	assert.Empty(t, doc.TempExtractionDir)
	require.NotNil(t, doc.PrimaryScene)
	require.NotNil(t, doc.ConvertedScene)
	assert.NotNil(t, doc.TextureUnits)

	g := doc.PrimaryScene.Children[0].(*scene.Geometry)
	assert.True(t, g.HasIndex(), "expected loaded geometry to be indexed")

	sh, ok := doc.ConvertedScene.StateSet().Attribute(scene.AttributeShading).(*scene.Shading)
	require.True(t, ok)
	assert.Equal(t, opts.ShadowTechnique.String(), sh.Shadows)

	c.Close()
	assert.Equal(t, Empty, c.State())
	assert.Nil(t, c.Document().PrimaryScene)
}

func TestShadingOptions(t *testing.T) {
	modelPath := writeFile(t, filepath.Join(t.TempDir(), "model.obj"), triangleObj)

	opts := testOptions(t)
	opts.SkipShadows = true
	c := newTestController(t, opts, NewPipeline(opts), nil)
	require.NoError(t, c.Open(modelPath))

	sh := c.Document().ConvertedScene.StateSet().Attribute(scene.AttributeShading).(*scene.Shading)
	assert.Equal(t, "none", sh.Shadows)

	opts.SkipShadingConversion = true
	c = newTestController(t, opts, NewPipeline(opts), nil)
	require.NoError(t, c.Open(modelPath))
	assert.Nil(t, c.Document().ConvertedScene)
}

func TestArchiveTempDirLifecycle(t *testing.T) {
	opts := testOptions(t)
	archivePath := writeZip(t, filepath.Join(t.TempDir(), "bundle.zip"),
		"readme.txt", "hello",
		"scene/model.obj", triangleObj,
		"scene/texture.png", "png",
	)

	pipeline := NewPipeline(opts)
	c := newTestController(t, opts, pipeline, nil)
	expDir := pipeline.Extractor.(*archive.Extractor).Dir()

	// Stale leftovers of a crashed run are removed before reuse.
	stale := writeFile(t, filepath.Join(expDir, "stale.txt"), "stale")

	require.NoError(t, c.Open(archivePath))
	doc := c.Document()
	assert.Equal(t, expDir, doc.TempExtractionDir)
	assert.DirExists(t, doc.TempExtractionDir)
	assert.FileExists(t, filepath.Join(expDir, "readme.txt"))
	assert.NoFileExists(t, stale)

	c.Close()
	assert.NoDirExists(t, expDir)

	c.OpenAsync(archivePath)
	assert.Equal(t, Opening, c.State())
	require.True(t, c.WaitForOpenCompleted())
	assert.DirExists(t, c.Document().TempExtractionDir)

	// Opening a non-archive document removes the previous extraction dir.
	modelPath := writeFile(t, filepath.Join(t.TempDir(), "model.obj"), triangleObj)
	require.NoError(t, c.Open(modelPath))
	assert.NoDirExists(t, expDir)
	assert.Empty(t, c.Document().TempExtractionDir)
}

func TestFailedArchiveOpen(t *testing.T) {
	opts := testOptions(t)
	corrupt := writeZip(t, filepath.Join(t.TempDir(), "corrupt.objz"), "model.obj", "f 1 2 3\n")
	noModel := writeZip(t, filepath.Join(t.TempDir(), "docs.zip"), "readme.txt", "hello")

	presenter := &recordingPresenter{}
	pipeline := NewPipeline(opts)
	c := newTestController(t, opts, pipeline, presenter)
	expDir := pipeline.Extractor.(*archive.Extractor).Dir()

	err := c.Open(corrupt)
	require.Error(t, err)
	assert.Equal(t, Empty, c.State())
	assert.Equal(t, Failed, c.Document().LoadState)
	assert.Nil(t, c.Document().PrimaryScene)
	assert.Empty(t, c.Document().TempExtractionDir)
	assert.NoDirExists(t, expDir)

	c.OpenAsyncPublish(noModel, true)
	assert.False(t, c.WaitForOpenCompleted())
	assert.ErrorIs(t, c.Document().Err, archive.ErrNoModel)
	assert.NoDirExists(t, expDir)
	assert.Empty(t, presenter.presented, "failed opens must not be published")
}

func TestFailedOpenTearsDownPreviousDocument(t *testing.T) {
	opts := testOptions(t)
	c := newTestController(t, opts, NewPipeline(opts), nil)

	modelPath := writeFile(t, filepath.Join(t.TempDir(), "model.obj"), triangleObj)
	require.NoError(t, c.Open(modelPath))

	require.Error(t, c.Open(filepath.Join(t.TempDir(), "missing.obj")))
	assert.Equal(t, Empty, c.State())
	assert.Nil(t, c.Document().PrimaryScene)
}

func TestExtensionRouting(t *testing.T) {
	specs := []struct {
		path      string
		isArchive bool
	}{
		{"a.zip", true},
		{"a.ZIP", true},
		{"a.objz", true},
		{"a.ObjZL", true},
		{"a.obj", false},
		{"a.objx", false},
		{"a.objl", false},
		{"a.gltf", false},
		{"zip", false},
	}

	for _, s := range specs {
		extractor := &fakeExtractor{}
		l := &fakeLoader{}
		c := newTestController(t, testOptions(t), fakePipeline(l, extractor), nil)

		require.NoError(t, c.Open(s.path))
		if s.isArchive {
			assert.Equal(t, []string{s.path}, extractor.calls, s.path)
		} else {
			assert.Empty(t, extractor.calls, s.path)
		}
		assert.EqualValues(t, 1, l.calls, s.path)
	}
}

func TestAsyncEquivalence(t *testing.T) {
	opts := testOptions(t)
	archivePath := writeZip(t, filepath.Join(t.TempDir(), "bundle.zip"), "model.obj", triangleObj, "a.txt", "a", "b.txt", "b")

	c := newTestController(t, opts, NewPipeline(opts), nil)

	require.NoError(t, c.Open(archivePath))
	syncDoc := c.Document()
	syncStats := scene.Stats(syncDoc.PrimaryScene)
	c.Close()

	c.OpenAsync(archivePath)
	require.True(t, c.WaitForOpenCompleted())
	asyncDoc := c.Document()

	assert.Equal(t, syncDoc.FilePath, asyncDoc.FilePath)
	assert.Equal(t, syncDoc.LoadState, asyncDoc.LoadState)
	assert.Equal(t, syncDoc.TempExtractionDir, asyncDoc.TempExtractionDir)
	assert.Equal(t, syncStats, scene.Stats(asyncDoc.PrimaryScene))
	assert.Equal(t, syncDoc.ConvertedScene != nil, asyncDoc.ConvertedScene != nil)
	assert.NotSame(t, syncDoc.PrimaryScene, asyncDoc.PrimaryScene)
}

func TestAsyncCompletionThroughEvents(t *testing.T) {
	presenter := &recordingPresenter{}
	l := &fakeLoader{delay: 10 * time.Millisecond}
	c := newTestController(t, testOptions(t), fakePipeline(l, &fakeExtractor{}), presenter)

	c.OpenAsyncPublish("model.obj", true)
	assert.True(t, c.IsOpenInProgress())
	assert.Equal(t, Loading, c.Document().LoadState)

	require.True(t, pumpUntil(c, 5*time.Second, func() bool {
		return !c.IsOpenInProgress()
	}))

	assert.Equal(t, Open, c.State())
	require.Len(t, presenter.presented, 1)
	assert.Equal(t, []bool{true}, presenter.resets)
	assert.Equal(t, "model.obj", presenter.presented[0].FilePath)
}

func TestStaleCompletionEventIgnored(t *testing.T) {
	presenter := &recordingPresenter{}
	c := newTestController(t, testOptions(t), fakePipeline(&fakeLoader{}, &fakeExtractor{}), presenter)

	c.OpenAsyncPublish("first.obj", false)
	require.True(t, c.WaitForOpenCompleted())
	require.Len(t, presenter.presented, 1)

	// The completion event posted by the background goroutine is still queued.
	require.Eventually(t, func() bool { return c.queue.Len() == 1 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, 1, c.ProcessEvents())
	assert.Len(t, presenter.presented, 1)
	assert.Equal(t, "first.obj", c.Document().FilePath)
}

func TestSingleInFlightOpen(t *testing.T) {
	l := &fakeLoader{delay: 5 * time.Millisecond}
	c := newTestController(t, testOptions(t), fakePipeline(l, &fakeExtractor{}), nil)

	baseline := runtime.NumGoroutine()

	const opens = 20
	for i := 0; i < opens; i++ {
		if i%3 == 0 {
			require.NoError(t, c.Open("sync.obj"))
		} else {
			c.OpenAsync("async.obj")
			assert.True(t, c.IsOpenInProgress())
		}
		if i%4 == 0 {
			c.ProcessEvents()
		}
	}
	require.True(t, c.WaitForOpenCompleted())
	c.Close()
	c.ProcessEvents()

	assert.EqualValues(t, opens, l.calls)
	assert.EqualValues(t, 1, l.maxActive, "expected at most one open in flight")

	deadline := time.Now().Add(5 * time.Second)
	for runtime.NumGoroutine() > baseline && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), baseline, "background goroutines leaked")
}

func TestDebugExport(t *testing.T) {
	opts := testOptions(t)
	opts.DebugExportScene = true
	modelPath := writeFile(t, filepath.Join(t.TempDir(), "model.obj"), triangleObj)

	c := newTestController(t, opts, NewPipeline(opts), nil)
	require.NoError(t, c.Open(modelPath))

	assert.FileExists(t, filepath.Join(opts.DebugExportDir, OriginalSceneFile))
	assert.FileExists(t, filepath.Join(opts.DebugExportDir, ShadedSceneFile))
}

func TestReloadOnFileChange(t *testing.T) {
	opts := testOptions(t)
	opts.Watch = true
	modelPath := writeFile(t, filepath.Join(t.TempDir(), "model.obj"), triangleObj)

	presenter := &recordingPresenter{}
	c := newTestController(t, opts, NewPipeline(opts), presenter)
	require.NoError(t, c.Open(modelPath))
	first := c.Document().PrimaryScene

	require.NoError(t, os.WriteFile(modelPath, []byte(triangleObj+"\no second\nf 1 2 3\n"), 0644))

	require.True(t, pumpUntil(c, 5*time.Second, func() bool {
		return len(presenter.changed) > 0 && c.State() == Open
	}))

	doc := c.Document()
	assert.Equal(t, modelPath, doc.FilePath)
	assert.NotSame(t, first, doc.PrimaryScene)
}

func TestChangeDuringInFlightOpenReloads(t *testing.T) {
	opts := testOptions(t)
	opts.Watch = true
	modelPath := writeFile(t, filepath.Join(t.TempDir(), "model.obj"), triangleObj)

	l := &fakeLoader{delay: 300 * time.Millisecond}
	c := newTestController(t, opts, fakePipeline(l, &fakeExtractor{}), nil)

	c.OpenAsync(modelPath)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(modelPath, []byte(triangleObj+"\n"), 0644))
	require.True(t, c.WaitForOpenCompleted())

	reloaded := pumpUntil(c, 5*time.Second, func() bool {
		return atomic.LoadInt32(&l.calls) >= 2 && c.State() == Open && !c.IsOpenInProgress()
	})
	require.True(t, reloaded, "expected change during the background open to trigger a reload; loader calls: %d", atomic.LoadInt32(&l.calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&l.maxActive), "expected reload to wait for the in-flight open")
	assert.Equal(t, modelPath, c.Document().FilePath)
}

func TestWatchSurvivesFailedReload(t *testing.T) {
	opts := testOptions(t)
	opts.Watch = true
	modelPath := writeFile(t, filepath.Join(t.TempDir(), "model.obj"), triangleObj)

	presenter := &recordingPresenter{}
	c := newTestController(t, opts, NewPipeline(opts), presenter)
	require.NoError(t, c.Open(modelPath))

	// A save that truncates the file first produces an empty scene.
	require.NoError(t, os.WriteFile(modelPath, nil, 0644))
	require.True(t, pumpUntil(c, 5*time.Second, func() bool {
		return c.Document().LoadState == Failed
	}), "expected reload of the truncated file to fail")
	assert.Equal(t, Empty, c.State())
	assert.Equal(t, modelPath, c.watcher.Path(), "expected file to stay watched after a failed reload")

	require.NoError(t, os.WriteFile(modelPath, []byte(triangleObj), 0644))
	require.True(t, pumpUntil(c, 5*time.Second, func() bool {
		return c.State() == Open
	}), "expected a later good save to reload the document")
	assert.Equal(t, modelPath, c.Document().FilePath)
	assert.GreaterOrEqual(t, len(presenter.changed), 2)
}
