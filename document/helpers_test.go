package document

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/achilleasa/lumen/archive"
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/types"
	"github.com/stretchr/testify/require"
	"github.com/yeka/zip"
)

const triangleObj = `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
o tri
f 1/1 2/2 3/3
`

func writeFile(t *testing.T, path, payload string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))
	return path
}

// Write a zip archive; entries is a list of name, payload pairs.
func writeZip(t *testing.T, path string, entries ...string) string {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for i := 0; i+1 < len(entries); i += 2 {
		w, err := zw.Create(entries[i])
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func testOptions(t *testing.T) Options {
	opts := DefaultOptions()
	opts.TempRoot = t.TempDir()
	opts.AppName = "lumen-test"
	opts.DebugExportDir = t.TempDir()
	return opts
}

type recordingPresenter struct {
	presented []Document
	resets    []bool
	changed   []Document
}

func (p *recordingPresenter) Present(doc Document, resetView bool) {
	p.presented = append(p.presented, doc)
	p.resets = append(p.resets, resetView)
}

func (p *recordingPresenter) SceneChanged(doc Document) {
	p.changed = append(p.changed, doc)
}

// A loader that produces a single triangle and tracks concurrent invocations.
type fakeLoader struct {
	delay time.Duration
	fail  bool

	calls     int32
	active    int32
	maxActive int32
}

func (l *fakeLoader) Load(modelPath string) (*scene.Group, error) {
	atomic.AddInt32(&l.calls, 1)
	active := atomic.AddInt32(&l.active, 1)
	defer atomic.AddInt32(&l.active, -1)
	for {
		max := atomic.LoadInt32(&l.maxActive)
		if active <= max || atomic.CompareAndSwapInt32(&l.maxActive, max, active) {
			break
		}
	}

	time.Sleep(l.delay)
	if l.fail {
		return nil, errors.New("fake loader: corrupt payload")
	}

	g := scene.NewGeometry(filepath.Base(modelPath))
	g.Vertices = []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	g.Indices = []uint32{0, 1, 2}
	root := scene.NewGroup("root")
	root.AddChild(g)
	return root, nil
}

// An extractor that records its invocations without touching the filesystem.
type fakeExtractor struct {
	calls []string
}

func (e *fakeExtractor) Extract(archivePath, _ string) (*archive.Result, error) {
	e.calls = append(e.calls, archivePath)
	return &archive.Result{ModelPath: archivePath + ".obj"}, nil
}

func fakePipeline(l *fakeLoader, e *fakeExtractor) *Pipeline {
	return &Pipeline{
		Loader:    l,
		Extractor: e,
		IsArchive: archive.IsArchive,
	}
}

// Drain controller events on the test goroutine until cond holds or the
// timeout expires.
func pumpUntil(c *Controller, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		c.ProcessEvents()
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
