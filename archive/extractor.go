package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/lumen/asset"
	"github.com/achilleasa/lumen/log"
	"github.com/yeka/zip"
)

// Extensions handled by the extractor.
var Extensions = []string{"zip", "objz", "objzl"}

// Default upper bound for a single extracted entry.
const DefaultMaxEntrySize = 1 << 32

// Returns true if the extension of pathToFile denotes an archive.
func IsArchive(pathToFile string) bool {
	ext := asset.Ext(pathToFile)
	for _, archiveExt := range Extensions {
		if ext == archiveExt {
			return true
		}
	}
	return false
}

// A Matcher decides whether an extracted file is a loadable scene.
type Matcher interface {
	Supports(pathToFile string) bool
}

// The result of a successful extraction.
type Result struct {
	// The per-process extraction directory.
	Dir string

	// The discovered scene file; empty if the archive contains no loadable scene.
	ModelPath string

	// All scene files found, in archive order.
	Candidates []string

	// Number of extracted files.
	Files int
}

// Extractor unpacks archives into a per-process temp directory.
type Extractor struct {
	logger log.Logger

	// Directory under which the extraction directory is created.
	TempRoot string

	// Application name used as the extraction directory prefix.
	AppName string

	// Recognizes scene files among the extracted entries.
	Scenes Matcher

	// Report multiple scene files as ErrAmbiguousModel instead of
	// picking the last one.
	StrictDiscovery bool

	// Entries whose uncompressed size exceeds this limit are rejected.
	MaxEntrySize uint64
}

// Create a new extractor.
func NewExtractor(appName string, scenes Matcher) *Extractor {
	return &Extractor{
		logger:       log.New("archive"),
		TempRoot:     os.TempDir(),
		AppName:      appName,
		Scenes:       scenes,
		MaxEntrySize: DefaultMaxEntrySize,
	}
}

// Get the extraction directory of this process.
func (e *Extractor) Dir() string {
	return filepath.Join(e.TempRoot, fmt.Sprintf("%s-%d", e.AppName, os.Getpid()))
}

// Extract all entries of archivePath. Encrypted entries are opened with
// password. On failure the partially populated directory is left in place
// and its path is returned alongside the error so the caller can remove it.
func (e *Extractor) Extract(archivePath, password string) (*Result, error) {
	start := time.Now()
	res := &Result{Dir: e.Dir()}

	fail := func(kind ErrorKind, entry string, err error) (*Result, error) {
		e.logger.Errorf("extraction of %q failed after %d ms: %s: %v", archivePath, time.Since(start).Nanoseconds()/1e6, kind, err)
		return res, &ExtractError{Kind: kind, Archive: archivePath, Entry: entry, Err: err}
	}

	// Remove leftovers of a previous run with the same pid.
	if err := os.RemoveAll(res.Dir); err != nil {
		return fail(KindTempDir, "", err)
	}
	if err := os.MkdirAll(res.Dir, 0755); err != nil {
		return fail(KindTempDir, "", err)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fail(KindOpenArchive, "", err)
	}
	defer zr.Close()

	if len(zr.File) == 0 {
		return fail(KindFirstEntry, "", io.ErrUnexpectedEOF)
	}

	for _, f := range zr.File {
		name, err := decodeName(f)
		if err != nil {
			return fail(KindNextEntry, f.Name, err)
		}
		rel, err := hostPath(name)
		if err != nil {
			return fail(KindNextEntry, name, err)
		}
		dst := filepath.Join(res.Dir, rel)

		if f.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			if err = os.MkdirAll(dst, 0755); err != nil {
				return fail(KindWrite, name, err)
			}
			continue
		}

		if kind, err := e.extractEntry(f, dst, password); err != nil {
			return fail(kind, name, err)
		}
		res.Files++

		if e.Scenes != nil && e.Scenes.Supports(dst) {
			res.Candidates = append(res.Candidates, dst)
			res.ModelPath = dst
		}
	}

	if e.StrictDiscovery && len(res.Candidates) > 1 {
		return res, fmt.Errorf("%w: %s", ErrAmbiguousModel, strings.Join(res.Candidates, ", "))
	}

	e.logger.Noticef("extracted %d files from %q in %d ms", res.Files, archivePath, time.Since(start).Nanoseconds()/1e6)
	if len(res.Candidates) > 1 {
		e.logger.Warningf("archive %q contains %d scene files; using %q", archivePath, len(res.Candidates), res.ModelPath)
	}
	return res, nil
}

// Write the contents of an archive entry to dst.
func (e *Extractor) extractEntry(f *zip.File, dst, password string) (ErrorKind, error) {
	if e.MaxEntrySize != 0 && f.UncompressedSize64 > e.MaxEntrySize {
		return KindAlloc, ErrEntryTooLarge
	}

	if f.IsEncrypted() {
		if password == "" {
			return KindOpenEntry, ErrPasswordRequired
		}
		f.SetPassword(password)
	}

	rc, err := f.Open()
	if err != nil {
		return KindOpenEntry, err
	}
	defer rc.Close()

	if err = os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return KindWrite, err
	}
	out, err := os.Create(dst)
	if err != nil {
		return KindWrite, err
	}

	// Read errors (corrupt data, wrong password) surface through Copy too;
	// the writer wrapper tells them apart from write errors.
	w := &trackingWriter{w: out}
	_, err = io.Copy(w, rc)
	closeErr := out.Close()
	switch {
	case err != nil && w.err != nil:
		return KindWrite, err
	case err != nil:
		return KindOpenEntry, err
	case closeErr != nil:
		return KindWrite, closeErr
	}
	return 0, nil
}

type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}

// Remove an extraction directory.
func Remove(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
