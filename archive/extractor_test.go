package archive

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/yeka/zip"
)

type extMatcher []string

func (m extMatcher) Supports(pathToFile string) bool {
	ext := strings.ToLower(filepath.Ext(pathToFile))
	for _, e := range m {
		if ext == "."+e {
			return true
		}
	}
	return false
}

type fixtureEntry struct {
	name     string
	data     string
	flags    uint16
	password string
}

func writeArchive(t *testing.T, dir, name string, entries []fixtureEntry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		var w io.Writer
		if entry.password != "" {
			w, err = zw.Encrypt(entry.name, entry.password, zip.AES256Encryption)
		} else {
			w, err = zw.CreateHeader(&zip.FileHeader{Name: entry.name, Method: zip.Deflate, Flags: entry.flags})
		}
		if err != nil {
			t.Fatal(err)
		}
		if _, err = w.Write([]byte(entry.data)); err != nil {
			t.Fatal(err)
		}
	}
	if err = zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestExtractor(t *testing.T) *Extractor {
	ex := NewExtractor("lumen-test", extMatcher{"obj", "gltf"})
	ex.TempRoot = t.TempDir()
	return ex
}

func TestIsArchive(t *testing.T) {
	specs := map[string]bool{
		"a.zip":   true,
		"a.ZIP":   true,
		"a.objz":  true,
		"a.ObjZL": true,
		"a.obj":   false,
		"zip":     false,
	}
	for path, exp := range specs {
		if IsArchive(path) != exp {
			t.Errorf("expected IsArchive(%q) to be %t", path, exp)
		}
	}
}

func TestExtractRoundTrip(t *testing.T) {
	archivePath := writeArchive(t, t.TempDir(), "model.zip", []fixtureEntry{
		{name: "readme.txt", data: "hello"},
		{name: "models/scene.obj", data: "o foo"},
		{name: "textures/wood.png", data: "png"},
	})

	ex := newTestExtractor(t)
	res, err := ex.Extract(archivePath, "")
	if err != nil {
		t.Fatal(err)
	}

	if res.Dir != ex.Dir() {
		t.Fatalf("expected extraction dir %q; got %q", ex.Dir(), res.Dir)
	}
	if exp := filepath.Join(res.Dir, "models", "scene.obj"); res.ModelPath != exp {
		t.Fatalf("expected model path %q; got %q", exp, res.ModelPath)
	}
	if res.Files != 3 {
		t.Fatalf("expected 3 extracted files; got %d", res.Files)
	}

	var files []string
	err = filepath.Walk(res.Dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			rel, _ := filepath.Rel(res.Dir, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	exp := []string{"models/scene.obj", "readme.txt", "textures/wood.png"}
	if strings.Join(files, ",") != strings.Join(exp, ",") {
		t.Fatalf("expected files %v; got %v", exp, files)
	}

	data, err := os.ReadFile(res.ModelPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "o foo" {
		t.Fatalf("unexpected model payload %q", string(data))
	}
}

func TestExtractRemovesStaleDirectory(t *testing.T) {
	ex := newTestExtractor(t)
	stale := filepath.Join(ex.Dir(), "stale.obj")
	if err := os.MkdirAll(ex.Dir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	archivePath := writeArchive(t, t.TempDir(), "model.objz", []fixtureEntry{{name: "scene.obj", data: "o foo"}})
	if _, err := ex.Extract(archivePath, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale file to be removed; got %v", err)
	}
}

func TestExtractLastCandidateWins(t *testing.T) {
	archivePath := writeArchive(t, t.TempDir(), "model.zip", []fixtureEntry{
		{name: "a.obj", data: "o a"},
		{name: "b.gltf", data: "{}"},
		{name: "c.txt", data: "c"},
	})

	ex := newTestExtractor(t)
	res, err := ex.Extract(archivePath, "")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(res.ModelPath) != "b.gltf" {
		t.Fatalf("expected last matching entry to win; got %q", res.ModelPath)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates; got %v", res.Candidates)
	}

	ex.StrictDiscovery = true
	if _, err = ex.Extract(archivePath, ""); !errors.Is(err, ErrAmbiguousModel) {
		t.Fatalf("expected ErrAmbiguousModel in strict mode; got %v", err)
	}
}

func TestExtractWithoutCandidates(t *testing.T) {
	archivePath := writeArchive(t, t.TempDir(), "docs.zip", []fixtureEntry{{name: "readme.txt", data: "hello"}})

	res, err := newTestExtractor(t).Extract(archivePath, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.ModelPath != "" {
		t.Fatalf("expected no model path; got %q", res.ModelPath)
	}
}

func TestExtractEntryNameEncoding(t *testing.T) {
	archivePath := writeArchive(t, t.TempDir(), "names.zip", []fixtureEntry{
		{name: "café.obj", data: "o utf8", flags: flagUTF8},
		// 0x81 is u-umlaut in code page 437
		{name: "\x81ber.txt", data: "legacy"},
	})

	res, err := newTestExtractor(t).Extract(archivePath, "")
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"café.obj", "über.txt"} {
		if _, err = os.Stat(filepath.Join(res.Dir, name)); err != nil {
			t.Errorf("expected %q to be extracted: %v", name, err)
		}
	}
}

func TestExtractErrors(t *testing.T) {
	fixtureDir := t.TempDir()
	ex := newTestExtractor(t)

	emptyArchive := writeArchive(t, fixtureDir, "empty.zip", nil)
	notAnArchive := filepath.Join(fixtureDir, "bogus.zip")
	if err := os.WriteFile(notAnArchive, []byte("not a zip file"), 0644); err != nil {
		t.Fatal(err)
	}
	escaping := writeArchive(t, fixtureDir, "escape.zip", []fixtureEntry{{name: "../evil.obj", data: "o evil"}})
	encrypted := writeArchive(t, fixtureDir, "secret.zip", []fixtureEntry{{name: "scene.obj", data: "o secret", password: "letmein"}})

	type spec struct {
		archive  string
		password string
		kind     ErrorKind
	}
	specs := []spec{
		{filepath.Join(fixtureDir, "missing.zip"), "", KindOpenArchive},
		{notAnArchive, "", KindOpenArchive},
		{emptyArchive, "", KindFirstEntry},
		{escaping, "", KindNextEntry},
		{encrypted, "", KindOpenEntry},
		{encrypted, "wrong", KindOpenEntry},
	}

	for idx, s := range specs {
		res, err := ex.Extract(s.archive, s.password)
		var extractErr *ExtractError
		if !errors.As(err, &extractErr) {
			t.Fatalf("[spec %d] expected an ExtractError; got %v", idx, err)
		}
		if extractErr.Kind != s.kind {
			t.Fatalf("[spec %d] expected error kind %q; got %q (%v)", idx, s.kind, extractErr.Kind, err)
		}
		if res == nil || res.Dir != ex.Dir() {
			t.Fatalf("[spec %d] expected the partial extraction dir to be reported", idx)
		}
	}

	res, err := ex.Extract(encrypted, "letmein")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(res.ModelPath) != "scene.obj" {
		t.Fatalf("expected encrypted scene to be extracted; got %q", res.ModelPath)
	}
}

func TestExtractEntrySizeLimit(t *testing.T) {
	archivePath := writeArchive(t, t.TempDir(), "big.zip", []fixtureEntry{{name: "scene.obj", data: strings.Repeat("v 0 0 0\n", 64)}})

	ex := newTestExtractor(t)
	ex.MaxEntrySize = 16
	_, err := ex.Extract(archivePath, "")

	var extractErr *ExtractError
	if !errors.As(err, &extractErr) || extractErr.Kind != KindAlloc || !errors.Is(err, ErrEntryTooLarge) {
		t.Fatalf("expected an allocation error; got %v", err)
	}
}
