package archive

import (
	"path/filepath"
	"strings"

	"github.com/yeka/zip"
	"golang.org/x/text/encoding/charmap"
)

// General purpose flag bit 11: the entry name and comment use UTF-8.
const flagUTF8 = 0x800

// Decode the name of an entry. Names without the UTF-8 flag are stored in
// the legacy DOS code page.
func decodeName(f *zip.File) (string, error) {
	if f.Flags&flagUTF8 != 0 {
		return strings.ToValidUTF8(f.Name, "_"), nil
	}
	return charmap.CodePage437.NewDecoder().String(f.Name)
}

// Convert an archive name to a host path relative to the extraction
// directory. Archivers on windows may store backslash separators.
func hostPath(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(name, "/")))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", ErrUnsafeEntryName
	}
	return rel, nil
}
