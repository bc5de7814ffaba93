package archive

import (
	"errors"
	"fmt"
)

var (
	ErrNoModel          = errors.New("archive: archive contains no loadable scene")
	ErrAmbiguousModel   = errors.New("archive: archive contains more than one loadable scene")
	ErrPasswordRequired = errors.New("archive: entry is encrypted and no password was supplied")
	ErrUnsafeEntryName  = errors.New("archive: entry name escapes the extraction directory")
	ErrEntryTooLarge    = errors.New("archive: entry exceeds the maximum extraction size")
)

// The extraction stage that failed.
type ErrorKind uint8

const (
	// The temp directory could not be cleared or created.
	KindTempDir ErrorKind = iota

	// The archive could not be opened.
	KindOpenArchive

	// The archive has no entries.
	KindFirstEntry

	// An entry header could not be used.
	KindNextEntry

	// An entry could not be opened or decrypted.
	KindOpenEntry

	// The entry buffer could not be allocated.
	KindAlloc

	// The destination file could not be written.
	KindWrite
)

func (k ErrorKind) String() string {
	switch k {
	case KindTempDir:
		return "could not prepare temp directory"
	case KindOpenArchive:
		return "could not open archive"
	case KindFirstEntry:
		return "could not locate first entry"
	case KindNextEntry:
		return "could not locate next entry"
	case KindOpenEntry:
		return "could not open entry"
	case KindAlloc:
		return "could not allocate entry buffer"
	case KindWrite:
		return "could not write entry"
	}
	return "unknown extraction error"
}

// ExtractError describes a failed extraction.
type ExtractError struct {
	Kind    ErrorKind
	Archive string

	// Set for entry level failures.
	Entry string

	Err error
}

func (e *ExtractError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("archive: %s %q in %q: %v", e.Kind, e.Entry, e.Archive, e.Err)
	}
	return fmt.Sprintf("archive: %s %q: %v", e.Kind, e.Archive, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
