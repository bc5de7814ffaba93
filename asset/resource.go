package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// The Resource class wraps a streamable model file, a file it references
// (material libraries, included objects) or a remote resource.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	if r.IsRemote() {
		return r.url.String()
	}
	return r.url.Path
}

// Returns the directory that relative references of this resource resolve against.
func (r *Resource) Dir() string {
	if r.IsRemote() {
		return path.Dir(r.url.Path)
	}
	return filepath.Dir(r.url.Path)
}

// Returns the lower-case extension of the resource without the leading dot.
func (r *Resource) Ext() string {
	return Ext(r.url.Path)
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Get the lower-case extension of a path without the leading dot.
func Ext(pathToFile string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(pathToFile), "."))
}

// Create a new Resource data stream. If relTo is specified and pathToResource
// is relative and does not define a scheme, then the path to the new Resource
// is generated by joining the directory of relTo and pathToResource.
//
// This function can handle http/https URLs by delegating to the net/http package.
// The caller must make sure to close the returned Resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	resURL, err := parseLocation(pathToResource)
	if err != nil {
		return nil, err
	}

	// If this is a relative location, resolve it against the parent
	if resURL.Scheme == "" && relTo != nil && !filepath.IsAbs(resURL.Path) {
		if relTo.IsRemote() {
			resURL = relTo.url.ResolveReference(&url.URL{Path: filepath.ToSlash(resURL.Path)})
		} else {
			resURL.Path = filepath.Join(relTo.Dir(), resURL.Path)
		}
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(resURL.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %s", resURL.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        &url.URL{Path: name},
	}
}

// Local paths are kept verbatim (they may contain characters that are not
// valid inside URLs); only http(s) locations are parsed as URLs.
func parseLocation(location string) (*url.URL, error) {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return url.Parse(location)
	}
	if idx := strings.Index(location, "://"); idx > 1 {
		return &url.URL{Scheme: location[:idx], Path: location[idx+3:]}, nil
	}
	return &url.URL{Path: location}, nil
}
