package reader

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/achilleasa/lumen/asset"
	"github.com/achilleasa/lumen/scene"
)

var (
	ErrUnsupportedFormat = errors.New("reader: unsupported file format")
	ErrEmptyScene        = errors.New("reader: scene contains no geometry")
)

// The Reader interface is implemented by all scene codecs.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Group, error)
}

// A factory for creating a fresh reader instance per read request.
type Factory func() Reader

// Registry maps file extensions to scene codecs. Extensions may be aliased
// to another registered extension; an alias is read by the codec of its target.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]Factory
	aliases map[string]string
}

// Create an empty codec registry.
func NewRegistry() *Registry {
	return &Registry{
		readers: make(map[string]Factory),
		aliases: make(map[string]string),
	}
}

// Create a registry with the built-in codecs: wavefront obj (plus the objx
// and objl aliases) and glTF 2.0.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("obj", func() Reader { return newWavefrontReader() })
	r.Register("gltf", func() Reader { return newGltfReader() })
	r.Register("glb", func() Reader { return newGltfReader() })
	r.AddAlias("objx", "obj")
	r.AddAlias("objl", "obj")
	return r
}

// Register a codec for an extension (without the leading dot).
func (r *Registry) Register(ext string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[asset.Ext("."+ext)] = factory
}

// Register alias as another name for the codec handling ext.
func (r *Registry) AddAlias(alias, ext string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[asset.Ext("."+alias)] = asset.Ext("." + ext)
}

// Resolve an extension through the alias table. The second return value is
// false if no codec handles the extension.
func (r *Registry) Resolve(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(asset.Ext("." + ext))
}

func (r *Registry) resolve(ext string) (string, bool) {
	if target, isAlias := r.aliases[ext]; isAlias {
		ext = target
	}
	_, exists := r.readers[ext]
	return ext, exists
}

// Returns true if a codec is registered for the extension of pathToFile.
func (r *Registry) Supports(pathToFile string) bool {
	_, ok := r.Resolve(asset.Ext(pathToFile))
	return ok
}

// Get the sorted list of supported extensions including aliases.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]string, 0, len(r.readers)+len(r.aliases))
	for ext := range r.readers {
		list = append(list, ext)
	}
	for alias := range r.aliases {
		if _, ok := r.resolve(alias); ok {
			list = append(list, alias)
		}
	}
	sort.Strings(list)
	return list
}

// Read scene from file selecting the codec based on the file extension.
func (r *Registry) ReadScene(filename string) (*scene.Group, error) {
	r.mu.RLock()
	ext, exists := r.resolve(asset.Ext(filename))
	factory := r.readers[ext]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, asset.Ext(filename))
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return factory().Read(res)
}
