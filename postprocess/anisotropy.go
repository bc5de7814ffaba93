package postprocess

import "github.com/achilleasa/lumen/scene"

// Default anisotropic filtering level.
const DefaultAnisotropy = 32

// AnisotropySetter assigns the maximum anisotropy of every texture bound to
// any texture unit.
type AnisotropySetter struct {
	Level float32

	// Number of updated textures.
	Updated int
}

func (a *AnisotropySetter) VisitStateSet(ss *scene.StateSet) {
	for _, attrList := range ss.TextureAttributes {
		if tex, isTex := attrList[scene.AttributeTexture].(*scene.Texture); isTex {
			tex.MaxAnisotropy = a.Level
			a.Updated++
		}
	}
}

// Set the anisotropic filtering level of every texture in the graph.
// Returns the number of updated textures.
func SetAnisotropy(root scene.Node, level float32) int {
	v := &AnisotropySetter{Level: level}
	scene.Traverse(root, v)
	return v.Updated
}
