package loader

import (
	"path/filepath"
	"strings"

	"github.com/achilleasa/lumen/asset"
	"github.com/achilleasa/lumen/asset/texture"
	"github.com/achilleasa/lumen/scene"
)

// Read the image header of every texture referenced by the scene and record
// its dimensions. Textures that cannot be read are reported but do not fail
// the load. Returns the number of probed and missing textures.
func (l *Loader) probeTextures(root scene.Node, modelPath string) (probed, missing int) {
	if strings.Contains(modelPath, "://") {
		return 0, 0
	}
	baseDir := filepath.Dir(modelPath)

	scene.Traverse(root, scene.StateSetFunc(func(ss *scene.StateSet) {
		for _, attrList := range ss.TextureAttributes {
			tex, isTex := attrList[scene.AttributeTexture].(*scene.Texture)
			if !isTex || tex.Image == "" {
				continue
			}

			imgPath := tex.Image
			if !filepath.IsAbs(imgPath) {
				imgPath = filepath.Join(baseDir, filepath.FromSlash(imgPath))
			}

			info, err := probe(imgPath)
			if err != nil {
				l.logger.Warningf("texture %q: %v", tex.Image, err)
				missing++
				continue
			}
			tex.Width, tex.Height = info.Width, info.Height
			probed++
		}
	}))
	return probed, missing
}

func probe(imgPath string) (*texture.Info, error) {
	res, err := asset.NewResource(imgPath, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return texture.Probe(res)
}
