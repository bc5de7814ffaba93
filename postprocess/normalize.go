package postprocess

import (
	"time"

	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/scene"
)

var logger = log.New("postprocess")

// Normalize runs the post-processing passes on a loaded scene in place:
// anisotropic filtering is applied to every texture and then, if unit 0 is
// unused while other units are active, unit 1 is relocated to unit 0.
// The returned report describes texture unit usage before relocation.
func Normalize(root scene.Node, anisotropy float32) *TextureUnitUsage {
	start := time.Now()

	updated := SetAnisotropy(root, anisotropy)
	logger.Infof("set anisotropy %.0f on %d textures", anisotropy, updated)

	usage := AnalyzeTextureUnits(root)
	logger.Debugf("texture unit usage:\n%s", usage)

	if usage.NeedsRemediation() {
		logger.Warningf("texture unit 0 is unused while %d units are active; moving unit 1 to unit 0", usage.NumPresent())
		MoveTextureUnit(root, 1, 0)
	}

	logger.Infof("post-processed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return usage
}
