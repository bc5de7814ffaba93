package document

import (
	"os"

	"github.com/achilleasa/lumen/postprocess"
	"github.com/achilleasa/lumen/shading"
)

// Default application name; used as the extraction directory prefix.
const DefaultAppName = "lumen"

// Options controls how documents are opened.
type Options struct {
	// Do not generate the shaded scene variant.
	SkipShadingConversion bool `toml:"skip_shading_conversion"`

	// Generate the shaded scene without shadows regardless of ShadowTechnique.
	SkipShadows bool `toml:"skip_shadows"`

	ShadowTechnique shading.Technique `toml:"shadow_technique"`

	// Write both scene variants to DebugExportDir after each load.
	DebugExportScene bool   `toml:"debug_export_scene"`
	DebugExportDir   string `toml:"debug_export_dir"`

	// Anisotropic filtering level applied to every texture.
	Anisotropy float32 `toml:"anisotropy"`

	// Directory that hosts the extraction directory of archive-backed documents.
	TempRoot string `toml:"temp_root"`
	AppName  string `toml:"app_name"`

	// Password for encrypted archive entries.
	Password string `toml:"password,omitempty"`

	// Reject archives containing more than one scene file.
	StrictArchiveDiscovery bool `toml:"strict_archive_discovery"`

	// Reload the document when its file changes.
	Watch bool `toml:"watch"`
}

// Get the default options.
func DefaultOptions() Options {
	return Options{
		ShadowTechnique: shading.ShadowMap,
		DebugExportDir:  ".",
		Anisotropy:      postprocess.DefaultAnisotropy,
		TempRoot:        os.TempDir(),
		AppName:         DefaultAppName,
	}
}

// Get the shadow technique requested for the shaded scene.
func (o Options) Shadows() shading.Technique {
	if o.SkipShadows {
		return shading.NoShadows
	}
	return o.ShadowTechnique
}
