package cmd

import (
	"github.com/achilleasa/lumen/config"
	"github.com/achilleasa/lumen/shading"
	"github.com/urfave/cli"
)

// Flags shared by the commands that open documents.
var DocumentFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "skip-shading",
		Usage: "do not generate the shaded scene variant",
	},
	cli.BoolFlag{
		Name:  "skip-shadows",
		Usage: "generate the shaded scene without shadows",
	},
	cli.StringFlag{
		Name:  "shadows",
		Usage: "shadow technique; one of sv, sm, ssm, msm, lspsmvb, lspsmcb, lspsmdb, none",
	},
	cli.Float64Flag{
		Name:  "anisotropy",
		Usage: "anisotropic filtering level applied to all textures",
	},
	cli.BoolFlag{
		Name:  "debug-export",
		Usage: "write the original and shaded scenes to the debug export directory",
	},
	cli.StringFlag{
		Name:  "debug-export-dir",
		Usage: "directory for debug scene exports",
	},
	cli.StringFlag{
		Name:   "password, p",
		Usage:  "password for encrypted archives",
		EnvVar: "LUMEN_ARCHIVE_PASSWORD",
	},
	cli.BoolFlag{
		Name:  "strict",
		Usage: "reject archives that contain more than one scene file",
	},
}

// Load the configuration file selected by the global --config flag and
// apply command line overrides.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	setupLogging(ctx, cfg)

	opts := &cfg.Document
	if ctx.Bool("skip-shading") {
		opts.SkipShadingConversion = true
	}
	if ctx.Bool("skip-shadows") {
		opts.SkipShadows = true
	}
	if name := ctx.String("shadows"); name != "" {
		technique, err := shading.ParseTechnique(name)
		if err != nil {
			return cfg, err
		}
		opts.ShadowTechnique = technique
	}
	if ctx.IsSet("anisotropy") {
		opts.Anisotropy = float32(ctx.Float64("anisotropy"))
	}
	if ctx.Bool("debug-export") {
		opts.DebugExportScene = true
	}
	if dir := ctx.String("debug-export-dir"); dir != "" {
		opts.DebugExportDir = dir
	}
	if password := ctx.String("password"); password != "" {
		opts.Password = password
	}
	if ctx.Bool("strict") {
		opts.StrictArchiveDiscovery = true
	}
	return cfg, nil
}
