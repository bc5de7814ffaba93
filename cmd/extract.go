package cmd

import (
	"errors"

	"github.com/achilleasa/lumen/archive"
	"github.com/achilleasa/lumen/asset/reader"
	"github.com/urfave/cli"
)

// Extract an archive and report the scene file that would be loaded.
func ExtractArchive(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing archive file")
	}

	archivePath := ctx.Args().First()
	if !archive.IsArchive(archivePath) {
		return errors.New("only zip, objz and objzl archives are supported")
	}

	ex := archive.NewExtractor(cfg.Document.AppName, reader.DefaultRegistry())
	ex.TempRoot = cfg.Document.TempRoot
	ex.StrictDiscovery = cfg.Document.StrictArchiveDiscovery

	res, err := ex.Extract(archivePath, cfg.Document.Password)
	if !ctx.Bool("keep") && res != nil {
		defer archive.Remove(res.Dir)
	}
	if err != nil {
		return err
	}

	if res.ModelPath == "" {
		return archive.ErrNoModel
	}
	logger.Noticef("extracted %d files to %q; scene file: %q", res.Files, res.Dir, res.ModelPath)
	return nil
}
