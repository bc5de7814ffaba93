package cmd

import (
	"errors"

	"github.com/achilleasa/lumen/config"
	"github.com/urfave/cli"
)

// Write the effective configuration (file plus command line overrides).
func DumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	out := ctx.String("out")
	if out == "" {
		return errors.New("missing output file")
	}
	if err = config.Save(cfg, out); err != nil {
		return err
	}

	logger.Noticef("wrote configuration to %s", out)
	return nil
}
