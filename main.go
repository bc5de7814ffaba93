package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/lumen/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lumen"
	app.Usage = "load, validate and watch 3D scene documents"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "load settings from a TOML file",
			EnvVar: "LUMEN_CONFIG",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "open",
			Usage: "open a scene or archive and display scene information",
			Description: `
Open a wavefront (obj, objx, objl) or glTF (gltf, glb) scene, or an archive
(zip, objz, objzl) bundling one. The scene is indexed, post-processed and
optionally converted to the shaded variant.`,
			ArgsUsage: "scene_file",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "async",
					Usage: "load the scene on a background goroutine",
				},
			}, cmd.DocumentFlags...),
			Action: cmd.OpenScene,
		},
		{
			Name:  "watch",
			Usage: "open a scene and reload it whenever the file changes",
			Description: `
Open the scene in the background and keep watching its file. Every
modification triggers a full reload until the process is interrupted.`,
			ArgsUsage: "scene_file",
			Flags:     cmd.DocumentFlags,
			Action:    cmd.WatchScene,
		},
		{
			Name:      "extract",
			Usage:     "extract an archive and report the discovered scene file",
			ArgsUsage: "archive_file",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "keep",
					Usage: "keep the extraction directory",
				},
			}, cmd.DocumentFlags...),
			Action: cmd.ExtractArchive,
		},
		{
			Name:  "config",
			Usage: "write the effective configuration as TOML",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file",
					Value: "lumen.toml",
				},
			}, cmd.DocumentFlags...),
			Action: cmd.DumpConfig,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
