package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/achilleasa/lumen/document"
	"github.com/achilleasa/lumen/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Open a scene or archive once and display scene information.
func OpenScene(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene or archive file")
	}

	ctrl, err := document.NewController(cfg.Document, nil, nil)
	if err != nil {
		return err
	}
	defer ctrl.Shutdown()

	if ctx.Bool("async") {
		ctrl.OpenAsync(ctx.Args().First())
		if !ctrl.WaitForOpenCompleted() {
			return ctrl.Document().Err
		}
	} else if err = ctrl.Open(ctx.Args().First()); err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", documentInfo(ctrl.Document()))
	return nil
}

// Build a textual report for an open document.
func documentInfo(doc document.Document) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"File", doc.FilePath})
	table.Append([]string{"State", doc.LoadState.String()})
	table.Append([]string{"Extraction dir", doc.TempExtractionDir})
	table.Append([]string{"Shaded variant", fmt.Sprint(doc.ConvertedScene != nil)})
	table.Render()

	if doc.PrimaryScene != nil {
		buf.WriteString(scene.Stats(doc.PrimaryScene))
	}
	if doc.TextureUnits != nil && doc.TextureUnits.NumUnits() != 0 {
		buf.WriteString(doc.TextureUnits.String())
	}
	return buf.String()
}
