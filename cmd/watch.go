package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/achilleasa/lumen/document"
	"github.com/urfave/cli"
)

// A presenter that reports published documents to the log.
type consolePresenter struct{}

func (consolePresenter) Present(doc document.Document, resetView bool) {
	logger.Noticef("presenting %q (reset view: %t)\n%s", doc.FilePath, resetView, documentInfo(doc))
}

func (consolePresenter) SceneChanged(doc document.Document) {
	if !doc.IsOpen() {
		logger.Warningf("reload failed: %v", doc.Err)
		return
	}
	logger.Noticef("scene changed\n%s", documentInfo(doc))
}

// Open a scene in the background and reload it whenever it changes until
// interrupted.
func WatchScene(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene or archive file")
	}

	cfg.Document.Watch = true
	ctrl, err := document.NewController(cfg.Document, nil, consolePresenter{})
	if err != nil {
		return err
	}
	defer ctrl.Shutdown()

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctrl.OpenAsyncPublish(ctx.Args().First(), true)
	logger.Noticef("watching %q; press ctrl+c to exit", ctx.Args().First())

	if err = ctrl.Run(runCtx); errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
