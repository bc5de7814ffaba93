package document

import (
	"context"
	"time"

	"github.com/achilleasa/lumen/archive"
	"github.com/achilleasa/lumen/log"
)

// SlotState is the state of the document slot managed by a Controller.
type SlotState uint8

const (
	Empty SlotState = iota
	Opening
	Open
)

func (s SlotState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Opening:
		return "opening"
	case Open:
		return "open"
	}
	return "unknown"
}

// A background open that has not been completed yet.
type pendingOpen struct {
	op        *OpenOperation
	task      *Task[*OpenOperation]
	publish   bool
	resetView bool
}

// Controller owns the open document. All methods must be called from the
// same goroutine (the owner); background opens hand their results back
// through the controller's event queue which the owner drains by calling
// ProcessEvents or Run.
type Controller struct {
	logger    log.Logger
	opts      Options
	pipeline  *Pipeline
	presenter Presenter

	queue   *EventQueue
	watcher *FileWatcher

	state   SlotState
	doc     Document
	pending *pendingOpen

	// Result of the most recently completed open.
	lastSuccess bool
}

// Create a new controller. The presenter may be nil.
func NewController(opts Options, pipeline *Pipeline, presenter Presenter) (*Controller, error) {
	if pipeline == nil {
		pipeline = NewPipeline(opts)
	}

	c := &Controller{
		logger:    log.New("document"),
		opts:      opts,
		pipeline:  pipeline,
		presenter: presenter,
		queue:     NewEventQueue(),
	}

	if opts.Watch {
		watcher, err := NewFileWatcher(c.queue, c.onFileChanged)
		if err != nil {
			return nil, err
		}
		c.watcher = watcher
	}
	return c, nil
}

// Get a copy of the current document.
func (c *Controller) Document() Document {
	return c.doc
}

// Get the state of the document slot.
func (c *Controller) State() SlotState {
	return c.state
}

// Returns true while a background open is running or awaits completion.
func (c *Controller) IsOpenInProgress() bool {
	return c.pending != nil
}

// Open path on the calling goroutine. Any open document is closed first.
func (c *Controller) Open(path string) error {
	c.Close()
	c.watch(path)

	op := NewOpenOperation(path, c.pipeline, c.opts)
	c.state = Opening
	c.doc.LoadState = Loading
	op.Run()
	c.complete(op, false, false)
	return op.Err()
}

// Open path in the background without publishing it to the presenter.
func (c *Controller) OpenAsync(path string) {
	c.openAsync(path, false, false)
}

// Open path in the background and hand the document to the presenter once
// it has loaded successfully.
func (c *Controller) OpenAsyncPublish(path string, resetView bool) {
	c.openAsync(path, true, resetView)
}

func (c *Controller) openAsync(path string, publish, resetView bool) {
	c.Close()
	c.watch(path)

	op := NewOpenOperation(path, c.pipeline, c.opts)
	c.state = Opening
	c.doc.LoadState = Loading

	p := &pendingOpen{op: op, publish: publish, resetView: resetView}
	p.task = Go(c.queue, func() *OpenOperation {
		op.Run()
		return op
	}, func(t *Task[*OpenOperation]) {
		c.onTaskDone(t)
	})
	c.pending = p
	c.logger.Infof("opening %q in the background", path)
}

// Block until the in-flight background open (if any) finishes and complete
// it. Returns whether the most recent open succeeded.
func (c *Controller) WaitForOpenCompleted() bool {
	if c.pending == nil {
		return c.lastSuccess
	}

	p := c.pending
	start := time.Now()
	p.task.Wait()
	c.logger.Debugf("waited %d ms for background open", time.Since(start).Nanoseconds()/1e6)
	c.finishPending(p)
	return c.lastSuccess
}

// Handle the completion event posted by a background open. Events of
// opens that were already completed by WaitForOpenCompleted are ignored.
func (c *Controller) onTaskDone(t *Task[*OpenOperation]) {
	if c.pending == nil || c.pending.task != t {
		return
	}
	c.logger.Debugf("background open finished after %d ms", t.Elapsed().Nanoseconds()/1e6)
	c.finishPending(c.pending)
}

func (c *Controller) finishPending(p *pendingOpen) {
	c.pending = nil
	c.complete(p.op, p.publish, p.resetView)
}

// Move the results of a finished operation into the document.
func (c *Controller) complete(op *OpenOperation, publish, resetView bool) {
	start := time.Now()

	if !op.Succeeded() {
		// A failed archive open leaves no extraction state behind.
		if dir := op.ExtractionDir(); dir != "" {
			c.removeTempDir(dir)
		}
		c.state = Empty
		c.doc = Document{LoadState: Failed, Err: op.Err()}
		c.lastSuccess = false
		return
	}

	c.state = Open
	c.doc = Document{
		FilePath:          op.RequestedPath(),
		PrimaryScene:      op.PrimaryScene(),
		ConvertedScene:    op.ConvertedScene(),
		TempExtractionDir: op.ExtractionDir(),
		LoadState:         Ready,
		TextureUnits:      op.TextureUnits(),
	}
	c.lastSuccess = true

	if publish && c.presenter != nil {
		c.presenter.Present(c.doc, resetView)
	}
	c.logger.Infof("completed open of %q in %d ms", c.doc.FilePath, time.Since(start).Nanoseconds()/1e6)
}

// Close the current document. Any background open is completed first.
// Closing an empty slot only stops watching a file whose open failed.
func (c *Controller) Close() {
	c.WaitForOpenCompleted()

	if c.watcher != nil {
		c.watcher.Unwatch()
	}
	if c.state == Empty {
		return
	}

	if c.doc.TempExtractionDir != "" {
		c.removeTempDir(c.doc.TempExtractionDir)
	}

	c.logger.Infof("closed %q", c.doc.FilePath)
	c.state = Empty
	c.doc = Document{LoadState: Idle}
}

func (c *Controller) removeTempDir(dir string) {
	if err := archive.Remove(dir); err != nil {
		c.logger.Warningf("could not remove temp directory %q: %v", dir, err)
		return
	}
	c.logger.Infof("removed temp directory %q", dir)
}

// Start watching the requested path. The watch covers the whole open
// attempt so changes made while loading, or after a failed load, still
// trigger a reload.
func (c *Controller) watch(path string) {
	if c.watcher == nil {
		return
	}
	if err := c.watcher.Watch(path); err != nil {
		c.logger.Warningf("could not watch %q: %v", path, err)
	}
}

// Reload the document after its file changed. An in-flight open of the
// same file is completed before reopening.
func (c *Controller) onFileChanged(path string) {
	if c.watcher == nil || c.watcher.Path() != path {
		return
	}

	c.logger.Noticef("reloading %q", path)
	c.Open(path)
	if c.presenter != nil {
		c.presenter.SceneChanged(c.doc)
	}
}

// Run queued events on the calling goroutine. Returns the number of
// processed events.
func (c *Controller) ProcessEvents() int {
	return c.queue.Drain()
}

// Process events until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.queue.Notify():
			c.ProcessEvents()
		}
	}
}

// Close the document and release the controller's resources.
func (c *Controller) Shutdown() error {
	c.Close()
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}
