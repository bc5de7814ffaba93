package document

import (
	"path/filepath"
	"sync"

	"github.com/achilleasa/lumen/log"
	"github.com/fsnotify/fsnotify"
)

// FileWatcher reports modifications of a single file. Change notifications
// are delivered through the owner's event queue.
type FileWatcher struct {
	logger  log.Logger
	watcher *fsnotify.Watcher
	queue   *EventQueue

	onChange func(path string)

	mu   sync.Mutex
	path string
	dir  string

	wg sync.WaitGroup
}

// Create a watcher that posts onChange to queue whenever the watched file
// is written or replaced.
func NewFileWatcher(queue *EventQueue, onChange func(path string)) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		logger:   log.New("watcher"),
		watcher:  w,
		queue:    queue,
		onChange: onChange,
	}

	fw.wg.Add(1)
	go fw.loop()
	return fw, nil
}

// Watch path, replacing any previously watched file. The parent directory
// is watched so that files replaced by rename are still tracked.
func (fw *FileWatcher) Watch(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.dir != "" && fw.dir != dir {
		_ = fw.watcher.Remove(fw.dir)
		fw.dir = ""
	}
	if fw.dir == "" {
		if err := fw.watcher.Add(dir); err != nil {
			fw.path = ""
			return err
		}
	}

	fw.path = path
	fw.dir = dir
	fw.logger.Debugf("watching %q", path)
	return nil
}

// Stop watching the current file.
func (fw *FileWatcher) Unwatch() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.dir != "" {
		_ = fw.watcher.Remove(fw.dir)
	}
	fw.path = ""
	fw.dir = ""
}

// Get the watched file or an empty string.
func (fw *FileWatcher) Path() string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.path
}

// Shut down the watcher and wait for its goroutine to exit.
func (fw *FileWatcher) Close() error {
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}

func (fw *FileWatcher) loop() {
	defer fw.wg.Done()

	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			path := fw.Path()
			if path == "" || filepath.Clean(ev.Name) != path {
				continue
			}
			fw.logger.Infof("detected change of %q (%s)", path, ev.Op)
			fw.queue.Post(func() { fw.onChange(path) })
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warningf("watch error: %v", err)
		}
	}
}
