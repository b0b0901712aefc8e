package monitor

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/merlin-wf/merlin/study"
)

// StepEvent reports a step workspace reaching a terminal state.
type StepEvent struct {
	// Step is the workspace directory name of the finished step.
	Step string

	// Failed is true when the step exhausted its retries.
	Failed bool
}

// Watcher reports step completions inside a study workspace as they
// happen, by watching for the status marker files the workers drop.
type Watcher struct {
	// Events receives one event per completed step.
	Events chan StepEvent

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher starts watching the given study workspace recursively.
// Step directories created after the watch starts are picked up too.
func NewWatcher(workspace string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.Walk(workspace, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		Events: make(chan StepEvent, 100),
		fsw:    fsw,
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.Events)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.fsw.Add(event.Name); err != nil {
					monitorLog.Error("failed to watch new directory", "path", event.Name, "error", err)
				}
				continue
			}
			switch filepath.Base(event.Name) {
			case study.FinishedMarker:
				w.emit(StepEvent{Step: filepath.Base(filepath.Dir(event.Name))})
			case study.FailedMarker:
				w.emit(StepEvent{Step: filepath.Base(filepath.Dir(event.Name)), Failed: true})
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			monitorLog.Error("watch error", "error", err)
		}
	}
}

// emit delivers an event unless the watcher is closing, so a stalled
// consumer cannot wedge the loop once the Events buffer fills.
func (w *Watcher) emit(ev StepEvent) {
	select {
	case w.Events <- ev:
	case <-w.done:
	}
}

// Close stops the watcher and closes the Events channel.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
