package inbox

import (
	"context"
	"errors"
	"log"
	"time"
)

// Watcher triggers the processor on a fixed interval, for deployments
// without an external scheduler.
type Watcher struct {
	processor *Processor
	interval  time.Duration
	stopCh    chan struct{}
}

// NewWatcher creates a watcher around the processor.
func NewWatcher(processor *Processor, interval time.Duration) *Watcher {
	return &Watcher{
		processor: processor,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic processing loop.
func (w *Watcher) Start() error {
	// Run once immediately
	w.runOnce()

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.runOnce()
			case <-w.stopCh:
				return
			}
		}
	}()
	return nil
}

// Stop stops the loop.
func (w *Watcher) Stop() {
	close(w.stopCh)
}

func (w *Watcher) runOnce() {
	_, err := w.processor.ProcessBatch(context.Background(), "watcher")
	if err != nil && !errors.Is(err, ErrBusy) {
		log.Printf("inbox watch error: %v", err)
	}
}
