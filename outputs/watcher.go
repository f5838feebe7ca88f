package outputs

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Watcher polls a Display and keeps track of its outputs, notifying
// registered handlers about outputs appearing, changing or disappearing.
type Watcher struct {
	display Display

	outputs   map[string]Output
	last      []Output
	outputsMu sync.Mutex

	refreshInterval time.Duration

	// Called when the output appeared
	onAddFns []func(Output)
	// Called when the output was updated
	onUpdateFns []func(Output)
	// Called when the output was removed
	onRemoveFns []func(Output)
}

func NewWatcher(display Display, refreshInterval time.Duration) *Watcher {
	return &Watcher{
		display:         display,
		outputs:         make(map[string]Output),
		refreshInterval: refreshInterval,
	}
}

// Run polls the display until ctx is cancelled. Once cancelled, the remove
// handlers are called for all known outputs.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.refreshInterval)
	defer ticker.Stop()

	if err := w.Refresh(ctx); err != nil {
		log.WithError(err).Error("Failed to refresh outputs")
	}

	for {
		select {
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				log.WithError(err).Error("Failed to refresh outputs")
			}
		case <-ctx.Done():
			for _, output := range w.Outputs() {
				log.WithField("outputName", output.Name).Debug("calling cleanup handlers")
				for _, removeFn := range w.onRemoveFns {
					removeFn(output)
				}
			}
			return
		}
	}
}

// Register a new handler for when an output was added
func (w *Watcher) RegisterOutputAdd(fn func(Output)) {
	w.onAddFns = append(w.onAddFns, fn)
}

// Register a new handler for when an output was updated
func (w *Watcher) RegisterOutputUpdate(fn func(Output)) {
	w.onUpdateFns = append(w.onUpdateFns, fn)
}

// Register a new handler for when an output was removed
func (w *Watcher) RegisterOutputRemove(fn func(Output)) {
	w.onRemoveFns = append(w.onRemoveFns, fn)
}

// Outputs returns the outputs seen during the last refresh, in the order the
// display reported them.
func (w *Watcher) Outputs() []Output {
	w.outputsMu.Lock()
	defer w.outputsMu.Unlock()

	return append([]Output(nil), w.last...)
}

// Refresh fetches the current config from the display and syncs it with the
// internal state, invoking handlers for every difference.
func (w *Watcher) Refresh(ctx context.Context) error {
	l := log.WithField("f", "Refresh")
	l.Debug("refreshing outputs")

	cfg, err := w.display.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get display config: %w", err)
	}

	var added, updated, removed []Output

	w.outputsMu.Lock()
	seenOutputNames := make(map[string]struct{}, len(cfg.Outputs))

	for _, newOutput := range cfg.Outputs {
		seenOutputNames[newOutput.Name] = struct{}{}

		oldOutput, old := w.outputs[newOutput.Name]
		w.outputs[newOutput.Name] = newOutput

		if !old {
			added = append(added, newOutput)
		} else if !oldOutput.Equal(&newOutput) {
			updated = append(updated, newOutput)
		}
	}

	// remove outputs we didn't see anymore.
	for prevOutputName, prevOutput := range w.outputs {
		if _, found := seenOutputNames[prevOutputName]; !found {
			delete(w.outputs, prevOutputName)
			removed = append(removed, prevOutput)
		}
	}
	w.last = append(w.last[:0:0], cfg.Outputs...)
	w.outputsMu.Unlock()

	// handlers run without holding the lock, so they may call Outputs().
	for _, o := range added {
		l.WithField("outputName", o.Name).Debug("calling add fns")
		for _, addFn := range w.onAddFns {
			addFn(o)
		}
	}
	for _, o := range updated {
		l.WithField("outputName", o.Name).Debug("calling update fns")
		for _, updateFn := range w.onUpdateFns {
			updateFn(o)
		}
	}
	for _, o := range removed {
		l.WithField("outputName", o.Name).Debug("calling remove fns")
		for _, removeFn := range w.onRemoveFns {
			removeFn(o)
		}
	}

	return nil
}
