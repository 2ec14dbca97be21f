// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"sync"

	"github.com/google/uuid"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-ntn-ric/pkg/store/event"
)

// Watchers fans store events out to registered watcher channels
type Watchers struct {
	mu       sync.RWMutex
	watchers map[uuid.UUID]chan<- event.Event
}

// NewWatchers creates watchers
func NewWatchers() *Watchers {
	return &Watchers{
		watchers: make(map[uuid.UUID]chan<- event.Event),
	}
}

// AddWatcher adds a watcher channel under an id
func (w *Watchers) AddWatcher(id uuid.UUID, ch chan<- event.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watchers[id]; ok {
		return errors.New(errors.AlreadyExists, "watcher %s already exists", id)
	}
	w.watchers[id] = ch
	return nil
}

// RemoveWatcher removes a watcher by id
func (w *Watchers) RemoveWatcher(id uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watchers[id]; !ok {
		return errors.New(errors.NotFound, "watcher %s not found", id)
	}
	delete(w.watchers, id)
	return nil
}

// Send delivers an event to every watcher. A watcher that cannot keep up
// misses the event rather than blocking the store.
func (w *Watchers) Send(e event.Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, ch := range w.watchers {
		select {
		case ch <- e:
		default:
		}
	}
}
