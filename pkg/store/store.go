// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/store/event"
	"github.com/onosproject/onos-ntn-ric/pkg/store/watcher"
)

var log = logging.GetLogger("store", "records")

// Entry is a store entry
type Entry struct {
	Key   string
	Value interface{}
}

// Store is a watchable in-memory record store. xApps keep their live
// measurement state here; durable state goes through the SDL client instead.
type Store interface {
	// Put adds or replaces an entry
	Put(ctx context.Context, key string, value interface{}) (*Entry, error)

	// Get gets an entry based on a given key
	Get(ctx context.Context, key string) (*Entry, error)

	// HasEntry reports whether a key is present
	HasEntry(ctx context.Context, key string) bool

	// Delete deletes an entry based on a given key
	Delete(ctx context.Context, key string) error

	// Entries streams all entries to the given channel
	Entries(ctx context.Context, ch chan<- *Entry) error

	// Watch watches store changes
	Watch(ctx context.Context, ch chan<- event.Event) error
}

type store struct {
	records  map[string]*Entry
	mu       sync.RWMutex
	watchers *watcher.Watchers
}

// NewStore creates new store
func NewStore() Store {
	return &store{
		records:  make(map[string]*Entry),
		watchers: watcher.NewWatchers(),
	}
}

func (s *store) Put(ctx context.Context, key string, value interface{}) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, updated := s.records[key]
	entry := &Entry{
		Key:   key,
		Value: value,
	}
	s.records[key] = entry
	eventType := event.Created
	if updated {
		eventType = event.Updated
	}
	s.watchers.Send(event.Event{
		Key:   key,
		Value: entry,
		Type:  eventType,
	})
	return entry, nil
}

func (s *store) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.records[key]; ok {
		return v, nil
	}
	return nil, errors.New(errors.NotFound, "entry %s does not exist", key)
}

func (s *store) HasEntry(ctx context.Context, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

func (s *store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[key]
	if !ok {
		return nil
	}
	delete(s.records, key)
	s.watchers.Send(event.Event{
		Key:   key,
		Value: entry,
		Type:  event.Deleted,
	})
	return nil
}

func (s *store) Entries(ctx context.Context, ch chan<- *Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.records {
		ch <- entry
	}
	close(ch)
	return nil
}

func (s *store) Watch(ctx context.Context, ch chan<- event.Event) error {
	id := uuid.New()
	err := s.watchers.AddWatcher(id, ch)
	if err != nil {
		log.Error(err)
		close(ch)
		return err
	}
	go func() {
		<-ctx.Done()
		err := s.watchers.RemoveWatcher(id)
		if err != nil {
			log.Error(err)
		}
		close(ch)
	}()
	return nil
}

var _ Store = &store{}
