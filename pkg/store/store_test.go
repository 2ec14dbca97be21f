// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"testing"
	"time"

	"github.com/onosproject/onos-ntn-ric/pkg/store/event"
	"github.com/stretchr/testify/assert"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Get(ctx, "UE-1")
	assert.Error(t, err)
	assert.False(t, s.HasEntry(ctx, "UE-1"))

	entry, err := s.Put(ctx, "UE-1", -85.0)
	assert.NoError(t, err)
	assert.Equal(t, "UE-1", entry.Key)

	got, err := s.Get(ctx, "UE-1")
	assert.NoError(t, err)
	assert.Equal(t, -85.0, got.Value)
	assert.True(t, s.HasEntry(ctx, "UE-1"))

	assert.NoError(t, s.Delete(ctx, "UE-1"))
	_, err = s.Get(ctx, "UE-1")
	assert.Error(t, err)
}

func TestEntries(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, key := range []string{"UE-1", "UE-2", "UE-3"} {
		_, err := s.Put(ctx, key, key)
		assert.NoError(t, err)
	}

	ch := make(chan *Entry, 8)
	assert.NoError(t, s.Entries(ctx, ch))

	var keys []string
	for entry := range ch {
		keys = append(keys, entry.Key)
	}
	assert.Len(t, keys, 3)
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewStore()

	ch := make(chan event.Event, 8)
	assert.NoError(t, s.Watch(ctx, ch))

	_, err := s.Put(ctx, "UE-1", 1)
	assert.NoError(t, err)
	_, err = s.Put(ctx, "UE-1", 2)
	assert.NoError(t, err)
	assert.NoError(t, s.Delete(ctx, "UE-1"))

	expected := []event.EventType{event.Created, event.Updated, event.Deleted}
	for _, want := range expected {
		select {
		case e := <-ch:
			assert.Equal(t, want, e.Type)
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", want)
		}
	}
}
