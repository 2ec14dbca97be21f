// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"sync"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
)

var log = logging.GetLogger("broker")

const bufferSize = 128

// Handler consumes indications delivered on one stream
type Handler func(*e2ap.RICIndication)

// StreamID identifies a stream within a broker
type StreamID int

// Broker fans indications out to per-subscription streams. Each stream has
// its own buffer and consumer goroutine, so indications on one stream are
// delivered in FIFO order and a misbehaving consumer cannot block or abort
// delivery on any other stream.
type Broker interface {
	// OpenStream creates a stream delivering to the given handler
	OpenStream(handler Handler) StreamID

	// CloseStream tears a stream down; buffered indications are dropped
	CloseStream(id StreamID) error

	// Send enqueues an indication on a stream without blocking
	Send(id StreamID, ind *e2ap.RICIndication) error

	// Close tears down all streams
	Close()
}

// NewBroker creates a new stream broker
func NewBroker() Broker {
	return &broker{
		streams: make(map[StreamID]*stream),
	}
}

type broker struct {
	mu      sync.RWMutex
	streams map[StreamID]*stream
	nextID  StreamID
	closed  bool
}

type stream struct {
	id      StreamID
	ch      chan *e2ap.RICIndication
	handler Handler
}

func (b *broker) OpenStream(handler Handler) StreamID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &stream{
		id:      b.nextID,
		ch:      make(chan *e2ap.RICIndication, bufferSize),
		handler: handler,
	}
	b.streams[s.id] = s
	go s.run()
	return s.id
}

func (b *broker) CloseStream(id StreamID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.streams[id]
	if !ok {
		return errors.New(errors.NotFound, "stream %d not found", id)
	}
	delete(b.streams, id)
	close(s.ch)
	return nil
}

func (b *broker) Send(id StreamID, ind *e2ap.RICIndication) error {
	// the read lock is held across the send: streams are closed under the
	// write lock, so the channel cannot be closed mid-send
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.streams[id]
	if !ok {
		return errors.New(errors.NotFound, "stream %d not found", id)
	}
	select {
	case s.ch <- ind:
		return nil
	default:
		log.Warnf("stream %d full, dropping indication seq %d from %s", id, ind.SequenceNumber, ind.NodeID)
		return errors.New(errors.Unavailable, "stream %d buffer full", id)
	}
}

func (b *broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.streams {
		delete(b.streams, id)
		close(s.ch)
	}
}

// run is the stream's only consumer; it preserves enqueue order and survives
// handler panics so one subscriber cannot corrupt the delivery loop.
func (s *stream) run() {
	for ind := range s.ch {
		s.deliver(ind)
	}
}

func (s *stream) deliver(ind *e2ap.RICIndication) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("stream %d handler panic: %v", s.id, r)
		}
	}()
	s.handler(ind)
}

var _ Broker = &broker{}
