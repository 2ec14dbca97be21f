// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/stretchr/testify/assert"
)

type testConsumer struct {
	id       string
	mu       sync.Mutex
	received []*e2ap.RICIndication
	notify   chan struct{}
	failing  bool
}

func newTestConsumer(id string) *testConsumer {
	return &testConsumer{id: id, notify: make(chan struct{}, 64)}
}

func (c *testConsumer) ID() string { return c.id }

func (c *testConsumer) HandleIndication(ind *e2ap.RICIndication) {
	if c.failing {
		panic("subscriber failure")
	}
	c.mu.Lock()
	c.received = append(c.received, ind)
	c.mu.Unlock()
	c.notify <- struct{}{}
}

func (c *testConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func kpmFunction() e2ap.RanFunction {
	return e2ap.RanFunction{ID: 2, Revision: 1, OID: "1.3.6.1.4.1.53148.1.2.2.2"}
}

func ntnFunction() e2ap.RanFunction {
	return e2ap.RanFunction{ID: 10, Revision: 1, OID: "1.3.6.1.4.1.53148.1.2.2.10"}
}

func setupNode(t *testing.T, m *Manager, nodeID string, functions ...e2ap.RanFunction) {
	response := m.HandleE2Setup(&e2ap.E2SetupRequest{
		TransactionID: 1,
		NodeID:        nodeID,
		RanFunctions:  functions,
	})
	_, ok := response.(*e2ap.E2SetupResponse)
	assert.True(t, ok)
}

func indication(nodeID string, functionID int32, seq int64) *e2ap.RICIndication {
	return &e2ap.RICIndication{
		NodeID:         nodeID,
		RanFunctionID:  functionID,
		SequenceNumber: seq,
		Header:         []byte(`{"ran_function_id":10}`),
		Payload:        []byte(`{}`),
	}
}

func TestHandleE2Setup(t *testing.T) {
	m := NewManager()
	assert.NoError(t, m.Start())
	defer func() {
		assert.NoError(t, m.Stop())
	}()

	response := m.HandleE2Setup(&e2ap.E2SetupRequest{
		TransactionID: 1,
		NodeID:        "gnb-001",
		RanFunctions:  []e2ap.RanFunction{kpmFunction()},
	})
	resp, ok := response.(*e2ap.E2SetupResponse)
	assert.True(t, ok)
	assert.Equal(t, int32(1), resp.TransactionID)
	assert.Equal(t, []int32{2}, resp.AcceptedFunctions)

	node, err := m.GetNode("gnb-001")
	assert.NoError(t, err)
	assert.True(t, node.HasFunction(2))
	assert.False(t, node.HasFunction(10))
}

func TestHandleE2SetupMalformed(t *testing.T) {
	m := NewManager()
	response := m.HandleE2Setup(&e2ap.E2SetupRequest{TransactionID: 5})
	failure, ok := response.(*e2ap.E2SetupFailure)
	assert.True(t, ok)
	assert.Equal(t, e2ap.CauseMalformedMessage, failure.Cause.Code)
}

func TestHandleE2SetupIdempotent(t *testing.T) {
	m := NewManager()
	setupNode(t, m, "gnb-001", kpmFunction())
	setupNode(t, m, "gnb-001", kpmFunction(), ntnFunction())

	assert.Len(t, m.Nodes(), 1)
	node, err := m.GetNode("gnb-001")
	assert.NoError(t, err)
	assert.True(t, node.HasFunction(10))
}

func TestSubscribeUnknownFunction(t *testing.T) {
	m := NewManager()
	setupNode(t, m, "gnb-001", kpmFunction())

	_, err := m.Subscribe(context.Background(), "gnb-001", 99, newTestConsumer("xapp-a"), e2ap.ReportingParams{})
	assert.Error(t, err)

	_, err = m.Subscribe(context.Background(), "gnb-missing", 2, newTestConsumer("xapp-a"), e2ap.ReportingParams{})
	assert.Error(t, err)

	assert.Empty(t, m.Subscriptions())
}

func TestSubscribeDuplicate(t *testing.T) {
	m := NewManager()
	setupNode(t, m, "gnb-001", ntnFunction())
	consumer := newTestConsumer("xapp-a")

	_, err := m.Subscribe(context.Background(), "gnb-001", 10, consumer, e2ap.ReportingParams{})
	assert.NoError(t, err)
	_, err = m.Subscribe(context.Background(), "gnb-001", 10, consumer, e2ap.ReportingParams{})
	assert.Error(t, err)
	assert.Len(t, m.Subscriptions(), 1)
}

func TestRouteIndication(t *testing.T) {
	m := NewManager()
	setupNode(t, m, "gnb-001", ntnFunction())

	consumer := newTestConsumer("xapp-a")
	_, err := m.Subscribe(context.Background(), "gnb-001", 10, consumer, e2ap.ReportingParams{})
	assert.NoError(t, err)

	for seq := int64(1); seq <= 5; seq++ {
		assert.NoError(t, m.RouteIndication(indication("gnb-001", 10, seq)))
	}

	for i := 0; i < 5; i++ {
		select {
		case <-consumer.notify:
		case <-time.After(2 * time.Second):
			t.Fatal("indication not delivered")
		}
	}

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	for i, ind := range consumer.received {
		assert.Equal(t, int64(i+1), ind.SequenceNumber)
	}
}

func TestRouteIndicationUnknownProvenance(t *testing.T) {
	m := NewManager()
	setupNode(t, m, "gnb-001", kpmFunction())

	assert.Error(t, m.RouteIndication(indication("gnb-missing", 2, 1)))
	assert.Error(t, m.RouteIndication(indication("gnb-001", 10, 1)))
}

func TestFanOutIsolation(t *testing.T) {
	m := NewManager()
	setupNode(t, m, "gnb-001", ntnFunction())

	failing := newTestConsumer("xapp-a")
	failing.failing = true
	healthy := newTestConsumer("xapp-b")

	_, err := m.Subscribe(context.Background(), "gnb-001", 10, failing, e2ap.ReportingParams{})
	assert.NoError(t, err)
	_, err = m.Subscribe(context.Background(), "gnb-001", 10, healthy, e2ap.ReportingParams{})
	assert.NoError(t, err)

	assert.NoError(t, m.RouteIndication(indication("gnb-001", 10, 1)))

	select {
	case <-healthy.notify:
		assert.Equal(t, 1, healthy.count())
	case <-time.After(2 * time.Second):
		t.Fatal("failing subscriber blocked delivery to healthy one")
	}
}

func TestUnsubscribe(t *testing.T) {
	m := NewManager()
	setupNode(t, m, "gnb-001", ntnFunction())

	consumer := newTestConsumer("xapp-a")
	subID, err := m.Subscribe(context.Background(), "gnb-001", 10, consumer, e2ap.ReportingParams{})
	assert.NoError(t, err)

	assert.NoError(t, m.Unsubscribe(context.Background(), subID))
	assert.Error(t, m.Unsubscribe(context.Background(), subID))
	assert.Empty(t, m.Subscriptions())

	// routed indications no longer reach the consumer
	assert.NoError(t, m.RouteIndication(indication("gnb-001", 10, 1)))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, consumer.count())
}

func TestControlDuringDisconnect(t *testing.T) {
	m := NewManager()
	setupNode(t, m, "gnb-001", ntnFunction())

	// control requests racing the association teardown must resolve to an
	// error, never touch a torn-down termination
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := m.Control(context.Background(), "gnb-001", 10, []byte(`{}`), []byte(`{}`))
			assert.Error(t, err)
		}()
		go func() {
			defer wg.Done()
			m.handleNodeDisconnect("gnb-001", nil)
		}()
		wg.Wait()
	}
}

func TestUnsubscribeDuringRouting(t *testing.T) {
	m := NewManager()
	assert.NoError(t, m.Start())
	setupNode(t, m, "gnb-001", ntnFunction())

	// deliveries racing a subscription delete or a full stop either land or
	// fail with a registry error; the routing loop itself must survive
	for i := 0; i < 50; i++ {
		consumer := newTestConsumer("xapp-a")
		subID, err := m.Subscribe(context.Background(), "gnb-001", 10, consumer, e2ap.ReportingParams{})
		assert.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for seq := int64(1); seq <= 10; seq++ {
				_ = m.RouteIndication(indication("gnb-001", 10, seq))
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Unsubscribe(context.Background(), subID))
		}()
		wg.Wait()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for seq := int64(1); seq <= 10; seq++ {
			_ = m.RouteIndication(indication("gnb-001", 10, seq))
		}
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, m.Stop())
	}()
	wg.Wait()
}

func TestStopClearsRegistry(t *testing.T) {
	m := NewManager()
	assert.NoError(t, m.Start())
	assert.NoError(t, m.Start())
	setupNode(t, m, "gnb-001", kpmFunction())

	assert.NoError(t, m.Stop())
	assert.Empty(t, m.Nodes())
	assert.NoError(t, m.Stop())
}
