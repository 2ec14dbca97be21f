// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2

import (
	"context"
	"sync"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/broker"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	southbound "github.com/onosproject/onos-ntn-ric/pkg/southbound/e2"
	"github.com/onosproject/onos-ntn-ric/pkg/utils/id"
)

var log = logging.GetLogger("e2", "manager")

// Consumer receives indications routed under a subscription. One consumer's
// failure must never block delivery to another.
type Consumer interface {
	// ID is the subscriber identity, unique among consumers
	ID() string

	// HandleIndication is invoked once per routed indication
	HandleIndication(ind *e2ap.RICIndication)
}

// E2Node is a connected RAN node and the function catalogue it registered at
// setup time. Functions are immutable after setup; a repeated setup replaces
// the whole entry.
type E2Node struct {
	NodeID       string             `json:"node_id"`
	RanFunctions []e2ap.RanFunction `json:"ran_functions"`
	Connected    bool               `json:"connected"`

	termination *southbound.Termination
}

// HasFunction reports whether the node advertises the given RAN function
func (n *E2Node) HasFunction(functionID int32) bool {
	for _, rf := range n.RanFunctions {
		if rf.ID == functionID {
			return true
		}
	}
	return false
}

// Subscription is one consumer's registration for a (node, function) stream
type Subscription struct {
	ID            string               `json:"id"`
	NodeID        string               `json:"node_id"`
	RanFunctionID int32                `json:"ran_function_id"`
	Subscriber    string               `json:"subscriber"`
	Params        e2ap.ReportingParams `json:"params"`

	streamID broker.StreamID
}

// Manager is the E2 interface manager: the registry of connected nodes and
// active subscriptions, and the fan-out point for indications. Registries are
// mutated only by the manager's own methods; reads observe a consistent
// snapshot under the registry lock.
type Manager struct {
	mu            sync.RWMutex
	started       bool
	nodes         map[string]*E2Node
	subscriptions map[string]*Subscription
	streams       broker.Broker
}

// NewManager creates a new E2 interface manager
func NewManager() *Manager {
	return &Manager{
		nodes:         make(map[string]*E2Node),
		subscriptions: make(map[string]*Subscription),
		streams:       broker.NewBroker(),
	}
}

// Start makes the manager ready to accept setups and subscriptions. Safe to
// call more than once.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true
	log.Info("E2 interface manager started")
	return nil
}

// Stop tears down all termination points and clears the registries
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	terminations := make([]*southbound.Termination, 0, len(m.nodes))
	for _, node := range m.nodes {
		if node.termination != nil {
			terminations = append(terminations, node.termination)
		}
	}
	m.nodes = make(map[string]*E2Node)
	m.subscriptions = make(map[string]*Subscription)
	streams := m.streams
	m.streams = broker.NewBroker()
	m.mu.Unlock()

	for _, term := range terminations {
		term.Close()
	}
	streams.Close()
	log.Info("E2 interface manager stopped")
	return nil
}

// HandleE2Setup validates a setup request and records the node and its
// functions. The response echoes the request's transaction id. Idempotent: a
// repeated setup for the same node id atomically replaces the prior entry.
func (m *Manager) HandleE2Setup(request *e2ap.E2SetupRequest) e2ap.Message {
	if request == nil || request.NodeID == "" {
		return &e2ap.E2SetupFailure{
			Cause: e2ap.Cause{Code: e2ap.CauseMalformedMessage, Reason: "setup request missing node id"},
		}
	}

	m.mu.Lock()
	if prior, ok := m.nodes[request.NodeID]; ok {
		m.invalidateSubscriptionsLocked(prior.NodeID)
	}
	node := &E2Node{
		NodeID:       request.NodeID,
		RanFunctions: request.RanFunctions,
		Connected:    true,
	}
	m.nodes[request.NodeID] = node
	m.mu.Unlock()

	accepted := make([]int32, 0, len(request.RanFunctions))
	for _, rf := range request.RanFunctions {
		accepted = append(accepted, rf.ID)
	}
	log.Infof("E2 node %s registered with functions %v", request.NodeID, accepted)
	return &e2ap.E2SetupResponse{
		TransactionID:     request.TransactionID,
		AcceptedFunctions: accepted,
	}
}

// ConnectNode creates a termination point for the node, drives the setup
// handshake, and records the node on success. Indications decoded by the
// termination are routed through this manager; association loss invalidates
// the node's subscriptions.
func (m *Manager) ConnectNode(ctx context.Context, address string, nodeID string, functions []e2ap.RanFunction, opts ...southbound.Option) error {
	base := []southbound.Option{
		southbound.WithNodeID(nodeID),
		southbound.WithAddress(address),
		southbound.WithRanFunctions(functions),
		southbound.WithIndicationHandler(func(ind *e2ap.RICIndication) {
			if err := m.RouteIndication(ind); err != nil {
				log.Warn(err)
			}
		}),
		southbound.WithDisconnectHandler(m.handleNodeDisconnect),
	}
	term, err := southbound.NewTermination(append(base, opts...)...)
	if err != nil {
		return err
	}

	response, err := term.Connect(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if prior, ok := m.nodes[nodeID]; ok {
		m.invalidateSubscriptionsLocked(nodeID)
		if prior.termination != nil && prior.termination != term {
			defer prior.termination.Close()
		}
	}
	m.nodes[nodeID] = &E2Node{
		NodeID:       nodeID,
		RanFunctions: functions,
		Connected:    true,
		termination:  term,
	}
	m.mu.Unlock()

	log.Infof("connected E2 node %s at %s, accepted functions %v", nodeID, address, response.AcceptedFunctions)
	return nil
}

// Subscribe registers a consumer for the (node, function) indication stream.
// Fails if the node is unknown or does not advertise the function. The
// subscription takes effect atomically with respect to in-flight routing.
func (m *Manager) Subscribe(ctx context.Context, nodeID string, functionID int32, consumer Consumer, params e2ap.ReportingParams) (string, error) {
	m.mu.Lock()
	node, ok := m.nodes[nodeID]
	if !ok {
		m.mu.Unlock()
		return "", errors.New(errors.NotFound, "E2 node %s is not registered", nodeID)
	}
	if !node.HasFunction(functionID) {
		m.mu.Unlock()
		return "", errors.New(errors.NotFound, "E2 node %s does not advertise RAN function %d", nodeID, functionID)
	}
	key := id.ConsumerKey(nodeID, functionID, consumer.ID())
	for _, sub := range m.subscriptions {
		if id.ConsumerKey(sub.NodeID, sub.RanFunctionID, sub.Subscriber) == key {
			m.mu.Unlock()
			return "", errors.New(errors.AlreadyExists, "subscriber %s already subscribed to (%s, %d)",
				consumer.ID(), nodeID, functionID)
		}
	}

	sub := &Subscription{
		ID:            id.NewSubscriptionID(),
		NodeID:        nodeID,
		RanFunctionID: functionID,
		Subscriber:    consumer.ID(),
		Params:        params,
		streamID:      m.streams.OpenStream(consumer.HandleIndication),
	}
	m.subscriptions[sub.ID] = sub
	term := node.termination
	streams := m.streams
	m.mu.Unlock()

	// forward the subscription to the node itself when an association exists
	if term != nil {
		if _, err := term.Subscribe(ctx, functionID, params); err != nil {
			m.mu.Lock()
			delete(m.subscriptions, sub.ID)
			m.mu.Unlock()
			_ = streams.CloseStream(sub.streamID)
			return "", err
		}
	}

	log.Infof("subscription %s: %s -> (%s, %d)", sub.ID, consumer.ID(), nodeID, functionID)
	return sub.ID, nil
}

// Unsubscribe deletes a subscription by id
func (m *Manager) Unsubscribe(ctx context.Context, subscriptionID string) error {
	m.mu.Lock()
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		m.mu.Unlock()
		return errors.New(errors.NotFound, "subscription %s not found", subscriptionID)
	}
	delete(m.subscriptions, subscriptionID)
	var term *southbound.Termination
	if node, ok := m.nodes[sub.NodeID]; ok {
		term = node.termination
	}
	streams := m.streams
	m.mu.Unlock()

	_ = streams.CloseStream(sub.streamID)
	if term != nil {
		if err := term.SubscribeDelete(ctx, sub.RanFunctionID); err != nil {
			log.Warn(err)
		}
	}
	log.Infof("subscription %s deleted", subscriptionID)
	return nil
}

// RouteIndication fans an indication out to every subscription matching its
// (node, function) pair. Delivery to one subscriber is isolated from the
// others; the routing call itself never blocks on a consumer.
func (m *Manager) RouteIndication(ind *e2ap.RICIndication) error {
	if ind == nil {
		return errors.New(errors.Invalid, "nil indication")
	}

	m.mu.RLock()
	node, ok := m.nodes[ind.NodeID]
	if !ok {
		m.mu.RUnlock()
		return errors.New(errors.NotFound, "indication from unregistered node %s", ind.NodeID)
	}
	if !node.HasFunction(ind.RanFunctionID) {
		m.mu.RUnlock()
		return errors.New(errors.NotFound, "indication for function %d not registered by node %s",
			ind.RanFunctionID, ind.NodeID)
	}
	matched := make([]broker.StreamID, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.NodeID == ind.NodeID && sub.RanFunctionID == ind.RanFunctionID {
			matched = append(matched, sub.streamID)
		}
	}
	streams := m.streams
	m.mu.RUnlock()

	for _, streamID := range matched {
		if err := streams.Send(streamID, ind); err != nil {
			log.Warn(err)
		}
	}
	return nil
}

// Control forwards a control request to the node owning the association
func (m *Manager) Control(ctx context.Context, nodeID string, functionID int32, header, payload []byte) (*e2ap.RICControlResponse, error) {
	m.mu.RLock()
	node, ok := m.nodes[nodeID]
	if !ok {
		m.mu.RUnlock()
		return nil, errors.New(errors.NotFound, "E2 node %s is not registered", nodeID)
	}
	hasFunction := node.HasFunction(functionID)
	term := node.termination
	m.mu.RUnlock()

	if !hasFunction {
		return nil, errors.New(errors.NotFound, "E2 node %s does not advertise RAN function %d", nodeID, functionID)
	}
	if term == nil {
		return nil, errors.New(errors.Unavailable, "E2 node %s has no association", nodeID)
	}
	return term.Control(ctx, functionID, header, payload)
}

// GetNode returns a snapshot of one registered node
func (m *Manager) GetNode(nodeID string) (*E2Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.nodes[nodeID]
	if !ok {
		return nil, errors.New(errors.NotFound, "E2 node %s is not registered", nodeID)
	}
	snapshot := *node
	snapshot.termination = nil
	return &snapshot, nil
}

// Nodes returns a snapshot of all registered nodes
func (m *Manager) Nodes() []*E2Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	nodes := make([]*E2Node, 0, len(m.nodes))
	for _, node := range m.nodes {
		snapshot := *node
		snapshot.termination = nil
		nodes = append(nodes, &snapshot)
	}
	return nodes
}

// Subscriptions returns a snapshot of all active subscriptions
func (m *Manager) Subscriptions() []Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subs := make([]Subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}

// handleNodeDisconnect invalidates a disconnected node and everything that
// depends on it. Reconnection is the process manager's decision, not ours.
func (m *Manager) handleNodeDisconnect(nodeID string, err error) {
	log.Warnf("E2 node %s disconnected: %v", nodeID, err)
	m.mu.Lock()
	if node, ok := m.nodes[nodeID]; ok {
		node.Connected = false
		node.termination = nil
	}
	m.invalidateSubscriptionsLocked(nodeID)
	m.mu.Unlock()
}

// invalidateSubscriptionsLocked removes every subscription owned by a node.
// Callers hold m.mu.
func (m *Manager) invalidateSubscriptionsLocked(nodeID string) {
	streams := m.streams
	for id, sub := range m.subscriptions {
		if sub.NodeID == nodeID {
			delete(m.subscriptions, id)
			streamID := sub.streamID
			go func() {
				_ = streams.CloseStream(streamID)
			}()
			log.Infof("subscription %s invalidated: node %s gone", id, nodeID)
		}
	}
}
