// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
)

var log = logging.GetLogger("southbound", "e2")

// State is the termination point association state
type State int32

const (
	// StateDisconnected no transport association
	StateDisconnected State = iota
	// StateConnecting transport dial in progress
	StateConnecting
	// StateSetupPending association established, setup handshake in flight
	StateSetupPending
	// StateOperational setup complete, indications flowing
	StateOperational
)

func (s State) String() string {
	return [...]string{"Disconnected", "Connecting", "SetupPending", "Operational"}[s]
}

// Termination owns one transport association to a RAN node's E2 termination.
// It drives the setup handshake, decodes inbound frames into indications and
// forwards them upward in decode order, and encodes outbound subscription and
// control requests. Exactly one Termination owns a given association; all
// writes go through its write lock. Reconnection after a failure is the
// owning manager's responsibility, never this component's.
type Termination struct {
	nodeID    string
	address   string
	functions []e2ap.RanFunction

	dialer         Dialer
	setupTimeout   time.Duration
	requestTimeout time.Duration

	indicationHandler IndicationHandler
	disconnectHandler DisconnectHandler

	mu       sync.Mutex
	state    State
	conn     net.Conn
	closedCh chan struct{}
	setupCh  chan e2ap.Message

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[int64]chan e2ap.Message

	transactionID int32
	nextRequestID int64
}

// NewTermination creates a termination point for one RAN node
func NewTermination(opts ...Option) (*Termination, error) {
	options := Options{}
	for _, opt := range opts {
		opt.apply(&options)
	}
	if options.Node.NodeID == "" {
		return nil, errors.New(errors.Invalid, "termination requires a node id")
	}
	if options.Transport.Address == "" {
		return nil, errors.New(errors.Invalid, "termination requires an E2 address")
	}
	if options.Transport.Dialer == nil {
		options.Transport.Dialer = DefaultDialer
	}
	if options.Transport.SetupTimeout == 0 {
		options.Transport.SetupTimeout = defaultSetupTimeout
	}
	if options.Transport.RequestTimeout == 0 {
		options.Transport.RequestTimeout = defaultRequestTimeout
	}
	return &Termination{
		nodeID:            options.Node.NodeID,
		address:           options.Transport.Address,
		functions:         options.Node.RanFunctions,
		dialer:            options.Transport.Dialer,
		setupTimeout:      options.Transport.SetupTimeout,
		requestTimeout:    options.Transport.RequestTimeout,
		indicationHandler: options.Handlers.Indication,
		disconnectHandler: options.Handlers.Disconnect,
		pending:           make(map[int64]chan e2ap.Message),
	}, nil
}

// NodeID returns the managed node's global identifier
func (t *Termination) NodeID() string { return t.nodeID }

// RanFunctions returns the function catalogue registered at setup time
func (t *Termination) RanFunctions() []e2ap.RanFunction { return t.functions }

// State returns the current association state
func (t *Termination) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connect dials the node and drives the setup handshake. On success the
// termination is Operational and the setup response is returned. On failure
// or timeout the termination reverts to Disconnected.
func (t *Termination) Connect(ctx context.Context) (*e2ap.E2SetupResponse, error) {
	t.mu.Lock()
	if t.state != StateDisconnected {
		state := t.state
		t.mu.Unlock()
		return nil, errors.New(errors.Conflict, "termination for %s is %s, not Disconnected", t.nodeID, state)
	}
	t.state = StateConnecting
	t.mu.Unlock()

	conn, err := t.dialer(ctx, t.address)
	if err != nil {
		t.setState(StateDisconnected)
		return nil, errors.New(errors.Unavailable, "cannot connect to %s at %s: %v", t.nodeID, t.address, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.state = StateSetupPending
	t.closedCh = make(chan struct{})
	t.setupCh = make(chan e2ap.Message, 1)
	closedCh := t.closedCh
	setupCh := t.setupCh
	t.mu.Unlock()

	go t.readLoop(conn)

	request := &e2ap.E2SetupRequest{
		TransactionID: atomic.AddInt32(&t.transactionID, 1),
		NodeID:        t.nodeID,
		RanFunctions:  t.functions,
	}
	if err := t.write(request); err != nil {
		t.teardown(nil)
		return nil, errors.New(errors.Unavailable, "cannot send setup request to %s: %v", t.nodeID, err)
	}

	select {
	case msg := <-setupCh:
		switch m := msg.(type) {
		case *e2ap.E2SetupResponse:
			if m.TransactionID != request.TransactionID {
				t.teardown(nil)
				return nil, errors.New(errors.Invalid, "setup response transaction id %d does not match %d",
					m.TransactionID, request.TransactionID)
			}
			t.setState(StateOperational)
			log.Infof("E2 setup complete for %s: accepted functions %v", t.nodeID, m.AcceptedFunctions)
			return m, nil
		case *e2ap.E2SetupFailure:
			t.teardown(nil)
			return nil, errors.New(errors.Unavailable, "E2 setup for %s rejected: %s", t.nodeID, m.Cause.Reason)
		default:
			t.teardown(nil)
			return nil, errors.New(errors.Invalid, "unexpected %s during setup", msg.MessageType())
		}
	case <-closedCh:
		return nil, errors.New(errors.Unavailable, "association to %s lost during setup", t.nodeID)
	case <-time.After(t.setupTimeout):
		t.teardown(nil)
		return nil, errors.New(errors.Timeout, "E2 setup for %s timed out after %s", t.nodeID, t.setupTimeout)
	case <-ctx.Done():
		t.teardown(nil)
		return nil, ctx.Err()
	}
}

// Subscribe sends a RIC Subscription Request and waits for the node's answer
// within the request timeout. A timeout or failure affects only this request.
func (t *Termination) Subscribe(ctx context.Context, functionID int32, params e2ap.ReportingParams) (*e2ap.RICSubscriptionResponse, error) {
	request := &e2ap.RICSubscriptionRequest{
		RequestID:     atomic.AddInt64(&t.nextRequestID, 1),
		NodeID:        t.nodeID,
		RanFunctionID: functionID,
		Params:        params,
	}
	msg, err := t.transact(ctx, request.RequestID, request)
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *e2ap.RICSubscriptionResponse:
		return m, nil
	case *e2ap.RICSubscriptionFailure:
		return nil, failureError("subscription", m.Cause)
	default:
		return nil, errors.New(errors.Invalid, "unexpected %s in reply to subscription request", msg.MessageType())
	}
}

// SubscribeDelete sends a RIC Subscription Delete Request
func (t *Termination) SubscribeDelete(ctx context.Context, functionID int32) error {
	request := &e2ap.RICSubscriptionDeleteRequest{
		RequestID:     atomic.AddInt64(&t.nextRequestID, 1),
		RanFunctionID: functionID,
	}
	msg, err := t.transact(ctx, request.RequestID, request)
	if err != nil {
		return err
	}
	if failure, ok := msg.(*e2ap.RICSubscriptionFailure); ok {
		return failureError("subscription delete", failure.Cause)
	}
	return nil
}

// Control sends a RIC Control Request carrying a service model encoded
// header and payload and waits for the node's answer.
func (t *Termination) Control(ctx context.Context, functionID int32, header, payload []byte) (*e2ap.RICControlResponse, error) {
	request := &e2ap.RICControlRequest{
		RequestID:     atomic.AddInt64(&t.nextRequestID, 1),
		NodeID:        t.nodeID,
		RanFunctionID: functionID,
		Header:        header,
		Payload:       payload,
	}
	msg, err := t.transact(ctx, request.RequestID, request)
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *e2ap.RICControlResponse:
		return m, nil
	case *e2ap.RICControlFailure:
		return nil, failureError("control", m.Cause)
	default:
		return nil, errors.New(errors.Invalid, "unexpected %s in reply to control request", msg.MessageType())
	}
}

// Close tears the association down without invoking the disconnect handler
func (t *Termination) Close() {
	t.teardown(nil)
}

func (t *Termination) transact(ctx context.Context, requestID int64, request e2ap.Message) (e2ap.Message, error) {
	t.mu.Lock()
	if t.state != StateOperational {
		state := t.state
		t.mu.Unlock()
		return nil, errors.New(errors.Unavailable, "termination for %s is %s, not Operational", t.nodeID, state)
	}
	closedCh := t.closedCh
	t.mu.Unlock()

	ch := make(chan e2ap.Message, 1)
	t.pendingMu.Lock()
	t.pending[requestID] = ch
	t.pendingMu.Unlock()
	defer func() {
		t.pendingMu.Lock()
		delete(t.pending, requestID)
		t.pendingMu.Unlock()
	}()

	if err := t.write(request); err != nil {
		return nil, errors.New(errors.Unavailable, "cannot send %s to %s: %v", request.MessageType(), t.nodeID, err)
	}

	select {
	case msg := <-ch:
		return msg, nil
	case <-closedCh:
		return nil, errors.New(errors.Unavailable, "association to %s lost", t.nodeID)
	case <-time.After(t.requestTimeout):
		return nil, errors.New(errors.Timeout, "%s to %s timed out after %s", request.MessageType(), t.nodeID, t.requestTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Termination) write(msg e2ap.Message) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return errors.New(errors.Unavailable, "no association")
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return e2ap.WriteMessage(conn, msg)
}

// readLoop is the association's only reader. Indications are forwarded
// synchronously so upward delivery preserves decode order.
func (t *Termination) readLoop(conn net.Conn) {
	for {
		msg, err := e2ap.ReadMessage(conn)
		if err != nil {
			t.handleTransportError(err)
			return
		}
		switch m := msg.(type) {
		case *e2ap.E2SetupResponse, *e2ap.E2SetupFailure:
			t.deliverSetup(msg)
		case *e2ap.RICIndication:
			if t.indicationHandler != nil {
				t.indicationHandler(m)
			}
		case *e2ap.RICSubscriptionResponse:
			t.deliverPending(m.RequestID, m)
		case *e2ap.RICSubscriptionFailure:
			t.deliverPending(m.RequestID, m)
		case *e2ap.RICControlResponse:
			t.deliverPending(m.RequestID, m)
		case *e2ap.RICControlFailure:
			t.deliverPending(m.RequestID, m)
		default:
			log.Warnf("unexpected %s from %s", msg.MessageType(), t.nodeID)
		}
	}
}

func (t *Termination) deliverSetup(msg e2ap.Message) {
	t.mu.Lock()
	ch := t.setupCh
	t.mu.Unlock()
	if ch == nil {
		log.Warnf("unsolicited %s from %s", msg.MessageType(), t.nodeID)
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

func (t *Termination) deliverPending(requestID int64, msg e2ap.Message) {
	t.pendingMu.Lock()
	ch, ok := t.pending[requestID]
	t.pendingMu.Unlock()
	if !ok {
		log.Warnf("reply %s from %s for unknown request %d", msg.MessageType(), t.nodeID, requestID)
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

func (t *Termination) handleTransportError(err error) {
	t.mu.Lock()
	wasOperational := t.state == StateOperational
	t.closeLocked()
	t.mu.Unlock()

	if wasOperational {
		log.Warnf("association to %s lost: %v", t.nodeID, err)
		if t.disconnectHandler != nil {
			t.disconnectHandler(t.nodeID, errors.New(errors.Unavailable, "association to %s lost: %v", t.nodeID, err))
		}
	}
}

func (t *Termination) teardown(err error) {
	t.mu.Lock()
	t.closeLocked()
	t.mu.Unlock()
	if err != nil {
		log.Warn(err)
	}
}

// closeLocked transitions to Disconnected and releases the association.
// Callers hold t.mu.
func (t *Termination) closeLocked() {
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	if t.closedCh != nil {
		select {
		case <-t.closedCh:
		default:
			close(t.closedCh)
		}
	}
	t.setupCh = nil
	t.state = StateDisconnected
}

func (t *Termination) setState(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

func failureError(op string, cause e2ap.Cause) error {
	if cause.Code == e2ap.CauseUnknownRanFunction || cause.Code == e2ap.CauseUnknownNode {
		return errors.New(errors.NotFound, "%s rejected: %s", op, cause.Reason)
	}
	return errors.New(errors.Unavailable, "%s rejected: %s", op, cause.Reason)
}
