// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/stretchr/testify/assert"
)

// fakeNode is the RAN side of a piped association, answering E2AP requests
// the way a node simulator would.
type fakeNode struct {
	conn  net.Conn
	ready chan struct{}
}

func pipeDialer(t *testing.T) (Dialer, *fakeNode) {
	node := &fakeNode{ready: make(chan struct{})}
	dialer := func(ctx context.Context, address string) (net.Conn, error) {
		local, remote := net.Pipe()
		node.conn = remote
		close(node.ready)
		return local, nil
	}
	_ = t
	return dialer, node
}

// serve accepts the setup handshake and then answers subscription and
// control requests until the association closes.
func (n *fakeNode) serve(t *testing.T, acceptSetup bool) {
	<-n.ready
	for {
		msg, err := e2ap.ReadMessage(n.conn)
		if err != nil {
			return
		}
		switch m := msg.(type) {
		case *e2ap.E2SetupRequest:
			if acceptSetup {
				var accepted []int32
				for _, rf := range m.RanFunctions {
					accepted = append(accepted, rf.ID)
				}
				err = e2ap.WriteMessage(n.conn, &e2ap.E2SetupResponse{
					TransactionID:     m.TransactionID,
					AcceptedFunctions: accepted,
				})
			} else {
				err = e2ap.WriteMessage(n.conn, &e2ap.E2SetupFailure{
					TransactionID: m.TransactionID,
					Cause:         e2ap.Cause{Code: e2ap.CauseUnspecified, Reason: "node not ready"},
				})
			}
			assert.NoError(t, err)
		case *e2ap.RICSubscriptionRequest:
			if m.RanFunctionID == 99 {
				err = e2ap.WriteMessage(n.conn, &e2ap.RICSubscriptionFailure{
					RequestID:     m.RequestID,
					RanFunctionID: m.RanFunctionID,
					Cause:         e2ap.Cause{Code: e2ap.CauseUnknownRanFunction, Reason: "function 99 not registered"},
				})
			} else {
				err = e2ap.WriteMessage(n.conn, &e2ap.RICSubscriptionResponse{
					RequestID:     m.RequestID,
					RanFunctionID: m.RanFunctionID,
				})
			}
			assert.NoError(t, err)
		case *e2ap.RICControlRequest:
			err = e2ap.WriteMessage(n.conn, &e2ap.RICControlResponse{
				RequestID:     m.RequestID,
				RanFunctionID: m.RanFunctionID,
			})
			assert.NoError(t, err)
		}
	}
}

func newTestTermination(t *testing.T, dialer Dialer, opts ...Option) *Termination {
	base := []Option{
		WithNodeID("gnb-001"),
		WithAddress("127.0.0.1:36421"),
		WithDialer(dialer),
		WithRanFunctions([]e2ap.RanFunction{{ID: 10, Revision: 1, OID: "1.3.6.1.4.1.53148.1.2.2.10"}}),
		WithSetupTimeout(time.Second),
		WithRequestTimeout(time.Second),
	}
	term, err := NewTermination(append(base, opts...)...)
	assert.NoError(t, err)
	return term
}

func TestSetupHandshake(t *testing.T) {
	dialer, node := pipeDialer(t)
	term := newTestTermination(t, dialer)
	assert.Equal(t, StateDisconnected, term.State())

	go node.serve(t, true)

	resp, err := term.Connect(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, StateOperational, term.State())
	assert.Equal(t, []int32{10}, resp.AcceptedFunctions)

	// a second connect on a live association is refused
	_, err = term.Connect(context.Background())
	assert.Error(t, err)

	term.Close()
	assert.Equal(t, StateDisconnected, term.State())
}

func TestSetupRejected(t *testing.T) {
	dialer, node := pipeDialer(t)
	term := newTestTermination(t, dialer)

	go node.serve(t, false)

	_, err := term.Connect(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateDisconnected, term.State())
}

func TestSetupTimeout(t *testing.T) {
	dialer, node := pipeDialer(t)
	term := newTestTermination(t, dialer, WithSetupTimeout(100*time.Millisecond))

	// node never answers; drain its side so the write goes through
	go func() {
		<-node.ready
		_, _ = e2ap.ReadMessage(node.conn)
	}()

	_, err := term.Connect(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateDisconnected, term.State())
}

func TestSubscribeAndControl(t *testing.T) {
	dialer, node := pipeDialer(t)
	term := newTestTermination(t, dialer)

	go node.serve(t, true)

	_, err := term.Connect(context.Background())
	assert.NoError(t, err)

	resp, err := term.Subscribe(context.Background(), 10, e2ap.ReportingParams{TriggerType: "periodic", PeriodMs: 1000})
	assert.NoError(t, err)
	assert.Equal(t, int32(10), resp.RanFunctionID)

	// rejected subscription fails only that request
	_, err = term.Subscribe(context.Background(), 99, e2ap.ReportingParams{})
	assert.Error(t, err)
	assert.Equal(t, StateOperational, term.State())

	ctrl, err := term.Control(context.Background(), 10, []byte(`{}`), []byte(`{"beam":1}`))
	assert.NoError(t, err)
	assert.Equal(t, int32(10), ctrl.RanFunctionID)

	term.Close()
}

func TestIndicationForwarding(t *testing.T) {
	dialer, node := pipeDialer(t)

	received := make(chan *e2ap.RICIndication, 8)
	term := newTestTermination(t, dialer, WithIndicationHandler(func(ind *e2ap.RICIndication) {
		received <- ind
	}))

	go node.serve(t, true)

	_, err := term.Connect(context.Background())
	assert.NoError(t, err)

	for seq := int64(1); seq <= 3; seq++ {
		err := e2ap.WriteMessage(node.conn, &e2ap.RICIndication{
			NodeID:         "gnb-001",
			RanFunctionID:  10,
			SequenceNumber: seq,
			Header:         []byte(`{"ran_function_id":10}`),
			Payload:        []byte(`{}`),
		})
		assert.NoError(t, err)
	}

	for seq := int64(1); seq <= 3; seq++ {
		select {
		case ind := <-received:
			assert.Equal(t, seq, ind.SequenceNumber)
		case <-time.After(2 * time.Second):
			t.Fatal("indication not forwarded")
		}
	}

	term.Close()
}

func TestDisconnectOnPeerClose(t *testing.T) {
	dialer, node := pipeDialer(t)

	disconnected := make(chan error, 1)
	term := newTestTermination(t, dialer, WithDisconnectHandler(func(nodeID string, err error) {
		disconnected <- err
	}))

	go node.serve(t, true)

	_, err := term.Connect(context.Background())
	assert.NoError(t, err)

	node.conn.Close()

	select {
	case err := <-disconnected:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect not reported")
	}
	assert.Equal(t, StateDisconnected, term.State())

	// requests on a dead association fail fast
	_, err = term.Subscribe(context.Background(), 10, e2ap.ReportingParams{})
	assert.Error(t, err)
}
