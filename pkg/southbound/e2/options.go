// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2

import (
	"time"

	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
)

const (
	defaultSetupTimeout   = 5 * time.Second
	defaultRequestTimeout = 5 * time.Second
)

// IndicationHandler receives every indication decoded from the association,
// in decode order
type IndicationHandler func(*e2ap.RICIndication)

// DisconnectHandler is invoked once when the association is lost
type DisconnectHandler func(nodeID string, err error)

// Options termination point options
type Options struct {
	Node      NodeOptions
	Transport TransportOptions
	Handlers  HandlerOptions
}

// NodeOptions identify the RAN node this termination point manages
type NodeOptions struct {
	// NodeID is the node's global identifier
	NodeID string

	// RanFunctions is the function catalogue registered at setup time
	RanFunctions []e2ap.RanFunction
}

// TransportOptions control the association transport
type TransportOptions struct {
	// Address is the node's E2 termination address
	Address string

	// Dialer establishes the association; defaults to SCTP with TCP fallback
	Dialer Dialer

	// SetupTimeout bounds the setup handshake
	SetupTimeout time.Duration

	// RequestTimeout bounds each subscription/control request
	RequestTimeout time.Duration
}

// HandlerOptions are the upward callbacks of the termination point
type HandlerOptions struct {
	Indication IndicationHandler
	Disconnect DisconnectHandler
}

// Option option interface
type Option interface {
	apply(*Options)
}

type funcOption struct {
	f func(*Options)
}

func (f funcOption) apply(options *Options) {
	f.f(options)
}

func newOption(f func(*Options)) Option {
	return funcOption{
		f: f,
	}
}

// WithNodeID sets the managed node's global identifier
func WithNodeID(nodeID string) Option {
	return newOption(func(options *Options) {
		options.Node.NodeID = nodeID
	})
}

// WithRanFunctions sets the function catalogue registered at setup time
func WithRanFunctions(functions []e2ap.RanFunction) Option {
	return newOption(func(options *Options) {
		options.Node.RanFunctions = functions
	})
}

// WithAddress sets the node's E2 termination address
func WithAddress(address string) Option {
	return newOption(func(options *Options) {
		options.Transport.Address = address
	})
}

// WithDialer overrides the transport dialer
func WithDialer(dialer Dialer) Option {
	return newOption(func(options *Options) {
		options.Transport.Dialer = dialer
	})
}

// WithSetupTimeout bounds the setup handshake
func WithSetupTimeout(timeout time.Duration) Option {
	return newOption(func(options *Options) {
		options.Transport.SetupTimeout = timeout
	})
}

// WithRequestTimeout bounds each subscription/control request
func WithRequestTimeout(timeout time.Duration) Option {
	return newOption(func(options *Options) {
		options.Transport.RequestTimeout = timeout
	})
}

// WithIndicationHandler sets the upward indication callback
func WithIndicationHandler(handler IndicationHandler) Option {
	return newOption(func(options *Options) {
		options.Handlers.Indication = handler
	})
}

// WithDisconnectHandler sets the association loss callback
func WithDisconnectHandler(handler DisconnectHandler) Option {
	return newOption(func(options *Options) {
		options.Handlers.Disconnect = handler
	})
}
