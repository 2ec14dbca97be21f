// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2

import (
	"context"
	"net"
	"strconv"

	"github.com/free5gc/sctp"
	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// Dialer establishes the transport association to a RAN node's E2 termination
// address. The default dialer prefers SCTP and falls back to TCP when SCTP is
// unavailable on the host.
type Dialer func(ctx context.Context, address string) (net.Conn, error)

func sctpAddr(address string) (*sctp.SCTPAddr, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, errors.New(errors.Invalid, "invalid E2 address %s: %v", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.New(errors.Invalid, "invalid E2 port %s: %v", portStr, err)
	}
	ip, err := net.ResolveIPAddr("ip", host)
	if err != nil {
		return nil, errors.New(errors.Invalid, "cannot resolve E2 host %s: %v", host, err)
	}
	return &sctp.SCTPAddr{
		IPAddrs: []net.IPAddr{*ip},
		Port:    port,
	}, nil
}

// DefaultDialer dials SCTP first and falls back to TCP carrying the same
// E2AP byte stream.
func DefaultDialer(ctx context.Context, address string) (net.Conn, error) {
	raddr, err := sctpAddr(address)
	if err != nil {
		return nil, err
	}
	conn, sctpErr := sctp.DialSCTP("sctp", nil, raddr)
	if sctpErr == nil {
		return conn, nil
	}
	log.Warnf("SCTP dial to %s failed (%v), falling back to TCP", address, sctpErr)

	var d net.Dialer
	tcpConn, tcpErr := d.DialContext(ctx, "tcp", address)
	if tcpErr != nil {
		return nil, errors.New(errors.Unavailable, "cannot connect to %s: sctp: %v, tcp: %v", address, sctpErr, tcpErr)
	}
	return tcpConn, nil
}
