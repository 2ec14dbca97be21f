// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2ap

// MessageType discriminates E2AP message kinds on the wire. It is the first
// byte of every encoded frame so a receiver can dispatch before parsing the
// message body.
type MessageType uint8

const (
	// TypeUnknown is the zero value and never appears on the wire
	TypeUnknown MessageType = iota
	// TypeE2SetupRequest E2 Setup Request
	TypeE2SetupRequest
	// TypeE2SetupResponse E2 Setup Response
	TypeE2SetupResponse
	// TypeE2SetupFailure E2 Setup Failure
	TypeE2SetupFailure
	// TypeRICSubscriptionRequest RIC Subscription Request
	TypeRICSubscriptionRequest
	// TypeRICSubscriptionResponse RIC Subscription Response
	TypeRICSubscriptionResponse
	// TypeRICSubscriptionFailure RIC Subscription Failure
	TypeRICSubscriptionFailure
	// TypeRICSubscriptionDeleteRequest RIC Subscription Delete Request
	TypeRICSubscriptionDeleteRequest
	// TypeRICIndication RIC Indication
	TypeRICIndication
	// TypeRICControlRequest RIC Control Request
	TypeRICControlRequest
	// TypeRICControlResponse RIC Control Response
	TypeRICControlResponse
	// TypeRICControlFailure RIC Control Failure
	TypeRICControlFailure
)

func (t MessageType) String() string {
	switch t {
	case TypeE2SetupRequest:
		return "E2SetupRequest"
	case TypeE2SetupResponse:
		return "E2SetupResponse"
	case TypeE2SetupFailure:
		return "E2SetupFailure"
	case TypeRICSubscriptionRequest:
		return "RICSubscriptionRequest"
	case TypeRICSubscriptionResponse:
		return "RICSubscriptionResponse"
	case TypeRICSubscriptionFailure:
		return "RICSubscriptionFailure"
	case TypeRICSubscriptionDeleteRequest:
		return "RICSubscriptionDeleteRequest"
	case TypeRICIndication:
		return "RICIndication"
	case TypeRICControlRequest:
		return "RICControlRequest"
	case TypeRICControlResponse:
		return "RICControlResponse"
	case TypeRICControlFailure:
		return "RICControlFailure"
	}
	return "Unknown"
}

// Message is implemented by every E2AP message
type Message interface {
	MessageType() MessageType
}

// CauseCode classifies a protocol-level failure
type CauseCode int32

const (
	// CauseNone no failure
	CauseNone CauseCode = iota
	// CauseUnspecified unclassified failure
	CauseUnspecified
	// CauseUnknownRanFunction the referenced RAN function is not registered
	CauseUnknownRanFunction
	// CauseUnknownNode the referenced E2 node is not registered
	CauseUnknownNode
	// CauseMalformedMessage the request could not be decoded or validated
	CauseMalformedMessage
	// CauseDuplicateRequest the request id collides with an in-flight request
	CauseDuplicateRequest
)

// Cause carries a failure code plus a human-readable reason
type Cause struct {
	Code   CauseCode `json:"code"`
	Reason string    `json:"reason"`
}

// RanFunction describes one capability a RAN node registers at setup time.
// The Definition blob is opaque to E2AP; only the owning service model can
// interpret it.
type RanFunction struct {
	ID         int32  `json:"id"`
	Revision   int32  `json:"revision"`
	OID        string `json:"oid"`
	Definition []byte `json:"definition,omitempty"`
}

// E2SetupRequest registers a RAN node and its function catalogue
type E2SetupRequest struct {
	TransactionID int32         `json:"transaction_id"`
	NodeID        string        `json:"node_id"`
	RanFunctions  []RanFunction `json:"ran_functions"`
}

// MessageType implements Message
func (m *E2SetupRequest) MessageType() MessageType { return TypeE2SetupRequest }

// E2SetupResponse acknowledges an E2SetupRequest, echoing its transaction id
type E2SetupResponse struct {
	TransactionID     int32   `json:"transaction_id"`
	AcceptedFunctions []int32 `json:"accepted_functions"`
}

// MessageType implements Message
func (m *E2SetupResponse) MessageType() MessageType { return TypeE2SetupResponse }

// E2SetupFailure rejects an E2SetupRequest
type E2SetupFailure struct {
	TransactionID int32 `json:"transaction_id"`
	Cause         Cause `json:"cause"`
}

// MessageType implements Message
func (m *E2SetupFailure) MessageType() MessageType { return TypeE2SetupFailure }

// ReportingParams carries the event trigger parameters of a subscription
type ReportingParams struct {
	TriggerType string `json:"trigger_type"`
	PeriodMs    int64  `json:"period_ms"`
}

// RICSubscriptionRequest asks a node to start reporting for one RAN function
type RICSubscriptionRequest struct {
	RequestID     int64           `json:"request_id"`
	NodeID        string          `json:"node_id"`
	RanFunctionID int32           `json:"ran_function_id"`
	Params        ReportingParams `json:"params"`
}

// MessageType implements Message
func (m *RICSubscriptionRequest) MessageType() MessageType { return TypeRICSubscriptionRequest }

// RICSubscriptionResponse admits a subscription request
type RICSubscriptionResponse struct {
	RequestID     int64  `json:"request_id"`
	RanFunctionID int32  `json:"ran_function_id"`
	SubscriptionID string `json:"subscription_id,omitempty"`
}

// MessageType implements Message
func (m *RICSubscriptionResponse) MessageType() MessageType { return TypeRICSubscriptionResponse }

// RICSubscriptionFailure rejects a subscription request
type RICSubscriptionFailure struct {
	RequestID     int64 `json:"request_id"`
	RanFunctionID int32 `json:"ran_function_id"`
	Cause         Cause `json:"cause"`
}

// MessageType implements Message
func (m *RICSubscriptionFailure) MessageType() MessageType { return TypeRICSubscriptionFailure }

// RICSubscriptionDeleteRequest tears down a previously admitted subscription
type RICSubscriptionDeleteRequest struct {
	RequestID     int64 `json:"request_id"`
	RanFunctionID int32 `json:"ran_function_id"`
}

// MessageType implements Message
func (m *RICSubscriptionDeleteRequest) MessageType() MessageType {
	return TypeRICSubscriptionDeleteRequest
}

// RICIndication is an asynchronous report from a RAN node. Header and Payload
// are service-model encoded; E2AP treats them as opaque bytes.
type RICIndication struct {
	NodeID         string `json:"node_id"`
	RanFunctionID  int32  `json:"ran_function_id"`
	SequenceNumber int64  `json:"sequence_number"`
	Header         []byte `json:"header"`
	Payload        []byte `json:"payload"`
}

// MessageType implements Message
func (m *RICIndication) MessageType() MessageType { return TypeRICIndication }

// RICControlRequest carries a service-model encoded control action to a node
type RICControlRequest struct {
	RequestID     int64  `json:"request_id"`
	NodeID        string `json:"node_id"`
	RanFunctionID int32  `json:"ran_function_id"`
	Header        []byte `json:"header"`
	Payload       []byte `json:"payload"`
}

// MessageType implements Message
func (m *RICControlRequest) MessageType() MessageType { return TypeRICControlRequest }

// RICControlResponse acknowledges a control request
type RICControlResponse struct {
	RequestID     int64  `json:"request_id"`
	RanFunctionID int32  `json:"ran_function_id"`
	Outcome       []byte `json:"outcome,omitempty"`
}

// MessageType implements Message
func (m *RICControlResponse) MessageType() MessageType { return TypeRICControlResponse }

// RICControlFailure rejects a control request
type RICControlFailure struct {
	RequestID     int64 `json:"request_id"`
	RanFunctionID int32 `json:"ran_function_id"`
	Cause         Cause `json:"cause"`
}

// MessageType implements Message
func (m *RICControlFailure) MessageType() MessageType { return TypeRICControlFailure }
