// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2ap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleMessages() []Message {
	return []Message{
		&E2SetupRequest{
			TransactionID: 1,
			NodeID:        "gnb-001",
			RanFunctions: []RanFunction{
				{ID: 2, Revision: 1, OID: "1.3.6.1.4.1.53148.1.2.2.2", Definition: []byte(`{"short_name":"ORAN-E2SM-KPM"}`)},
				{ID: 10, Revision: 1, OID: "1.3.6.1.4.1.53148.1.2.2.10", Definition: []byte(`{"short_name":"ORAN-E2SM-NTN"}`)},
			},
		},
		&E2SetupResponse{TransactionID: 1, AcceptedFunctions: []int32{2, 10}},
		&E2SetupFailure{TransactionID: 1, Cause: Cause{Code: CauseMalformedMessage, Reason: "missing node id"}},
		&RICSubscriptionRequest{
			RequestID:     7,
			NodeID:        "gnb-001",
			RanFunctionID: 10,
			Params:        ReportingParams{TriggerType: "periodic", PeriodMs: 1000},
		},
		&RICSubscriptionResponse{RequestID: 7, RanFunctionID: 10, SubscriptionID: "sub-1"},
		&RICSubscriptionFailure{RequestID: 7, RanFunctionID: 99, Cause: Cause{Code: CauseUnknownRanFunction, Reason: "function 99 not registered"}},
		&RICSubscriptionDeleteRequest{RequestID: 7, RanFunctionID: 10},
		&RICIndication{
			NodeID:         "gnb-001",
			RanFunctionID:  10,
			SequenceNumber: 42,
			Header:         []byte(`{"ran_function_id":10}`),
			Payload:        []byte(`{"rsrp_dbm":-85.0}`),
		},
		&RICControlRequest{RequestID: 9, NodeID: "gnb-001", RanFunctionID: 10, Header: []byte(`{}`), Payload: []byte(`{"beam":3}`)},
		&RICControlResponse{RequestID: 9, RanFunctionID: 10, Outcome: []byte(`{"applied":true}`)},
		&RICControlFailure{RequestID: 9, RanFunctionID: 10, Cause: Cause{Code: CauseUnspecified, Reason: "node busy"}},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, msg := range sampleMessages() {
		frame, err := Encode(msg)
		assert.NoError(t, err)
		assert.True(t, len(frame) > headerLen)

		msgType, err := PeekType(frame)
		assert.NoError(t, err)
		assert.Equal(t, msg.MessageType(), msgType)

		decoded, err := Decode(frame)
		assert.NoError(t, err)
		assert.Equal(t, msg, decoded)
	}
}

func TestDecodeTruncatedFrame(t *testing.T) {
	frame, err := Encode(&E2SetupResponse{TransactionID: 3})
	assert.NoError(t, err)

	for _, cut := range []int{1, headerLen - 1, headerLen, len(frame) - 1} {
		_, err := Decode(frame[:cut])
		assert.Error(t, err)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	frame, err := Encode(&E2SetupResponse{TransactionID: 3})
	assert.NoError(t, err)
	frame[0] = 0xff

	_, err = Decode(frame)
	assert.Error(t, err)

	_, err = PeekType(frame)
	assert.Error(t, err)
}

func TestDecodeMissingRequiredField(t *testing.T) {
	// a setup request without a node id decodes structurally but fails validation
	frame, err := Encode(&E2SetupRequest{TransactionID: 1})
	assert.NoError(t, err)

	_, err = Decode(frame)
	assert.Error(t, err)
}

func TestStreamReadWrite(t *testing.T) {
	var buf bytes.Buffer
	msgs := sampleMessages()
	for _, msg := range msgs {
		assert.NoError(t, WriteMessage(&buf, msg))
	}
	for _, msg := range msgs {
		decoded, err := ReadMessage(&buf)
		assert.NoError(t, err)
		assert.Equal(t, msg, decoded)
	}
}
