// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package kpimon

import (
	"context"
	"testing"
	"time"

	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel/kpm"
	"github.com/onosproject/onos-ntn-ric/pkg/store"
	"github.com/stretchr/testify/assert"
)

func TestHandleIndication(t *testing.T) {
	measurements := store.NewStore()
	instance, _ := NewInstance(measurements)
	instance.Start()

	sm := kpm.NewServiceModel()
	now := time.Now().UnixMilli()
	header, payload, err := sm.CreateIndication("gnb-001", []kpm.MeasurementRecord{
		{Type: kpm.MeasurementRSRP, Value: -88.0, TimestampMs: now, UEID: "UE-1"},
		{Type: kpm.MeasurementConnectedUEs, Value: 17, TimestampMs: now},
	})
	assert.NoError(t, err)

	instance.HandleIndication(&e2ap.RICIndication{
		NodeID:         "gnb-001",
		RanFunctionID:  kpm.RanFunctionID,
		SequenceNumber: 1,
		Header:         header,
		Payload:        payload,
	})

	ctx := context.Background()
	entry, err := measurements.Get(ctx, "gnb-001/RSRP/UE-1")
	assert.NoError(t, err)
	assert.Equal(t, -88.0, entry.Value.(kpm.MeasurementRecord).Value)

	assert.True(t, measurements.HasEntry(ctx, "gnb-001/RRC.ConnMean"))
	assert.Equal(t, 2.0, instance.Metrics()["records_received"].Value)
}

func TestMalformedPayloadFailsSoft(t *testing.T) {
	measurements := store.NewStore()
	instance, _ := NewInstance(measurements)
	instance.Start()

	instance.HandleIndication(&e2ap.RICIndication{
		NodeID:         "gnb-001",
		RanFunctionID:  kpm.RanFunctionID,
		SequenceNumber: 1,
		Header:         []byte(`{"ran_function_id":2,"encoding":"json"}`),
		Payload:        []byte("not json"),
	})

	assert.Equal(t, 1.0, instance.Metrics()["decode_errors"].Value)
}
