// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package kpm

import (
	"time"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel"
)

var log = logging.GetLogger("servicemodel", "kpm")

const (
	// RanFunctionID is the standard O-RAN KPM function id
	RanFunctionID int32 = 2
	// ShortName is the KPM service model short name
	ShortName = "ORAN-E2SM-KPM"
	// OID is the KPM service model object identifier
	OID = "1.3.6.1.4.1.53148.1.2.2.2"
	// Revision of the RAN function definition
	Revision int32 = 1
)

// MeasurementType identifies a KPM measurement
type MeasurementType string

const (
	// MeasurementRSRP reference signal received power in dBm
	MeasurementRSRP MeasurementType = "RSRP"
	// MeasurementRSRQ reference signal received quality in dB
	MeasurementRSRQ MeasurementType = "RSRQ"
	// MeasurementSINR signal to interference plus noise ratio in dB
	MeasurementSINR MeasurementType = "SINR"
	// MeasurementThroughputDL downlink throughput in Mbps
	MeasurementThroughputDL MeasurementType = "DL.Throughput"
	// MeasurementThroughputUL uplink throughput in Mbps
	MeasurementThroughputUL MeasurementType = "UL.Throughput"
	// MeasurementPrbUsed number of physical resource blocks in use
	MeasurementPrbUsed MeasurementType = "RRU.PrbUsed"
	// MeasurementConnectedUEs number of RRC connected UEs
	MeasurementConnectedUEs MeasurementType = "RRC.ConnMean"
)

// MeasurementRecord is one KPI sample. Values are IEEE-754 doubles and are
// carried without rounding.
type MeasurementRecord struct {
	Type        MeasurementType `json:"type"`
	Value       float64         `json:"value"`
	TimestampMs int64           `json:"timestamp_ms"`
	UEID        string          `json:"ue_id,omitempty"`
}

// IndicationMessage batches measurement records into one indication payload
type IndicationMessage struct {
	Records []MeasurementRecord `json:"records"`
}

// ServiceModel is the E2SM-KPM codec
type ServiceModel struct {
	requested servicemodel.Encoding
	effective servicemodel.Encoding
	sequence  int64
}

// NewServiceModel creates a KPM codec with the requested encoding. When ASN.1
// is requested without a registered backend the codec downgrades to JSON.
func NewServiceModel(opts ...Option) *ServiceModel {
	options := Options{Encoding: servicemodel.EncodingJSON}
	for _, opt := range opts {
		opt.apply(&options)
	}
	effective := servicemodel.Resolve(options.Encoding)
	if effective != options.Encoding {
		log.Warnf("encoding %s unavailable for %s, falling back to %s", options.Encoding, ShortName, effective)
	}
	return &ServiceModel{
		requested: options.Encoding,
		effective: effective,
	}
}

// RanFunctionID implements servicemodel.ServiceModel
func (sm *ServiceModel) RanFunctionID() int32 { return RanFunctionID }

// ShortName implements servicemodel.ServiceModel
func (sm *ServiceModel) ShortName() string { return ShortName }

// OID implements servicemodel.ServiceModel
func (sm *ServiceModel) OID() string { return OID }

// EffectiveEncoding reports the encoding actually in effect
func (sm *ServiceModel) EffectiveEncoding() servicemodel.Encoding { return sm.effective }

// RanFunction builds the function description registered during E2 setup
func (sm *ServiceModel) RanFunction() e2ap.RanFunction {
	def := servicemodel.RanFunctionDefinition{
		ShortName:   ShortName,
		OID:         OID,
		Description: "KPM monitoring service model",
		Metrics: []string{
			string(MeasurementRSRP), string(MeasurementRSRQ), string(MeasurementSINR),
			string(MeasurementThroughputDL), string(MeasurementThroughputUL),
			string(MeasurementPrbUsed), string(MeasurementConnectedUEs),
		},
	}
	blob, _ := servicemodel.Marshal(servicemodel.EncodingJSON, def)
	return e2ap.RanFunction{
		ID:         RanFunctionID,
		Revision:   Revision,
		OID:        OID,
		Definition: blob,
	}
}

// CreateIndication encodes a batch of measurement records into an indication
// header and message byte pair.
func (sm *ServiceModel) CreateIndication(nodeID string, records []MeasurementRecord) ([]byte, []byte, error) {
	if len(records) == 0 {
		return nil, nil, errors.New(errors.Invalid, "no measurement records")
	}
	sm.sequence++
	header := &servicemodel.IndicationHeader{
		RanFunctionID:  RanFunctionID,
		NodeID:         nodeID,
		Encoding:       sm.effective,
		SequenceNumber: sm.sequence,
		TimestampMs:    time.Now().UnixMilli(),
	}
	headerBytes, err := servicemodel.EncodeHeader(header)
	if err != nil {
		return nil, nil, err
	}
	messageBytes, err := servicemodel.Marshal(sm.effective, &IndicationMessage{Records: records})
	if err != nil {
		return nil, nil, err
	}
	return headerBytes, messageBytes, nil
}

// DecodeIndicationMessage parses an indication message produced by
// CreateIndication under the codec's effective encoding.
func (sm *ServiceModel) DecodeIndicationMessage(data []byte) (*IndicationMessage, error) {
	msg := &IndicationMessage{}
	if err := servicemodel.Unmarshal(sm.effective, data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

var _ servicemodel.ServiceModel = &ServiceModel{}
