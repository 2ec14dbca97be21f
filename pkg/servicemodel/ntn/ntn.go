// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package ntn

import (
	"time"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel"
)

var log = logging.GetLogger("servicemodel", "ntn")

const (
	// RanFunctionID is the private function id reserved for the NTN model
	RanFunctionID int32 = 10
	// ShortName is the NTN service model short name
	ShortName = "ORAN-E2SM-NTN"
	// OID is the private object identifier of the NTN model
	OID = "1.3.6.1.4.1.53148.1.2.2.10"
	// Revision of the RAN function definition
	Revision int32 = 1
)

// OrbitType classifies the serving satellite's orbit
type OrbitType string

const (
	// OrbitLEO low earth orbit
	OrbitLEO OrbitType = "LEO"
	// OrbitMEO medium earth orbit
	OrbitMEO OrbitType = "MEO"
	// OrbitGEO geostationary orbit
	OrbitGEO OrbitType = "GEO"
)

// SatelliteState is the serving satellite's geometry and link state at
// measurement time. Link-budget numerics are IEEE-754 doubles carried without
// rounding.
type SatelliteState struct {
	SatelliteID        string    `json:"satellite_id,omitempty"`
	OrbitType          OrbitType `json:"orbit_type"`
	AltitudeKm         float64   `json:"altitude_km"`
	ElevationDeg       float64   `json:"elevation_deg"`
	SlantRangeKm       float64   `json:"slant_range_km"`
	DopplerShiftHz     float64   `json:"doppler_shift_hz"`
	PropagationDelayMs float64   `json:"propagation_delay_ms"`
}

// UEMeasurements is one UE's radio measurement sample over the NTN link
type UEMeasurements struct {
	RsrpDbm float64 `json:"rsrp_dbm"`
	RsrqDb  float64 `json:"rsrq_db"`
	SinrDb  float64 `json:"sinr_db"`
	Cqi     int32   `json:"cqi,omitempty"`
}

// IndicationMessage is the NTN indication payload: one UE's measurements
// together with the satellite state they were taken under
type IndicationMessage struct {
	UEID           string         `json:"ue_id"`
	SatelliteState SatelliteState `json:"satellite_state"`
	Measurements   UEMeasurements `json:"ue_measurements"`
}

// ServiceModel is the E2SM-NTN codec
type ServiceModel struct {
	requested servicemodel.Encoding
	effective servicemodel.Encoding
	sequence  int64
}

// NewServiceModel creates an NTN codec with the requested encoding. When
// ASN.1 is requested without a registered backend the codec downgrades to
// JSON; callers must check EffectiveEncoding rather than assume the request
// was honored.
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
		Description: "NTN satellite link monitoring service model",
		Metrics: []string{
			"rsrp_dbm", "rsrq_db", "sinr_db", "cqi",
			"altitude_km", "elevation_deg", "slant_range_km",
			"doppler_shift_hz", "propagation_delay_ms",
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

// CreateIndication encodes one UE's satellite link sample into an indication
// header and message byte pair. The header always embeds RAN function id 10
// so a consumer can validate provenance without decoding the body.
func (sm *ServiceModel) CreateIndication(ueID string, sat SatelliteState, meas UEMeasurements) ([]byte, []byte, error) {
	if ueID == "" {
		return nil, nil, errors.New(errors.Invalid, "missing UE id")
	}
	if sat.OrbitType == "" {
		return nil, nil, errors.New(errors.Invalid, "missing orbit type")
	}
	sm.sequence++
	header := &servicemodel.IndicationHeader{
		RanFunctionID:  RanFunctionID,
		Encoding:       sm.effective,
		SequenceNumber: sm.sequence,
		TimestampMs:    time.Now().UnixMilli(),
	}
	headerBytes, err := servicemodel.EncodeHeader(header)
	if err != nil {
		return nil, nil, err
	}
	messageBytes, err := servicemodel.Marshal(sm.effective, &IndicationMessage{
		UEID:           ueID,
		SatelliteState: sat,
		Measurements:   meas,
	})
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
	if msg.UEID == "" {
		return nil, errors.New(errors.Invalid, "NTN indication message missing ue_id")
	}
	return msg, nil
}

var _ servicemodel.ServiceModel = &ServiceModel{}
