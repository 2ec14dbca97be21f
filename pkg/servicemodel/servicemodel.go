// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package servicemodel

import (
	"encoding/json"
	"sync"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
)

// Encoding selects the payload encoding of a service model codec. The
// capability is resolved once at construction time; if ASN.1 is requested but
// no backend is registered the codec downgrades to JSON and reports the
// effective mode via EffectiveEncoding.
type Encoding string

const (
	// EncodingJSON structured JSON documents, always available
	EncodingJSON Encoding = "json"
	// EncodingASN1 ASN.1 PER via a registered backend
	EncodingASN1 Encoding = "asn1"
)

// Codec is a pluggable ASN.1 encoding backend
type Codec interface {
	Name() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

var (
	mu        sync.RWMutex
	asn1Codec Codec
)

// RegisterASN1Codec installs an ASN.1 backend. Service model codecs
// constructed after registration honor EncodingASN1 requests.
func RegisterASN1Codec(c Codec) {
	mu.Lock()
	defer mu.Unlock()
	asn1Codec = c
}

func registeredASN1Codec() Codec {
	mu.RLock()
	defer mu.RUnlock()
	return asn1Codec
}

// Resolve maps a requested encoding to the encoding actually in effect
func Resolve(requested Encoding) Encoding {
	if requested == EncodingASN1 && registeredASN1Codec() != nil {
		return EncodingASN1
	}
	return EncodingJSON
}

// Marshal encodes v under the given resolved encoding
func Marshal(enc Encoding, v interface{}) ([]byte, error) {
	if enc == EncodingASN1 {
		c := registeredASN1Codec()
		if c == nil {
			return nil, errors.New(errors.Unavailable, "no ASN.1 codec backend registered")
		}
		return c.Marshal(v)
	}
	return json.Marshal(v)
}

// Unmarshal decodes data produced by Marshal under the same encoding
func Unmarshal(enc Encoding, data []byte, v interface{}) error {
	if enc == EncodingASN1 {
		c := registeredASN1Codec()
		if c == nil {
			return errors.New(errors.Unavailable, "no ASN.1 codec backend registered")
		}
		return c.Unmarshal(data, v)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.New(errors.Invalid, "malformed service model payload: %v", err)
	}
	return nil
}

// IndicationHeader is the common header every service model emits in front of
// its indication message. It carries provenance only; the message body stays
// opaque until the owning service model decodes it.
type IndicationHeader struct {
	RanFunctionID  int32    `json:"ran_function_id"`
	NodeID         string   `json:"node_id,omitempty"`
	Encoding       Encoding `json:"encoding"`
	SequenceNumber int64    `json:"sequence_number"`
	TimestampMs    int64    `json:"timestamp_ms"`
}

// DecodeHeader parses an indication header produced by any service model.
// Headers are always JSON regardless of the message body encoding so a
// consumer can validate provenance without an ASN.1 backend.
func DecodeHeader(data []byte) (*IndicationHeader, error) {
	header := &IndicationHeader{}
	if err := json.Unmarshal(data, header); err != nil {
		return nil, errors.New(errors.Invalid, "malformed indication header: %v", err)
	}
	if header.RanFunctionID == 0 {
		return nil, errors.New(errors.Invalid, "indication header missing ran_function_id")
	}
	return header, nil
}

// EncodeHeader serializes an indication header
func EncodeHeader(header *IndicationHeader) ([]byte, error) {
	return json.Marshal(header)
}

// ServiceModel is the capability set shared by every E2 service model
type ServiceModel interface {
	// RanFunctionID is the function id the model registers under
	RanFunctionID() int32

	// ShortName is the model's standard short name
	ShortName() string

	// OID is the model's object identifier
	OID() string

	// RanFunction builds the function description registered at setup time
	RanFunction() e2ap.RanFunction

	// EffectiveEncoding reports the encoding actually in effect
	EffectiveEncoding() Encoding
}

// RanFunctionDefinition is the structured description carried inside the
// RanFunction definition blob during setup
type RanFunctionDefinition struct {
	ShortName   string   `json:"short_name"`
	OID         string   `json:"oid"`
	Description string   `json:"description,omitempty"`
	Metrics     []string `json:"metrics,omitempty"`
}
