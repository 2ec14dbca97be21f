// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package e2ap

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// Frame layout: one discriminator byte, a 4 byte big-endian body length,
// then the JSON body. The discriminator comes first so a receiver can
// dispatch on message kind without parsing the body.
const headerLen = 5

// maxBodyLen bounds a single E2AP frame; anything larger is treated as a
// corrupted length field rather than an allocation request.
const maxBodyLen = 16 << 20

// Encode serializes a message into a transport-ready frame
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.New(errors.Invalid, "cannot encode nil message")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.New(errors.Invalid, "cannot encode %s: %v", msg.MessageType(), err)
	}
	frame := make([]byte, headerLen+len(body))
	frame[0] = byte(msg.MessageType())
	binary.BigEndian.PutUint32(frame[1:headerLen], uint32(len(body)))
	copy(frame[headerLen:], body)
	return frame, nil
}

// PeekType returns the message type of an encoded frame without decoding the
// body. Fails on a frame too short to carry the discriminator.
func PeekType(frame []byte) (MessageType, error) {
	if len(frame) < 1 {
		return TypeUnknown, errors.New(errors.Invalid, "empty frame")
	}
	t := MessageType(frame[0])
	if newMessage(t) == nil {
		return TypeUnknown, errors.New(errors.Invalid, "unknown message type %d", frame[0])
	}
	return t, nil
}

// Decode parses a full frame back into its message. Decode and Encode are
// mutual inverses for every valid message.
func Decode(frame []byte) (Message, error) {
	if len(frame) < headerLen {
		return nil, errors.New(errors.Invalid, "truncated frame: %d bytes", len(frame))
	}
	msgType, err := PeekType(frame)
	if err != nil {
		return nil, err
	}
	bodyLen := binary.BigEndian.Uint32(frame[1:headerLen])
	if bodyLen > maxBodyLen {
		return nil, errors.New(errors.Invalid, "frame length %d exceeds limit", bodyLen)
	}
	if uint32(len(frame)-headerLen) != bodyLen {
		return nil, errors.New(errors.Invalid, "truncated %s frame: want %d body bytes, have %d",
			msgType, bodyLen, len(frame)-headerLen)
	}
	msg := newMessage(msgType)
	if err := json.Unmarshal(frame[headerLen:], msg); err != nil {
		return nil, errors.New(errors.Invalid, "malformed %s body: %v", msgType, err)
	}
	if err := validate(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ReadMessage reads exactly one frame from a stream transport
func ReadMessage(r io.Reader) (Message, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	bodyLen := binary.BigEndian.Uint32(header[1:headerLen])
	if bodyLen > maxBodyLen {
		return nil, errors.New(errors.Invalid, "frame length %d exceeds limit", bodyLen)
	}
	frame := make([]byte, headerLen+int(bodyLen))
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[headerLen:]); err != nil {
		return nil, err
	}
	return Decode(frame)
}

// WriteMessage encodes a message and writes the frame to a stream transport
func WriteMessage(w io.Writer, msg Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

func newMessage(t MessageType) Message {
	switch t {
	case TypeE2SetupRequest:
		return &E2SetupRequest{}
	case TypeE2SetupResponse:
		return &E2SetupResponse{}
	case TypeE2SetupFailure:
		return &E2SetupFailure{}
	case TypeRICSubscriptionRequest:
		return &RICSubscriptionRequest{}
	case TypeRICSubscriptionResponse:
		return &RICSubscriptionResponse{}
	case TypeRICSubscriptionFailure:
		return &RICSubscriptionFailure{}
	case TypeRICSubscriptionDeleteRequest:
		return &RICSubscriptionDeleteRequest{}
	case TypeRICIndication:
		return &RICIndication{}
	case TypeRICControlRequest:
		return &RICControlRequest{}
	case TypeRICControlResponse:
		return &RICControlResponse{}
	case TypeRICControlFailure:
		return &RICControlFailure{}
	}
	return nil
}

func validate(msg Message) error {
	switch m := msg.(type) {
	case *E2SetupRequest:
		if m.NodeID == "" {
			return errors.New(errors.Invalid, "E2SetupRequest missing node_id")
		}
	case *RICSubscriptionRequest:
		if m.NodeID == "" {
			return errors.New(errors.Invalid, "RICSubscriptionRequest missing node_id")
		}
	case *RICIndication:
		if m.NodeID == "" {
			return errors.New(errors.Invalid, "RICIndication missing node_id")
		}
		if len(m.Header) == 0 {
			return errors.New(errors.Invalid, "RICIndication missing header")
		}
	case *RICControlRequest:
		if m.NodeID == "" {
			return errors.New(errors.Invalid, "RICControlRequest missing node_id")
		}
	}
	return nil
}
