// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package event

// EventType is a store event type
type EventType int

const (
	// None none event
	None EventType = iota
	// Created created store event
	Created
	// Updated updated store event
	Updated
	// Deleted deleted store event
	Deleted
)

func (e EventType) String() string {
	return [...]string{"None", "Created", "Updated", "Deleted"}[e]
}

// Event is a store event
type Event struct {
	Key   interface{}
	Value interface{}
	Type  EventType
}
