// SPDX-FileCopyrightText: 2022-present Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewSubscriptionID returns a globally unique subscription id
func NewSubscriptionID() string {
	return uuid.New().String()
}

// ConsumerKey identifies one consumer's claim on a (node, function) stream.
// Two subscriptions with the same key are duplicates.
func ConsumerKey(nodeID string, functionID int32, subscriber string) string {
	return fmt.Sprintf("%s/%d/%s", nodeID, functionID, subscriber)
}
