// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package sdl

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/onosproject/onos-lib-go/pkg/logging"
)

var log = logging.GetLogger("store", "sdl")

// Client is a namespaced facade over the shared data layer. Every operation
// absorbs store failures: callers get a boolean or absent result plus a
// logged error, never a crash. Values are serialized as JSON documents under
// "<namespace>:<key>". Keys follow last-write-wins semantics with no
// transactional isolation; callers needing compare-and-swap must layer it
// themselves.
type Client struct {
	namespace string
	backend   Backend
}

// NewClient creates an SDL client bound to a namespace. Without a configured
// Redis address the client falls back to a process-local backend.
func NewClient(namespace string, opts ...Option) *Client {
	options := Options{}
	for _, opt := range opts {
		opt.apply(&options)
	}
	backend := options.Backend
	if backend == nil && options.RedisAddress != "" {
		backend = newRedisBackend(options.RedisAddress, options.RedisDB)
	}
	if backend == nil {
		backend = newMemoryBackend()
	}
	return &Client{
		namespace: namespace,
		backend:   backend,
	}
}

// Namespace returns the client's namespace
func (c *Client) Namespace() string { return c.namespace }

func (c *Client) qualify(key string) string {
	return c.namespace + ":" + key
}

// Set serializes value and writes it under the namespaced key. Returns false
// when serialization or the store write fails.
func (c *Client) Set(ctx context.Context, key string, value interface{}) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Errorf("cannot serialize value for %s: %v", c.qualify(key), err)
		return false
	}
	if err := c.backend.Set(ctx, c.qualify(key), string(data)); err != nil {
		log.Errorf("cannot write %s: %v", c.qualify(key), err)
		return false
	}
	return true
}

// Get reads and deserializes the namespaced key into out. Returns false when
// the key is absent or the store is unavailable.
func (c *Client) Get(ctx context.Context, key string, out interface{}) bool {
	data, ok, err := c.backend.Get(ctx, c.qualify(key))
	if err != nil {
		log.Errorf("cannot read %s: %v", c.qualify(key), err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		log.Errorf("cannot deserialize %s: %v", c.qualify(key), err)
		return false
	}
	return true
}

// Delete removes the namespaced key; false only when the store fails
func (c *Client) Delete(ctx context.Context, key string) bool {
	if err := c.backend.Delete(ctx, c.qualify(key)); err != nil {
		log.Errorf("cannot delete %s: %v", c.qualify(key), err)
		return false
	}
	return true
}

// ListKeys returns the keys in this namespace matching a glob pattern, with
// the namespace prefix stripped. A store failure yields an empty list.
func (c *Client) ListKeys(ctx context.Context, pattern string) []string {
	qualified, err := c.backend.Keys(ctx, c.qualify(pattern))
	if err != nil {
		log.Errorf("cannot list keys for %s: %v", c.qualify(pattern), err)
		return nil
	}
	prefix := c.namespace + ":"
	keys := make([]string, 0, len(qualified))
	for _, key := range qualified {
		keys = append(keys, strings.TrimPrefix(key, prefix))
	}
	return keys
}
