// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package xapp

import (
	"sync"
	"time"

	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
)

var log = logging.GetLogger("xapp")

// XApp is the contract a concrete xApp implements. Init is called once
// before the instance is marked running; HandleIndication once per routed
// indication. Malformed application-level content must be absorbed, not
// propagated: fail soft and update metrics instead.
type XApp interface {
	Init() error
	HandleIndication(ind *e2ap.RICIndication)
}

// SubscriptionSpec is one desired E2 subscription of an xApp, applied to
// every connected node advertising the function
type SubscriptionSpec struct {
	RanFunctionID int32  `yaml:"ranFunctionId" json:"ran_function_id"`
	TriggerType   string `yaml:"triggerType" json:"trigger_type"`
	PeriodMs      int64  `yaml:"periodMs" json:"period_ms"`
}

// Config identifies an xApp instance and what it wants from the platform
type Config struct {
	Name          string             `yaml:"name" json:"name"`
	Version       string             `yaml:"version" json:"version"`
	Description   string             `yaml:"description" json:"description,omitempty"`
	StoreNamespace string            `yaml:"storeNamespace" json:"store_namespace,omitempty"`
	Subscriptions []SubscriptionSpec `yaml:"subscriptions" json:"subscriptions,omitempty"`
}

// Metric is one named metric sample, last-write-wins
type Metric struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Status is a read-only snapshot of an instance
type Status struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Running bool              `json:"running"`
	Metrics map[string]Metric `json:"metrics"`
}

// Instance wraps a concrete XApp with the runtime state the platform owns:
// the running flag, the metric map, and the subscription identity used when
// indications are routed to it.
type Instance struct {
	config Config
	app    XApp

	mu      sync.RWMutex
	running bool
	metrics map[string]Metric
}

// NewInstance wraps an xApp with its runtime state
func NewInstance(config Config, app XApp) *Instance {
	return &Instance{
		config:  config,
		app:     app,
		metrics: make(map[string]Metric),
	}
}

// ID returns the instance name; it is the subscriber identity used by the
// E2 interface manager
func (i *Instance) ID() string { return i.config.Name }

// Config returns the instance configuration
func (i *Instance) Config() Config { return i.config }

// Running reports the running flag
func (i *Instance) Running() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.running
}

// Start marks the instance running; a no-op when already running
func (i *Instance) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running {
		return
	}
	i.running = true
}

// Stop clears the running flag; a no-op when already stopped
func (i *Instance) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.running {
		return
	}
	i.running = false
}

// init runs the xApp's one-time setup
func (i *Instance) init() error {
	return i.app.Init()
}

// HandleIndication delivers one indication to the wrapped xApp. Indications
// arriving while the instance is stopped are dropped. A handler panic is
// absorbed here so the routing loop stays intact.
func (i *Instance) HandleIndication(ind *e2ap.RICIndication) {
	if !i.Running() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("xapp %s indication handler failed: %v", i.config.Name, r)
			i.bumpMetric("handler_failures")
		}
	}()
	i.app.HandleIndication(ind)
}

// UpdateMetric overwrites the named metric with the given value and the
// current timestamp
func (i *Instance) UpdateMetric(name string, value float64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.metrics[name] = Metric{Value: value, Timestamp: time.Now()}
}

func (i *Instance) bumpMetric(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	m := i.metrics[name]
	i.metrics[name] = Metric{Value: m.Value + 1, Timestamp: time.Now()}
}

// Metrics returns a copy of the metric map
func (i *Instance) Metrics() map[string]Metric {
	i.mu.RLock()
	defer i.mu.RUnlock()
	metrics := make(map[string]Metric, len(i.metrics))
	for name, metric := range i.metrics {
		metrics[name] = metric
	}
	return metrics
}

// Status returns a read-only snapshot of the instance
func (i *Instance) Status() Status {
	i.mu.RLock()
	running := i.running
	i.mu.RUnlock()
	return Status{
		Name:    i.config.Name,
		Version: i.config.Version,
		Running: running,
		Metrics: i.Metrics(),
	}
}
