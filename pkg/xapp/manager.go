// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package xapp

import (
	"sort"
	"sync"

	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// Manager owns the mapping from unique xApp name to running instance
type Manager struct {
	mu    sync.RWMutex
	xapps map[string]*Instance
}

// NewManager creates a new xApp manager
func NewManager() *Manager {
	return &Manager{
		xapps: make(map[string]*Instance),
	}
}

// Deploy registers and starts an instance. Returns false without touching
// the existing instance when the name is already taken, or when the xApp's
// one-time init fails.
func (m *Manager) Deploy(instance *Instance) bool {
	name := instance.ID()
	m.mu.Lock()
	if _, ok := m.xapps[name]; ok {
		m.mu.Unlock()
		log.Warnf("xapp %s is already deployed", name)
		return false
	}
	// reserve the name before running init so concurrent deploys cannot race
	m.xapps[name] = instance
	m.mu.Unlock()

	if err := instance.init(); err != nil {
		log.Warnf("xapp %s init failed: %v", name, err)
		m.mu.Lock()
		delete(m.xapps, name)
		m.mu.Unlock()
		return false
	}
	instance.Start()
	log.Infof("xapp %s version %s deployed", name, instance.Config().Version)
	return true
}

// Undeploy stops and removes an instance by name; false when absent
func (m *Manager) Undeploy(name string) bool {
	m.mu.Lock()
	instance, ok := m.xapps[name]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.xapps, name)
	m.mu.Unlock()

	instance.Stop()
	log.Infof("xapp %s undeployed", name)
	return true
}

// Get returns the live instance registered under a name
func (m *Manager) Get(name string) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	instance, ok := m.xapps[name]
	if !ok {
		return nil, errors.New(errors.NotFound, "xapp %s not found", name)
	}
	return instance, nil
}

// List returns a status snapshot of every deployed xApp, ordered by name
func (m *Manager) List() []Status {
	m.mu.RLock()
	instances := make([]*Instance, 0, len(m.xapps))
	for _, instance := range m.xapps {
		instances = append(instances, instance)
	}
	m.mu.RUnlock()

	statuses := make([]Status, 0, len(instances))
	for _, instance := range instances {
		statuses = append(statuses, instance.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// Status returns the status of one xApp; an explicit not-found error when
// the name is absent
func (m *Manager) Status(name string) (*Status, error) {
	instance, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	status := instance.Status()
	return &status, nil
}

// StopAll stops every deployed instance without removing it
func (m *Manager) StopAll() {
	for _, status := range m.List() {
		if instance, err := m.Get(status.Name); err == nil {
			instance.Stop()
		}
	}
}
