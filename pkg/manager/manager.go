// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/apps/kpimon"
	"github.com/onosproject/onos-ntn-ric/pkg/apps/ntnmon"
	"github.com/onosproject/onos-ntn-ric/pkg/config"
	"github.com/onosproject/onos-ntn-ric/pkg/e2"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/onosproject/onos-ntn-ric/pkg/northbound"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel/kpm"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel/ntn"
	southbound "github.com/onosproject/onos-ntn-ric/pkg/southbound/e2"
	"github.com/onosproject/onos-ntn-ric/pkg/store"
	"github.com/onosproject/onos-ntn-ric/pkg/store/sdl"
	"github.com/onosproject/onos-ntn-ric/pkg/xapp"
)

var log = logging.GetLogger("manager")

const (
	nodeProbePeriod = 2 * time.Second
	backoffInterval = 10 * time.Millisecond
	maxBackoffTime  = 5 * time.Second
)

func newExpBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = backoffInterval
	// MaxInterval caps the RetryInterval
	b.MaxInterval = maxBackoffTime
	// Never stops retrying
	b.MaxElapsedTime = 0
	return b
}

// Manager assembles the RIC: the E2 interface manager, the xApp runtime,
// the northbound server, and the supervision loops that keep configured E2
// nodes connected.
type Manager struct {
	cfg       config.Config
	e2Manager *e2.Manager
	xapps     *xapp.Manager
	nbServer  *northbound.Server

	cancel context.CancelFunc
}

// NewManager creates a new manager from the process configuration
func NewManager(cfg config.Config) *Manager {
	e2Manager := e2.NewManager()
	xapps := xapp.NewManager()
	return &Manager{
		cfg:       cfg,
		e2Manager: e2Manager,
		xapps:     xapps,
		nbServer:  northbound.NewServer(cfg.Northbound.HTTPPort, e2Manager, xapps),
	}
}

// Run starts the manager and the associated services
func (m *Manager) Run() {
	log.Info("Running Manager")
	if err := m.start(); err != nil {
		log.Fatal("Unable to run Manager", err)
	}
}

func (m *Manager) start() error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	if err := m.e2Manager.Start(); err != nil {
		return err
	}
	m.deployXApps()
	if err := m.nbServer.Start(); err != nil {
		return err
	}
	for _, node := range m.cfg.E2.Nodes {
		go m.superviseNode(ctx, node)
	}
	return nil
}

// Close tears the services down in reverse start order
func (m *Manager) Close() {
	log.Info("Closing Manager")
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.nbServer.Stop(ctx); err != nil {
		log.Warn(err)
	}
	m.xapps.StopAll()
	if err := m.e2Manager.Stop(); err != nil {
		log.Warn(err)
	}
}

// deployXApps deploys the bundled xApps named in the configuration. Each
// app gets its own measurement store and its own SDL namespace.
func (m *Manager) deployXApps() {
	for _, name := range m.cfg.XApps {
		var instance *xapp.Instance
		switch name {
		case ntnmon.Name:
			instance, _ = ntnmon.NewInstance(store.NewStore(), m.newSDLClient(ntnmon.Name))
		case kpimon.Name:
			instance, _ = kpimon.NewInstance(store.NewStore())
		default:
			log.Warnf("unknown xapp %s in configuration, skipping", name)
			continue
		}
		if !m.xapps.Deploy(instance) {
			log.Warnf("xapp %s failed to deploy", name)
		}
	}
}

func (m *Manager) newSDLClient(namespace string) *sdl.Client {
	var opts []sdl.Option
	if m.cfg.SDL.RedisAddress != "" {
		opts = append(opts, sdl.WithRedisAddress(m.cfg.SDL.RedisAddress), sdl.WithRedisDB(m.cfg.SDL.RedisDB))
	}
	return sdl.NewClient(namespace, opts...)
}

// superviseNode keeps one configured E2 node connected: connect with
// exponential backoff, apply the deployed xApps' subscriptions, then watch
// the association and start over when it drops.
func (m *Manager) superviseNode(ctx context.Context, node config.NodeConfig) {
	functions := m.resolveFunctions(node.Functions)
	for {
		connect := func() error {
			return m.e2Manager.ConnectNode(ctx, node.Address, node.NodeID, functions,
				southbound.WithSetupTimeout(m.cfg.SetupTimeout()),
				southbound.WithRequestTimeout(m.cfg.RequestTimeout()))
		}
		notifier := func(err error, t time.Duration) {
			log.Infof("Retrying, failed to connect E2 node %s due to %s", node.NodeID, err)
		}
		if err := backoff.RetryNotify(connect, backoff.WithContext(newExpBackoff(), ctx), notifier); err != nil {
			return
		}
		m.applySubscriptions(ctx, node.NodeID)

		if !m.waitForDisconnect(ctx, node.NodeID) {
			return
		}
		log.Infof("E2 node %s association lost, reconnecting", node.NodeID)
	}
}

// waitForDisconnect blocks until the node loses its association. It returns
// false when the context is cancelled instead.
func (m *Manager) waitForDisconnect(ctx context.Context, nodeID string) bool {
	ticker := time.NewTicker(nodeProbePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			node, err := m.e2Manager.GetNode(nodeID)
			if err != nil || !node.Connected {
				return true
			}
		}
	}
}

// applySubscriptions creates the subscriptions every deployed xApp asks for
// on one node, skipping functions the node does not advertise
func (m *Manager) applySubscriptions(ctx context.Context, nodeID string) {
	node, err := m.e2Manager.GetNode(nodeID)
	if err != nil {
		log.Warn(err)
		return
	}
	for _, status := range m.xapps.List() {
		instance, err := m.xapps.Get(status.Name)
		if err != nil {
			continue
		}
		for _, spec := range instance.Config().Subscriptions {
			if !node.HasFunction(spec.RanFunctionID) {
				continue
			}
			params := e2ap.ReportingParams{TriggerType: spec.TriggerType, PeriodMs: spec.PeriodMs}
			if _, err := m.e2Manager.Subscribe(ctx, nodeID, spec.RanFunctionID, instance, params); err != nil {
				if !errors.IsAlreadyExists(err) {
					log.Warnf("subscription for %s on (%s, %d) failed: %v",
						status.Name, nodeID, spec.RanFunctionID, err)
				}
			}
		}
	}
}

// resolveFunctions maps configured RAN function ids onto the service model
// catalogue carried at setup time
func (m *Manager) resolveFunctions(ids []int32) []e2ap.RanFunction {
	functions := make([]e2ap.RanFunction, 0, len(ids))
	for _, id := range ids {
		switch id {
		case kpm.RanFunctionID:
			functions = append(functions, kpm.NewServiceModel().RanFunction())
		case ntn.RanFunctionID:
			functions = append(functions, ntn.NewServiceModel().RanFunction())
		default:
			log.Warnf("no service model for RAN function %d, skipping", id)
		}
	}
	return functions
}

// E2Manager returns the E2 interface manager
func (m *Manager) E2Manager() *e2.Manager {
	return m.e2Manager
}

// XAppManager returns the xApp manager
func (m *Manager) XAppManager() *xapp.Manager {
	return m.xapps
}
