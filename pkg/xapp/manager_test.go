// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package xapp

import (
	"testing"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/stretchr/testify/assert"
)

type testApp struct {
	initErr  error
	inits    int
	handled  int
	panicOn  int64
	instance *Instance
}

func (a *testApp) Init() error {
	a.inits++
	return a.initErr
}

func (a *testApp) HandleIndication(ind *e2ap.RICIndication) {
	if a.panicOn != 0 && ind.SequenceNumber == a.panicOn {
		panic("malformed payload")
	}
	a.handled++
}

func newTestInstance(name string) (*Instance, *testApp) {
	app := &testApp{}
	instance := NewInstance(Config{Name: name, Version: "1.0.0", StoreNamespace: name}, app)
	app.instance = instance
	return instance, app
}

func TestDeployUndeploy(t *testing.T) {
	m := NewManager()
	instance, app := newTestInstance("test-xapp")

	assert.True(t, m.Deploy(instance))
	assert.Equal(t, 1, app.inits)
	assert.True(t, instance.Running())

	status, err := m.Status("test-xapp")
	assert.NoError(t, err)
	assert.True(t, status.Running)

	assert.True(t, m.Undeploy("test-xapp"))
	assert.False(t, instance.Running())
	assert.Empty(t, m.List())

	_, err = m.Status("test-xapp")
	assert.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	assert.False(t, m.Undeploy("test-xapp"))
}

func TestDeployDuplicateName(t *testing.T) {
	m := NewManager()
	first, _ := newTestInstance("test-xapp")
	second, app2 := newTestInstance("test-xapp")

	assert.True(t, m.Deploy(first))
	assert.False(t, m.Deploy(second))

	// the existing instance is untouched and the duplicate never initialized
	assert.True(t, first.Running())
	assert.False(t, second.Running())
	assert.Equal(t, 0, app2.inits)
	assert.Len(t, m.List(), 1)
}

func TestDeployInitFailure(t *testing.T) {
	m := NewManager()
	instance, app := newTestInstance("broken-xapp")
	app.initErr = errors.New(errors.Internal, "no store")

	assert.False(t, m.Deploy(instance))
	assert.False(t, instance.Running())
	assert.Empty(t, m.List())
}

func TestStartStopIdempotent(t *testing.T) {
	instance, _ := newTestInstance("test-xapp")

	instance.Start()
	instance.Start()
	assert.True(t, instance.Running())

	instance.Stop()
	instance.Stop()
	assert.False(t, instance.Running())
}

func TestMetricsLastWriteWins(t *testing.T) {
	instance, _ := newTestInstance("test-xapp")

	instance.UpdateMetric("rsrp_dbm", -90.0)
	instance.UpdateMetric("rsrp_dbm", -85.5)

	metrics := instance.Metrics()
	assert.Len(t, metrics, 1)
	assert.Equal(t, -85.5, metrics["rsrp_dbm"].Value)
	assert.False(t, metrics["rsrp_dbm"].Timestamp.IsZero())
}

func TestHandleIndicationFailSoft(t *testing.T) {
	instance, app := newTestInstance("test-xapp")
	app.panicOn = 2
	instance.Start()

	for seq := int64(1); seq <= 3; seq++ {
		instance.HandleIndication(&e2ap.RICIndication{
			NodeID:         "gnb-001",
			RanFunctionID:  10,
			SequenceNumber: seq,
			Header:         []byte(`{}`),
		})
	}

	assert.Equal(t, 2, app.handled)
	assert.Equal(t, 1.0, instance.Metrics()["handler_failures"].Value)
}

func TestStoppedInstanceDropsIndications(t *testing.T) {
	instance, app := newTestInstance("test-xapp")

	instance.HandleIndication(&e2ap.RICIndication{NodeID: "gnb-001", Header: []byte(`{}`)})
	assert.Equal(t, 0, app.handled)
}

func TestListOrdering(t *testing.T) {
	m := NewManager()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		instance, _ := newTestInstance(name)
		assert.True(t, m.Deploy(instance))
	}
	list := m.List()
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{list[0].Name, list[1].Name, list[2].Name})
}
