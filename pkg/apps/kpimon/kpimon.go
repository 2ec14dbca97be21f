// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package kpimon

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel/kpm"
	"github.com/onosproject/onos-ntn-ric/pkg/store"
	"github.com/onosproject/onos-ntn-ric/pkg/xapp"
)

var log = logging.GetLogger("apps", "kpimon")

// Name is the xApp instance name
const Name = "kpimon"

// metrics is the slice of the runtime the app reports through
type metrics interface {
	UpdateMetric(name string, value float64)
}

// XApp monitors E2SM-KPM indications and keeps the latest sample of every
// measurement in the measurement store, keyed by node, metric and UE.
type XApp struct {
	sm           *kpm.ServiceModel
	measurements store.Store
	metrics      metrics

	indications  int64
	records      int64
	decodeErrors int64
}

// NewInstance builds the kpimon xApp wrapped in its runtime instance
func NewInstance(measurements store.Store) (*xapp.Instance, *XApp) {
	app := &XApp{
		sm:           kpm.NewServiceModel(),
		measurements: measurements,
	}
	instance := xapp.NewInstance(xapp.Config{
		Name:           Name,
		Version:        "1.0.0",
		Description:    "KPM KPI monitor",
		StoreNamespace: Name,
		Subscriptions: []xapp.SubscriptionSpec{
			{RanFunctionID: kpm.RanFunctionID, TriggerType: "periodic", PeriodMs: 1000},
		},
	}, app)
	app.metrics = instance
	return instance, app
}

// Init implements xapp.XApp
func (a *XApp) Init() error {
	log.Infof("%s initialized, effective encoding %s", Name, a.sm.EffectiveEncoding())
	return nil
}

// HandleIndication implements xapp.XApp
func (a *XApp) HandleIndication(ind *e2ap.RICIndication) {
	a.metrics.UpdateMetric("indications_received", float64(atomic.AddInt64(&a.indications, 1)))

	header, err := servicemodel.DecodeHeader(ind.Header)
	if err != nil || header.RanFunctionID != kpm.RanFunctionID {
		a.failSoft("indication with foreign or malformed header from %s: %v", ind.NodeID, err)
		return
	}

	msg, err := a.sm.DecodeIndicationMessage(ind.Payload)
	if err != nil {
		a.failSoft("malformed KPM payload from %s: %v", ind.NodeID, err)
		return
	}

	ctx := context.Background()
	for _, record := range msg.Records {
		key := recordKey(ind.NodeID, record)
		if _, err := a.measurements.Put(ctx, key, record); err != nil {
			log.Warn(err)
		}
	}
	a.metrics.UpdateMetric("records_received", float64(atomic.AddInt64(&a.records, int64(len(msg.Records)))))
}

func (a *XApp) failSoft(format string, args ...interface{}) {
	log.Warnf(format, args...)
	a.metrics.UpdateMetric("decode_errors", float64(atomic.AddInt64(&a.decodeErrors, 1)))
}

func recordKey(nodeID string, record kpm.MeasurementRecord) string {
	if record.UEID != "" {
		return fmt.Sprintf("%s/%s/%s", nodeID, record.Type, record.UEID)
	}
	return fmt.Sprintf("%s/%s", nodeID, record.Type)
}
