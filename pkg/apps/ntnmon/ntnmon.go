// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package ntnmon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/onosproject/onos-ntn-ric/pkg/e2ap"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel"
	"github.com/onosproject/onos-ntn-ric/pkg/servicemodel/ntn"
	"github.com/onosproject/onos-ntn-ric/pkg/store"
	"github.com/onosproject/onos-ntn-ric/pkg/store/sdl"
	"github.com/onosproject/onos-ntn-ric/pkg/xapp"
)

var log = logging.GetLogger("apps", "ntnmon")

// Name is the xApp instance name
const Name = "ntnmon"

// UEState is the live satellite link state tracked per UE
type UEState struct {
	UEID           string             `json:"ue_id"`
	NodeID         string             `json:"node_id"`
	SatelliteState ntn.SatelliteState `json:"satellite_state"`
	Measurements   ntn.UEMeasurements `json:"ue_measurements"`
	SequenceNumber int64              `json:"sequence_number"`
	UpdatedMs      int64              `json:"updated_ms"`
}

// metrics is the slice of the runtime the app reports through
type metrics interface {
	UpdateMetric(name string, value float64)
}

// XApp monitors E2SM-NTN indications: it tracks per-UE satellite link state
// in the measurement store and persists the latest state through the SDL so
// it survives restarts.
type XApp struct {
	sm           *ntn.ServiceModel
	measurements store.Store
	sdl          *sdl.Client
	metrics      metrics

	indications  int64
	decodeErrors int64
}

// NewInstance builds the ntnmon xApp wrapped in its runtime instance
func NewInstance(measurements store.Store, sdlClient *sdl.Client) (*xapp.Instance, *XApp) {
	app := &XApp{
		sm:           ntn.NewServiceModel(),
		measurements: measurements,
		sdl:          sdlClient,
	}
	instance := xapp.NewInstance(xapp.Config{
		Name:           Name,
		Version:        "1.0.0",
		Description:    "NTN satellite link monitor",
		StoreNamespace: Name,
		Subscriptions: []xapp.SubscriptionSpec{
			{RanFunctionID: ntn.RanFunctionID, TriggerType: "periodic", PeriodMs: 1000},
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

// HandleIndication implements xapp.XApp. Malformed content is absorbed: the
// decode error metric is bumped and the indication dropped.
func (a *XApp) HandleIndication(ind *e2ap.RICIndication) {
	a.metrics.UpdateMetric("indications_received", float64(atomic.AddInt64(&a.indications, 1)))

	header, err := servicemodel.DecodeHeader(ind.Header)
	if err != nil || header.RanFunctionID != ntn.RanFunctionID {
		a.failSoft("indication with foreign or malformed header from %s: %v", ind.NodeID, err)
		return
	}

	msg, err := a.sm.DecodeIndicationMessage(ind.Payload)
	if err != nil {
		a.failSoft("malformed NTN payload from %s: %v", ind.NodeID, err)
		return
	}

	state := &UEState{
		UEID:           msg.UEID,
		NodeID:         ind.NodeID,
		SatelliteState: msg.SatelliteState,
		Measurements:   msg.Measurements,
		SequenceNumber: ind.SequenceNumber,
		UpdatedMs:      time.Now().UnixMilli(),
	}

	ctx := context.Background()
	if _, err := a.measurements.Put(ctx, msg.UEID, state); err != nil {
		log.Warn(err)
	}
	a.metrics.UpdateMetric("last_rsrp_dbm", msg.Measurements.RsrpDbm)
	a.metrics.UpdateMetric("last_elevation_deg", msg.SatelliteState.ElevationDeg)

	// persistence is fire and forget; delivery ordering never waits on the SDL
	if a.sdl != nil {
		go func() {
			a.sdl.Set(context.Background(), "ue/"+state.UEID, state)
		}()
	}
}

func (a *XApp) failSoft(format string, args ...interface{}) {
	log.Warnf(format, args...)
	a.metrics.UpdateMetric("decode_errors", float64(atomic.AddInt64(&a.decodeErrors, 1)))
}
