// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package northbound

import (
	"github.com/onosproject/onos-ntn-ric/pkg/xapp"
	"github.com/prometheus/client_golang/prometheus"
)

// xappCollector exports every deployed xApp's metric map. Metrics are
// collected on scrape, not pushed, so the exporter never sits on the
// indication path.
type xappCollector struct {
	xapps       *xapp.Manager
	metricDesc  *prometheus.Desc
	runningDesc *prometheus.Desc
}

func newXAppCollector(xapps *xapp.Manager) *xappCollector {
	return &xappCollector{
		xapps: xapps,
		metricDesc: prometheus.NewDesc(
			"ric_xapp_metric",
			"Last reported value of an xApp metric",
			[]string{"xapp", "metric"}, nil),
		runningDesc: prometheus.NewDesc(
			"ric_xapp_running",
			"Whether the xApp instance is running",
			[]string{"xapp"}, nil),
	}
}

func (c *xappCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.metricDesc
	ch <- c.runningDesc
}

func (c *xappCollector) Collect(ch chan<- prometheus.Metric) {
	for _, status := range c.xapps.List() {
		running := 0.0
		if status.Running {
			running = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.runningDesc, prometheus.GaugeValue, running, status.Name)
		for name, metric := range status.Metrics {
			ch <- prometheus.MustNewConstMetric(c.metricDesc, prometheus.GaugeValue, metric.Value, status.Name, name)
		}
	}
}

var _ prometheus.Collector = &xappCollector{}
