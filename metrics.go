// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cfgbin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what readers decode.  A nil *Metrics records nothing.
type Metrics struct {
	recordsRead  prometheus.Counter
	groupsRead   prometheus.Counter
	bulkLoads    *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	readErrors   *prometheus.CounterVec
}

// NewMetrics creates the reader metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		recordsRead: f.NewCounter(prometheus.CounterOpts{
			Name: "cfgbin_records_read_total",
			Help: "Total number of records decoded",
		}),
		groupsRead: f.NewCounter(prometheus.CounterOpts{
			Name: "cfgbin_groups_read_total",
			Help: "Total number of record groups decoded",
		}),
		bulkLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cfgbin_bulk_loads_total",
			Help: "Total number of completed bulk loads",
		}, []string{"strategy", "status"}),
		loadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cfgbin_bulk_load_duration_seconds",
			Help:    "Wall time from the start of a bulk load to its completion",
			Buckets: prometheus.DefBuckets,
		}, []string{"strategy"}),
		readErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cfgbin_read_errors_total",
			Help: "Total number of failed reads",
		}, []string{"kind"}),
	}
}

func (m *Metrics) groupRead(records int) {
	if m == nil {
		return
	}
	m.groupsRead.Inc()
	m.recordsRead.Add(float64(records))
}

func (m *Metrics) readError(err error) {
	if m == nil || err == nil {
		return
	}
	m.readErrors.WithLabelValues(errKind(err)).Inc()
}

func (m *Metrics) bulkLoad(strategy string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.bulkLoads.WithLabelValues(strategy, status).Inc()
	m.loadDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}
