// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package bootstrap

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/mongoseed/pkg/storage"
)

// Outcome label values for mongoseed_bootstrap_runs_total.
const (
	outcomeCreated      = "created"
	outcomeNoop         = "noop"
	outcomeSeeded       = "seeded"
	outcomeConnectivity = "connectivity_error"
	outcomePermission   = "permission_error"
	outcomeError        = "error"
)

// metricsBootstrap holds Prometheus metrics for bootstrap runs.
type metricsBootstrap struct {
	once sync.Once

	runs          *prometheus.CounterVec
	created       prometheus.Counter
	seeded        prometheus.Counter
	totalDuration prometheus.Histogram
}

var bootMetrics metricsBootstrap

func (m *metricsBootstrap) init() {
	m.once.Do(func() {
		m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mongoseed_bootstrap_runs_total", Help: "Bootstrap runs by outcome"}, []string{"outcome"})
		m.created = prometheus.NewCounter(prometheus.CounterOpts{Name: "mongoseed_collections_created_total", Help: "Collections created by the bootstrap"})
		m.seeded = prometheus.NewCounter(prometheus.CounterOpts{Name: "mongoseed_documents_seeded_total", Help: "Seed documents inserted"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "mongoseed_bootstrap_seconds", Help: "Duration of a bootstrap run", Buckets: buckets})

		prometheus.MustRegister(m.runs, m.created, m.seeded, m.totalDuration)
	})
}

func recordRun(res *Result, err error) {
	bootMetrics.init()
	bootMetrics.totalDuration.Observe(res.Duration.Seconds())
	bootMetrics.runs.WithLabelValues(outcome(res, err)).Inc()
	if err != nil {
		return
	}
	if res.Created {
		bootMetrics.created.Inc()
	}
	if res.Seeded {
		bootMetrics.seeded.Inc()
	}
}

func outcome(res *Result, err error) string {
	switch {
	case storage.IsConnectivity(err):
		return outcomeConnectivity
	case storage.IsPermission(err):
		return outcomePermission
	case err != nil:
		return outcomeError
	case res.Created:
		return outcomeCreated
	case res.Seeded:
		return outcomeSeeded
	}
	return outcomeNoop
}
