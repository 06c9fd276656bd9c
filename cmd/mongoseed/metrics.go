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

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// pushTimeout bounds a single push. The gateway may accept the connection
// and never answer.
var pushTimeout = defaultConnectTimeout

// pushMetrics sends the default registry to a Prometheus Pushgateway,
// grouped by database and collection. A one-shot run cannot be scraped.
func pushMetrics(ctx context.Context, gateway string, cfg *Config) error {
	return pushFrom(ctx, prometheus.DefaultGatherer, gateway, cfg)
}

func pushFrom(ctx context.Context, g prometheus.Gatherer, gateway string, cfg *Config) error {
	if gateway == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	err := push.New(gateway, cfg.Metrics.Job).
		Gatherer(g).
		Grouping("database", cfg.Mongo.Database).
		Grouping("collection", cfg.Bootstrap.Collection).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", gateway, err)
	}
	slog.Debug("metrics.pushed", "gateway", gateway, "job", cfg.Metrics.Job)
	return nil
}
