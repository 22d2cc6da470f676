// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/hoptrace/pkg"
)

const (
	instanceInfoMetricName = "hoptrace_instance_info"
	instanceInfoHelp       = "Version, target and schedule of this hoptrace instance. Always 1."
)

// RegisterInstanceInfo registers the hoptrace_instance_info info-style metric on the given registry.
// It sets the gauge to 1 with labels version, target and schedule.
func RegisterInstanceInfo(registry prometheus.Registerer, target, schedule string) error {
	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: instanceInfoMetricName,
			Help: instanceInfoHelp,
		},
		[]string{"version", "target", "schedule"},
	)
	info.WithLabelValues(pkg.Version, target, schedule).Set(1)
	return registry.Register(info)
}
