// Copyright 2025 The Arcan Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package discovery

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zengwei2000/arcan/pkg/metrics"
)

// Metrics instruments the discovery service.
type Metrics struct {
	// BeaconsSent counts beacon packets broadcast by the emitter.
	BeaconsSent metrics.Counter
	// BeaconsReceived counts structurally acceptable packets on the
	// listener.
	BeaconsReceived metrics.Counter
	// PairsRejected counts pair validation failures, labeled by reason.
	PairsRejected metrics.Counter
	// PairsCompleted counts validated beacon pairs.
	PairsCompleted metrics.Counter
	// KeysRecognized counts blinded entries matched to known keys.
	KeysRecognized metrics.Counter
}

// NewMetrics creates discovery metrics backed by the default prometheus
// registry.
func NewMetrics() *Metrics {
	return &Metrics{
		BeaconsSent: metrics.NewPromCounterFrom(prometheus.CounterOpts{
			Name: "discovery_beacons_sent_total",
			Help: "Total number of beacon packets broadcast.",
		}, []string{}),
		BeaconsReceived: metrics.NewPromCounterFrom(prometheus.CounterOpts{
			Name: "discovery_beacons_received_total",
			Help: "Total number of beacon packets received.",
		}, []string{}),
		PairsRejected: metrics.NewPromCounterFrom(prometheus.CounterOpts{
			Name: "discovery_pairs_rejected_total",
			Help: "Total number of beacon pairs rejected, by reason.",
		}, []string{"reason"}),
		PairsCompleted: metrics.NewPromCounterFrom(prometheus.CounterOpts{
			Name: "discovery_pairs_completed_total",
			Help: "Total number of beacon pairs validated.",
		}, []string{}),
		KeysRecognized: metrics.NewPromCounterFrom(prometheus.CounterOpts{
			Name: "discovery_keys_recognized_total",
			Help: "Total number of advertised keys matched to the keystore.",
		}, []string{}),
	}
}
